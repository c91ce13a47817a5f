package engine

import (
	"context"
	"strings"

	"github.com/spendscope/spendscope/internal/common"
	"github.com/spendscope/spendscope/internal/model"
	"github.com/spendscope/spendscope/internal/service"
)

// MockStorage is an in-memory Storage implementation for tests.
type MockStorage struct {
	fingerprint *model.Fingerprint
	records     []model.Record
	alerts      []model.Alert
}

// NewMockStorage creates an empty in-memory storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{}
}

// SaveRecords appends records to the in-memory list.
func (m *MockStorage) SaveRecords(_ context.Context, records []model.Record) error {
	m.records = append(m.records, records...)
	return nil
}

// UpdateRecordScores replaces stored records that share an ID with the input.
func (m *MockStorage) UpdateRecordScores(_ context.Context, records []model.Record) error {
	byID := make(map[string]model.Record, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}
	for i, existing := range m.records {
		if updated, ok := byID[existing.ID]; ok {
			m.records[i] = updated
		}
	}
	return nil
}

// GetRecords returns stored records, applying the filter.
func (m *MockStorage) GetRecords(_ context.Context, filter service.RecordFilter) ([]model.Record, error) {
	out := make([]model.Record, 0, len(m.records))
	for _, rec := range m.records {
		if filter.StartDate != nil && rec.Timestamp.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && rec.Timestamp.After(*filter.EndDate) {
			continue
		}
		if filter.Category != nil && rec.Category != *filter.Category {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// GetRecordByID looks a record up by ID.
func (m *MockStorage) GetRecordByID(_ context.Context, id string) (*model.Record, error) {
	for _, rec := range m.records {
		if rec.ID == id {
			out := rec
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

// CountRecords returns the stored record count.
func (m *MockStorage) CountRecords(_ context.Context) (int, error) {
	return len(m.records), nil
}

// GetFingerprint returns the stored fingerprint, nil when none exists.
func (m *MockStorage) GetFingerprint(_ context.Context) (*model.Fingerprint, error) {
	if m.fingerprint == nil {
		return nil, nil
	}
	return m.fingerprint.Clone(), nil
}

// SaveFingerprint replaces the stored fingerprint.
func (m *MockStorage) SaveFingerprint(_ context.Context, fp *model.Fingerprint) error {
	m.fingerprint = fp.Clone()
	return nil
}

// SaveAlerts appends alerts.
func (m *MockStorage) SaveAlerts(_ context.Context, alerts []model.Alert) error {
	m.alerts = append(m.alerts, alerts...)
	return nil
}

// GetAlerts returns stored alerts, applying the filter.
func (m *MockStorage) GetAlerts(_ context.Context, filter service.AlertFilter) ([]model.Alert, error) {
	var out []model.Alert
	for _, a := range m.alerts {
		if a.Dismissed && !filter.IncludeDismissed {
			continue
		}
		if filter.UnreadOnly && a.Read {
			continue
		}
		if filter.Level != nil && a.Level != *filter.Level {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// MarkAlertRead flags an alert as read.
func (m *MockStorage) MarkAlertRead(_ context.Context, id string) error {
	return m.setAlertFlag(id, func(a *model.Alert) { a.MarkRead() })
}

// DismissAlert flags an alert as dismissed.
func (m *MockStorage) DismissAlert(_ context.Context, id string) error {
	return m.setAlertFlag(id, func(a *model.Alert) { a.Dismiss() })
}

// ClearAlerts removes all alerts.
func (m *MockStorage) ClearAlerts(_ context.Context) error {
	m.alerts = nil
	return nil
}

// Migrate is a no-op for the in-memory mock.
func (m *MockStorage) Migrate(_ context.Context) error { return nil }

// Close is a no-op for the in-memory mock.
func (m *MockStorage) Close() error { return nil }

func (m *MockStorage) setAlertFlag(id string, apply func(*model.Alert)) error {
	for i := range m.alerts {
		if strings.EqualFold(m.alerts[i].ID, id) {
			apply(&m.alerts[i])
			return nil
		}
	}
	return common.ErrNotFound
}
