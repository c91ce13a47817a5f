// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/spendscope/spendscope/internal/model"
)

// RecordFilter defines filtering options for record queries.
type RecordFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Category  *model.Category
	Limit     int
}

// AlertFilter defines filtering options for alert queries.
type AlertFilter struct {
	Level      *model.RiskLevel
	UnreadOnly bool
	// IncludeDismissed keeps dismissed alerts in the result; by default
	// they are filtered out.
	IncludeDismissed bool
}

// Storage defines the contract for the persistence layer. The engine is
// the only writer during a processing pass; external callers must
// serialize writes because the engine computes each fingerprint from the
// last value it was handed, not from a re-read copy.
type Storage interface {
	// Record operations
	SaveRecords(ctx context.Context, records []model.Record) error
	UpdateRecordScores(ctx context.Context, records []model.Record) error
	GetRecords(ctx context.Context, filter RecordFilter) ([]model.Record, error)
	GetRecordByID(ctx context.Context, id string) (*model.Record, error)
	CountRecords(ctx context.Context) (int, error)

	// Fingerprint operations: the fingerprint is read and written as a
	// whole object.
	GetFingerprint(ctx context.Context) (*model.Fingerprint, error)
	SaveFingerprint(ctx context.Context, fp *model.Fingerprint) error

	// Alert operations
	SaveAlerts(ctx context.Context, alerts []model.Alert) error
	GetAlerts(ctx context.Context, filter AlertFilter) ([]model.Alert, error)
	MarkAlertRead(ctx context.Context, id string) error
	DismissAlert(ctx context.Context, id string) error
	ClearAlerts(ctx context.Context) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
