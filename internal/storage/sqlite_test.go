package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendscope/spendscope/internal/common"
	"github.com/spendscope/spendscope/internal/model"
	"github.com/spendscope/spendscope/internal/service"
)

func setupStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	s, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))

	t.Cleanup(func() { _ = s.Close() })
	return s
}

func storedRecord(id, merchant string, amount float64, ts time.Time) model.Record {
	rec := model.Record{
		ID:         id,
		Merchant:   merchant,
		Amount:     amount,
		Timestamp:  ts,
		Mode:       model.ModeCard,
		Category:   model.CategoryFood,
		TimeBucket: model.BucketAfternoon,
		Intensity:  1.0,
		RiskLevel:  model.RiskGreen,
	}
	rec.Hash = rec.GenerateHash()
	return rec
}

func TestMigrate_ReachesExpectedVersion(t *testing.T) {
	s := setupStorage(t)

	version, err := s.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again is a no-op.
	require.NoError(t, s.Migrate(context.Background()))
}

func TestRecords_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupStorage(t)

	ts := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	rec := storedRecord("r1", "Zomato", 450, ts)
	rec.Note = "team lunch"
	rec.RiskScore = 0.28
	rec.RiskReason = "3.0x your usual Food & Dining spend"

	require.NoError(t, s.SaveRecords(ctx, []model.Record{rec}))

	got, err := s.GetRecordByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, rec.Merchant, got.Merchant)
	assert.InDelta(t, rec.Amount, got.Amount, 1e-9)
	assert.Equal(t, rec.Mode, got.Mode)
	assert.Equal(t, rec.Category, got.Category)
	assert.Equal(t, rec.Note, got.Note)
	assert.Equal(t, rec.RiskReason, got.RiskReason)
	assert.True(t, rec.Timestamp.Equal(got.Timestamp))
}

func TestRecords_DuplicateHashIgnored(t *testing.T) {
	ctx := context.Background()
	s := setupStorage(t)

	ts := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	first := storedRecord("r1", "Zomato", 450, ts)
	second := storedRecord("r2", "Zomato", 450, ts) // same content, new id

	require.NoError(t, s.SaveRecords(ctx, []model.Record{first}))
	require.NoError(t, s.SaveRecords(ctx, []model.Record{second}))

	count, err := s.CountRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecords_FilterAndOrdering(t *testing.T) {
	ctx := context.Background()
	s := setupStorage(t)

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	records := []model.Record{
		storedRecord("r2", "B", 20, base.AddDate(0, 0, 1)),
		storedRecord("r1", "A", 10, base),
		storedRecord("r3", "C", 30, base.AddDate(0, 0, 2)),
	}
	require.NoError(t, s.SaveRecords(ctx, records))

	all, err := s.GetRecords(ctx, service.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r1", all[0].ID)
	assert.Equal(t, "r3", all[2].ID)

	from := base.AddDate(0, 0, 1)
	filtered, err := s.GetRecords(ctx, service.RecordFilter{StartDate: &from})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
}

func TestRecords_UpdateScoresKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	s := setupStorage(t)

	rec := storedRecord("r1", "Zomato", 450, time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC))
	require.NoError(t, s.SaveRecords(ctx, []model.Record{rec}))

	rec.RiskLevel = model.RiskRed
	rec.RiskScore = 0.72
	rec.RiskReason = "rescored"
	require.NoError(t, s.UpdateRecordScores(ctx, []model.Record{rec}))

	got, err := s.GetRecordByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, model.RiskRed, got.RiskLevel)
	assert.InDelta(t, 0.72, got.RiskScore, 1e-9)
	assert.InDelta(t, 450, got.Amount, 1e-9)
}

func TestGetRecordByID_NotFound(t *testing.T) {
	s := setupStorage(t)

	_, err := s.GetRecordByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestFingerprint_EmptyDatabase(t *testing.T) {
	s := setupStorage(t)

	fp, err := s.GetFingerprint(context.Background())
	require.NoError(t, err)
	assert.Nil(t, fp)
}

func TestFingerprint_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupStorage(t)

	fp := model.NewFingerprint()
	fp.CategoryAverage[model.CategoryFood] = 150.5
	fp.CategoryAverage[model.CategoryTransport] = 90
	fp.HourFrequency[9] = 4
	fp.HourFrequency[22] = 1
	fp.WeeklyBurnRate = 2100
	fp.ToleranceBand = 0.8
	fp.TotalRecords = 12
	fp.LastUpdated = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fp.RecurringCosts = []model.RecurringCost{
		{Merchant: "Netflix", Amount: 999, Frequency: model.FrequencyMonthly,
			LastDetected: time.Date(2025, 5, 28, 9, 0, 0, 0, time.UTC)},
	}

	require.NoError(t, s.SaveFingerprint(ctx, fp))

	got, err := s.GetFingerprint(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, fp.CategoryAverage, got.CategoryAverage)
	assert.Equal(t, fp.HourFrequency, got.HourFrequency)
	assert.InDelta(t, fp.WeeklyBurnRate, got.WeeklyBurnRate, 1e-9)
	assert.InDelta(t, fp.ToleranceBand, got.ToleranceBand, 1e-9)
	assert.Equal(t, fp.TotalRecords, got.TotalRecords)
	require.Len(t, got.RecurringCosts, 1)
	assert.Equal(t, "Netflix", got.RecurringCosts[0].Merchant)
	assert.Equal(t, model.FrequencyMonthly, got.RecurringCosts[0].Frequency)
}

func TestFingerprint_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := setupStorage(t)

	first := model.NewFingerprint()
	first.TotalRecords = 5
	require.NoError(t, s.SaveFingerprint(ctx, first))

	second := model.NewFingerprint()
	second.TotalRecords = 9
	require.NoError(t, s.SaveFingerprint(ctx, second))

	got, err := s.GetFingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, got.TotalRecords)
}

func saveTestAlert(t *testing.T, s *SQLiteStorage, id string, level model.RiskLevel) model.Alert {
	t.Helper()

	rec := storedRecord("rec-"+id, "Zomato", 100, time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC).Add(time.Duration(len(id))*time.Minute))
	require.NoError(t, s.SaveRecords(context.Background(), []model.Record{rec}))

	a := model.Alert{
		ID:         id,
		RecordID:   rec.ID,
		Type:       model.AlertSpendingSpike,
		Level:      level,
		Reason:     "test reason",
		Action:     "test action",
		DetectedAt: time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveAlerts(context.Background(), []model.Alert{a}))
	return a
}

func TestAlerts_LifecycleFlags(t *testing.T) {
	ctx := context.Background()
	s := setupStorage(t)
	saveTestAlert(t, s, "a1", model.RiskAmber)

	require.NoError(t, s.MarkAlertRead(ctx, "a1"))

	alerts, err := s.GetAlerts(ctx, service.AlertFilter{})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].Read)
	assert.False(t, alerts[0].Dismissed)

	// Unread filter now excludes it.
	unread, err := s.GetAlerts(ctx, service.AlertFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread)

	// Dismissal hides it from default listings but keeps the read flag.
	require.NoError(t, s.DismissAlert(ctx, "a1"))
	visible, err := s.GetAlerts(ctx, service.AlertFilter{})
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := s.GetAlerts(ctx, service.AlertFilter{IncludeDismissed: true})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Read)
	assert.True(t, all[0].Dismissed)
}

func TestAlerts_LevelFilter(t *testing.T) {
	ctx := context.Background()
	s := setupStorage(t)
	saveTestAlert(t, s, "amber", model.RiskAmber)
	saveTestAlert(t, s, "red", model.RiskRed)

	red := model.RiskRed
	alerts, err := s.GetAlerts(ctx, service.AlertFilter{Level: &red})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "red", alerts[0].ID)
}

func TestAlerts_MarkMissingAlert(t *testing.T) {
	s := setupStorage(t)

	err := s.MarkAlertRead(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAlerts_Clear(t *testing.T) {
	ctx := context.Background()
	s := setupStorage(t)
	saveTestAlert(t, s, "a1", model.RiskAmber)

	require.NoError(t, s.ClearAlerts(ctx))

	alerts, err := s.GetAlerts(ctx, service.AlertFilter{IncludeDismissed: true})
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestSaveRecords_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := setupStorage(t)

	tests := []struct {
		name string
		rec  model.Record
	}{
		{"missing id", model.Record{Merchant: "X", Amount: 10, Timestamp: time.Now()}},
		{"missing merchant", model.Record{ID: "r1", Amount: 10, Timestamp: time.Now()}},
		{"negative amount", model.Record{ID: "r1", Merchant: "X", Amount: -5, Timestamp: time.Now()}},
		{"zero timestamp", model.Record{ID: "r1", Merchant: "X", Amount: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.SaveRecords(ctx, []model.Record{tt.rec})
			assert.Error(t, err)
		})
	}
}
