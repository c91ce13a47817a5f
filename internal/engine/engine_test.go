package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendscope/spendscope/internal/model"
	"github.com/spendscope/spendscope/internal/service"
)

var batchStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func raw(merchant string, amount float64, ts time.Time, mode model.PaymentMode) model.Record {
	return model.Record{
		Merchant:  merchant,
		Amount:    amount,
		Timestamp: ts,
		Mode:      mode,
	}
}

func TestProcessRecord_EmptyHistory(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	e := New(store)

	result, err := e.ProcessRecord(ctx, raw("Zomato", 450, batchStart, model.ModeCard))
	require.NoError(t, err)

	// First record ever: category resolved, neutral intensity, no baseline
	// to flag against.
	assert.Equal(t, model.CategoryFood, result.Record.Category)
	assert.InDelta(t, 1.0, result.Record.Intensity, 0)
	assert.Equal(t, model.RiskGreen, result.Record.RiskLevel)
	assert.Empty(t, result.Alerts)
	assert.Equal(t, 1, result.Fingerprint.TotalRecords)
	assert.NotEmpty(t, result.Record.ID)
	assert.NotEmpty(t, result.Record.Hash)

	// Everything persisted.
	stored, err := store.GetRecords(ctx, service.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	fp, err := store.GetFingerprint(ctx)
	require.NoError(t, err)
	require.NotNil(t, fp)
	assert.Equal(t, 1, fp.TotalRecords)
}

func TestProcessRecord_FingerprintAccumulates(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	e := New(store)

	for i := 0; i < 3; i++ {
		_, err := e.ProcessRecord(ctx, raw("Zomato", 150, batchStart.Add(time.Duration(i)*48*time.Hour), model.ModeCard))
		require.NoError(t, err)
	}

	fp, err := store.GetFingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, fp.TotalRecords)
	assert.Greater(t, fp.CategoryAverage[model.CategoryFood], 0.0)
}

func TestProcessRecord_DuplicateRaisesAlert(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	e := New(store)

	// Two modest payments build the baseline; the pair of near-identical
	// large payments ten minutes apart then scores non-green and must
	// classify as a duplicate.
	seed := []model.Record{
		raw("Zomato", 100, batchStart.AddDate(0, 0, -10), model.ModeCard),
		raw("Zomato", 100, batchStart.AddDate(0, 0, -5), model.ModeCard),
	}
	_, err := e.ProcessBatch(ctx, seed)
	require.NoError(t, err)

	_, err = e.ProcessRecord(ctx, raw("Zomato", 500, batchStart, model.ModeCard))
	require.NoError(t, err)

	result, err := e.ProcessRecord(ctx, raw("ZOMATO", 500.50, batchStart.Add(10*time.Minute), model.ModeCard))
	require.NoError(t, err)

	require.NotEmpty(t, result.Alerts)
	assert.Equal(t, model.AlertDuplicatePayment, result.Alerts[0].Type)
	assert.Equal(t, result.Record.ID, result.Alerts[0].RecordID)
}

func TestProcessBatch_SequenceRelativeContext(t *testing.T) {
	ctx := context.Background()

	later := raw("Zomato", 150, batchStart, model.ModeCard)
	earlier := raw("Zomato", 150, batchStart.Add(-time.Hour), model.ModeCard)

	// Chronological order: the second record sees the first as prior.
	chronoStore := NewMockStorage()
	chrono, err := New(chronoStore).ProcessBatch(ctx, []model.Record{earlier, later})
	require.NoError(t, err)

	// Reversed order: the earlier-timestamped record is processed last
	// but its only prior has a later timestamp, so no frequency signal.
	reversedStore := NewMockStorage()
	reversed, err := New(reversedStore).ProcessBatch(ctx, []model.Record{later, earlier})
	require.NoError(t, err)

	assert.Greater(t, chrono.Records[1].RiskScore, reversed.Records[1].RiskScore)
}

func TestProcessBatch_PersistsEverything(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	e := New(store)

	raws := []model.Record{
		raw("Netflix", 999, batchStart.AddDate(0, 0, -60), model.ModeSubscription),
		raw("Netflix", 999, batchStart.AddDate(0, 0, -30), model.ModeSubscription),
		raw("Zomato", 150, batchStart.AddDate(0, 0, -2), model.ModeCard),
	}

	result, err := e.ProcessBatch(ctx, raws)
	require.NoError(t, err)
	assert.Len(t, result.Records, 3)
	assert.Equal(t, 3, result.Fingerprint.TotalRecords)

	stored, err := store.GetRecords(ctx, service.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestRebuild_IgnoresPriorFingerprintState(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	e := New(store)

	// Poison the stored fingerprint; rebuild must not inherit any of it.
	poisoned := model.NewFingerprint()
	poisoned.CategoryAverage[model.CategoryFood] = 99999
	poisoned.TotalRecords = 42
	require.NoError(t, store.SaveFingerprint(ctx, poisoned))

	records := []model.Record{
		{ID: "a", Merchant: "Zomato", Amount: 100, Timestamp: batchStart.AddDate(0, 0, -3), Category: model.CategoryFood, Mode: model.ModeCard},
		{ID: "b", Merchant: "Swiggy", Amount: 200, Timestamp: batchStart.AddDate(0, 0, -2), Category: model.CategoryFood, Mode: model.ModeCard},
	}
	require.NoError(t, store.SaveRecords(ctx, records))

	fp, err := e.Rebuild(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, fp.TotalRecords)
	assert.InDelta(t, 150, fp.CategoryAverage[model.CategoryFood], 1e-9)
}

func TestRescoreAll_Deterministic(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	e := New(store)

	raws := []model.Record{
		raw("Zomato", 100, batchStart.AddDate(0, 0, -5), model.ModeCard),
		raw("Zomato", 120, batchStart.AddDate(0, 0, -3), model.ModeCard),
		raw("Zomato", 900, batchStart.AddDate(0, 0, -1), model.ModeCard),
	}
	_, err := e.ProcessBatch(ctx, raws)
	require.NoError(t, err)
	_, err = e.Rebuild(ctx)
	require.NoError(t, err)

	first, err := e.RescoreAll(ctx)
	require.NoError(t, err)
	second, err := e.RescoreAll(ctx)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.InDelta(t, first[i].RiskScore, second[i].RiskScore, 0)
		assert.Equal(t, first[i].RiskLevel, second[i].RiskLevel)
		assert.Equal(t, first[i].RiskReason, second[i].RiskReason)
	}
}

func TestRegenerateAlerts_ReplacesOldAlerts(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	e := New(store)

	stale := model.Alert{ID: "stale", RecordID: "gone", Type: model.AlertSpendingSpike, Level: model.RiskAmber}
	require.NoError(t, store.SaveAlerts(ctx, []model.Alert{stale}))

	raws := []model.Record{
		raw("Zomato", 100, batchStart.AddDate(0, 0, -6), model.ModeCard),
		raw("Zomato", 110, batchStart.AddDate(0, 0, -4), model.ModeCard),
		raw("Zomato", 2000, batchStart.AddDate(0, 0, -1), model.ModeCard),
	}
	_, err := e.ProcessBatch(ctx, raws)
	require.NoError(t, err)
	_, err = e.Rebuild(ctx)
	require.NoError(t, err)
	_, err = e.RescoreAll(ctx)
	require.NoError(t, err)

	alerts, err := e.RegenerateAlerts(ctx)
	require.NoError(t, err)

	stored, err := store.GetAlerts(ctx, service.AlertFilter{IncludeDismissed: true})
	require.NoError(t, err)
	assert.Equal(t, len(alerts), len(stored))
	for _, a := range stored {
		assert.NotEqual(t, "stale", a.ID)
	}
}

func TestSummarize_UsesStoredState(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	e := New(store)

	fp := model.NewFingerprint()
	fp.WeeklyBurnRate = 700
	require.NoError(t, store.SaveFingerprint(ctx, fp))

	balance := 1000.0
	s, err := e.Summarize(ctx, &balance)
	require.NoError(t, err)

	assert.InDelta(t, 100, s.DailyBurnRate, 1e-9)
	require.NotNil(t, s.DaysRemaining)
	assert.Equal(t, 10, *s.DaysRemaining)
}
