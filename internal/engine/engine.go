// Package engine sequences the four analysis phases — normalization,
// scoring, profile update, and insight generation — over the stored record
// history. It owns the canonical fingerprint value during a pass; every
// phase is referentially transparent given its inputs.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/spendscope/spendscope/internal/insight"
	"github.com/spendscope/spendscope/internal/model"
	"github.com/spendscope/spendscope/internal/normalize"
	"github.com/spendscope/spendscope/internal/profile"
	"github.com/spendscope/spendscope/internal/risk"
	"github.com/spendscope/spendscope/internal/service"
)

// Engine orchestrates the analysis pipeline against a storage backend.
type Engine struct {
	store      service.Storage
	normalizer *normalize.Normalizer
	profiles   *profile.Builder
	scorer     *risk.Scorer
	insights   *insight.Generator

	// Progress, when set, is called after each record in a batch pass.
	Progress func(done, total int)
}

// New creates an engine with the default phase implementations.
func New(store service.Storage) *Engine {
	return &Engine{
		store:      store,
		normalizer: normalize.New(),
		profiles:   profile.NewBuilder(),
		scorer:     risk.NewScorer(),
		insights:   insight.NewGenerator(),
	}
}

// ProcessResult is the outcome of ingesting a single record.
type ProcessResult struct {
	Fingerprint *model.Fingerprint
	Record      model.Record
	Alerts      []model.Alert
}

// BatchResult is the outcome of ingesting a batch of records.
type BatchResult struct {
	Fingerprint *model.Fingerprint
	Records     []model.Record
	Alerts      []model.Alert
}

// ProcessRecord runs one raw record through the full pipeline: normalize,
// score against the stored history, fold into the fingerprint, and
// generate alerts. The scored record, updated fingerprint, and alerts are
// persisted before returning.
func (e *Engine) ProcessRecord(ctx context.Context, raw model.Record) (*ProcessResult, error) {
	fp, err := e.loadFingerprint(ctx)
	if err != nil {
		return nil, err
	}

	prior, err := e.store.GetRecords(ctx, service.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load record history: %w", err)
	}

	scored, updated := e.processOne(raw, fp, prior)
	alerts := e.insights.Generate(scored, updated, append(prior, scored))

	if err := e.store.SaveRecords(ctx, []model.Record{scored}); err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}
	if err := e.store.SaveFingerprint(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to save fingerprint: %w", err)
	}
	if len(alerts) > 0 {
		if err := e.store.SaveAlerts(ctx, alerts); err != nil {
			return nil, fmt.Errorf("failed to save alerts: %w", err)
		}
	}

	slog.Info("Processed record",
		"merchant", scored.Merchant,
		"amount", scored.Amount,
		"risk_level", scored.RiskLevel,
		"alerts", len(alerts))

	return &ProcessResult{Record: scored, Fingerprint: updated, Alerts: alerts}, nil
}

// ProcessBatch ingests raw records in input order. Each record's prior
// context is only the records already processed in this same call, and the
// fingerprint accumulates across the batch. Alerts are regenerated over
// the whole batch at the end rather than per record, so duplicate
// detection sees the complete set.
func (e *Engine) ProcessBatch(ctx context.Context, raws []model.Record) (*BatchResult, error) {
	fp, err := e.loadFingerprint(ctx)
	if err != nil {
		return nil, err
	}

	processed := make([]model.Record, 0, len(raws))
	for _, raw := range raws {
		var scored model.Record
		scored, fp = e.processOne(raw, fp, processed)
		processed = append(processed, scored)
		if e.Progress != nil {
			e.Progress(len(processed), len(raws))
		}
	}

	alerts := e.insights.GenerateAll(processed, fp)

	if len(processed) > 0 {
		if err := e.store.SaveRecords(ctx, processed); err != nil {
			return nil, fmt.Errorf("failed to save batch: %w", err)
		}
	}
	if err := e.store.SaveFingerprint(ctx, fp); err != nil {
		return nil, fmt.Errorf("failed to save fingerprint: %w", err)
	}
	if len(alerts) > 0 {
		if err := e.store.SaveAlerts(ctx, alerts); err != nil {
			return nil, fmt.Errorf("failed to save alerts: %w", err)
		}
	}

	slog.Info("Processed batch", "records", len(processed), "alerts", len(alerts))

	return &BatchResult{Records: processed, Fingerprint: fp, Alerts: alerts}, nil
}

// Rebuild derives a fresh fingerprint from the entire stored history,
// ignoring prior fingerprint state, and persists it.
func (e *Engine) Rebuild(ctx context.Context) (*model.Fingerprint, error) {
	records, err := e.store.GetRecords(ctx, service.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load record history: %w", err)
	}

	fp := e.profiles.Rebuild(records)
	if err := e.store.SaveFingerprint(ctx, fp); err != nil {
		return nil, fmt.Errorf("failed to save fingerprint: %w", err)
	}

	slog.Info("Rebuilt fingerprint",
		"records", fp.TotalRecords,
		"recurring_costs", len(fp.RecurringCosts),
		"tolerance_band", fp.ToleranceBand)

	return fp, nil
}

// RescoreAll re-runs the scorer over every stored record against the
// current fingerprint, in storage order, and persists the new scores.
// Prior context for each record is the records earlier in that sequence.
func (e *Engine) RescoreAll(ctx context.Context) ([]model.Record, error) {
	fp, err := e.loadFingerprint(ctx)
	if err != nil {
		return nil, err
	}

	records, err := e.store.GetRecords(ctx, service.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load record history: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	normalized := make([]model.Record, len(records))
	for i, rec := range records {
		normalized[i] = e.normalizer.Normalize(rec, fp)
	}
	scored := e.scorer.ScoreBatch(normalized, fp)

	if err := e.store.UpdateRecordScores(ctx, scored); err != nil {
		return nil, fmt.Errorf("failed to update scores: %w", err)
	}

	slog.Info("Rescored history", "records", len(scored))
	return scored, nil
}

// RegenerateAlerts replaces all stored alerts with a fresh pass over the
// stored, already-scored history. Used after a rebuild-and-rescore cycle.
func (e *Engine) RegenerateAlerts(ctx context.Context) ([]model.Alert, error) {
	fp, err := e.loadFingerprint(ctx)
	if err != nil {
		return nil, err
	}

	records, err := e.store.GetRecords(ctx, service.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load record history: %w", err)
	}

	alerts := e.insights.GenerateAll(records, fp)

	if err := e.store.ClearAlerts(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear alerts: %w", err)
	}
	if len(alerts) > 0 {
		if err := e.store.SaveAlerts(ctx, alerts); err != nil {
			return nil, fmt.Errorf("failed to save alerts: %w", err)
		}
	}

	slog.Info("Regenerated alerts", "alerts", len(alerts))
	return alerts, nil
}

// Summarize builds the portfolio summary over the stored history.
func (e *Engine) Summarize(ctx context.Context, balance *float64) (*insight.Summary, error) {
	fp, err := e.loadFingerprint(ctx)
	if err != nil {
		return nil, err
	}

	records, err := e.store.GetRecords(ctx, service.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load record history: %w", err)
	}

	s := e.insights.Summarize(records, fp, balance)
	return &s, nil
}

// processOne runs the stateless phases for one record: normalize, score
// against prior context, and fold into the fingerprint. No storage access.
func (e *Engine) processOne(raw model.Record, fp *model.Fingerprint, prior []model.Record) (model.Record, *model.Fingerprint) {
	if raw.ID == "" {
		raw.ID = uuid.NewString()
	}
	if raw.Hash == "" {
		raw.Hash = raw.GenerateHash()
	}

	normalized := e.normalizer.Normalize(raw, fp)
	scored := e.scorer.Score(normalized, fp, prior)
	updated := e.profiles.Update(fp, scored)

	return scored, updated
}

func (e *Engine) loadFingerprint(ctx context.Context) (*model.Fingerprint, error) {
	fp, err := e.store.GetFingerprint(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load fingerprint: %w", err)
	}
	if fp == nil {
		fp = model.NewFingerprint()
	}
	return fp, nil
}
