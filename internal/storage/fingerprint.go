package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spendscope/spendscope/internal/model"
)

// GetFingerprint loads the fingerprint. A database with no fingerprint yet
// returns (nil, nil); callers start from a fresh baseline.
func (s *SQLiteStorage) GetFingerprint(ctx context.Context) (*model.Fingerprint, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT category_average, hour_frequency, recurring_costs,
		       weekly_burn_rate, tolerance_band, total_records, last_updated
		FROM fingerprint WHERE id = 1
	`)

	var (
		categoryJSON  string
		hourJSON      string
		recurringJSON string
	)
	fp := model.NewFingerprint()

	err := row.Scan(&categoryJSON, &hourJSON, &recurringJSON,
		&fp.WeeklyBurnRate, &fp.ToleranceBand, &fp.TotalRecords, &fp.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fingerprint: %w", err)
	}

	if err := json.Unmarshal([]byte(categoryJSON), &fp.CategoryAverage); err != nil {
		return nil, fmt.Errorf("failed to decode category averages: %w", err)
	}
	if err := decodeHourFrequency(hourJSON, fp.HourFrequency); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(recurringJSON), &fp.RecurringCosts); err != nil {
		return nil, fmt.Errorf("failed to decode recurring costs: %w", err)
	}

	return fp, nil
}

// SaveFingerprint replaces the stored fingerprint as a whole object.
func (s *SQLiteStorage) SaveFingerprint(ctx context.Context, fp *model.Fingerprint) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if fp == nil {
		return fmt.Errorf("%w: fingerprint", ErrNilParameter)
	}

	categoryJSON, err := json.Marshal(fp.CategoryAverage)
	if err != nil {
		return fmt.Errorf("failed to encode category averages: %w", err)
	}
	hourJSON, err := json.Marshal(encodeHourFrequency(fp.HourFrequency))
	if err != nil {
		return fmt.Errorf("failed to encode hour frequencies: %w", err)
	}
	recurring := fp.RecurringCosts
	if recurring == nil {
		recurring = []model.RecurringCost{}
	}
	recurringJSON, err := json.Marshal(recurring)
	if err != nil {
		return fmt.Errorf("failed to encode recurring costs: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO fingerprint (
			id, category_average, hour_frequency, recurring_costs,
			weekly_burn_rate, tolerance_band, total_records, last_updated
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category_average = excluded.category_average,
			hour_frequency = excluded.hour_frequency,
			recurring_costs = excluded.recurring_costs,
			weekly_burn_rate = excluded.weekly_burn_rate,
			tolerance_band = excluded.tolerance_band,
			total_records = excluded.total_records,
			last_updated = excluded.last_updated
	`, string(categoryJSON), string(hourJSON), string(recurringJSON),
		fp.WeeklyBurnRate, fp.ToleranceBand, fp.TotalRecords, fp.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to save fingerprint: %w", err)
	}

	return nil
}

// JSON object keys must be strings, so the hour map round-trips through a
// string-keyed form.
func encodeHourFrequency(freq map[int]int) map[string]int {
	out := make(map[string]int, len(freq))
	for hour, count := range freq {
		out[strconv.Itoa(hour)] = count
	}
	return out
}

func decodeHourFrequency(encoded string, into map[int]int) error {
	raw := make(map[string]int)
	if err := json.Unmarshal([]byte(encoded), &raw); err != nil {
		return fmt.Errorf("failed to decode hour frequencies: %w", err)
	}
	for key, count := range raw {
		hour, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("invalid hour key %q: %w", key, err)
		}
		into[hour] = count
	}
	return nil
}
