package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spendscope/spendscope/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrEmptySlice    = errors.New("slice cannot be empty")
	ErrInvalidRecord = errors.New("invalid record")
	ErrInvalidAlert  = errors.New("invalid alert")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRecords validates a slice of records.
func validateRecords(records []model.Record) error {
	if records == nil {
		return fmt.Errorf("%w: records", ErrNilParameter)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: records", ErrEmptySlice)
	}
	for i, rec := range records {
		if err := validateRecord(&rec); err != nil {
			return fmt.Errorf("record at index %d: %w", i, err)
		}
	}
	return nil
}

// validateRecord validates a single record. The core is total over finite
// non-negative amounts and valid timestamps; anything else must be caught
// before persistence.
func validateRecord(rec *model.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if rec.Merchant == "" {
		return fmt.Errorf("%w: missing merchant", ErrInvalidRecord)
	}
	if rec.Amount < 0 || math.IsNaN(rec.Amount) || math.IsInf(rec.Amount, 0) {
		return fmt.Errorf("%w: amount must be a finite non-negative number", ErrInvalidRecord)
	}
	if rec.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidRecord)
	}
	return nil
}

// validateAlerts validates a slice of alerts.
func validateAlerts(alerts []model.Alert) error {
	if alerts == nil {
		return fmt.Errorf("%w: alerts", ErrNilParameter)
	}
	if len(alerts) == 0 {
		return fmt.Errorf("%w: alerts", ErrEmptySlice)
	}
	for i, a := range alerts {
		if a.ID == "" || a.RecordID == "" {
			return fmt.Errorf("alert at index %d: %w: missing id", i, ErrInvalidAlert)
		}
	}
	return nil
}
