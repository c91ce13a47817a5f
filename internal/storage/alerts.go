package storage

import (
	"context"
	"fmt"

	"github.com/spendscope/spendscope/internal/common"
	"github.com/spendscope/spendscope/internal/model"
	"github.com/spendscope/spendscope/internal/service"
)

// SaveAlerts inserts alerts.
func (s *SQLiteStorage) SaveAlerts(ctx context.Context, alerts []model.Alert) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAlerts(alerts); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO alerts (id, record_id, type, level, reason, action, detected_at, read, dismissed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, a := range alerts {
		_, err = stmt.ExecContext(ctx,
			a.ID, a.RecordID, string(a.Type), string(a.Level),
			a.Reason, a.Action, a.DetectedAt, a.Read, a.Dismissed)
		if err != nil {
			return fmt.Errorf("failed to insert alert %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// GetAlerts retrieves alerts matching the filter, newest first. Dismissed
// alerts are excluded unless the filter asks for them.
func (s *SQLiteStorage) GetAlerts(ctx context.Context, filter service.AlertFilter) ([]model.Alert, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, record_id, type, level, reason, action, detected_at, read, dismissed
		FROM alerts WHERE 1=1
	`
	var args []any

	if !filter.IncludeDismissed {
		query += " AND dismissed = 0"
	}
	if filter.UnreadOnly {
		query += " AND read = 0"
	}
	if filter.Level != nil {
		query += " AND level = ?"
		args = append(args, string(*filter.Level))
	}
	query += " ORDER BY detected_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var alerts []model.Alert
	for rows.Next() {
		var (
			a         model.Alert
			alertType string
			level     string
		)
		if err := rows.Scan(&a.ID, &a.RecordID, &alertType, &level,
			&a.Reason, &a.Action, &a.DetectedAt, &a.Read, &a.Dismissed); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Type = model.AlertType(alertType)
		a.Level = model.RiskLevel(level)
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}

// MarkAlertRead flags an alert as read. Reading is idempotent and
// independent of dismissal.
func (s *SQLiteStorage) MarkAlertRead(ctx context.Context, id string) error {
	return s.setAlertFlag(ctx, id, "read")
}

// DismissAlert flags an alert as dismissed. Dismissal is terminal.
func (s *SQLiteStorage) DismissAlert(ctx context.Context, id string) error {
	return s.setAlertFlag(ctx, id, "dismissed")
}

// ClearAlerts removes every stored alert, ahead of a regeneration pass.
func (s *SQLiteStorage) ClearAlerts(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM alerts"); err != nil {
		return fmt.Errorf("failed to clear alerts: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) setAlertFlag(ctx context.Context, id, column string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	// column is one of two compile-time constants, never user input.
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE alerts SET %s = 1 WHERE id = ?", column), id)
	if err != nil {
		return fmt.Errorf("failed to update alert %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alert %s: %w", id, common.ErrNotFound)
	}
	return nil
}
