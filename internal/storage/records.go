package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spendscope/spendscope/internal/common"
	"github.com/spendscope/spendscope/internal/model"
	"github.com/spendscope/spendscope/internal/service"
)

// SaveRecords inserts records, skipping any whose content hash already
// exists so re-imports stay idempotent.
func (s *SQLiteStorage) SaveRecords(ctx context.Context, records []model.Record) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecords(records); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO records (
			id, hash, timestamp, merchant, amount, mode, category, note,
			time_bucket, intensity, recurring, risk_level, risk_score, risk_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		if rec.Hash == "" {
			rec.Hash = rec.GenerateHash()
		}
		_, err = stmt.ExecContext(ctx,
			rec.ID,
			rec.Hash,
			rec.Timestamp,
			rec.Merchant,
			rec.Amount,
			string(rec.Mode),
			string(rec.Category),
			rec.Note,
			string(rec.TimeBucket),
			rec.Intensity,
			rec.Recurring,
			string(rec.RiskLevel),
			rec.RiskScore,
			rec.RiskReason,
		)
		if err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// UpdateRecordScores rewrites the derived fields of existing records after
// a rescoring pass. Identity fields are never touched.
func (s *SQLiteStorage) UpdateRecordScores(ctx context.Context, records []model.Record) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecords(records); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE records SET
			category = ?, time_bucket = ?, intensity = ?, recurring = ?,
			risk_level = ?, risk_score = ?, risk_reason = ?
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		_, err = stmt.ExecContext(ctx,
			string(rec.Category),
			string(rec.TimeBucket),
			rec.Intensity,
			rec.Recurring,
			string(rec.RiskLevel),
			rec.RiskScore,
			rec.RiskReason,
			rec.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update record %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// GetRecords retrieves records matching the filter, ordered by timestamp.
func (s *SQLiteStorage) GetRecords(ctx context.Context, filter service.RecordFilter) ([]model.Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := strings.Builder{}
	query.WriteString(`
		SELECT id, hash, timestamp, merchant, amount, mode, category, note,
		       time_bucket, intensity, recurring, risk_level, risk_score, risk_reason
		FROM records WHERE 1=1
	`)
	var args []any

	if filter.StartDate != nil {
		query.WriteString(" AND timestamp >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		query.WriteString(" AND timestamp <= ?")
		args = append(args, *filter.EndDate)
	}
	if filter.Category != nil {
		query.WriteString(" AND category = ?")
		args = append(args, string(*filter.Category))
	}
	query.WriteString(" ORDER BY timestamp ASC")
	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.Record
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return records, nil
}

// GetRecordByID retrieves a single record.
func (s *SQLiteStorage) GetRecordByID(ctx context.Context, id string) (*model.Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, hash, timestamp, merchant, amount, mode, category, note,
		       time_bucket, intensity, recurring, risk_level, risk_score, risk_reason
		FROM records WHERE id = ?
	`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CountRecords returns the total number of stored records.
func (s *SQLiteStorage) CountRecords(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (model.Record, error) {
	var (
		rec       model.Record
		mode      string
		category  string
		bucket    string
		level     string
		note      sql.NullString
		reason    sql.NullString
		timestamp time.Time
	)

	err := row.Scan(
		&rec.ID, &rec.Hash, &timestamp, &rec.Merchant, &rec.Amount,
		&mode, &category, &note, &bucket, &rec.Intensity, &rec.Recurring,
		&level, &rec.RiskScore, &reason,
	)
	if err != nil {
		return model.Record{}, err
	}

	rec.Timestamp = timestamp
	rec.Mode = model.PaymentMode(mode)
	rec.Category = model.Category(category)
	rec.TimeBucket = model.TimeBucket(bucket)
	rec.RiskLevel = model.RiskLevel(level)
	rec.Note = note.String
	rec.RiskReason = reason.String

	return rec, nil
}
