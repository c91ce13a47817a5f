// Package ingest parses external expense exports into records.
//
// The only supported format today is CSV with a header row. Column names
// are matched case-insensitively, so exports from different apps work as
// long as they carry timestamp, merchant and amount columns.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spendscope/spendscope/internal/common"
	"github.com/spendscope/spendscope/internal/model"
)

// timestampLayouts are tried in order when parsing the timestamp column.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// RowError describes a single row that failed to parse. Row numbers are
// 1-based and count the header row, matching what a user sees in a
// spreadsheet.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// Result holds the outcome of parsing one CSV stream. Bad rows are
// collected rather than aborting the import, so a single typo does not
// block a year of history.
type Result struct {
	Records []model.Record
	Errors  []RowError
}

// ParseCSV reads a CSV export and converts each row into a record.
//
// Required columns: timestamp (or date), merchant (or payee/description),
// amount. Optional columns: mode (or payment_mode/method), category, note
// (or memo), id. Rows missing required values are reported in
// Result.Errors and skipped. A stream with no data rows at all returns
// common.ErrEmptyInput.
func ParseCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no header row", common.ErrEmptyInput)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	row := 1
	for {
		row++
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Err: err})
			continue
		}

		rec, err := cols.parseRow(fields)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Err: err})
			continue
		}
		result.Records = append(result.Records, rec)
	}

	if len(result.Records) == 0 && len(result.Errors) == 0 {
		return nil, fmt.Errorf("%w: no data rows", common.ErrEmptyInput)
	}
	return result, nil
}

// columnMap holds the index of each recognized column, or -1 when the
// column is absent.
type columnMap struct {
	timestamp int
	merchant  int
	amount    int
	mode      int
	category  int
	note      int
	id        int
}

// columnAliases maps a logical field to the header names that select it.
var columnAliases = map[string][]string{
	"timestamp": {"timestamp", "date", "datetime", "time"},
	"merchant":  {"merchant", "payee", "description", "vendor"},
	"amount":    {"amount", "value", "cost"},
	"mode":      {"mode", "payment_mode", "payment mode", "method", "type"},
	"category":  {"category"},
	"note":      {"note", "notes", "memo"},
	"id":        {"id", "transaction_id"},
}

func mapColumns(header []string) (*columnMap, error) {
	cols := &columnMap{timestamp: -1, merchant: -1, amount: -1, mode: -1, category: -1, note: -1, id: -1}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	lookup := func(field string) int {
		for _, alias := range columnAliases[field] {
			if i, ok := index[alias]; ok {
				return i
			}
		}
		return -1
	}

	cols.timestamp = lookup("timestamp")
	cols.merchant = lookup("merchant")
	cols.amount = lookup("amount")
	cols.mode = lookup("mode")
	cols.category = lookup("category")
	cols.note = lookup("note")
	cols.id = lookup("id")

	var missing []string
	if cols.timestamp < 0 {
		missing = append(missing, "timestamp")
	}
	if cols.merchant < 0 {
		missing = append(missing, "merchant")
	}
	if cols.amount < 0 {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s",
			common.ErrInvalidRecord, strings.Join(missing, ", "))
	}
	return cols, nil
}

func (c *columnMap) field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func (c *columnMap) parseRow(fields []string) (model.Record, error) {
	var rec model.Record

	ts, err := parseTimestamp(c.field(fields, c.timestamp))
	if err != nil {
		return rec, err
	}

	merchant := c.field(fields, c.merchant)
	if merchant == "" {
		return rec, fmt.Errorf("%w: empty merchant", common.ErrInvalidRecord)
	}

	amount, err := parseAmount(c.field(fields, c.amount))
	if err != nil {
		return rec, err
	}

	rec.Timestamp = ts
	rec.Merchant = merchant
	rec.Amount = amount
	rec.Mode = model.ParsePaymentMode(c.field(fields, c.mode))
	rec.Note = c.field(fields, c.note)

	if raw := c.field(fields, c.category); raw != "" {
		if cat, ok := model.ParseCategory(raw); ok {
			rec.Category = cat
		}
	}

	rec.ID = c.field(fields, c.id)
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.Hash = rec.GenerateHash()
	return rec, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", common.ErrInvalidRecord)
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized timestamp %q", common.ErrInvalidRecord, raw)
}

func parseAmount(raw string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: empty amount", common.ErrInvalidRecord)
	}
	// Tolerate currency symbols and thousands separators from exports.
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, raw)
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad amount %q", common.ErrInvalidRecord, raw)
	}
	if amount < 0 {
		return 0, fmt.Errorf("%w: negative amount %q", common.ErrInvalidRecord, raw)
	}
	return amount, nil
}
