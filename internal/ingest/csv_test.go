package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendscope/spendscope/internal/common"
	"github.com/spendscope/spendscope/internal/model"
)

func TestParseCSV_BasicExport(t *testing.T) {
	input := `timestamp,merchant,amount,mode,note
2025-06-01T13:00:00Z,Zomato,450.00,card,team lunch
2025-06-01 21:30:00,Uber,180,upi,
2025-06-02,Netflix,999,subscription,monthly plan
`
	result, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Records, 3)

	first := result.Records[0]
	assert.Equal(t, "Zomato", first.Merchant)
	assert.InDelta(t, 450.0, first.Amount, 1e-9)
	assert.Equal(t, model.ModeCard, first.Mode)
	assert.Equal(t, "team lunch", first.Note)
	assert.True(t, first.Timestamp.Equal(time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)))
	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, first.Hash)

	assert.Equal(t, model.ModeTransfer, result.Records[1].Mode)
	assert.Equal(t, model.ModeSubscription, result.Records[2].Mode)
	assert.True(t, result.Records[2].Timestamp.Equal(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)))
}

func TestParseCSV_HeaderAliases(t *testing.T) {
	input := `Date,Payee,Value,Payment Mode,Memo
2025-06-01T13:00:00Z,Big Bazaar,820,cash,weekly shop
`
	result, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	rec := result.Records[0]
	assert.Equal(t, "Big Bazaar", rec.Merchant)
	assert.InDelta(t, 820.0, rec.Amount, 1e-9)
	assert.Equal(t, model.ModeCash, rec.Mode)
	assert.Equal(t, "weekly shop", rec.Note)
}

func TestParseCSV_ExplicitCategoryAndID(t *testing.T) {
	input := `timestamp,merchant,amount,category,id
2025-06-01T13:00:00Z,Local Store,120,groceries,txn-42
`
	result, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, model.CategoryGroceries, result.Records[0].Category)
	assert.Equal(t, "txn-42", result.Records[0].ID)
}

func TestParseCSV_CurrencySymbolsStripped(t *testing.T) {
	input := `timestamp,merchant,amount
2025-06-01T13:00:00Z,Amazon,"₹1,299.00"
`
	result, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.InDelta(t, 1299.0, result.Records[0].Amount, 1e-9)
}

func TestParseCSV_BadRowsCollectedNotFatal(t *testing.T) {
	input := `timestamp,merchant,amount
2025-06-01T13:00:00Z,Zomato,450
not-a-date,Uber,180
2025-06-01T14:00:00Z,,90
2025-06-01T15:00:00Z,Swiggy,abc
2025-06-01T16:00:00Z,Ola,210
`
	result, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, result.Records, 2)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, 4, result.Errors[1].Row)
	assert.Equal(t, 5, result.Errors[2].Row)
	for _, re := range result.Errors {
		assert.ErrorIs(t, re.Err, common.ErrInvalidRecord)
	}
}

func TestParseCSV_EmptyInput(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, common.ErrEmptyInput)

	_, err = ParseCSV(strings.NewReader("timestamp,merchant,amount\n"))
	assert.ErrorIs(t, err, common.ErrEmptyInput)
}

func TestParseCSV_MissingRequiredColumns(t *testing.T) {
	input := `merchant,amount
Zomato,450
`
	_, err := ParseCSV(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp")
}

func TestParseCSV_NegativeAmountRejected(t *testing.T) {
	input := `timestamp,merchant,amount
2025-06-01T13:00:00Z,Refund,-450
`
	result, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0].Err, common.ErrInvalidRecord)
}
