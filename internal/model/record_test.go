package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePaymentMode(t *testing.T) {
	tests := []struct {
		in   string
		want PaymentMode
	}{
		{"card", ModeCard},
		{"CASH", ModeCash},
		{"transfer", ModeTransfer},
		{"electronic-transfer", ModeTransfer},
		{"UPI", ModeTransfer},
		{"subscription", ModeSubscription},
		{"autopay", ModeSubscription},
		{"", ModeCard},
		{"something else", ModeCard},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePaymentMode(tt.in))
		})
	}
}

func TestParseCategory(t *testing.T) {
	cat, ok := ParseCategory("food & dining")
	assert.True(t, ok)
	assert.Equal(t, CategoryFood, cat)

	cat, ok = ParseCategory("GROCERIES")
	assert.True(t, ok)
	assert.Equal(t, CategoryGroceries, cat)

	_, ok = ParseCategory("cryptocurrency")
	assert.False(t, ok)
}

func TestGenerateHash_ContentIdentity(t *testing.T) {
	ts := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	a := Record{Timestamp: ts, Amount: 450, Merchant: "Zomato", Mode: ModeCard}
	b := Record{Timestamp: ts, Amount: 450, Merchant: "Zomato", Mode: ModeCard, ID: "different-id"}
	c := Record{Timestamp: ts, Amount: 450.01, Merchant: "Zomato", Mode: ModeCard}

	assert.Equal(t, a.GenerateHash(), b.GenerateHash())
	assert.NotEqual(t, a.GenerateHash(), c.GenerateHash())
}

func TestFingerprintClone_Independent(t *testing.T) {
	fp := NewFingerprint()
	fp.CategoryAverage[CategoryFood] = 150
	fp.HourFrequency[13] = 3
	fp.RecurringCosts = []RecurringCost{{Merchant: "Netflix", Amount: 999, Frequency: FrequencyMonthly}}

	clone := fp.Clone()
	clone.CategoryAverage[CategoryFood] = 999
	clone.HourFrequency[13] = 0
	clone.RecurringCosts[0].Amount = 1

	assert.InDelta(t, 150.0, fp.CategoryAverage[CategoryFood], 1e-9)
	assert.Equal(t, 3, fp.HourFrequency[13])
	assert.InDelta(t, 999.0, fp.RecurringCosts[0].Amount, 1e-9)
}

func TestFingerprint_AverageFor(t *testing.T) {
	fp := NewFingerprint()
	fp.CategoryAverage[CategoryFood] = 150

	avg, ok := fp.AverageFor(CategoryFood)
	assert.True(t, ok)
	assert.InDelta(t, 150.0, avg, 1e-9)

	_, ok = fp.AverageFor(CategoryRent)
	assert.False(t, ok)

	// A zero average is treated as no baseline.
	fp.CategoryAverage[CategoryTransport] = 0
	_, ok = fp.AverageFor(CategoryTransport)
	assert.False(t, ok)
}
