package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendscope/spendscope/internal/model"
)

func TestSummarize_CategoryAndWindowTotals(t *testing.T) {
	g := NewGeneratorAt(fixedClock)
	fp := model.NewFingerprint()

	records := []model.Record{
		amberRecord("a", "Zomato", 100, detectedAt.AddDate(0, 0, -2)),
		amberRecord("b", "Swiggy", 200, detectedAt.AddDate(0, 0, -10)),
		amberRecord("c", "Old Order", 300, detectedAt.AddDate(0, 0, -40)),
	}
	records[1].Category = model.CategoryGroceries

	s := g.Summarize(records, fp, nil)

	assert.InDelta(t, 400, s.CategoryTotals[model.CategoryFood], 1e-9)
	assert.InDelta(t, 200, s.CategoryTotals[model.CategoryGroceries], 1e-9)
	assert.InDelta(t, 100, s.Last7Days, 1e-9)
	assert.InDelta(t, 300, s.Last30Days, 1e-9)
}

func TestSummarize_BurnRateAndProjection(t *testing.T) {
	g := NewGeneratorAt(fixedClock)
	fp := model.NewFingerprint()
	fp.WeeklyBurnRate = 700

	balance := 1050.0
	s := g.Summarize(nil, fp, &balance)

	assert.InDelta(t, 100, s.DailyBurnRate, 1e-9)
	require.NotNil(t, s.DaysRemaining)
	assert.Equal(t, 10, *s.DaysRemaining)
}

func TestSummarize_NoBalanceMeansNoProjection(t *testing.T) {
	g := NewGeneratorAt(fixedClock)
	fp := model.NewFingerprint()
	fp.WeeklyBurnRate = 700

	s := g.Summarize(nil, fp, nil)

	assert.Nil(t, s.DaysRemaining)
	assert.Nil(t, s.SafeToSpend)
}

func TestSummarize_ZeroBurnRateMeansNoDaysRemaining(t *testing.T) {
	g := NewGeneratorAt(fixedClock)
	balance := 5000.0

	s := g.Summarize(nil, model.NewFingerprint(), &balance)

	assert.Nil(t, s.DaysRemaining)
	require.NotNil(t, s.SafeToSpend)
	assert.InDelta(t, 5000, *s.SafeToSpend, 1e-9)
}

func TestSummarize_RecurringLoadAndSafeToSpend(t *testing.T) {
	g := NewGeneratorAt(fixedClock)
	fp := model.NewFingerprint()
	fp.RecurringCosts = []model.RecurringCost{
		{Merchant: "Netflix", Amount: 999, Frequency: model.FrequencyMonthly},
		{Merchant: "Gym", Amount: 1500, Frequency: model.FrequencyMonthly},
		{Merchant: "Chai Stall", Amount: 20, Frequency: model.FrequencyDaily},
	}

	balance := 10000.0
	s := g.Summarize(nil, fp, &balance)

	// Only monthly-frequency costs count as fixed monthly load.
	assert.InDelta(t, 2499, s.MonthlyRecurring, 1e-9)
	assert.Equal(t, 49, s.MealEquivalent)
	require.NotNil(t, s.SafeToSpend)
	assert.InDelta(t, 7501, *s.SafeToSpend, 1e-9)
}
