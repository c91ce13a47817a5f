package insight

import (
	"math"

	"github.com/spendscope/spendscope/internal/model"
)

// Summary is the portfolio-level view: where the money went, how fast it
// is going, and how long the balance lasts at the current pace. The
// pointer fields are nil when no balance was supplied or the burn rate is
// zero.
type Summary struct {
	CategoryTotals   map[model.Category]float64
	DaysRemaining    *int
	SafeToSpend      *float64
	Last7Days        float64
	Last30Days       float64
	DailyBurnRate    float64
	MonthlyRecurring float64
	MealEquivalent   int
}

// Summarize aggregates the record set against the fingerprint. balance is
// optional; without it the projection fields stay nil.
func (g *Generator) Summarize(records []model.Record, fp *model.Fingerprint, balance *float64) Summary {
	now := g.now()
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)

	s := Summary{
		CategoryTotals:   make(map[model.Category]float64),
		DailyBurnRate:    fp.WeeklyBurnRate / 7,
		MonthlyRecurring: fp.MonthlyFixedCost(),
	}
	s.MealEquivalent = int(s.MonthlyRecurring / mealReferenceUnit)

	for _, rec := range records {
		s.CategoryTotals[rec.Category] += rec.Amount
		if rec.Timestamp.After(weekAgo) {
			s.Last7Days += rec.Amount
		}
		if rec.Timestamp.After(monthAgo) {
			s.Last30Days += rec.Amount
		}
	}

	if balance != nil {
		if s.DailyBurnRate > 0 {
			days := int(math.Floor(*balance / s.DailyBurnRate))
			s.DaysRemaining = &days
		}
		safe := *balance - s.MonthlyRecurring
		s.SafeToSpend = &safe
	}

	return s
}
