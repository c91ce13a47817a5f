package model

import (
	"strings"
	"time"
)

// DefaultToleranceBand is used until enough history exists to derive one.
const DefaultToleranceBand = 0.5

// Frequency classifies how often a recurring cost repeats.
type Frequency string

const (
	// FrequencyDaily covers mean gaps of at most 1.5 days.
	FrequencyDaily Frequency = "DAILY"
	// FrequencyWeekly covers mean gaps of at most 10 days.
	FrequencyWeekly Frequency = "WEEKLY"
	// FrequencyMonthly covers everything slower than weekly.
	FrequencyMonthly Frequency = "MONTHLY"
)

// RecurringCost is a merchant the user pays at a regular interval.
type RecurringCost struct {
	LastDetected time.Time `json:"last_detected"`
	Merchant     string    `json:"merchant"`
	Frequency    Frequency `json:"frequency"`
	Amount       float64   `json:"amount"`
}

// Fingerprint is the evolving statistical baseline of one user's spending
// behavior. The engine owns the canonical copy during a processing pass;
// phases receive it and return updated copies rather than mutating shared
// state.
type Fingerprint struct {
	LastUpdated     time.Time            `json:"last_updated"`
	CategoryAverage map[Category]float64 `json:"category_average"`
	HourFrequency   map[int]int          `json:"hour_frequency"`
	RecurringCosts  []RecurringCost      `json:"recurring_costs"`
	WeeklyBurnRate  float64              `json:"weekly_burn_rate"`
	ToleranceBand   float64              `json:"tolerance_band"`
	TotalRecords    int                  `json:"total_records"`
}

// NewFingerprint returns an empty baseline with the default tolerance band.
func NewFingerprint() *Fingerprint {
	return &Fingerprint{
		CategoryAverage: make(map[Category]float64),
		HourFrequency:   make(map[int]int),
		ToleranceBand:   DefaultToleranceBand,
	}
}

// Clone returns a deep copy so a phase can derive a new fingerprint without
// touching the caller's value.
func (f *Fingerprint) Clone() *Fingerprint {
	out := &Fingerprint{
		LastUpdated:     f.LastUpdated,
		CategoryAverage: make(map[Category]float64, len(f.CategoryAverage)),
		HourFrequency:   make(map[int]int, len(f.HourFrequency)),
		RecurringCosts:  make([]RecurringCost, len(f.RecurringCosts)),
		WeeklyBurnRate:  f.WeeklyBurnRate,
		ToleranceBand:   f.ToleranceBand,
		TotalRecords:    f.TotalRecords,
	}
	for k, v := range f.CategoryAverage {
		out.CategoryAverage[k] = v
	}
	for k, v := range f.HourFrequency {
		out.HourFrequency[k] = v
	}
	copy(out.RecurringCosts, f.RecurringCosts)
	return out
}

// AverageFor returns the category's baseline average and whether one exists.
// A category with no observed records has no baseline; callers must treat
// that as neutral rather than dividing by zero.
func (f *Fingerprint) AverageFor(category Category) (float64, bool) {
	avg, ok := f.CategoryAverage[category]
	if !ok || avg <= 0 {
		return 0, false
	}
	return avg, true
}

// FindRecurringCost looks up a recurring cost by merchant, case-insensitively.
func (f *Fingerprint) FindRecurringCost(merchant string) (RecurringCost, bool) {
	for _, rc := range f.RecurringCosts {
		if strings.EqualFold(rc.Merchant, merchant) {
			return rc, true
		}
	}
	return RecurringCost{}, false
}

// MonthlyFixedCost sums the monthly-frequency recurring costs.
func (f *Fingerprint) MonthlyFixedCost() float64 {
	var total float64
	for _, rc := range f.RecurringCosts {
		if rc.Frequency == FrequencyMonthly {
			total += rc.Amount
		}
	}
	return total
}
