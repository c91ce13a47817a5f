// Package profile derives and maintains the user's spending fingerprint:
// category averages, typical hours, burn rate, recurring costs, and the
// risk tolerance band.
package profile

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/spendscope/spendscope/internal/model"
)

const (
	// minRecordsForTolerance is the history size below which the tolerance
	// band stays at its default.
	minRecordsForTolerance = 3

	// gapToleranceDays is how far an individual inter-payment gap may
	// deviate from the merchant's mean gap and still count as regular.
	gapToleranceDays = 3.0

	dailyGapCeiling  = 1.5
	weeklyGapCeiling = 10.0
)

// Builder constructs fingerprints from record history. The clock is
// injectable so burn-rate math is reproducible in tests.
type Builder struct {
	now func() time.Time
}

// NewBuilder creates a Builder using the wall clock.
func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// NewBuilderAt creates a Builder with a fixed clock.
func NewBuilderAt(now func() time.Time) *Builder {
	return &Builder{now: now}
}

// Rebuild derives a fresh fingerprint from the full record history,
// ignoring any prior fingerprint state. Input order is irrelevant.
func (b *Builder) Rebuild(records []model.Record) *model.Fingerprint {
	fp := model.NewFingerprint()
	fp.TotalRecords = len(records)
	fp.LastUpdated = b.now()

	if len(records) == 0 {
		return fp
	}

	fp.CategoryAverage = categoryAverages(records)
	fp.HourFrequency = hourFrequencies(records)
	fp.WeeklyBurnRate = b.weeklyBurnRate(records)
	fp.RecurringCosts = detectRecurringCosts(records)
	fp.ToleranceBand = toleranceBand(records)

	return fp
}

// Update folds one newly scored record into the fingerprint and returns the
// updated copy. Only the category average, hour histogram, and counters
// move here; burn rate, recurring costs, and the tolerance band are
// refreshed exclusively by Rebuild.
//
// The running mean divides by the global record counter rather than a
// per-category count, which understates newly-seen categories. That
// matches the long-standing scoring behavior, so it is kept; the tests pin
// it explicitly.
func (b *Builder) Update(fp *model.Fingerprint, rec model.Record) *model.Fingerprint {
	out := fp.Clone()

	n := float64(fp.TotalRecords)
	oldAvg := out.CategoryAverage[rec.Category]
	out.CategoryAverage[rec.Category] = (oldAvg*n + rec.Amount) / (n + 1)

	out.HourFrequency[rec.Hour()]++
	out.TotalRecords++
	out.LastUpdated = b.now()

	return out
}

func categoryAverages(records []model.Record) map[model.Category]float64 {
	sums := make(map[model.Category]float64)
	counts := make(map[model.Category]int)
	for _, rec := range records {
		sums[rec.Category] += rec.Amount
		counts[rec.Category]++
	}

	avgs := make(map[model.Category]float64, len(sums))
	for cat, sum := range sums {
		avgs[cat] = sum / float64(counts[cat])
	}
	return avgs
}

func hourFrequencies(records []model.Record) map[int]int {
	freq := make(map[int]int)
	for _, rec := range records {
		freq[rec.Hour()]++
	}
	return freq
}

// weeklyBurnRate sums the trailing 7 days of spend. Histories shorter than
// a week are extrapolated from the daily average so a fresh dataset is not
// undercounted.
func (b *Builder) weeklyBurnRate(records []model.Record) float64 {
	now := b.now()
	weekAgo := now.AddDate(0, 0, -7)

	earliest := records[0].Timestamp
	var weekSum, totalSum float64
	for _, rec := range records {
		totalSum += rec.Amount
		if rec.Timestamp.After(weekAgo) {
			weekSum += rec.Amount
		}
		if rec.Timestamp.Before(earliest) {
			earliest = rec.Timestamp
		}
	}

	if earliest.After(weekAgo) {
		daysCovered := int(now.Sub(earliest).Hours() / 24)
		return totalSum / float64(daysCovered+1) * 7
	}
	return weekSum
}

// detectRecurringCosts finds merchants paid at regular intervals. A
// merchant is regular when every gap between consecutive payments sits
// within gapToleranceDays of the mean gap; irregular merchants produce no
// entry.
func detectRecurringCosts(records []model.Record) []model.RecurringCost {
	byMerchant := make(map[string][]model.Record)
	for _, rec := range records {
		key := strings.ToLower(rec.Merchant)
		byMerchant[key] = append(byMerchant[key], rec)
	}

	merchants := make([]string, 0, len(byMerchant))
	for m := range byMerchant {
		merchants = append(merchants, m)
	}
	sort.Strings(merchants)

	var costs []model.RecurringCost
	for _, m := range merchants {
		group := byMerchant[m]
		if len(group) < 2 {
			continue
		}

		sort.Slice(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})

		gaps := make([]float64, 0, len(group)-1)
		for i := 1; i < len(group); i++ {
			days := group[i].Timestamp.Sub(group[i-1].Timestamp).Hours() / 24
			gaps = append(gaps, math.Floor(days))
		}

		meanGap := mean(gaps)
		regular := true
		for _, gap := range gaps {
			if math.Abs(gap-meanGap) > gapToleranceDays {
				regular = false
				break
			}
		}
		if !regular {
			continue
		}

		var amountSum float64
		for _, rec := range group {
			amountSum += rec.Amount
		}

		costs = append(costs, model.RecurringCost{
			Merchant:     group[0].Merchant,
			Amount:       amountSum / float64(len(group)),
			Frequency:    frequencyFor(meanGap),
			LastDetected: group[len(group)-1].Timestamp,
		})
	}

	return costs
}

func frequencyFor(meanGapDays float64) model.Frequency {
	switch {
	case meanGapDays <= dailyGapCeiling:
		return model.FrequencyDaily
	case meanGapDays <= weeklyGapCeiling:
		return model.FrequencyWeekly
	default:
		return model.FrequencyMonthly
	}
}

// toleranceBand maps spending variability to a sensitivity dial. Stable
// spenders get a low band (alerts fire sooner); erratic spenders get a
// high band.
func toleranceBand(records []model.Record) float64 {
	if len(records) < minRecordsForTolerance {
		return model.DefaultToleranceBand
	}

	amounts := make([]float64, len(records))
	for i, rec := range records {
		amounts[i] = rec.Amount
	}

	m := mean(amounts)
	if m == 0 {
		return model.DefaultToleranceBand
	}

	var variance float64
	for _, a := range amounts {
		variance += (a - m) * (a - m)
	}
	variance /= float64(len(amounts))
	cv := math.Sqrt(variance) / m

	switch {
	case cv < 0.3:
		return 0.2
	case cv < 0.7:
		return 0.5
	default:
		return 0.8
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
