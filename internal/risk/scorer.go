// Package risk computes the composite risk score for expense records: a
// weighted blend of amount deviation, time-of-day, payment frequency, and
// subscription recurrence signals, mapped to a traffic-light level through
// tolerance-adaptive thresholds.
package risk

import (
	"fmt"
	"strings"
	"time"

	"github.com/spendscope/spendscope/internal/model"
)

// Factor weights. They must sum to 1.0 so the composite stays in [0,1].
const (
	amountWeight     = 0.40
	timeWeight       = 0.20
	frequencyWeight  = 0.25
	recurrenceWeight = 0.15
)

const (
	// minHistoryForTimeScore is the record count below which the hour of
	// day is not judged at all.
	minHistoryForTimeScore = 10

	// typicalHourRatio marks an hour as typical when its frequency is at
	// least this share of the mean hour frequency.
	typicalHourRatio = 0.5

	// frequencyWindow bounds the lookback for repeated-payment detection.
	frequencyWindow = 24 * time.Hour

	// priceDriftTolerance is the relative change a known recurring cost
	// may show before it counts as repriced.
	priceDriftTolerance = 0.20

	reasonSeparator = " | "
)

// Scorer computes composite risk scores. It is stateless; all baseline
// state arrives through the fingerprint.
type Scorer struct{}

// NewScorer creates a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score evaluates one record against the fingerprint and the records
// already processed before it, returning a copy with RiskScore, RiskLevel,
// and RiskReason populated. For batch scoring, prior means "earlier in the
// sequence being scored", not necessarily earlier in time.
func (s *Scorer) Score(rec model.Record, fp *model.Fingerprint, prior []model.Record) model.Record {
	out := rec

	amountScore, amountReason := s.amountScore(rec, fp)
	timeScore, timeReason := s.timeScore(rec, fp)
	freqScore, freqReason := s.frequencyScore(rec, prior)
	recurScore, recurReason := s.recurrenceScore(rec, fp)

	out.RiskScore = amountWeight*amountScore +
		timeWeight*timeScore +
		frequencyWeight*freqScore +
		recurrenceWeight*recurScore
	out.RiskReason = joinReasons(amountReason, timeReason, freqReason, recurReason)
	out.RiskLevel = LevelFor(out.RiskScore, fp.ToleranceBand)

	return out
}

// ScoreBatch scores records in sequence order. Each record's prior context
// is exactly the records earlier in the same slice.
func (s *Scorer) ScoreBatch(records []model.Record, fp *model.Fingerprint) []model.Record {
	scored := make([]model.Record, 0, len(records))
	for _, rec := range records {
		scored = append(scored, s.Score(rec, fp, scored))
	}
	return scored
}

// LevelFor maps a composite score to a risk level. Thresholds shift with
// the tolerance band: the default band of 0.5 gives the canonical 0.3 and
// 0.6 cutoffs, a low band pulls them down, a high band pushes them up.
func LevelFor(score, toleranceBand float64) model.RiskLevel {
	shift := (toleranceBand - model.DefaultToleranceBand) * 0.2
	switch {
	case score > 0.6+shift:
		return model.RiskRed
	case score > 0.3+shift:
		return model.RiskAmber
	default:
		return model.RiskGreen
	}
}

// amountScore grades how far the amount sits from the category average.
// No baseline means no judgment: score 0, no reason.
func (s *Scorer) amountScore(rec model.Record, fp *model.Fingerprint) (float64, string) {
	avg, ok := fp.AverageFor(rec.Category)
	if !ok {
		return 0, ""
	}

	deviation := (rec.Amount - avg) / avg
	if deviation < 0 {
		deviation = -deviation
	}
	multiplier := rec.Amount / avg

	switch {
	case deviation < 0.5:
		return deviation * 0.6, ""
	case deviation < 2.0:
		reason := fmt.Sprintf("%.1fx your usual %s spend", multiplier, rec.Category)
		return 0.3 + (deviation-0.5)*0.27, reason
	default:
		reason := fmt.Sprintf("%.1fx your usual %s spend, far outside your normal range", multiplier, rec.Category)
		return 0.7 + clamp((deviation-2.0)/3.0, 0, 0.3), reason
	}
}

// timeScore flags payments at hours the user rarely transacts. Short
// histories are never judged.
func (s *Scorer) timeScore(rec model.Record, fp *model.Fingerprint) (float64, string) {
	if fp.TotalRecords < minHistoryForTimeScore {
		return 0, ""
	}

	hour := rec.Hour()
	if isTypicalHour(hour, fp.HourFrequency) {
		return 0, ""
	}

	label := fmt.Sprintf("unusual hour (%02d:00)", hour)
	if hour < 5 || hour >= 22 {
		label = fmt.Sprintf("late night payment (%02d:00)", hour)
	}
	return 0.6, label
}

func isTypicalHour(hour int, freq map[int]int) bool {
	if len(freq) == 0 {
		return true
	}
	var total int
	for _, count := range freq {
		total += count
	}
	mean := float64(total) / float64(len(freq))
	return float64(freq[hour]) >= typicalHourRatio*mean
}

// frequencyScore counts same-merchant payments in the 24 hours before this
// record among the already-processed set.
func (s *Scorer) frequencyScore(rec model.Record, prior []model.Record) (float64, string) {
	matches := 0
	for _, p := range prior {
		if !strings.EqualFold(p.Merchant, rec.Merchant) {
			continue
		}
		if !p.Timestamp.Before(rec.Timestamp) {
			continue
		}
		if rec.Timestamp.Sub(p.Timestamp) > frequencyWindow {
			continue
		}
		matches++
	}

	count := matches + 1
	switch {
	case count >= 3:
		return 0.9, fmt.Sprintf("%d payments to %s within 24 hours", count, rec.Merchant)
	case count == 2:
		return 0.5, fmt.Sprintf("repeated payment to %s", rec.Merchant)
	default:
		return 0, ""
	}
}

// recurrenceScore judges subscription payments against the known recurring
// costs: unknown subscriptions score as new, known ones only when the
// price drifted beyond tolerance.
func (s *Scorer) recurrenceScore(rec model.Record, fp *model.Fingerprint) (float64, string) {
	if rec.Mode != model.ModeSubscription {
		return 0, ""
	}

	known, ok := fp.FindRecurringCost(rec.Merchant)
	if !ok {
		return 0.6, fmt.Sprintf("new subscription detected: %s", rec.Merchant)
	}
	if known.Amount <= 0 {
		return 0, ""
	}

	drift := (rec.Amount - known.Amount) / known.Amount
	if drift < 0 {
		drift = -drift
	}
	if drift > priceDriftTolerance {
		reason := fmt.Sprintf("subscription %s changed from ₹%.0f to ₹%.0f", known.Merchant, known.Amount, rec.Amount)
		return 0.7, reason
	}
	return 0, ""
}

func joinReasons(reasons ...string) string {
	nonEmpty := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if r != "" {
			nonEmpty = append(nonEmpty, r)
		}
	}
	return strings.Join(nonEmpty, reasonSeparator)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
