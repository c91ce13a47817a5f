// Package insight turns scored records into human-readable alerts with
// suggested actions, and aggregates the portfolio-level summary.
package insight

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spendscope/spendscope/internal/model"
)

const (
	// spikeIntensityThreshold is the spend intensity above which a record
	// classifies as a spending spike.
	spikeIntensityThreshold = 2.5

	// microAmountCeiling and microBurstCount define a micro-transaction
	// burst: at least microBurstCount sub-ceiling payments in 24 hours.
	microAmountCeiling = 50.0
	microBurstCount    = 5

	// duplicateAmountTolerance and duplicateWindow define what counts as a
	// duplicate payment.
	duplicateAmountTolerance = 1.0
	duplicateWindow          = 60 * time.Minute

	// mealReferenceUnit is the rough price of one meal, used to translate
	// subscription costs into something tangible.
	mealReferenceUnit = 50.0
)

// Generator produces alerts for non-green records. The clock is injectable
// so detection timestamps are reproducible in tests.
type Generator struct {
	now func() time.Time
}

// NewGenerator creates a Generator using the wall clock.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// NewGeneratorAt creates a Generator with a fixed clock.
func NewGeneratorAt(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Generate produces zero or one alert for a scored record. Green records
// are silently skipped; that is the normal case, not an error.
func (g *Generator) Generate(rec model.Record, fp *model.Fingerprint, all []model.Record) []model.Alert {
	if rec.RiskLevel == model.RiskGreen || rec.RiskLevel == "" {
		return nil
	}

	alertType := g.classify(rec, fp, all)
	reason, action := g.render(alertType, rec, fp)

	return []model.Alert{{
		ID:         uuid.NewString(),
		RecordID:   rec.ID,
		Type:       alertType,
		Level:      rec.RiskLevel,
		Reason:     reason,
		Action:     action,
		DetectedAt: g.now(),
	}}
}

// GenerateAll produces alerts for every non-green record in the set.
func (g *Generator) GenerateAll(records []model.Record, fp *model.Fingerprint) []model.Alert {
	var alerts []model.Alert
	for _, rec := range records {
		alerts = append(alerts, g.Generate(rec, fp, records)...)
	}
	return alerts
}

// classify picks the alert type. Evaluation order is the priority order:
// the first matching classification wins.
func (g *Generator) classify(rec model.Record, fp *model.Fingerprint, all []model.Record) model.AlertType {
	if g.hasDuplicate(rec, all) {
		return model.AlertDuplicatePayment
	}
	if rec.Intensity > spikeIntensityThreshold {
		return model.AlertSpendingSpike
	}
	if rec.Amount < microAmountCeiling && g.microBurstSize(rec, all) >= microBurstCount {
		return model.AlertMicroTransaction
	}
	if rec.Mode == model.ModeSubscription || rec.Recurring {
		return model.AlertSubscriptionTrap
	}
	return model.AlertSpendingSpike
}

// hasDuplicate reports whether another record pays the same merchant a
// near-identical amount within an hour of this one.
func (g *Generator) hasDuplicate(rec model.Record, all []model.Record) bool {
	for _, other := range all {
		if other.ID == rec.ID {
			continue
		}
		if !strings.EqualFold(other.Merchant, rec.Merchant) {
			continue
		}
		if abs(other.Amount-rec.Amount) > duplicateAmountTolerance {
			continue
		}
		if absDuration(other.Timestamp.Sub(rec.Timestamp)) > duplicateWindow {
			continue
		}
		return true
	}
	return false
}

// microBurstSize counts sub-ceiling payments in the 24 hours up to and
// including this record.
func (g *Generator) microBurstSize(rec model.Record, all []model.Record) int {
	count := 1 // the current record
	for _, other := range all {
		if other.ID == rec.ID {
			continue
		}
		if other.Amount >= microAmountCeiling {
			continue
		}
		if other.Timestamp.After(rec.Timestamp) {
			continue
		}
		if rec.Timestamp.Sub(other.Timestamp) > 24*time.Hour {
			continue
		}
		count++
	}
	return count
}

// render fills the per-type reason and action templates.
func (g *Generator) render(alertType model.AlertType, rec model.Record, fp *model.Fingerprint) (reason, action string) {
	switch alertType {
	case model.AlertDuplicatePayment:
		reason = fmt.Sprintf("Two payments to %s of nearly the same amount (₹%.2f) landed within an hour.", rec.Merchant, rec.Amount)
		action = "Check your statement for a double charge and raise a refund request if both went through."

	case model.AlertMicroTransaction:
		reason = fmt.Sprintf("A burst of payments under ₹%.0f in the last 24 hours, including ₹%.2f at %s.", microAmountCeiling, rec.Amount, rec.Merchant)
		action = "Small payments add up quickly. Batch these purchases or set a daily cap to keep them visible."

	case model.AlertSubscriptionTrap:
		monthly := rec.Amount
		meals := int(monthly / mealReferenceUnit)
		if known, ok := fp.FindRecurringCost(rec.Merchant); ok {
			reason = fmt.Sprintf("Subscription %s moved from ₹%.0f to ₹%.0f per cycle.", known.Merchant, known.Amount, rec.Amount)
			action = "Review the new price. Downgrade or cancel if the plan no longer earns its keep."
		} else {
			reason = fmt.Sprintf("New subscription at %s for ₹%.0f a month. That is roughly %d meals.", rec.Merchant, monthly, meals)
			action = "Set a reminder before the next renewal and cancel if you stop using it."
		}

	default: // model.AlertSpendingSpike
		if avg, ok := fp.AverageFor(rec.Category); ok {
			reason = fmt.Sprintf("₹%.0f at %s is %.1fx your %s average of ₹%.0f.", rec.Amount, rec.Merchant, rec.Amount/avg, rec.Category, avg)
		} else {
			reason = fmt.Sprintf("₹%.0f at %s stands out against your usual spending.", rec.Amount, rec.Merchant)
		}
		action = fmt.Sprintf("If this was planned, ignore this. Otherwise revisit your %s budget for the rest of the month.", rec.Category)
	}

	return reason, action
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
