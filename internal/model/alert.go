package model

import "time"

// AlertType categorizes what an alert is warning about.
type AlertType string

const (
	// AlertDuplicatePayment flags two near-identical payments close in time.
	AlertDuplicatePayment AlertType = "DUPLICATE_PAYMENT"
	// AlertSpendingSpike flags a record far above the category baseline.
	AlertSpendingSpike AlertType = "SPENDING_SPIKE"
	// AlertMicroTransaction flags a burst of small payments.
	AlertMicroTransaction AlertType = "MICRO_TRANSACTION"
	// AlertSubscriptionTrap flags new or repriced recurring payments.
	AlertSubscriptionTrap AlertType = "SUBSCRIPTION_TRAP"
)

// Alert is a human-readable warning tied to a single scored record.
// Read and dismissed are independent flags; dismissal is terminal.
type Alert struct {
	DetectedAt time.Time
	ID         string
	RecordID   string
	Type       AlertType
	Level      RiskLevel
	Reason     string
	Action     string
	Read       bool
	Dismissed  bool
}

// MarkRead transitions the alert to read. Reading is idempotent.
func (a *Alert) MarkRead() {
	a.Read = true
}

// Dismiss transitions the alert to dismissed. Dismissal does not imply read.
func (a *Alert) Dismiss() {
	a.Dismissed = true
}
