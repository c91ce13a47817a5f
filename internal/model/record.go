// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// PaymentMode identifies how a record was paid.
type PaymentMode string

const (
	// ModeTransfer represents an electronic bank transfer (UPI, NEFT, etc.).
	ModeTransfer PaymentMode = "TRANSFER"
	// ModeCash represents a cash payment.
	ModeCash PaymentMode = "CASH"
	// ModeCard represents a debit or credit card payment.
	ModeCard PaymentMode = "CARD"
	// ModeSubscription represents an auto-debited recurring payment.
	ModeSubscription PaymentMode = "SUBSCRIPTION"
)

// ParsePaymentMode maps free-form input to a PaymentMode, defaulting to card.
func ParsePaymentMode(s string) PaymentMode {
	switch normalizeEnum(s) {
	case "TRANSFER", "ELECTRONICTRANSFER", "BANKTRANSFER", "UPI", "NETBANKING":
		return ModeTransfer
	case "CASH":
		return ModeCash
	case "SUBSCRIPTION", "AUTOPAY", "AUTODEBIT":
		return ModeSubscription
	default:
		return ModeCard
	}
}

// Category is a closed set of expense categories.
type Category string

// Expense categories. Records that match none of these fall back to
// CategoryMiscellaneous.
const (
	CategoryFood          Category = "Food & Dining"
	CategoryGroceries     Category = "Groceries"
	CategoryTransport     Category = "Transport"
	CategoryShopping      Category = "Shopping"
	CategoryEntertainment Category = "Entertainment"
	CategoryUtilities     Category = "Utilities"
	CategoryHealth        Category = "Health"
	CategoryRent          Category = "Rent"
	CategoryEducation     Category = "Education"
	CategoryMiscellaneous Category = "Miscellaneous"
)

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{
		CategoryFood,
		CategoryGroceries,
		CategoryTransport,
		CategoryShopping,
		CategoryEntertainment,
		CategoryUtilities,
		CategoryHealth,
		CategoryRent,
		CategoryEducation,
		CategoryMiscellaneous,
	}
}

// ParseCategory maps free-form input to a known Category.
// Unknown or empty input returns ("", false) so callers can fall back
// to keyword detection.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories() {
		if normalizeEnum(string(c)) == normalizeEnum(s) {
			return c, true
		}
	}
	return "", false
}

// TimeBucket is a coarse part-of-day classification.
type TimeBucket string

const (
	// BucketMorning covers hours [5, 12).
	BucketMorning TimeBucket = "MORNING"
	// BucketAfternoon covers hours [12, 18).
	BucketAfternoon TimeBucket = "AFTERNOON"
	// BucketNight covers hours [18, 24) and [0, 5), spanning midnight.
	BucketNight TimeBucket = "NIGHT"
)

// RiskLevel is the traffic-light classification derived from a record's
// composite risk score.
type RiskLevel string

const (
	// RiskGreen indicates a record consistent with the user's baseline.
	RiskGreen RiskLevel = "GREEN"
	// RiskAmber indicates a record worth a second look.
	RiskAmber RiskLevel = "AMBER"
	// RiskRed indicates a strongly anomalous record.
	RiskRed RiskLevel = "RED"
)

// Record represents a single expense. Identity fields are immutable once
// persisted; derived fields are recomputed wholesale on every scoring pass.
type Record struct {
	Timestamp time.Time
	ID        string
	Merchant  string
	Note      string
	Hash      string
	Mode      PaymentMode
	Category  Category
	Amount    float64

	// Derived during normalization.
	TimeBucket TimeBucket
	Intensity  float64
	Recurring  bool

	// Derived during scoring.
	RiskLevel  RiskLevel
	RiskScore  float64
	RiskReason string
}

// GenerateHash creates a content hash for duplicate-safe persistence.
func (r *Record) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s",
		r.Timestamp.Format(time.RFC3339),
		r.Amount,
		r.Merchant,
		r.Mode)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Hour returns the record's hour of day (0-23).
func (r *Record) Hour() int {
	return r.Timestamp.Hour()
}

func normalizeEnum(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			out = append(out, r-('a'-'A'))
		case r == ' ', r == '-', r == '_', r == '&':
			// separators are insignificant
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
