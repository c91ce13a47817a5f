// Package normalize converts raw expense input into fully-resolved records:
// category detection, time-of-day bucketing, spend intensity, and the
// recurrence flag.
package normalize

import (
	"strings"
	"time"

	"github.com/spendscope/spendscope/internal/model"
)

// keywordRule maps merchant-text keywords to a category.
type keywordRule struct {
	category model.Category
	keywords []string
}

// Ordering matters: the first matching rule wins, so more specific
// merchants (groceries, transport) sit above the broad food rule.
var keywordRules = []keywordRule{
	{model.CategoryGroceries, []string{"grocer", "bigbasket", "blinkit", "zepto", "dmart", "mart", "fresh", "kirana"}},
	{model.CategoryTransport, []string{"uber", "ola", "rapido", "metro", "irctc", "fuel", "petrol", "cab", "parking"}},
	{model.CategoryEntertainment, []string{"netflix", "spotify", "hotstar", "prime video", "cinema", "pvr", "bookmyshow", "game"}},
	{model.CategoryFood, []string{"swiggy", "zomato", "restaurant", "cafe", "coffee", "pizza", "food", "dhaba", "bakery"}},
	{model.CategoryUtilities, []string{"electricity", "water", "broadband", "wifi", "recharge", "airtel", "jio", "gas", "bill"}},
	{model.CategoryHealth, []string{"pharmacy", "hospital", "clinic", "apollo", "medplus", "doctor", "gym", "lab"}},
	{model.CategoryRent, []string{"rent", "landlord", "society", "maintenance"}},
	{model.CategoryEducation, []string{"course", "udemy", "coursera", "tuition", "school", "college", "books"}},
	{model.CategoryShopping, []string{"amazon", "flipkart", "myntra", "ajio", "store", "shop", "mall"}},
}

// Normalizer resolves the derived per-record fields that depend only on the
// raw input and the current fingerprint. It is stateless and side-effect
// free.
type Normalizer struct{}

// New creates a Normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize returns a copy of rec with category resolved and the derived
// normalization fields set. An explicit category is kept as-is; otherwise
// the merchant text is matched against the keyword table, falling back to
// Miscellaneous.
func (n *Normalizer) Normalize(rec model.Record, fp *model.Fingerprint) model.Record {
	out := rec

	if out.Category == "" {
		out.Category = DetectCategory(out.Merchant)
	}

	out.TimeBucket = BucketFor(out.Timestamp)
	out.Intensity = intensity(out.Amount, out.Category, fp)
	out.Recurring = out.Mode == model.ModeSubscription

	return out
}

// DetectCategory matches merchant text against the keyword table.
func DetectCategory(merchant string) model.Category {
	text := strings.ToLower(merchant)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.category
			}
		}
	}
	return model.CategoryMiscellaneous
}

// BucketFor classifies the hour of day into a part-of-day bucket using
// half-open ranges: [5,12) morning, [12,18) afternoon, everything else
// night (18:00 through 04:59, spanning midnight).
func BucketFor(t time.Time) model.TimeBucket {
	switch hour := t.Hour(); {
	case hour >= 5 && hour < 12:
		return model.BucketMorning
	case hour >= 12 && hour < 18:
		return model.BucketAfternoon
	default:
		return model.BucketNight
	}
}

// intensity is the ratio of the amount to the category's baseline average.
// A category with no baseline yields exactly 1.0: a first purchase is
// neither high nor low relative to nothing.
func intensity(amount float64, category model.Category, fp *model.Fingerprint) float64 {
	avg, ok := fp.AverageFor(category)
	if !ok {
		return 1.0
	}
	return amount / avg
}
