package ridetypes

import (
	"strings"

	"github.com/richxcame/rider-client/pkg/models"
)

// State of the selector
type State string

const (
	StateLoading State = "loading"
	StateFailed  State = "failed"
	StateEmpty   State = "empty"
	StateReady   State = "ready"
)

// Known categories
const (
	CategoryEconomy  = "economy"
	CategoryComfort  = "comfort"
	CategoryBusiness = "business"
	CategoryVan      = "van"
	CategoryCargo    = "cargo"
	CategoryOther    = "other"
)

// Section groups the ride types of one category
type Section struct {
	Category  string
	RideTypes []models.RideType
	Expanded  bool
}

// Selection is what the rider picked
type Selection struct {
	Title string
	ID    string
}

// View is a snapshot of the selector
type View struct {
	State    State
	Message  string
	Sections []Section
}

// keyword backfill for records stored before category_id existed
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{CategoryCargo, []string{"cargo", "truck", "delivery", "груз"}},
	{CategoryVan, []string{"van", "xl", "minivan", "минивэн"}},
	{CategoryBusiness, []string{"business", "premium", "lux", "бизнес"}},
	{CategoryComfort, []string{"comfort", "комфорт"}},
	{CategoryEconomy, []string{"econom", "standard", "эконом"}},
}

// InferCategory guesses a category from a ride type title.
func InferCategory(title string) string {
	t := strings.ToLower(title)
	for _, entry := range categoryKeywords {
		for _, w := range entry.words {
			if containsWord(t, w) {
				return entry.category
			}
		}
	}
	return CategoryOther
}

// containsWord matches w as a prefix of any whitespace-separated token, so
// "xl" does not match "exclusive" but "econom" matches "economy".
func containsWord(title, w string) bool {
	for _, tok := range strings.FieldsFunc(title, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '/'
	}) {
		if strings.HasPrefix(tok, w) {
			return true
		}
	}
	return false
}

// CategoryOf returns the stored category, falling back to the keyword table.
func CategoryOf(rt models.RideType) (category string, inferred bool) {
	if rt.CategoryID != nil && strings.TrimSpace(*rt.CategoryID) != "" {
		return strings.TrimSpace(*rt.CategoryID), false
	}
	return InferCategory(rt.Title), true
}
