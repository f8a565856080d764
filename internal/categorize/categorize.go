// Package categorize maps free-text category hints from aggregator and
// processor feeds onto the fixed internal taxonomy.
//
// A rule table rather than a model call: aggregator taxonomies are stable and
// a per-record model round trip is not justified here. The statement paths
// never come through this package — their category is part of the extraction
// contract and enforced during validation.
package categorize

import (
	"strings"

	"github.com/avolkov/finledger/internal/domain"
)

type rule struct {
	category domain.Category
	keywords []string
}

// On ties the earlier rule wins, so the more specific sets sit ahead of the
// broad ones.
var rules = []rule{
	{domain.CategoryTax, []string{"tax", "vat", "hmrc", "irs", "duty", "levy"}},
	{domain.CategoryPayroll, []string{"payroll", "salary", "wage", "gusto", "deel"}},
	{domain.CategoryTransport, []string{"transport", "travel", "taxi", "uber", "lyft", "train", "airline", "flight", "fuel", "parking"}},
	{domain.CategoryMeals, []string{"meal", "restaurant", "food", "coffee", "dining", "lunch", "catering"}},
	{domain.CategorySupplies, []string{"supplies", "supply", "office", "hardware", "equipment", "stationery"}},
	{domain.CategoryServices, []string{"service", "software", "subscription", "saas", "consult", "hosting", "insurance", "legal", "accounting"}},
}

// Categorize resolves a free-text hint to a taxonomy member by
// case-insensitive substring match. No match is never an error: the fallback
// is OTHER.
func Categorize(hint string) domain.Category {
	h := strings.ToLower(strings.TrimSpace(hint))
	if h == "" {
		return domain.CategoryOther
	}

	// An exact taxonomy value passes straight through.
	if c, ok := domain.ParseCategory(h); ok {
		return c
	}

	// Longest matching keyword wins, so "taxi" beats "tax" and "catering"
	// beats "cater"-adjacent noise.
	best := domain.CategoryOther
	bestLen := 0
	for _, r := range rules {
		for _, kw := range r.keywords {
			if len(kw) > bestLen && strings.Contains(h, kw) {
				best = r.category
				bestLen = len(kw)
			}
		}
	}
	return best
}
