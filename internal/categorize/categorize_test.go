package categorize

import (
	"testing"

	"github.com/avolkov/finledger/internal/domain"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		hint string
		want domain.Category
	}{
		{"TRANSPORT", domain.CategoryTransport},
		{"meals", domain.CategoryMeals},
		{"Taxi & Rideshare", domain.CategoryTransport},
		{"Restaurants", domain.CategoryMeals},
		{"Office Supplies", domain.CategorySupplies},
		{"Software Subscription", domain.CategoryServices},
		{"VAT Payment", domain.CategoryTax},
		{"Gusto Payroll", domain.CategoryPayroll},
		{"", domain.CategoryOther},
		{"Miscellaneous", domain.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			if got := Categorize(tt.hint); got != tt.want {
				t.Errorf("Categorize(%q) = %s, want %s", tt.hint, got, tt.want)
			}
		})
	}
}

func TestCategorize_LongestKeywordWins(t *testing.T) {
	// "taxi" must not be swallowed by the shorter "tax" keyword.
	if got := Categorize("taxi fare"); got != domain.CategoryTransport {
		t.Errorf("got %s, want TRANSPORT", got)
	}
	// On equal length the earlier rule wins: "payroll" (7) over "service" (7).
	if got := Categorize("payroll tax service"); got != domain.CategoryPayroll {
		t.Errorf("got %s, want PAYROLL to win the tie", got)
	}
}
