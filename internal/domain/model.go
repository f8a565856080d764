package domain

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Category is the fixed internal transaction taxonomy. Every persisted
// transaction carries exactly one of these values.
type Category string

const (
	CategoryTransport Category = "TRANSPORT"
	CategoryMeals     Category = "MEALS"
	CategorySupplies  Category = "SUPPLIES"
	CategoryServices  Category = "SERVICES"
	CategoryTax       Category = "TAX"
	CategoryPayroll   Category = "PAYROLL"
	CategoryOther     Category = "OTHER"
)

// Categories lists the taxonomy in its canonical order.
var Categories = []Category{
	CategoryTransport,
	CategoryMeals,
	CategorySupplies,
	CategoryServices,
	CategoryTax,
	CategoryPayroll,
	CategoryOther,
}

// ParseCategory maps a string onto the taxonomy after uppercasing and
// trimming. The boolean reports whether the value is a member.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Direction records whether money entered or left the account. It is derived
// once from the candidate's signed amount and never re-inferred.
type Direction string

const (
	DirectionIncome  Direction = "INCOME"
	DirectionExpense Direction = "EXPENSE"
)

// TransactionStatus mirrors the upstream settlement state.
type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusPending   TransactionStatus = "PENDING"
)

// AccountOrigin records how an account entered the ledger.
type AccountOrigin string

const (
	OriginAggregator AccountOrigin = "AGGREGATOR"
	OriginManual     AccountOrigin = "MANUAL"
)

// Transaction is a canonical, persisted ledger row. Amount is always
// non-negative; the sign lives in Direction. ExternalID, when present, is
// globally unique — that uniqueness is enforced by the store, not here.
type Transaction struct {
	ID          string            `json:"id"`
	Amount      decimal.Decimal   `json:"amount"`
	Direction   Direction         `json:"direction"`
	Description string            `json:"description"`
	Date        civil.Date        `json:"date"`
	Category    Category          `json:"category"`
	Status      TransactionStatus `json:"status"`
	CompanyID   string            `json:"companyId"`
	AccountID   *string           `json:"accountId,omitempty"`
	ExternalID  *string           `json:"externalId,omitempty"`
}

// Account is a canonical, persisted ledger row. Origin=AGGREGATOR implies a
// non-nil ExternalItemID.
type Account struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	Name           string           `json:"name"`
	ExternalItemID *string          `json:"externalItemId,omitempty"`
	Currency       string           `json:"currency"`
	Balance        *decimal.Decimal `json:"balance,omitempty"`
	SyncCursor     *string          `json:"-"`
	LastSyncedAt   time.Time        `json:"lastSyncedAt"`
	Origin         AccountOrigin    `json:"origin"`
}
