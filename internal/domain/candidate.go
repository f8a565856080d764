package domain

import (
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CandidateTransaction is an ephemeral, schema-valid transaction produced by
// a source adapter. Amount is still signed (negative = outflow); the sign is
// resolved into Direction when the candidate becomes canonical.
type CandidateTransaction struct {
	Date        civil.Date      `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    Category        `json:"category"`
	ExternalID  string          `json:"externalId,omitempty"` // empty when the source has no stable identity
	Pending     bool            `json:"pending,omitempty"`
}

// ExtractedAccount is an ephemeral account candidate parsed from a statement.
type ExtractedAccount struct {
	Name     string          `json:"name"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// Canonical converts the candidate into a persistable Transaction, deriving
// Direction from the amount's sign exactly once.
func (c CandidateTransaction) Canonical(companyID, accountID string) *Transaction {
	direction := DirectionIncome
	if c.Amount.IsNegative() {
		direction = DirectionExpense
	}

	status := StatusCompleted
	if c.Pending {
		status = StatusPending
	}

	t := &Transaction{
		ID:          uuid.NewString(),
		Amount:      c.Amount.Abs(),
		Direction:   direction,
		Description: c.Description,
		Date:        c.Date,
		Category:    c.Category,
		Status:      status,
		CompanyID:   companyID,
	}
	if accountID != "" {
		t.AccountID = &accountID
	}
	if c.ExternalID != "" {
		externalID := c.ExternalID
		t.ExternalID = &externalID
	}
	return t
}
