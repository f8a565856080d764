package extract

import (
	"fmt"
	"regexp"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/avolkov/finledger/internal/domain"
)

var canonicalDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Classification heuristic: an object exposing name+balance and neither
// date nor description is an account candidate; anything exposing
// date/description/amount is a transaction candidate. Applied regardless of
// which array the model placed the object in, so misrouted objects are
// relocated, never dropped.
func isAccountCandidate(obj map[string]any) bool {
	_, hasName := obj["name"]
	_, hasBalance := obj["balance"]
	_, hasDate := obj["date"]
	_, hasDescription := obj["description"]
	return hasName && hasBalance && !hasDate && !hasDescription
}

func isTransactionCandidate(obj map[string]any) bool {
	_, hasDate := obj["date"]
	_, hasDescription := obj["description"]
	_, hasAmount := obj["amount"]
	return hasDate || hasDescription || hasAmount
}

// validateTransaction checks one repaired object against the canonical
// candidate schema. Failures carry the field so the drop reason is loggable.
func validateTransaction(obj map[string]any) (domain.CandidateTransaction, error) {
	var c domain.CandidateTransaction

	dateStr, ok := obj["date"].(string)
	if !ok || !canonicalDateRe.MatchString(dateStr) {
		return c, fmt.Errorf("date %v is not YYYY-MM-DD", obj["date"])
	}
	date, err := civil.ParseDate(dateStr)
	if err != nil {
		return c, fmt.Errorf("date %q: %w", dateStr, err)
	}

	description, ok := obj["description"].(string)
	if !ok || description == "" {
		return c, fmt.Errorf("description is missing or empty")
	}

	amount, ok := obj["amount"].(decimal.Decimal)
	if !ok {
		return c, fmt.Errorf("amount %v is not a finite number", obj["amount"])
	}

	categoryStr, _ := obj["category"].(string)
	category, ok := domain.ParseCategory(categoryStr)
	if !ok {
		return c, fmt.Errorf("category %q is not in the taxonomy", categoryStr)
	}

	c = domain.CandidateTransaction{
		Date:        date,
		Description: description,
		Amount:      amount,
		Category:    category,
	}
	return c, nil
}

// validateAccount checks one repaired object against the account schema.
func validateAccount(obj map[string]any) (domain.ExtractedAccount, error) {
	var a domain.ExtractedAccount

	name, ok := obj["name"].(string)
	if !ok || name == "" {
		return a, fmt.Errorf("name is missing or empty")
	}

	balance, ok := obj["balance"].(decimal.Decimal)
	if !ok {
		return a, fmt.Errorf("balance %v is not a finite number", obj["balance"])
	}

	currency, _ := obj["currency"].(string)

	a = domain.ExtractedAccount{Name: name, Balance: balance, Currency: currency}
	return a, nil
}
