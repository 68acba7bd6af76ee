package humanize

import (
	"context"
	"unicode/utf8"

	"github.com/01moynul/humanize-golang/internal/models"
)

// Ledger holds the per-account credit balance.
type Ledger interface {
	// Account returns the current balance and plan of an account.
	Account(ctx context.Context, accountID int64) (models.Account, error)
	// Decrement lowers the balance by amount, flooring at zero, and returns the new balance.
	Decrement(ctx context.Context, accountID int64, amount int) (int, error)
}

// ProjectStore persists the record of a finished run.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *models.Project) error
}

// PlanLookup resolves a plan slug. Unknown slugs return nil.
type PlanLookup interface {
	Get(slug string) *models.Plan
}

// CreditsFor is the cost of humanizing text: one credit per full hundred characters,
// never less than one.
func CreditsFor(text string) int {
	n := utf8.RuneCountInString(text) / 100
	if n < 1 {
		return 1
	}
	return n
}

// Decrement is the balance arithmetic of the ledger: the result never goes below zero.
func Decrement(balance, amount int) int {
	if amount >= balance {
		return 0
	}
	return balance - amount
}
