package models

import "time"

// Account is the model for the 'user_credits' table.
// Credits is only ever changed through the credit ledger and never goes below zero.
type Account struct {
	UserID       int64     `json:"userId" db:"user_id"`
	Credits      int       `json:"credits" db:"credits"`
	Plan         string    `json:"plan" db:"plan"`
	FreePlanUsed bool      `json:"freePlanUsed" db:"free_plan_used"`
	UpdatedAt    time.Time `json:"updatedAt" db:"last_updated"`
}
