package models

import (
	"time"
)

// Project is the model for the 'projects' table.
// A project is written once per successful humanize run and is never edited afterwards,
// only deleted.
type Project struct {
	ID          int64  `json:"id" db:"id"`
	UserID      int64  `json:"userId" db:"user_id"`
	Title       string `json:"title" db:"title"`
	Slug        string `json:"slug" db:"slug"`
	InputText   string `json:"inputText" db:"input_text"`
	OutputText  string `json:"outputText" db:"output_text"`
	CreditsUsed int    `json:"creditsUsed" db:"credits_used"`
	Mode        string `json:"mode" db:"mode"` // live or simulated

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ProjectSummary is the list view of a project (no text bodies).
type ProjectSummary struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	CreditsUsed int       `json:"creditsUsed"`
	CreatedAt   time.Time `json:"createdAt"`
}
