package humanize

import (
	"strings"
	"unicode/utf8"

	"github.com/01moynul/humanize-golang/internal/models"
)

const (
	// MinChars is the shortest text worth humanizing.
	MinChars = 50
	// FreeCharLimit applies to accounts without credits.
	FreeCharLimit = 300
)

// Length is the character count used everywhere in the workflow (runes of the trimmed text).
func Length(text string) int {
	return utf8.RuneCountInString(strings.TrimSpace(text))
}

// Validate checks text against the emptiness, minimum and limit rules.
// A limit of 0 means unrestricted. It has no side effects.
func Validate(text string, limit int) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &ValidationError{Reason: ErrEmpty, Limit: limit}
	}
	n := utf8.RuneCountInString(trimmed)
	if n < MinChars {
		return &ValidationError{Reason: ErrTooShort, Length: n, Limit: limit}
	}
	if limit > 0 && n > limit {
		return &ValidationError{Reason: ErrTooLong, Length: n, Limit: limit}
	}
	return nil
}

// ActiveLimit returns the character limit for an account: FreeCharLimit while the balance
// is zero, otherwise whatever the plan allows (0 = unrestricted).
func ActiveLimit(acct models.Account, plan *models.Plan) int {
	if acct.Credits <= 0 {
		return FreeCharLimit
	}
	if plan == nil {
		return 0
	}
	return plan.CharLimit
}

// Truncate cuts text to at most limit runes. limit <= 0 leaves it untouched.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	r := []rune(text)
	return string(r[:limit])
}
