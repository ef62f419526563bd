package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/productadvisor/backend/internal/domain"
)

// MinQueryLength is the minimum number of characters a trimmed query must have
const MinQueryLength = 3

// ValidateQuery checks a free-text query before any network access.
// Returns nil for a usable query, or a *domain.ValidationError of kind EMPTY or TOO_SHORT.
func ValidateQuery(query string) error {
	trimmed := strings.TrimSpace(query)

	if trimmed == "" {
		return &domain.ValidationError{Kind: domain.ValidationKindEmpty}
	}

	// Count characters, not bytes, so "café" is four long
	if utf8.RuneCountInString(trimmed) < MinQueryLength {
		return &domain.ValidationError{Kind: domain.ValidationKindShort}
	}

	return nil
}
