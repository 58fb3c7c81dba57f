package practice

import (
	"strings"

	"dictee/internal/models"
)

// IsCorrect reports whether submitted matches expected under the comparison
// policy of the content type. Blank submissions are never correct.
func IsCorrect(submitted, expected string, contentType models.ContentType) bool {
	if strings.TrimSpace(submitted) == "" {
		return false
	}

	if contentType == models.ContentWords {
		return NormalizeForWordComparison(submitted) == NormalizeForWordComparison(expected)
	}

	return Normalize(submitted) == Normalize(expected)
}
