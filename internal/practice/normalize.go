package practice

import (
	"strings"
	"unicode"
)

// WordEdgePunctuation is stripped from both ends of an answer in word mode
const WordEdgePunctuation = `.,;:!?«»"()[]`

// Normalize collapses whitespace runs to a single space and trims the ends.
// Case and punctuation are kept: in sentence mode they are part of the answer.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeForWordComparison normalises text, lower-cases it and strips edge
// punctuation, so that only the spelling of the word is compared.
func NormalizeForWordComparison(text string) string {
	lowered := strings.ToLower(Normalize(text))
	return strings.TrimFunc(lowered, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(WordEdgePunctuation, r)
	})
}
