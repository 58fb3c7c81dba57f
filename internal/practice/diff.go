package practice

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// CloseThreshold is the Jaro-Winkler score above which a wrong word is
// flagged as a near miss
const CloseThreshold = 0.85

// WordDiff compares one position of a submitted answer with the expected text
type WordDiff struct {
	Index    int    `json:"index"`
	User     string `json:"user"`
	Expected string `json:"expected"`
	Correct  bool   `json:"correct"`
	Close    bool   `json:"close"`
}

// CompareWords aligns the words of submitted and expected by position for
// feedback. It is case-insensitive and never used for scoring.
func CompareWords(submitted, expected string) []WordDiff {
	userWords := strings.Fields(strings.ToLower(Normalize(submitted)))
	expectedWords := strings.Fields(strings.ToLower(Normalize(expected)))

	n := max(len(userWords), len(expectedWords))
	diffs := make([]WordDiff, 0, n)
	for i := 0; i < n; i++ {
		var user, want string
		if i < len(userWords) {
			user = userWords[i]
		}
		if i < len(expectedWords) {
			want = expectedWords[i]
		}

		d := WordDiff{Index: i, User: user, Expected: want, Correct: user == want}
		if !d.Correct && user != "" && want != "" {
			d.Close = matchr.JaroWinkler(user, want, false) >= CloseThreshold
		}
		diffs = append(diffs, d)
	}
	return diffs
}
