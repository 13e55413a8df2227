package parser

import (
	"github.com/agnivade/levenshtein"
)

// maxSuggestDistance bounds how far a misspelling may be from a keyword.
const maxSuggestDistance = 2

// termKeywords are the keywords that can start a term.
var termKeywords = []string{"collapse", "random", "default", "greatest", "least", "any", "match"}

// Suggest returns the term keyword closest to word, or "" when none is close
// enough to be a plausible misspelling. Ties go to the earlier keyword.
func Suggest(word string) string {
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, k := range termKeywords {
		d := levenshtein.ComputeDistance(word, k)
		if d < bestDist && d < len(word) {
			best, bestDist = k, d
		}
	}
	return best
}
