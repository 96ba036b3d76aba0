package ledger

import "strings"

// Matcher decides whether a recorded history entry refers to the same query.
// Implementations receive already-normalized strings.
type Matcher interface {
	Matches(entry, query string) bool
}

// SubstringMatcher matches when either string contains the other. The loose
// symmetric test means paraphrased repeats of a disliked query still count
// as history.
type SubstringMatcher struct{}

// Matches implements Matcher. Empty strings never match anything.
func (SubstringMatcher) Matches(entry, query string) bool {
	if entry == "" || query == "" {
		return false
	}
	return strings.Contains(query, entry) || strings.Contains(entry, query)
}
