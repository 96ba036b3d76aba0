package ledger

import "strings"

// Polarity is the direction of a feedback event.
type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
)

// Keyword sets for feedback classification. Matching is substring-based on
// the normalized feedback text, so "unhelpful" hits both lists and the
// negative check wins.
var (
	positiveKeywords = []string{
		"helpful", "good", "correct", "right", "thanks", "thank you",
		"great", "perfect", "accurate", "resolved",
	}
	negativeKeywords = []string{
		"not helpful", "unhelpful", "wrong", "bad", "incorrect",
		"useless", "not right", "mistake", "irrelevant",
	}
)

// ClassifyFeedback reduces free-text feedback to a polarity. Text counts as
// positive only when it contains a positive keyword and no negative one;
// anything ambiguous or unrecognized counts as negative.
func ClassifyFeedback(text string) Polarity {
	t := normalizeQuery(text)
	for _, kw := range negativeKeywords {
		if strings.Contains(t, kw) {
			return Negative
		}
	}
	for _, kw := range positiveKeywords {
		if strings.Contains(t, kw) {
			return Positive
		}
	}
	return Negative
}
