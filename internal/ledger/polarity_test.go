package ledger

import "testing"

func TestClassifyFeedback(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Polarity
	}{
		{"plain positive", "very helpful, thanks", Positive},
		{"correct answer", "the answer was correct", Positive},
		{"case insensitive", "GREAT explanation", Positive},
		{"plain negative", "wrong domain entirely", Negative},
		{"negated positive", "not helpful at all", Negative},
		// "unhelpful" contains "helpful"; the negative check runs first.
		{"unhelpful beats helpful", "unhelpful", Negative},
		{"mixed leans negative", "helpful but ultimately wrong", Negative},
		{"unrecognized", "meh", Negative},
		{"empty", "", Negative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyFeedback(tt.text); got != tt.want {
				t.Errorf("ClassifyFeedback(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
