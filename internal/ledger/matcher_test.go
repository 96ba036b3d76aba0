package ledger

import "testing"

func TestSubstringMatcher(t *testing.T) {
	m := SubstringMatcher{}

	tests := []struct {
		name  string
		entry string
		query string
		want  bool
	}{
		{"exact", "landlord deposit", "landlord deposit", true},
		{"query contains entry", "deposit", "landlord will not return deposit", true},
		{"entry contains query", "landlord will not return deposit", "deposit", true},
		{"disjoint", "refund denied", "custody of children", false},
		{"empty entry", "", "landlord deposit", false},
		{"empty query", "landlord deposit", "", false},
		{"both empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Matches(tt.entry, tt.query); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.entry, tt.query, got, tt.want)
			}
		})
	}
}
