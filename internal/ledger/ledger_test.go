package ledger

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRecordFeedback_Positive(t *testing.T) {
	l := New()

	l.RecordFeedback("my landlord won't return my deposit", "tenant_rights", Positive)

	if got := l.DomainBias("tenant_rights"); !almostEqual(got, DomainBiasDelta) {
		t.Errorf("DomainBias = %f, want %f", got, DomainBiasDelta)
	}
	if got := l.QueryBias("my landlord won't return my deposit"); !almostEqual(got, QueryBiasDelta) {
		t.Errorf("QueryBias = %f, want %f", got, QueryBiasDelta)
	}

	stats := l.Stats()
	if stats.TotalFeedback != 1 || stats.PositiveCount != 1 || stats.NegativeCount != 0 {
		t.Errorf("stats = %+v, want one positive event", stats)
	}
}

func TestRecordFeedback_Negative(t *testing.T) {
	l := New()

	l.RecordFeedback("refund denied", "consumer_complaint", Negative)

	if got := l.DomainBias("consumer_complaint"); !almostEqual(got, -DomainBiasDelta) {
		t.Errorf("DomainBias = %f, want %f", got, -DomainBiasDelta)
	}
	if got := l.QueryBias("refund denied"); !almostEqual(got, -QueryBiasDelta) {
		t.Errorf("QueryBias = %f, want %f", got, -QueryBiasDelta)
	}
	if !l.HasNegativeHistory("refund denied") {
		t.Error("expected negative history after negative feedback")
	}
}

func TestBias_Accumulates(t *testing.T) {
	l := New()

	for i := 0; i < 3; i++ {
		l.RecordFeedback("same query", "tenant_rights", Positive)
	}

	if got := l.DomainBias("tenant_rights"); !almostEqual(got, 3*DomainBiasDelta) {
		t.Errorf("DomainBias after 3 events = %f, want %f", got, 3*DomainBiasDelta)
	}
	if got := l.QueryBias("same query"); !almostEqual(got, 3*QueryBiasDelta) {
		t.Errorf("QueryBias after 3 events = %f, want %f", got, 3*QueryBiasDelta)
	}
}

func TestBias_MixedFeedbackCancels(t *testing.T) {
	l := New()

	l.RecordFeedback("q", "family_law", Positive)
	l.RecordFeedback("q", "family_law", Negative)

	if got := l.DomainBias("family_law"); !almostEqual(got, 0) {
		t.Errorf("DomainBias = %f, want 0 after cancelling feedback", got)
	}
	if got := l.QueryBias("q"); !almostEqual(got, 0) {
		t.Errorf("QueryBias = %f, want 0 after cancelling feedback", got)
	}

	// Both events still count in the history.
	stats := l.Stats()
	if stats.TotalFeedback != 2 {
		t.Errorf("TotalFeedback = %d, want 2", stats.TotalFeedback)
	}
}

func TestBias_UnseenZero(t *testing.T) {
	l := New()

	if got := l.DomainBias("never_seen"); got != 0 {
		t.Errorf("DomainBias = %f, want 0", got)
	}
	if got := l.QueryBias("never asked"); got != 0 {
		t.Errorf("QueryBias = %f, want 0", got)
	}
}

func TestQueryBias_Normalized(t *testing.T) {
	l := New()

	l.RecordFeedback("  Landlord Deposit Query  ", "tenant_rights", Positive)

	if got := l.QueryBias("landlord deposit query"); !almostEqual(got, QueryBiasDelta) {
		t.Errorf("QueryBias = %f, want %f for case/space variant", got, QueryBiasDelta)
	}
}

func TestHasNegativeHistory_Substring(t *testing.T) {
	l := New()
	l.RecordFeedback("landlord will not return deposit", "tenant_rights", Negative)

	if !l.HasNegativeHistory("landlord will not return deposit") {
		t.Error("exact repeat should match negative history")
	}
	// The recorded entry contains this shorter query.
	if !l.HasNegativeHistory("return deposit") {
		t.Error("a contained fragment should match negative history")
	}
	// This longer query contains the recorded entry.
	if !l.HasNegativeHistory("my landlord will not return deposit at all") {
		t.Error("a containing query should match negative history")
	}
	if l.HasNegativeHistory("completely unrelated complaint") {
		t.Error("unrelated query must not match negative history")
	}
}

func TestHasNegativeHistory_PositiveOnly(t *testing.T) {
	l := New()
	l.RecordFeedback("good query", "tenant_rights", Positive)

	if l.HasNegativeHistory("good query") {
		t.Error("positive feedback must not create negative history")
	}
}

func TestReset(t *testing.T) {
	l := New()
	l.RecordFeedback("q1", "tenant_rights", Positive)
	l.RecordFeedback("q2", "criminal_law", Negative)

	l.Reset()

	if got := l.DomainBias("tenant_rights"); got != 0 {
		t.Errorf("DomainBias after reset = %f, want 0", got)
	}
	if got := l.QueryBias("q1"); got != 0 {
		t.Errorf("QueryBias after reset = %f, want 0", got)
	}
	if l.HasNegativeHistory("q2") {
		t.Error("negative history must be empty after reset")
	}
	stats := l.Stats()
	if stats.TotalFeedback != 0 {
		t.Errorf("TotalFeedback after reset = %d, want 0", stats.TotalFeedback)
	}
}

func TestState_DeepCopy(t *testing.T) {
	l := New()
	l.RecordFeedback("q", "tenant_rights", Positive)

	state := l.State()
	state.FeedbackWeights["q"] = 99
	state.ConfidenceAdjustments["tenant_rights"] = 99
	state.PositiveQueries[0] = "mutated"

	if got := l.QueryBias("q"); !almostEqual(got, QueryBiasDelta) {
		t.Errorf("mutating the snapshot changed the ledger: QueryBias = %f", got)
	}
	if got := l.DomainBias("tenant_rights"); !almostEqual(got, DomainBiasDelta) {
		t.Errorf("mutating the snapshot changed the ledger: DomainBias = %f", got)
	}
	if l.State().PositiveQueries[0] != "q" {
		t.Error("mutating the snapshot changed the ledger history")
	}
}

func TestState_NonNilCollections(t *testing.T) {
	state := New().State()

	if state.Version != 1 {
		t.Errorf("Version = %d, want 1", state.Version)
	}
	if state.FeedbackWeights == nil {
		t.Error("FeedbackWeights is nil, want empty map")
	}
	if state.ConfidenceAdjustments == nil {
		t.Error("ConfidenceAdjustments is nil, want empty map")
	}
	if state.NegativeQueries == nil {
		t.Error("NegativeQueries is nil, want empty slice")
	}
	if state.PositiveQueries == nil {
		t.Error("PositiveQueries is nil, want empty slice")
	}
}

func TestNewFromState_Restores(t *testing.T) {
	state := State{
		Version:               1,
		FeedbackWeights:       map[string]float64{"old query": 0.2},
		ConfidenceAdjustments: map[string]float64{"tenant_rights": -0.1},
		NegativeQueries:       []string{"bad query"},
		PositiveQueries:       []string{"old query", "old query"},
	}

	l := NewFromState(state, nil)

	if got := l.QueryBias("old query"); !almostEqual(got, 0.2) {
		t.Errorf("QueryBias = %f, want 0.2", got)
	}
	if got := l.DomainBias("tenant_rights"); !almostEqual(got, -0.1) {
		t.Errorf("DomainBias = %f, want -0.1", got)
	}
	if !l.HasNegativeHistory("bad query") {
		t.Error("restored negative history did not match")
	}

	stats := l.Stats()
	if stats.PositiveCount != 2 || stats.NegativeCount != 1 {
		t.Errorf("stats = %+v, want 2 positive / 1 negative", stats)
	}
}
