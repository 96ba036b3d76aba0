package ledger

import (
	"strings"
	"sync"
)

// Bias deltas applied per feedback event. Fixed constants: every event
// carries equal weight, and repeated feedback on the same query or domain
// accumulates without bound.
const (
	DomainBiasDelta = 0.05
	QueryBiasDelta  = 0.10
)

// Ledger is the only mutable learning state in the system: a per-domain and
// a per-query confidence bias plus two append-only feedback history lists.
// All methods are safe for concurrent use; mutations are serialized behind
// a write lock.
//
// History and query-bias entries grow one per feedback event with no
// eviction. Repeat counts feed the confidence math, so trimming them would
// change classification results.
type Ledger struct {
	mu         sync.RWMutex
	domainBias map[string]float64
	queryBias  map[string]float64
	positive   []string
	negative   []string
	matcher    Matcher
}

// New returns an empty ledger using the default substring history matcher.
func New() *Ledger {
	return NewFromState(State{}, nil)
}

// NewFromState restores a ledger from a snapshot. A nil matcher falls back
// to SubstringMatcher.
func NewFromState(state State, matcher Matcher) *Ledger {
	if matcher == nil {
		matcher = SubstringMatcher{}
	}
	l := &Ledger{
		domainBias: state.ConfidenceAdjustments,
		queryBias:  state.FeedbackWeights,
		positive:   state.PositiveQueries,
		negative:   state.NegativeQueries,
		matcher:    matcher,
	}
	if l.domainBias == nil {
		l.domainBias = make(map[string]float64)
	}
	if l.queryBias == nil {
		l.queryBias = make(map[string]float64)
	}
	return l
}

// DomainBias returns the accumulated confidence bias for a domain, 0 for
// domains that never received feedback. Reads never create entries.
func (l *Ledger) DomainBias(domain string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.domainBias[domain]
}

// QueryBias returns the accumulated bias for a query, 0 for unseen queries.
// The query is normalized before lookup.
func (l *Ledger) QueryBias(query string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.queryBias[normalizeQuery(query)]
}

// RecordFeedback applies a single feedback event: the normalized query joins
// the matching history list and both bias tables shift by the fixed deltas.
// Mutation never fails; only persistence of the resulting state can.
func (l *Ledger) RecordFeedback(query, domain string, polarity Polarity) {
	q := normalizeQuery(query)

	l.mu.Lock()
	defer l.mu.Unlock()
	switch polarity {
	case Positive:
		l.positive = append(l.positive, q)
		l.domainBias[domain] += DomainBiasDelta
		l.queryBias[q] += QueryBiasDelta
	case Negative:
		l.negative = append(l.negative, q)
		l.domainBias[domain] -= DomainBiasDelta
		l.queryBias[q] -= QueryBiasDelta
	}
}

// HasNegativeHistory reports whether any recorded negative-feedback entry
// matches the query under the configured matcher.
func (l *Ledger) HasNegativeHistory(query string) bool {
	q := normalizeQuery(query)

	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, entry := range l.negative {
		if l.matcher.Matches(entry, q) {
			return true
		}
	}
	return false
}

// Reset drops all accumulated learning state in one step.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.domainBias = make(map[string]float64)
	l.queryBias = make(map[string]float64)
	l.positive = nil
	l.negative = nil
}

// State returns a deep copy of the ledger, ready for serialization. Maps
// and slices in the copy are always non-nil so the snapshot encodes empty
// collections instead of nulls.
func (l *Ledger) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return State{
		Version:               stateVersion,
		FeedbackWeights:       copyMap(l.queryBias),
		ConfidenceAdjustments: copyMap(l.domainBias),
		NegativeQueries:       copySlice(l.negative),
		PositiveQueries:       copySlice(l.positive),
	}
}

// Stats summarizes accumulated feedback for reporting.
func (l *Ledger) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Stats{
		TotalFeedback:         len(l.positive) + len(l.negative),
		PositiveCount:         len(l.positive),
		NegativeCount:         len(l.negative),
		ConfidenceAdjustments: copyMap(l.domainBias),
	}
}

// normalizeQuery case-folds and trims a query so the same text always keys
// the same ledger entries.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func copyMap(m map[string]float64) map[string]float64 {
	cp := make(map[string]float64, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func copySlice(s []string) []string {
	cp := make([]string, len(s))
	copy(cp, s)
	return cp
}
