package triage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lextriage/lextriage/internal/classify"
	"github.com/lextriage/lextriage/internal/ledger"
)

// Override thresholds. These were tuned against best-example similarity
// scores together with the ledger bias deltas and are deliberately not
// configurable.
const (
	// minAlternativeSimilarity is the raw-similarity floor an alternative
	// domain must exceed before it can replace a negatively-reviewed match.
	minAlternativeSimilarity = 0.1
	// alternativeBoost scales a qualifying alternative's similarity,
	// capped at 1.
	alternativeBoost = 1.5
	// unknownDomain and unknownConfidence are returned when negative
	// history demands an alternative but none qualifies.
	unknownDomain     = "unknown"
	unknownConfidence = 0.3
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Result is the outcome of one classification call.
type Result struct {
	Domain     string    `json:"domain"`
	Confidence float64   `json:"confidence"`
	SessionID  string    `json:"session_id"`
	Timestamp  time.Time `json:"timestamp"`

	// BaseDomain and BaseConfidence record the raw similarity winner
	// before feedback biases and overrides were applied.
	BaseDomain     string  `json:"base_domain"`
	BaseConfidence float64 `json:"base_confidence"`
	// Overrode is true when negative history swapped in an alternative
	// domain or the unknown fallback.
	Overrode bool `json:"overrode,omitempty"`
}

// Service is the adaptive classifier: it layers learned feedback biases on
// top of raw similarity classification and records new feedback. A single
// instance serves the whole process.
type Service struct {
	classifier *classify.Classifier
	ledger     *ledger.Ledger
	store      ledger.Store
	clock      Clock
	logger     *slog.Logger
}

// New restores the learning state from store and wires the service. A
// missing snapshot is a normal first run; a corrupt one is logged and
// replaced by an empty ledger. Neither stops startup.
func New(classifier *classify.Classifier, store ledger.Store, matcher ledger.Matcher, logger *slog.Logger) *Service {
	return NewWithClock(classifier, store, matcher, logger, realClock{})
}

// NewWithClock creates a Service with a custom clock (for testing).
func NewWithClock(classifier *classify.Classifier, store ledger.Store, matcher ledger.Matcher, logger *slog.Logger, clock Clock) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	state, err := store.Load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("no saved learning state, starting fresh")
		} else {
			logger.Warn("loading learning state failed, starting fresh", "error", err)
		}
		state = ledger.State{}
	}

	return &Service{
		classifier: classifier,
		ledger:     ledger.NewFromState(state, matcher),
		store:      store,
		clock:      clock,
		logger:     logger,
	}
}

// ClassifyWithLearning produces the final (domain, confidence) for a query.
// When priorFeedback is non-empty the call doubles as a feedback event: the
// feedback is recorded against the query's base domain and persisted before
// the final answer is computed, so it already shapes this call's result.
// The returned confidence is always within [0, 1].
func (s *Service) ClassifyWithLearning(query, priorFeedback, sessionID string) Result {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	baseDomain, baseConfidence := s.classifier.Classify(query)

	if priorFeedback != "" {
		polarity := ledger.ClassifyFeedback(priorFeedback)
		s.ledger.RecordFeedback(query, baseDomain, polarity)
		s.persist()
	}

	domain := baseDomain
	confidence := clamp01(baseConfidence + s.ledger.DomainBias(baseDomain) + s.ledger.QueryBias(query))
	overrode := false

	if s.ledger.HasNegativeHistory(query) {
		if altDomain, altConfidence, ok := s.alternative(query, confidence); ok {
			domain, confidence, overrode = altDomain, altConfidence, true
		}
	}

	return Result{
		Domain:         domain,
		Confidence:     clamp01(confidence),
		SessionID:      sessionID,
		Timestamp:      s.clock.Now().UTC(),
		BaseDomain:     baseDomain,
		BaseConfidence: baseConfidence,
		Overrode:       overrode,
	}
}

// alternative evaluates the negative-history override. The second-ranked
// domain replaces the current result when its boosted similarity beats the
// adjusted confidence; when no ranked alternative clears the similarity
// floor the query resolves to the unknown fallback instead. The false
// return means the original result stands.
func (s *Service) alternative(query string, adjusted float64) (string, float64, bool) {
	alts := s.classifier.RankAlternatives(query)
	if len(alts) < 2 || alts[1].Score <= minAlternativeSimilarity {
		return unknownDomain, unknownConfidence, true
	}

	boosted := alts[1].Score * alternativeBoost
	if boosted > 1 {
		boosted = 1
	}
	if boosted > adjusted {
		return alts[1].Domain, boosted, true
	}
	return "", 0, false
}

// SubmitFeedback records a standalone feedback event against an already
// classified (query, domain) pair and flushes the ledger. The classified
// polarity is returned so callers can echo it.
func (s *Service) SubmitFeedback(query, domain, feedback string) ledger.Polarity {
	polarity := ledger.ClassifyFeedback(feedback)
	s.ledger.RecordFeedback(query, domain, polarity)
	s.persist()
	return polarity
}

// Stats reports the accumulated learning counters.
func (s *Service) Stats() ledger.Stats {
	return s.ledger.Stats()
}

// ResetLearning irreversibly clears all learned state and persists the
// empty snapshot.
func (s *Service) ResetLearning() error {
	s.ledger.Reset()
	if err := s.store.Save(s.ledger.State()); err != nil {
		return fmt.Errorf("persisting reset state: %w", err)
	}
	return nil
}

// Alternatives exposes the ranked per-domain scores for a query.
func (s *Service) Alternatives(query string) []classify.DomainScore {
	return s.classifier.RankAlternatives(query)
}

// Domains lists the classifier's known domains in corpus order.
func (s *Service) Domains() []string {
	return s.classifier.Domains()
}

// persist flushes the ledger snapshot. A storage failure is logged once and
// swallowed; the in-memory ledger stays authoritative until the next
// successful save.
func (s *Service) persist() {
	if err := s.store.Save(s.ledger.State()); err != nil {
		s.logger.Error("saving learning state failed", "error", err)
	}
}

// clamp01 bounds confidence to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
