package classify

import (
	"math"
	"reflect"
	"testing"

	"github.com/lextriage/lextriage/internal/corpus"
)

func testExamples() []corpus.Example {
	return []corpus.Example{
		{Domain: "tenant_rights", Text: "landlord will not return deposit"},
		{Domain: "tenant_rights", Text: "eviction notice without proper cause"},
		{Domain: "consumer_complaint", Text: "refund denied by seller"},
		{Domain: "criminal_law", Text: "victim of theft and police will not register the case"},
	}
}

func newTestClassifier(t *testing.T, examples []corpus.Example) *Classifier {
	t.Helper()
	c, err := New(examples)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_EmptyCorpus(t *testing.T) {
	_, err := New(nil)
	if err != corpus.ErrNoExamples {
		t.Errorf("error = %v, want ErrNoExamples", err)
	}
}

func TestClassify_BestDomain(t *testing.T) {
	c := newTestClassifier(t, testExamples())

	domain, confidence := c.Classify("my landlord won't return my deposit")
	if domain != "tenant_rights" {
		t.Errorf("domain = %q, want tenant_rights", domain)
	}
	if confidence <= 0.5 {
		t.Errorf("confidence = %f, want > 0.5", confidence)
	}
	if confidence > 1 {
		t.Errorf("confidence = %f, want <= 1", confidence)
	}
}

func TestClassify_ExactPhraseScoresOne(t *testing.T) {
	c := newTestClassifier(t, testExamples())

	domain, confidence := c.Classify("refund denied by seller")
	if domain != "consumer_complaint" {
		t.Errorf("domain = %q, want consumer_complaint", domain)
	}
	if math.Abs(confidence-1.0) > 1e-9 {
		t.Errorf("confidence = %f, want 1.0 for an exact corpus phrase", confidence)
	}
}

func TestClassify_BestExampleNotAverage(t *testing.T) {
	examples := []corpus.Example{
		{Domain: "property_law", Text: "boundary wall dispute with neighbour"},
		{Domain: "property_law", Text: "completely unrelated filler text"},
		{Domain: "family_law", Text: "boundary of custody arrangements"},
	}
	c := newTestClassifier(t, examples)

	// An exact hit on one property_law example must score 1 even though
	// the domain's other example shares nothing with the query.
	domain, confidence := c.Classify("boundary wall dispute with neighbour")
	if domain != "property_law" {
		t.Errorf("domain = %q, want property_law", domain)
	}
	if math.Abs(confidence-1.0) > 1e-9 {
		t.Errorf("confidence = %f, want the best example's score, not an average", confidence)
	}
}

func TestClassify_NoRecognizedTerms(t *testing.T) {
	c := newTestClassifier(t, testExamples())

	domain, confidence := c.Classify("zzzz qqqq")
	if domain != "tenant_rights" {
		t.Errorf("domain = %q, want the first corpus domain", domain)
	}
	if confidence != 0 {
		t.Errorf("confidence = %f, want 0", confidence)
	}
}

func TestClassify_TieKeepsCorpusOrder(t *testing.T) {
	examples := []corpus.Example{
		{Domain: "first_domain", Text: "identical wording here"},
		{Domain: "second_domain", Text: "identical wording here"},
	}
	c := newTestClassifier(t, examples)

	domain, _ := c.Classify("identical wording here")
	if domain != "first_domain" {
		t.Errorf("domain = %q, want first_domain on a tie", domain)
	}
}

func TestRankAlternatives(t *testing.T) {
	c := newTestClassifier(t, testExamples())

	alts := c.RankAlternatives("my landlord won't return my deposit")

	if len(alts) == 0 || len(alts) > maxAlternatives {
		t.Fatalf("got %d alternatives, want between 1 and %d", len(alts), maxAlternatives)
	}
	if alts[0].Domain != "tenant_rights" {
		t.Errorf("top alternative = %q, want tenant_rights", alts[0].Domain)
	}

	seen := map[string]bool{}
	for i, a := range alts {
		if seen[a.Domain] {
			t.Errorf("domain %q listed twice", a.Domain)
		}
		seen[a.Domain] = true
		if i > 0 && alts[i].Score > alts[i-1].Score {
			t.Errorf("alternatives not sorted: [%d]=%f > [%d]=%f", i, alts[i].Score, i-1, alts[i-1].Score)
		}
	}
}

func TestRankAlternatives_PerDomainBest(t *testing.T) {
	examples := []corpus.Example{
		{Domain: "employment_law", Text: "fired without notice period"},
		{Domain: "employment_law", Text: "salary unpaid for three months"},
		{Domain: "contract_dispute", Text: "breach of agreed notice clause"},
	}
	c := newTestClassifier(t, examples)

	alts := c.RankAlternatives("fired without notice period")

	if alts[0].Domain != "employment_law" {
		t.Fatalf("top = %q, want employment_law", alts[0].Domain)
	}
	if math.Abs(alts[0].Score-1.0) > 1e-9 {
		t.Errorf("employment_law score = %f, want its best example's 1.0", alts[0].Score)
	}
	if len(alts) != 2 {
		t.Fatalf("got %d alternatives, want 2 domains", len(alts))
	}
	if alts[1].Domain != "contract_dispute" {
		t.Errorf("second = %q, want contract_dispute", alts[1].Domain)
	}
	if alts[1].Score <= 0 || alts[1].Score >= 1 {
		t.Errorf("contract_dispute score = %f, want a partial overlap in (0, 1)", alts[1].Score)
	}
}

func TestDomains_CorpusOrder(t *testing.T) {
	c := newTestClassifier(t, testExamples())

	want := []string{"tenant_rights", "consumer_complaint", "criminal_law"}
	if got := c.Domains(); !reflect.DeepEqual(got, want) {
		t.Errorf("Domains() = %v, want %v", got, want)
	}
}

func TestClassifierCounts(t *testing.T) {
	c := newTestClassifier(t, testExamples())

	if got := c.ExampleCount(); got != 4 {
		t.Errorf("ExampleCount = %d, want 4", got)
	}
	if got := c.VocabularySize(); got == 0 {
		t.Error("VocabularySize = 0, want a fitted vocabulary")
	}
}

func TestEmbeddedCorpusClassifies(t *testing.T) {
	examples, err := corpus.Load()
	if err != nil {
		t.Fatalf("corpus.Load: %v", err)
	}
	c := newTestClassifier(t, examples)

	domain, confidence := c.Classify("my landlord is not returning my security deposit")
	if domain != "tenant_rights" {
		t.Errorf("domain = %q, want tenant_rights", domain)
	}
	if confidence <= 0 {
		t.Errorf("confidence = %f, want > 0", confidence)
	}
}
