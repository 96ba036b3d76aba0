package classify

import (
	"golang.org/x/sync/errgroup"

	"github.com/lextriage/lextriage/internal/corpus"
)

// maxAlternatives caps the ranked list returned by RankAlternatives.
const maxAlternatives = 3

// DomainScore pairs a domain with its similarity against a query.
type DomainScore struct {
	Domain string  `json:"domain"`
	Score  float64 `json:"score"`
}

// Classifier scores queries against every training example by cosine
// similarity. Training vectors are computed once at construction and are
// immutable afterwards, so a single Classifier serves concurrent callers.
type Classifier struct {
	space    *VectorSpace
	examples []corpus.Example
	vectors  [][]float64
	norms    []float64
	domains  []string
}

// New fits a vector space over the corpus and precomputes every training
// vector. An empty corpus is an error: without examples every query would
// degenerate to the same meaningless answer.
func New(examples []corpus.Example) (*Classifier, error) {
	if len(examples) == 0 {
		return nil, corpus.ErrNoExamples
	}

	texts := make([]string, len(examples))
	for i, ex := range examples {
		texts[i] = ex.Text
	}
	space := Fit(texts)

	// Vectorize the corpus concurrently; results land at fixed indexes so
	// the outcome is identical to a sequential pass.
	vectors := make([][]float64, len(examples))
	norms := make([]float64, len(examples))
	var g errgroup.Group
	g.SetLimit(4)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			vectors[i] = space.Transform(text)
			norms[i] = vectorNorm(vectors[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Classifier{
		space:    space,
		examples: examples,
		vectors:  vectors,
		norms:    norms,
		domains:  corpus.Domains(examples),
	}, nil
}

// Classify returns the best-matching domain and its confidence. Confidence
// is the similarity of the domain's single best example, not an average, so
// one close training phrase can carry a whole domain. Ties keep the earliest
// example, and a query with no recognized terms resolves to the first corpus
// domain at confidence 0.
func (c *Classifier) Classify(query string) (string, float64) {
	qvec := c.space.Transform(query)
	qnorm := vectorNorm(qvec)

	best := 0
	bestScore := 0.0
	for i := range c.vectors {
		score := cosine(qvec, c.vectors[i], qnorm, c.norms[i])
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return c.examples[best].Domain, bestScore
}

// RankAlternatives reduces every example similarity to a per-domain best and
// returns the top domains sorted by score descending, capped at
// maxAlternatives and including the winner itself. Ties keep corpus order.
func (c *Classifier) RankAlternatives(query string) []DomainScore {
	qvec := c.space.Transform(query)
	qnorm := vectorNorm(qvec)

	scores := make([]DomainScore, 0, len(c.domains))
	pos := make(map[string]int, len(c.domains))
	for i := range c.vectors {
		domain := c.examples[i].Domain
		score := cosine(qvec, c.vectors[i], qnorm, c.norms[i])
		j, ok := pos[domain]
		if !ok {
			pos[domain] = len(scores)
			scores = append(scores, DomainScore{Domain: domain, Score: score})
			continue
		}
		if score > scores[j].Score {
			scores[j].Score = score
		}
	}

	sortByScore(scores)
	if len(scores) > maxAlternatives {
		scores = scores[:maxAlternatives]
	}
	return scores
}

// sortByScore sorts by score descending in place. Insertion sort only moves
// strictly greater entries, so equal scores keep their original order.
func sortByScore(scores []DomainScore) {
	for i := 1; i < len(scores); i++ {
		for j := i; j > 0 && scores[j].Score > scores[j-1].Score; j-- {
			scores[j], scores[j-1] = scores[j-1], scores[j]
		}
	}
}

// Domains returns the known domains in corpus order.
func (c *Classifier) Domains() []string {
	domains := make([]string, len(c.domains))
	copy(domains, c.domains)
	return domains
}

// ExampleCount returns the number of training examples.
func (c *Classifier) ExampleCount() int { return len(c.examples) }

// VocabularySize returns the number of distinct terms in the fitted space.
func (c *Classifier) VocabularySize() int { return c.space.Size() }
