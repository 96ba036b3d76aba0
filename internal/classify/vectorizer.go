package classify

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// minTermLen drops very short tokens ("a", "to", "of") that carry no domain
// signal.
const minTermLen = 3

// VectorSpace maps text onto a fixed vocabulary of IDF-weighted terms. It is
// built once from the training corpus and read-only afterwards, so it is
// safe for concurrent use.
type VectorSpace struct {
	terms []string       // vocabulary, lexicographically sorted
	index map[string]int // term -> position in terms
	idf   []float64      // per-term inverse document frequency
}

// Fit builds a VectorSpace over the given texts. The vocabulary is every
// distinct normalized term across all texts, in sorted order, so the same
// corpus always produces the same space and the same confidence values.
func Fit(texts []string) *VectorSpace {
	df := make(map[string]int)
	for _, text := range texts {
		seen := make(map[string]bool)
		for _, term := range Tokenize(text) {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	index := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(texts))
	for i, term := range terms {
		index[term] = i
		// Smoothed IDF: rarer terms weigh more, and a term present in every
		// document keeps a small positive weight instead of vanishing.
		idf[i] = math.Log((n+1)/float64(df[term]+1)) + 1
	}

	return &VectorSpace{terms: terms, index: index, idf: idf}
}

// Transform maps text to a dense term-frequency vector scaled by IDF. Terms
// outside the vocabulary are dropped; an all-zero vector is a valid result
// for text with no recognized terms.
func (s *VectorSpace) Transform(text string) []float64 {
	vec := make([]float64, len(s.terms))
	for _, term := range Tokenize(text) {
		if i, ok := s.index[term]; ok {
			vec[i] += s.idf[i]
		}
	}
	return vec
}

// Size returns the vocabulary size.
func (s *VectorSpace) Size() int { return len(s.terms) }

// Tokenize lower-cases text, folds accents, splits on anything that is not
// a letter or digit, and drops tokens shorter than minTermLen runes.
func Tokenize(text string) []string {
	folded := stripAccents(strings.ToLower(text))
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minTermLen {
			terms = append(terms, f)
		}
	}
	return terms
}

// stripAccents removes combining diacritical marks after NFD normalization.
func stripAccents(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range norm.NFD.String(text) {
		if unicode.In(r, unicode.Mn) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// vectorNorm returns the L2 norm of a vector.
func vectorNorm(v []float64) float64 {
	var sum float64
	for _, f := range v {
		sum += f * f
	}
	return math.Sqrt(sum)
}

// cosine computes dot(a,b) / (aNorm * bNorm) with precomputed norms.
// Mismatched lengths or a zero norm on either side yield 0.
func cosine(a, b []float64, aNorm, bNorm float64) float64 {
	if len(a) != len(b) || aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot / (aNorm * bNorm)
}
