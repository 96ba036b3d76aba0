package classify

import (
	"math"
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "contractions split and short pieces drop",
			in:   "My landlord won't return my deposit",
			want: []string{"landlord", "won", "return", "deposit"},
		},
		{
			name: "lowercase folding",
			in:   "LANDLORD Deposit",
			want: []string{"landlord", "deposit"},
		},
		{
			name: "accents fold to ascii",
			in:   "café résumé",
			want: []string{"cafe", "resume"},
		},
		{
			name: "digits kept",
			in:   "section 498a of the code",
			want: []string{"section", "498a", "the", "code"},
		},
		{
			name: "two-rune words drop, three-rune words stay",
			in:   "a an to of my the and won not",
			want: []string{"the", "and", "won", "not"},
		},
		{
			name: "punctuation separates",
			in:   "refund,denied;by-seller",
			want: []string{"refund", "denied", "seller"},
		},
		{
			name: "empty input",
			in:   "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripAccents(t *testing.T) {
	tests := []struct{ in, want string }{
		{"café", "cafe"},
		{"naïve", "naive"},
		{"São Paulo", "Sao Paulo"},
		{"plain ascii", "plain ascii"},
	}
	for _, tt := range tests {
		if got := stripAccents(tt.in); got != tt.want {
			t.Errorf("stripAccents(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFitDeterministic(t *testing.T) {
	texts := []string{
		"landlord will not return deposit",
		"refund denied by seller",
		"victim of theft",
	}

	s1 := Fit(texts)
	s2 := Fit(texts)

	if !reflect.DeepEqual(s1.terms, s2.terms) {
		t.Errorf("vocabularies differ: %v vs %v", s1.terms, s2.terms)
	}
	if !reflect.DeepEqual(s1.idf, s2.idf) {
		t.Errorf("idf weights differ: %v vs %v", s1.idf, s2.idf)
	}
}

func TestFitVocabularySorted(t *testing.T) {
	s := Fit([]string{"zebra apple", "mango apple banana"})

	want := []string{"apple", "banana", "mango", "zebra"}
	if !reflect.DeepEqual(s.terms, want) {
		t.Errorf("terms = %v, want %v", s.terms, want)
	}
	if s.Size() != len(want) {
		t.Errorf("Size() = %d, want %d", s.Size(), len(want))
	}
}

func TestIDFWeighting(t *testing.T) {
	// "beta" appears in both documents, "alpha" and "gamma" in one each.
	s := Fit([]string{"alpha beta", "beta gamma"})

	if got := s.idf[s.index["beta"]]; math.Abs(got-1.0) > 1e-12 {
		t.Errorf("idf(beta) = %f, want 1.0 for a term present everywhere", got)
	}
	if s.idf[s.index["alpha"]] <= s.idf[s.index["beta"]] {
		t.Errorf("idf(alpha) = %f should exceed idf(beta) = %f",
			s.idf[s.index["alpha"]], s.idf[s.index["beta"]])
	}
}

func TestTransform(t *testing.T) {
	s := Fit([]string{"alpha beta", "beta gamma"})

	vec := s.Transform("alpha alpha beta unknownword")

	if got, want := vec[s.index["alpha"]], 2*s.idf[s.index["alpha"]]; math.Abs(got-want) > 1e-12 {
		t.Errorf("alpha weight = %f, want %f (term frequency times idf)", got, want)
	}
	if got, want := vec[s.index["beta"]], s.idf[s.index["beta"]]; math.Abs(got-want) > 1e-12 {
		t.Errorf("beta weight = %f, want %f", got, want)
	}
	if got := vec[s.index["gamma"]]; got != 0 {
		t.Errorf("gamma weight = %f, want 0 for an absent term", got)
	}
}

func TestTransform_NoKnownTerms(t *testing.T) {
	s := Fit([]string{"alpha beta"})

	vec := s.Transform("completely unrelated words")
	for i, v := range vec {
		if v != 0 {
			t.Errorf("vec[%d] = %f, want all zeros", i, v)
		}
	}
	if vectorNorm(vec) != 0 {
		t.Errorf("norm = %f, want 0", vectorNorm(vec))
	}
}

func TestCosine(t *testing.T) {
	a := []float64{1, 0, 2}
	b := []float64{1, 0, 2}
	if got := cosine(a, b, vectorNorm(a), vectorNorm(b)); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("cosine of identical vectors = %f, want 1", got)
	}

	c := []float64{0, 3, 0}
	if got := cosine(a, c, vectorNorm(a), vectorNorm(c)); got != 0 {
		t.Errorf("cosine of orthogonal vectors = %f, want 0", got)
	}

	zero := []float64{0, 0, 0}
	if got := cosine(a, zero, vectorNorm(a), vectorNorm(zero)); got != 0 {
		t.Errorf("cosine against a zero vector = %f, want 0", got)
	}

	short := []float64{1, 2}
	if got := cosine(a, short, vectorNorm(a), vectorNorm(short)); got != 0 {
		t.Errorf("cosine of mismatched lengths = %f, want 0", got)
	}
}
