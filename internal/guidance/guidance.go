package guidance

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// RouteInfo is the canned procedural guidance for one domain.
type RouteInfo struct {
	Summary  string `yaml:"summary" json:"summary"`
	Timeline string `yaml:"timeline" json:"timeline"`
	Outcome  string `yaml:"outcome" json:"outcome"`
}

type domainGuidance struct {
	Route RouteInfo `yaml:"route"`
	Steps []string  `yaml:"steps"`
}

type guidanceFile struct {
	Default  domainGuidance            `yaml:"default"`
	Domains  map[string]domainGuidance `yaml:"domains"`
	Glossary map[string]string         `yaml:"glossary"`
}

// Guide serves static procedural guidance and glossary lookups. All data is
// loaded once at startup and read-only afterwards; lookups are pure and feed
// nothing back into classification.
type Guide struct {
	defaults domainGuidance
	domains  map[string]domainGuidance
	glossary map[string]string
	terms    []string // sorted glossary keys, for deterministic scans
}

//go:embed data/guidance.yaml
var embeddedGuidance []byte

// Load parses the built-in guidance tables.
func Load() (*Guide, error) {
	var f guidanceFile
	if err := yaml.Unmarshal(embeddedGuidance, &f); err != nil {
		return nil, fmt.Errorf("parsing guidance data: %w", err)
	}
	if f.Default.Route.Summary == "" {
		return nil, fmt.Errorf("guidance data has no default route")
	}

	terms := make([]string, 0, len(f.Glossary))
	glossary := make(map[string]string, len(f.Glossary))
	for term, def := range f.Glossary {
		t := strings.ToLower(strings.TrimSpace(term))
		glossary[t] = def
		terms = append(terms, t)
	}
	sort.Strings(terms)

	return &Guide{
		defaults: f.Default,
		domains:  f.Domains,
		glossary: glossary,
		terms:    terms,
	}, nil
}

// Lookup returns the route entry for a domain. Unknown domains get the
// default entry rather than an error.
func (g *Guide) Lookup(domain string) RouteInfo {
	if d, ok := g.domains[domain]; ok {
		return d.Route
	}
	return g.defaults.Route
}

// ProcessSteps returns the ordered procedural steps for a domain, falling
// back to the default steps for unknown domains.
func (g *Guide) ProcessSteps(domain string) []string {
	steps := g.defaults.Steps
	if d, ok := g.domains[domain]; ok && len(d.Steps) > 0 {
		steps = d.Steps
	}
	cp := make([]string, len(steps))
	copy(cp, steps)
	return cp
}

// FindTerms scans text for known glossary terms and returns their
// definitions. Matching is case-insensitive substring; an empty map means
// no term appeared.
func (g *Guide) FindTerms(text string) map[string]string {
	lowered := strings.ToLower(text)
	found := make(map[string]string)
	for _, term := range g.terms {
		if strings.Contains(lowered, term) {
			found[term] = g.glossary[term]
		}
	}
	return found
}

// Terms returns every glossary term in sorted order.
func (g *Guide) Terms() []string {
	cp := make([]string, len(g.terms))
	copy(cp, g.terms)
	return cp
}
