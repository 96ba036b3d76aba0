package corpus

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoExamples is returned when a corpus contains no usable training
// examples. Classification cannot work without a corpus, so callers should
// treat this as fatal at startup.
var ErrNoExamples = errors.New("training corpus has no examples")

// Example is a single labeled training phrase. Examples are loaded once at
// startup and never mutated; their file order defines tie-breaking in the
// classifier, so loading must preserve it.
type Example struct {
	Domain string
	Text   string
}

//go:embed data/corpus.yaml
var defaultCorpus []byte

type corpusFile struct {
	Domains []domainEntry `yaml:"domains"`
}

type domainEntry struct {
	Name     string   `yaml:"name"`
	Examples []string `yaml:"examples"`
}

// Load returns the built-in training corpus.
func Load() ([]Example, error) {
	examples, err := parse(defaultCorpus)
	if err != nil {
		return nil, fmt.Errorf("embedded corpus: %w", err)
	}
	return examples, nil
}

// LoadFile reads a corpus from an external YAML file with the same layout
// as the embedded one, replacing it entirely.
func LoadFile(path string) ([]Example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus file: %w", err)
	}
	examples, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("corpus file %s: %w", path, err)
	}
	return examples, nil
}

func parse(data []byte) ([]Example, error) {
	var f corpusFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing corpus: %w", err)
	}

	var examples []Example
	for _, d := range f.Domains {
		if strings.TrimSpace(d.Name) == "" {
			return nil, errors.New("corpus domain with empty name")
		}
		for _, text := range d.Examples {
			if strings.TrimSpace(text) == "" {
				return nil, fmt.Errorf("domain %s: empty example text", d.Name)
			}
			examples = append(examples, Example{Domain: d.Name, Text: text})
		}
	}
	if len(examples) == 0 {
		return nil, ErrNoExamples
	}
	return examples, nil
}

// Domains returns the distinct domain names in first-appearance order.
func Domains(examples []Example) []string {
	seen := make(map[string]bool, len(examples))
	var domains []string
	for _, ex := range examples {
		if !seen[ex.Domain] {
			seen[ex.Domain] = true
			domains = append(domains, ex.Domain)
		}
	}
	return domains
}
