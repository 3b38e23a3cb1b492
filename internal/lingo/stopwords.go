package lingo

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed stopwords.yaml
var stopwordsRaw []byte

// defaultStopwords is parsed once from the embedded stoplist and never mutated.
var defaultStopwords = mustParseStoplist(stopwordsRaw)

// Stoplist is the on-disk stopword format shared with user-supplied files.
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// ParseStoplist decodes a YAML stoplist document.
func ParseStoplist(data []byte) ([]string, error) {
	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, fmt.Errorf("parse stoplist: %w", err)
	}
	return sl.Terms, nil
}

func mustParseStoplist(data []byte) map[string]struct{} {
	terms, err := ParseStoplist(data)
	if err != nil {
		panic(err)
	}
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[strings.ToLower(t)] = struct{}{}
	}
	return set
}

// Stopwords is an immutable lowercase stopword set.
type Stopwords struct {
	set map[string]struct{}
}

// NewStopwords returns the built-in English stopwords extended with custom terms.
func NewStopwords(custom []string) Stopwords {
	set := make(map[string]struct{}, len(defaultStopwords)+len(custom))
	for w := range defaultStopwords {
		set[w] = struct{}{}
	}
	for _, w := range custom {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return Stopwords{set: set}
}

// Has reports whether word (any case) is a stopword.
func (s Stopwords) Has(word string) bool {
	if s.set == nil {
		_, ok := defaultStopwords[strings.ToLower(word)]
		return ok
	}
	_, ok := s.set[strings.ToLower(word)]
	return ok
}

// Len returns the number of terms in the set.
func (s Stopwords) Len() int {
	if s.set == nil {
		return len(defaultStopwords)
	}
	return len(s.set)
}

// glueWords are over-general nouns that link otherwise unrelated units.
var glueWords = map[string]struct{}{
	"process":   {},
	"level":     {},
	"structure": {},
	"system":    {},
	"part":      {},
	"way":       {},
	"thing":     {},
	"type":      {},
	"kind":      {},
	"form":      {},
	"aspect":    {},
	"area":      {},
	"factor":    {},
	"element":   {},
	"issue":     {},
	"case":      {},
	"number":    {},
	"point":     {},
	"set":       {},
	"approach":  {},
	"method":    {},
	"state":     {},
}

// IsGlueWord reports whether lemma is an over-general noun whose weight is penalised.
func IsGlueWord(lemma string) bool {
	_, ok := glueWords[lemma]
	return ok
}
