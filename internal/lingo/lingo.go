// Package lingo wraps the linguistic primitives shared by the clustering stages:
// sentence segmentation, tokenization and part-of-speech tagging (prose),
// lemmatization, snowball stemming, stopwords and glue words.
//
// All functions are safe for concurrent use. The prose tagging model is loaded
// once per process and reused by every document.
package lingo

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/jdkato/prose/v2"
	"github.com/kljensen/snowball"
	"golang.org/x/text/unicode/norm"

	"github.com/chriscorrea/dendro/internal/runerr"
)

// POS is the coarse part-of-speech class used by the pipeline.
type POS int

const (
	Other POS = iota
	Noun
	Verb
	Adj
	Adv
)

// String returns the class name.
func (p POS) String() string {
	switch p {
	case Noun:
		return "NOUN"
	case Verb:
		return "VERB"
	case Adj:
		return "ADJ"
	case Adv:
		return "ADV"
	default:
		return "OTHER"
	}
}

// ClassOf maps a Penn Treebank tag onto a coarse class.
func ClassOf(tag string) POS {
	switch {
	case strings.HasPrefix(tag, "NN"):
		return Noun
	case strings.HasPrefix(tag, "VB"), tag == "MD":
		return Verb
	case strings.HasPrefix(tag, "JJ"):
		return Adj
	case strings.HasPrefix(tag, "RB"):
		return Adv
	default:
		return Other
	}
}

// Token is one tagged word of a text.
type Token struct {
	Text  string // surface form; split contraction heads are restored ("wo" -> "will")
	Tag   string // Penn Treebank tag
	POS   POS
	Lemma string // lowercase base form
}

var (
	modelOnce sync.Once
	model     *prose.Model
	modelErr  error
)

// taggingModel loads the prose tagger once; NewDocument would otherwise
// rebuild it for every call.
func taggingModel() (*prose.Model, error) {
	modelOnce.Do(func() {
		doc, err := prose.NewDocument("warm up",
			prose.WithSegmentation(false),
			prose.WithExtraction(false))
		if err != nil {
			modelErr = fmt.Errorf("load tagging model: %w", err)
			return
		}
		model = doc.Model
	})
	return model, modelErr
}

// Clean applies NFKC normalisation and drops control characters other than
// whitespace, so curly quotes and ligatures tokenize like their ASCII forms.
func Clean(text string) string {
	text = norm.NFKC.String(text)
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == 0xFFFD || (unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r') {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Tagger is the signature of Tag. Stages that tag units take one; nil means Tag.
type Tagger func(text string, lemmatize bool) ([]Token, error)

// Tag tokenizes and tags text, dropping punctuation-only tokens and contraction suffixes.
// Lemmas are computed when lemmatize is true; otherwise Lemma is the lowercase surface.
// A tagger failure on malformed input is reported as ErrLinguisticProcessing.
func Tag(text string, lemmatize bool) (tokens []Token, err error) {
	defer func() {
		if r := recover(); r != nil {
			tokens = nil
			err = fmt.Errorf("%w: %v", runerr.ErrLinguisticProcessing, r)
		}
	}()

	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	m, err := taggingModel()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", runerr.ErrLinguisticProcessing, err)
	}

	doc, err := prose.NewDocument(Clean(text),
		prose.UsingModel(m),
		prose.WithSegmentation(false),
		prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", runerr.ErrLinguisticProcessing, err)
	}

	raw := doc.Tokens()
	for i, tok := range raw {
		if !IsWord(tok.Text) || IsClitic(tok.Text) {
			continue
		}
		text := tok.Text
		if i+1 < len(raw) && isNegation(raw[i+1].Text) {
			if full, ok := contractedHeads[strings.ToLower(text)]; ok {
				text = full
			}
		}
		pos := ClassOf(tok.Tag)
		lemma := strings.ToLower(text)
		if lemmatize {
			lemma = Lemma(text, tok.Tag)
		}
		tokens = append(tokens, Token{Text: text, Tag: tok.Tag, POS: pos, Lemma: lemma})
	}
	return tokens, nil
}

// contractedHeads restores the verb half of a negative contraction the
// tokenizer split apart ("won't" becomes "wo" + "n't").
var contractedHeads = map[string]string{"wo": "will", "ca": "can", "sha": "shall"}

// IsClitic reports whether tok is a contraction suffix split off by the
// tokenizer, such as "n't" or "'s".
func IsClitic(tok string) bool {
	switch strings.ToLower(strings.ReplaceAll(tok, "\u2019", "'")) {
	case "n't", "'s", "'re", "'ll", "'d", "'ve", "'m":
		return true
	}
	return false
}

func isNegation(tok string) bool {
	return strings.EqualFold(strings.ReplaceAll(tok, "\u2019", "'"), "n't")
}

// Sentences splits text into trimmed, non-empty sentence spans.
func Sentences(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	doc, err := prose.NewDocument(Clean(text),
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("segment sentences: %w", err)
	}

	var out []string
	for _, s := range doc.Sentences() {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	slog.Debug("Segmented sentences", "count", len(out))
	return out, nil
}

// Words splits text on anything that is not a letter, digit, apostrophe or hyphen
// and lowercases the pieces. It is the tagger-free tokenizer used when the
// enhanced pipeline is off and for word-mode context documents.
func Words(text string) []string {
	var words []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			w := strings.Trim(current.String(), "'-")
			if w != "" {
				words = append(words, w)
			}
			current.Reset()
		}
	}
	for _, r := range Clean(text) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\'' || r == '-' {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return words
}

// IsWord reports whether s contains at least one letter or digit.
func IsWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

// Stem reduces a word to its English snowball stem.
// If stemming fails the lowercase word is returned.
func Stem(word string) string {
	lower := strings.ToLower(word)
	stemmed, err := snowball.Stem(lower, "english", true)
	if err != nil || stemmed == "" {
		return lower
	}
	return stemmed
}
