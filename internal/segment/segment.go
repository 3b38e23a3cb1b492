// Package segment splits raw text into the atomic units that get clustered.
//
// Three modes are supported:
//  1. Paragraph - blank-line separated blocks of text
//  2. Sentence - sentence spans found by sentence-boundary detection
//  3. Word - unique word stems, each paired with its most frequent surface form
//
// Word mode also returns the sentences of the source text as context documents,
// because a single word has no internal term structure to vectorize. The stems of
// every context are computed here, once, and handed to later stages.
//
// Usage Example:
//
//	res, err := segment.Split(text, segment.Sentence, segment.Filter{})
//	// res.Units holds one Unit per sentence, in input order
package segment

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/chriscorrea/dendro/internal/lingo"
	"github.com/chriscorrea/dendro/internal/runerr"
)

// Mode selects how text is split into units.
type Mode string

const (
	Paragraph Mode = "paragraph"
	Sentence  Mode = "sentence"
	Word      Mode = "word"
)

// ParseMode validates a mode name. The empty string selects Paragraph.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return Paragraph, nil
	case Paragraph, Sentence, Word:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want paragraph, sentence or word)", s)
	}
}

// Unit is one atomic item being clustered. Index is its position in input
// order and the only reference later stages use.
type Unit struct {
	Index int
	Text  string // raw span, or the stem in word mode
	Label string // word mode only: most frequent surface form of the stem
}

// Display returns the text shown for the unit.
func (u Unit) Display() string {
	if u.Label != "" {
		return u.Label
	}
	return u.Text
}

// Context is one sentence of the source text used as a co-occurrence document in word mode.
type Context struct {
	Text  string
	Stems map[string]struct{} // every token stem, function words included
}

// Has reports whether stem occurs in the context.
func (c Context) Has(stem string) bool {
	_, ok := c.Stems[stem]
	return ok
}

// Filter holds the word-mode filtering options.
type Filter struct {
	NounOnly    bool
	MinWordFreq int
	Stopwords   lingo.Stopwords
	Tagger      lingo.Tagger // nil means lingo.Tag
}

// Result is the output of Split.
type Result struct {
	Mode     Mode
	Units    []Unit
	Contexts []Context // word mode only
}

// Texts returns the display text of every unit, in order.
func (r *Result) Texts() []string {
	out := make([]string, len(r.Units))
	for i, u := range r.Units {
		out[i] = u.Display()
	}
	return out
}

var paragraphBreak = regexp.MustCompile(`\n[ \t]*\n\s*`)

// Split breaks text into units according to mode.
// Fewer than two units is reported as runerr.ErrInsufficientData.
func Split(text string, mode Mode, f Filter) (*Result, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	slog.Debug("Split called", "mode", mode, "textLength", len(text))

	res := &Result{Mode: mode}
	var err error
	switch mode {
	case Paragraph:
		res.Units = paragraphs(text)
	case Sentence:
		res.Units, err = sentences(text)
	case Word:
		res.Units, res.Contexts, err = words(text, f)
	default:
		return nil, fmt.Errorf("split text: unknown mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	if len(res.Units) < 2 {
		return nil, runerr.InsufficientData(len(res.Units))
	}

	slog.Debug("Split completed", "mode", mode, "units", len(res.Units), "contexts", len(res.Contexts))
	return res, nil
}

// Paragraphs splits text on blank lines and drops empty paragraphs.
func Paragraphs(text string) []string {
	var out []string
	for _, part := range paragraphBreak.Split(strings.ReplaceAll(text, "\r\n", "\n"), -1) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func paragraphs(text string) []Unit {
	var units []Unit
	for _, p := range Paragraphs(text) {
		units = append(units, Unit{Index: len(units), Text: p})
	}
	return units
}

func sentences(text string) ([]Unit, error) {
	spans, err := lingo.Sentences(text)
	if err != nil {
		return nil, fmt.Errorf("split sentences: %w", err)
	}
	units := make([]Unit, 0, len(spans))
	for _, s := range spans {
		units = append(units, Unit{Index: len(units), Text: s})
	}
	return units, nil
}

// stemStats accumulates everything word mode needs to know about one stem.
type stemStats struct {
	count    int
	surfaces map[string]int
	order    []string // surface forms in first-seen order
}

func words(text string, f Filter) ([]Unit, []Context, error) {
	spans, err := lingo.Sentences(text)
	if err != nil {
		return nil, nil, fmt.Errorf("split context sentences: %w", err)
	}

	stats := make(map[string]*stemStats)
	var stems []string // first-seen order
	contexts := make([]Context, 0, len(spans))

	// units and contexts come from the same token stream, so every unit occurs in a context
	for _, span := range spans {
		tokens, tagged := sentenceTokens(span, f.Tagger)
		ctx := Context{Text: span, Stems: make(map[string]struct{}, len(tokens))}
		for _, tok := range tokens {
			lower := strings.ToLower(tok.Text)
			stem := lingo.Stem(lower)
			if stem == "" {
				continue
			}
			ctx.Stems[stem] = struct{}{}

			if f.NounOnly && tagged && !isNoun(tok) {
				continue
			}
			if f.Stopwords.Has(lower) || f.Stopwords.Has(stem) {
				continue
			}
			st, ok := stats[stem]
			if !ok {
				st = &stemStats{surfaces: make(map[string]int)}
				stats[stem] = st
				stems = append(stems, stem)
			}
			st.count++
			if st.surfaces[lower] == 0 {
				st.order = append(st.order, lower)
			}
			st.surfaces[lower]++
		}
		contexts = append(contexts, ctx)
	}

	var units []Unit
	for _, stem := range stems {
		st := stats[stem]
		if f.MinWordFreq > 1 && st.count < f.MinWordFreq {
			continue
		}
		units = append(units, Unit{Index: len(units), Text: stem, Label: mostFrequent(st)})
	}
	slog.Debug("Word units collected", "stems", len(stems), "kept", len(units), "minWordFreq", f.MinWordFreq)
	return units, contexts, nil
}

// sentenceTokens tags one sentence. If tagging fails the tagger-free tokenizer
// is used and tagged is false, which disables the noun filter for that sentence.
func sentenceTokens(span string, tag lingo.Tagger) (tokens []lingo.Token, tagged bool) {
	if tag == nil {
		tag = lingo.Tag
	}
	tokens, err := tag(span, false)
	if err == nil {
		return tokens, true
	}
	slog.Warn("Tagging failed, falling back to plain tokenization", "error", err)
	for _, w := range lingo.Words(span) {
		tokens = append(tokens, lingo.Token{Text: w, Lemma: w})
	}
	return tokens, false
}

// isNoun trusts the noun tag except for irregular verb forms the tagger
// mislabels in short sentences ("The cat ran.").
func isNoun(tok lingo.Token) bool {
	return tok.POS == lingo.Noun && !lingo.IsInflectedVerb(tok.Text)
}

// mostFrequent picks the most frequent surface form, ties going to the first seen.
func mostFrequent(st *stemStats) string {
	best, bestCount := "", 0
	for _, s := range st.order {
		if c := st.surfaces[s]; c > bestCount {
			best, bestCount = s, c
		}
	}
	return best
}
