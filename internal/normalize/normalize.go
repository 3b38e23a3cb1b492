// Package normalize turns paragraph and sentence units into weighted term sequences.
//
// Every unit is tagged and lemmatized. Over-general glue nouns are down-weighted,
// tokens inside (adjective)* noun+ phrases are boosted, and 2-3 lemma windows that
// recur across units are collapsed into single n-gram terms. The per-unit term
// sequences and the global term weights feed the vectorizer.
package normalize

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/chriscorrea/dendro/internal/lingo"
)

const (
	// NgramSeparator joins the lemmas of an n-gram term.
	NgramSeparator = "_"
	// NgramWeight is the weight every n-gram term starts from.
	NgramWeight = 1.0

	minPhraseLen = 2
	maxPhraseLen = 4
	minNgramLen  = 2
	maxNgramLen  = 3
)

// Options controls the enhanced normalization.
type Options struct {
	Lemmatize       bool
	Ngrams          bool
	MinNgramFreq    int
	NounPhraseBoost float64
	GlueWordPenalty float64
	Stopwords       lingo.Stopwords
	Tagger          lingo.Tagger // nil means lingo.Tag
}

// Token is a tagged token with its vectorization weight.
type Token struct {
	lingo.Token
	Weight   float64
	InPhrase bool // part of a detected noun phrase
}

// Result is the normalizer output for one run.
type Result struct {
	Terms   [][]string         // per unit, lemmas with recurring n-grams collapsed
	Weights map[string]float64 // average weight per term
	Tokens  [][]Token          // per unit, every tagged token before stopword removal
	Ngrams  []string           // detected n-grams, sorted
}

// Tagged returns the plain tagged tokens of every unit.
func (r *Result) Tagged() [][]lingo.Token {
	out := make([][]lingo.Token, len(r.Tokens))
	for i, toks := range r.Tokens {
		out[i] = make([]lingo.Token, len(toks))
		for j, t := range toks {
			out[i][j] = t.Token
		}
	}
	return out
}

// Normalize runs the enhanced pipeline over the unit texts.
// A unit whose tagging fails contributes an empty sequence and the run continues.
func Normalize(texts []string, opt Options) *Result {
	res := &Result{
		Terms:   make([][]string, len(texts)),
		Weights: make(map[string]float64),
		Tokens:  make([][]Token, len(texts)),
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	lemmas := make([][]string, len(texts))

	tag := opt.Tagger
	if tag == nil {
		tag = lingo.Tag
	}
	for i, text := range texts {
		tagged, err := tag(text, opt.Lemmatize)
		if err != nil {
			slog.Warn("Linguistic processing failed, unit contributes no tokens", "unit", i, "error", err)
			continue
		}

		tokens := weigh(tagged, opt)
		res.Tokens[i] = tokens

		for _, tok := range tokens {
			if opt.Stopwords.Has(tok.Lemma) || opt.Stopwords.Has(tok.Text) {
				continue
			}
			lemmas[i] = append(lemmas[i], tok.Lemma)
			sums[tok.Lemma] += tok.Weight
			counts[tok.Lemma]++
		}
	}

	for term, sum := range sums {
		res.Weights[term] = sum / float64(counts[term])
	}

	if opt.Ngrams {
		set := detectNgrams(lemmas, opt.MinNgramFreq)
		for i := range lemmas {
			res.Terms[i] = applyNgrams(lemmas[i], set)
		}
		for ng := range set {
			term := strings.ReplaceAll(ng, " ", NgramSeparator)
			res.Ngrams = append(res.Ngrams, term)
			res.Weights[term] = NgramWeight
		}
		sort.Strings(res.Ngrams)
	} else {
		copy(res.Terms, lemmas)
	}

	slog.Debug("Normalization completed", "units", len(texts), "terms", len(res.Weights), "ngrams", len(res.Ngrams))
	return res
}

// Plain is the non-enhanced path: lowercase words minus stopwords, all weights 1.
func Plain(texts []string, sw lingo.Stopwords) *Result {
	res := &Result{
		Terms:   make([][]string, len(texts)),
		Weights: map[string]float64{},
		Tokens:  make([][]Token, len(texts)),
	}
	for i, text := range texts {
		for _, w := range lingo.Words(text) {
			if !sw.Has(w) {
				res.Terms[i] = append(res.Terms[i], w)
			}
		}
	}
	return res
}

// weigh assigns the glue-word penalty and the noun-phrase boost.
func weigh(tagged []lingo.Token, opt Options) []Token {
	tokens := make([]Token, len(tagged))
	for i, t := range tagged {
		tokens[i] = Token{Token: t, Weight: 1.0}
		if lingo.IsGlueWord(t.Lemma) {
			tokens[i].Weight *= opt.GlueWordPenalty
		}
	}

	for _, span := range nounPhrases(tagged) {
		for k := span[0]; k < span[1]; k++ {
			tokens[k].InPhrase = true
			tokens[k].Weight *= opt.NounPhraseBoost
		}
	}
	return tokens
}

// nounPhrases finds (ADJ)* NOUN+ spans as half-open [start, end) index pairs.
// Spans shorter than two tokens are skipped; longer than four keep their last four.
func nounPhrases(tokens []lingo.Token) [][2]int {
	var spans [][2]int
	i := 0
	for i < len(tokens) {
		j := i
		for j < len(tokens) && tokens[j].POS == lingo.Adj {
			j++
		}
		k := j
		for k < len(tokens) && tokens[k].POS == lingo.Noun {
			k++
		}

		if k == j {
			// no noun after the adjectives
			if j > i {
				i = j
			} else {
				i++
			}
			continue
		}

		if k-i >= minPhraseLen {
			start := i
			if k-start > maxPhraseLen {
				start = k - maxPhraseLen
			}
			spans = append(spans, [2]int{start, k})
		}
		i = k
	}
	return spans
}

// detectNgrams counts every 2- and 3-lemma window once per unit and keeps
// the windows seen in at least minFreq units. Keys are space-joined.
func detectNgrams(units [][]string, minFreq int) map[string]struct{} {
	counts := make(map[string]int)
	for _, lemmas := range units {
		seen := make(map[string]struct{})
		for n := minNgramLen; n <= maxNgramLen; n++ {
			for i := 0; i+n <= len(lemmas); i++ {
				key := strings.Join(lemmas[i:i+n], " ")
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				counts[key]++
			}
		}
	}

	set := make(map[string]struct{})
	for key, c := range counts {
		if c >= minFreq {
			set[key] = struct{}{}
		}
	}
	return set
}

// applyNgrams replaces n-gram spans left to right, longest first, without overlap.
func applyNgrams(lemmas []string, set map[string]struct{}) []string {
	if len(set) == 0 {
		return lemmas
	}
	out := make([]string, 0, len(lemmas))
	for i := 0; i < len(lemmas); {
		matched := false
		for n := maxNgramLen; n >= minNgramLen; n-- {
			if i+n > len(lemmas) {
				continue
			}
			if _, ok := set[strings.Join(lemmas[i:i+n], " ")]; ok {
				out = append(out, strings.Join(lemmas[i:i+n], NgramSeparator))
				i += n
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, lemmas[i])
			i++
		}
	}
	return out
}
