// Package label names clusters with TextRank keywords.
//
// The tokens under a cluster form a co-occurrence graph (sliding window over each
// unit, never across units). A PageRank-style iteration scores every token by
// centrality; nouns and adjectives are preferred as keywords.
package label

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/chriscorrea/dendro/internal/lingo"
)

const (
	DefaultWindow     = 3
	DefaultDamping    = 0.85
	DefaultIterations = 20
	DefaultTopK       = 3
)

// Options tunes the keyword ranking.
type Options struct {
	Window     int
	Damping    float64
	Iterations int
	TopK       int
	Stopwords  lingo.Stopwords
}

// DefaultOptions returns the standard TextRank settings with the built-in stopwords.
func DefaultOptions() Options {
	return Options{
		Window:     DefaultWindow,
		Damping:    DefaultDamping,
		Iterations: DefaultIterations,
		TopK:       DefaultTopK,
		Stopwords:  lingo.NewStopwords(nil),
	}
}

// Keyword is one ranked token.
type Keyword struct {
	Word  string
	POS   lingo.POS
	Score float64
}

// Label is the naming of one cluster.
type Label struct {
	Keywords []string
	Text     string
}

// TagUnits tags every unit once so labels for nested clusters reuse the same tokens.
// A unit whose tagging fails is labelled from no tokens. A nil tag means lingo.Tag.
func TagUnits(texts []string, tag lingo.Tagger) [][]lingo.Token {
	if tag == nil {
		tag = lingo.Tag
	}
	out := make([][]lingo.Token, len(texts))
	for i, text := range texts {
		toks, err := tag(text, true)
		if err != nil {
			slog.Warn("Linguistic processing failed while labeling", "unit", i, "error", err)
			continue
		}
		out[i] = toks
	}
	return out
}

// Labeler labels clusters over a fixed set of tagged units.
type Labeler struct {
	opt    Options
	tokens [][]lingo.Token
}

// New returns a Labeler over per-unit tokens. Zero option fields take the defaults.
func New(tokens [][]lingo.Token, opt Options) *Labeler {
	if opt.Window < 2 {
		opt.Window = DefaultWindow
	}
	if opt.Damping <= 0 || opt.Damping >= 1 {
		opt.Damping = DefaultDamping
	}
	if opt.Iterations <= 0 {
		opt.Iterations = DefaultIterations
	}
	if opt.TopK <= 0 {
		opt.TopK = DefaultTopK
	}
	return &Labeler{opt: opt, tokens: tokens}
}

// Label ranks the tokens of the given units and returns the top keywords and a readable label.
func (l *Labeler) Label(members []int) Label {
	var seqs [][]lingo.Token
	for _, m := range members {
		if m >= 0 && m < len(l.tokens) {
			seqs = append(seqs, l.tokens[m])
		}
	}

	ranked := l.Rank(seqs)
	picks := make([]Keyword, 0, l.opt.TopK)
	for _, kw := range ranked {
		if kw.POS == lingo.Noun || kw.POS == lingo.Adj {
			picks = append(picks, kw)
			if len(picks) == l.opt.TopK {
				break
			}
		}
	}
	if len(picks) == 0 {
		picks = ranked[:min(l.opt.TopK, len(ranked))]
	}

	lbl := Label{Keywords: make([]string, len(picks))}
	hints := make([]string, len(picks))
	for i, kw := range picks {
		lbl.Keywords[i] = kw.Word
		hints[i] = hint(kw)
	}
	lbl.Text = strings.Join(hints, ", ")
	return lbl
}

// Rank scores the normalized tokens of seqs, highest first; ties keep first-seen order.
func (l *Labeler) Rank(seqs [][]lingo.Token) []Keyword {
	var (
		nodes []Keyword
		index = make(map[string]int)
		ids   = make([][]int, 0, len(seqs))
	)
	for _, seq := range seqs {
		var row []int
		for _, tok := range seq {
			word := strings.ToLower(tok.Lemma)
			if word == "" || !lingo.IsWord(word) || l.opt.Stopwords.Has(word) || l.opt.Stopwords.Has(tok.Text) {
				continue
			}
			i, ok := index[word]
			if !ok {
				i = len(nodes)
				index[word] = i
				nodes = append(nodes, Keyword{Word: word, POS: tok.POS})
			}
			row = append(row, i)
		}
		ids = append(ids, row)
	}
	if len(nodes) == 0 {
		return nil
	}

	scores := pagerank(len(nodes), buildGraph(len(nodes), ids, l.opt.Window), l.opt.Damping, l.opt.Iterations)
	for i := range nodes {
		nodes[i].Score = scores[i]
	}

	ranked := slices.Clone(nodes)
	slices.SortStableFunc(ranked, func(a, b Keyword) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	return ranked
}

// edge is a neighbor index + weight pair kept sorted for deterministic iteration.
type edge struct {
	to     int
	weight float64
}

func buildGraph(n int, seqs [][]int, window int) [][]edge {
	edgeMaps := make([]map[int]float64, n)
	for i := range edgeMaps {
		edgeMaps[i] = make(map[int]float64)
	}

	for _, seq := range seqs {
		for i, si := range seq {
			end := min(i+window, len(seq))
			for j := i + 1; j < end; j++ {
				if sj := seq[j]; si != sj {
					edgeMaps[si][sj]++
					edgeMaps[sj][si]++
				}
			}
		}
	}

	edges := make([][]edge, n)
	for i, m := range edgeMaps {
		edges[i] = make([]edge, 0, len(m))
		for to, w := range m {
			edges[i] = append(edges[i], edge{to: to, weight: w})
		}
		slices.SortFunc(edges[i], func(a, b edge) int { return a.to - b.to })
	}
	return edges
}

// pagerank runs a fixed number of iterations of
// score(i) = (1-d) + d * sum_j w(j,i)/out(j) * score(j), starting from 1.
func pagerank(n int, edges [][]edge, damping float64, iterations int) []float64 {
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0
	}

	outWeight := make([]float64, n)
	for i, neighbors := range edges {
		for _, e := range neighbors {
			outWeight[i] += e.weight
		}
	}

	for range iterations {
		next := make([]float64, n)
		for i := range n {
			sum := 0.0
			for _, e := range edges[i] {
				if outWeight[e.to] > 0 {
					sum += e.weight / outWeight[e.to] * scores[e.to]
				}
			}
			next[i] = (1 - damping) + damping*sum
		}
		scores = next
	}
	return scores
}

// hint renders a keyword with a part-of-speech cue for non-nouns.
func hint(kw Keyword) string {
	switch kw.POS {
	case lingo.Verb:
		return "to " + kw.Word
	case lingo.Adj:
		return kw.Word + " (adj)"
	case lingo.Adv:
		return kw.Word + " (adv)"
	default:
		return kw.Word
	}
}
