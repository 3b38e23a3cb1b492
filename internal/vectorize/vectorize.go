// Package vectorize builds the unit-by-feature matrix the distance engine consumes.
//
// Paragraph and sentence units get weighted TF-IDF rows over a document-frequency
// filtered vocabulary. Word units bypass TF-IDF and get binary rows marking the
// context sentences their stem occurs in.
//
// Usage Example:
//
//	vocab := vectorize.BuildVocabulary(terms, 0.95)
//	m := vectorize.TFIDF(terms, vocab, weights, true)
//	// m has one row per unit and one column per vocabulary term
package vectorize

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/chriscorrea/dendro/internal/segment"
)

// MaxDocFreqRatio drops terms found in more than this share of units.
const MaxDocFreqRatio = 0.95

// Vocabulary is the ordered set of terms that become matrix columns.
type Vocabulary struct {
	Terms   []string       // column order
	Index   map[string]int // term -> column
	DocFreq map[string]int // units containing the term at least once
	N       int            // unit count
}

// Len returns the number of columns.
func (v *Vocabulary) Len() int { return len(v.Terms) }

// IDF returns log10(N / (1 + df)) for term.
func (v *Vocabulary) IDF(term string) float64 {
	return math.Log10(float64(v.N) / float64(1+v.DocFreq[term]))
}

// BuildVocabulary collects terms in first-seen order and drops those present in
// no unit or in more than maxRatio of all units.
func BuildVocabulary(units [][]string, maxRatio float64) *Vocabulary {
	v := &Vocabulary{
		Index:   make(map[string]int),
		DocFreq: make(map[string]int),
		N:       len(units),
	}

	var order []string
	for _, terms := range units {
		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			if v.DocFreq[t] == 0 {
				order = append(order, t)
			}
			v.DocFreq[t]++
		}
	}

	for _, t := range order {
		df := v.DocFreq[t]
		if df == 0 || float64(df)/float64(v.N) > maxRatio {
			continue
		}
		v.Index[t] = len(v.Terms)
		v.Terms = append(v.Terms, t)
	}

	slog.Debug("Vocabulary built", "units", v.N, "seen", len(order), "kept", len(v.Terms))
	return v
}

// TFIDF returns the weighted TF-IDF matrix, one row per unit.
// Terms absent from weights count with weight 1. Rows are L2-normalised when normalize is set.
func TFIDF(units [][]string, vocab *Vocabulary, weights map[string]float64, normalize bool) *mat.Dense {
	cols := vocab.Len()
	if cols == 0 {
		// gonum rejects zero-sized matrices; a single zero column keeps every row at zero magnitude
		cols = 1
	}
	m := mat.NewDense(len(units), cols, nil)

	for i, terms := range units {
		if len(terms) == 0 {
			continue
		}
		counts := make(map[string]int, len(terms))
		for _, t := range terms {
			counts[t]++
		}

		row := make([]float64, cols)
		for t, c := range counts {
			j, ok := vocab.Index[t]
			if !ok {
				continue
			}
			w, ok := weights[t]
			if !ok {
				w = 1.0
			}
			tf := float64(c) / float64(len(terms))
			row[j] = tf * vocab.IDF(t) * w
		}
		if normalize {
			Normalize(row)
		}
		m.SetRow(i, row)
	}
	return m
}

// Cooccurrence returns the binary word-by-context matrix used in word mode:
// cell (i, j) is 1 when the stem of unit i occurs in context j.
func Cooccurrence(units []segment.Unit, contexts []segment.Context) *mat.Dense {
	cols := len(contexts)
	if cols == 0 {
		cols = 1
	}
	m := mat.NewDense(len(units), cols, nil)
	for i, u := range units {
		for j, c := range contexts {
			if c.Has(u.Text) {
				m.Set(i, j, 1)
			}
		}
	}
	slog.Debug("Co-occurrence matrix built", "words", len(units), "contexts", len(contexts))
	return m
}

// Normalize scales v to unit Euclidean length in place. A zero vector is left unchanged.
func Normalize(v []float64) {
	n := floats.Norm(v, 2)
	if n == 0 {
		return
	}
	floats.Scale(1/n, v)
}
