package app

import (
	"log/slog"
	"strings"

	"github.com/chriscorrea/bm25md"

	"github.com/chriscorrea/dendro/internal/runerr"
	"github.com/chriscorrea/dendro/internal/segment"
)

// ParagraphScore is a paragraph with its BM25md relevance to a query.
type ParagraphScore struct {
	Text  string
	Score float64
	Index int
}

// Score ranks every paragraph against query with BM25md field-weighted scoring.
// The result keeps document order.
func Score(paragraphs []string, query string) []ParagraphScore {
	corpus := bm25md.NewCorpus()
	parser := bm25md.NewMarkdownFieldParser()
	for i, p := range paragraphs {
		corpus.AddDocument(bm25md.Document{
			ID:       i,
			Fields:   parser.ParseDocument(p),
			Original: p,
		})
	}

	scores := make([]ParagraphScore, len(paragraphs))
	for i, p := range paragraphs {
		scores[i] = ParagraphScore{Text: p, Score: corpus.Score(query, i), Index: i}
	}
	return scores
}

// Focus keeps only the paragraphs of text that score above zero for query,
// in their original order. Fewer than two survivors cannot be clustered.
func Focus(text, query string) (string, error) {
	paragraphs := segment.Paragraphs(text)

	var kept []string
	for _, s := range Score(paragraphs, query) {
		if s.Score > 0 {
			kept = append(kept, s.Text)
		}
	}
	slog.Debug("Focused text on query", "query", query, "paragraphs", len(paragraphs), "kept", len(kept))

	if len(kept) < 2 {
		return "", runerr.InsufficientData(len(kept))
	}
	return strings.Join(kept, "\n\n"), nil
}
