// Package classify drops boilerplate paragraphs from extracted web content.
//
// A paragraph is boilerplate when too many of its words stem to terms typical
// of navigation bars, footers, legal notices and publishing metadata. The
// allowed ratio is lowest at the edges of a document, where such text usually
// sits, and highest in the middle.
package classify

import (
	"log/slog"
	"math"
	"unicode"

	"github.com/chriscorrea/dendro/internal/lingo"
)

// boilerplateStems are snowball stems of words common in non-content text.
var boilerplateStems = map[string]struct{}{
	// publishing
	"author": {}, "appendix": {}, "book": {}, "chapter": {}, "content": {},
	"edit": {}, "ebook": {}, "footer": {}, "glossari": {}, "gutenberg": {},
	"navig": {}, "page": {}, "publish": {}, "text": {},

	// navigation
	"about": {}, "home": {}, "contact": {}, "login": {}, "menu": {}, "profil": {},
	"share": {}, "subscrib": {}, "newslett": {}, "updat": {},

	// legal
	"copyright": {}, "permiss": {}, "polici": {}, "privaci": {}, "reproduc": {},
	"reserv": {}, "right": {}, "term": {}, "cooki": {},

	// references
	"citat": {}, "isbn": {}, "doi": {}, "https": {}, "refer": {}, "depart": {},
	"feder": {}, "foundat": {},
}

// Thresholds on the boilerplate ratio.
const (
	EdgeThreshold     = 0.1
	MiddleThreshold   = 0.33
	SmallDocThreshold = 0.5
)

// Classifier judges paragraphs of one document.
type Classifier struct{}

// NewClassifier returns a Classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Filter returns the paragraphs that are not boilerplate, in order.
// When every paragraph would be dropped the input is returned unchanged.
func (c *Classifier) Filter(paragraphs []string) []string {
	kept := make([]string, 0, len(paragraphs))
	for i, p := range paragraphs {
		if c.IsExtraneous(p, i, len(paragraphs)) {
			slog.Debug("Dropping boilerplate paragraph", "index", i, "ratio", Ratio(p))
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return paragraphs
	}
	return kept
}

// IsExtraneous reports whether the paragraph at index of total is boilerplate.
// Paragraphs without any words are always extraneous; out-of-range positions never are.
func (c *Classifier) IsExtraneous(paragraph string, index, total int) bool {
	if total <= 0 || index < 0 || index >= total {
		return false
	}
	words := alphabetic(lingo.Words(paragraph))
	if len(words) == 0 {
		return true
	}
	return ratio(words) > Threshold(index, total)
}

// Ratio is the share of a paragraph's words that stem to boilerplate terms.
func Ratio(paragraph string) float64 {
	words := alphabetic(lingo.Words(paragraph))
	if len(words) == 0 {
		return 0
	}
	return ratio(words)
}

func ratio(words []string) float64 {
	hits := 0
	for _, w := range words {
		if _, ok := boilerplateStems[lingo.Stem(w)]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}

// Threshold is the allowed boilerplate ratio at a position. It follows an
// inverted V from EdgeThreshold at either end to MiddleThreshold in the middle.
// Documents of three paragraphs or fewer use SmallDocThreshold throughout.
func Threshold(index, total int) float64 {
	if total <= 0 || index < 0 || index >= total {
		return MiddleThreshold
	}
	if total <= 3 {
		return SmallDocThreshold
	}
	pos := float64(index) / float64(total-1)
	factor := 1.0 - math.Abs(2.0*pos-1.0)
	return EdgeThreshold + (MiddleThreshold-EdgeThreshold)*factor
}

// alphabetic keeps words containing at least one letter.
func alphabetic(words []string) []string {
	out := words[:0]
	for _, w := range words {
		for _, r := range w {
			if unicode.IsLetter(r) {
				out = append(out, w)
				break
			}
		}
	}
	return out
}
