package counter

import (
	"strings"
	"unicode"
)

// WordCounter sizes a leaf by its word count. Stand-alone punctuation such as
// a spaced dash or bullet is not a word.
type WordCounter struct{}

// NewWordCounter returns the default leaf-value counter.
func NewWordCounter() Counter {
	return &WordCounter{}
}

// Count returns the number of whitespace-separated fields of text that contain
// a letter or digit.
func (wc *WordCounter) Count(text string) int {
	n := 0
	for _, f := range strings.Fields(text) {
		if strings.IndexFunc(f, isWordRune) >= 0 {
			n++
		}
	}
	return n
}

// Name returns the value method name used in options.
func (wc *WordCounter) Name() string {
	return "words"
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
