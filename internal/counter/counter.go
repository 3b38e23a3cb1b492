// Package counter measures units of text for the exported tree.
//
// Leaf nodes carry a size value (words by default, characters on request) and
// display names are cut to a fixed number of characters. Counting is rune-aware,
// so multi-byte text is never split mid-character.
//
// Usage Example:
//
//	c, _ := counter.NewCounter(counter.Words)
//	n := c.Count("Cats are mammals.") // 3
package counter

import "fmt"

// Counter defines the interface for different text counting strategies.
type Counter interface {
	// Count returns the number of units (words or characters) in given text.
	Count(text string) int

	// Name returns a human-readable name for this counting method (for logging)
	Name() string
}

// CountingMethod represents the different available counting strategies.
type CountingMethod int

const (
	// Words counts words using whitespace splitting (default)
	Words CountingMethod = iota
	// Characters counts individual characters including whitespace
	Characters
)

// String returns the string representation of the counting method.
func (cm CountingMethod) String() string {
	switch cm {
	case Words:
		return "words"
	case Characters:
		return "characters"
	default:
		return "unknown"
	}
}

// ParseMethod maps a flag or config value onto a CountingMethod.
func ParseMethod(s string) (CountingMethod, error) {
	switch s {
	case "", "words", "word":
		return Words, nil
	case "characters", "chars", "char":
		return Characters, nil
	default:
		return Words, fmt.Errorf("unknown counting method %q (want words or chars)", s)
	}
}

// NewCounter creates a new Counter instance based on the specified method.
func NewCounter(method CountingMethod) (Counter, error) {
	switch method {
	case Words:
		return NewWordCounter(), nil
	case Characters:
		return NewCharCounter(), nil
	default:
		return nil, fmt.Errorf("unsupported counting method %d", method)
	}
}
