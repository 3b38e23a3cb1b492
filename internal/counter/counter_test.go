package counter

import (
	"testing"
)

func TestWordCounter(t *testing.T) {
	counter := NewWordCounter()

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"empty string", "", 0},
		{"single word", "hello", 1},
		{"multiple words", "Cats are small mammals.", 4},
		{"whitespace handling", "  hello \n\t world  ", 2},
		{"unicode words", "café naïve résumé", 3},
		{"stand-alone punctuation", "Cats - and dogs • too", 4},
		{"numbers count", "Route 66 opened", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := counter.Count(tt.text); got != tt.expected {
				t.Errorf("WordCounter.Count(%q) = %d, want %d", tt.text, got, tt.expected)
			}
		})
	}

	if counter.Name() != "words" {
		t.Errorf("WordCounter.Name() = %q, want %q", counter.Name(), "words")
	}
}

func TestCharCounter(t *testing.T) {
	counter := NewCharCounter()

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"empty string", "", 0},
		{"multiple chars", "hello", 5},
		{"unicode chars", "café", 4},
		{"whitespace included", "a b", 3},
		{"emoji", "hello 👋", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := counter.Count(tt.text); got != tt.expected {
				t.Errorf("CharCounter.Count(%q) = %d, want %d", tt.text, got, tt.expected)
			}
		})
	}

	if counter.Name() != "characters" {
		t.Errorf("CharCounter.Name() = %q, want %q", counter.Name(), "characters")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{"short text untouched", "Cats are mammals.", 40, "Cats are mammals."},
		{"exact length untouched", "abcde", 5, "abcde"},
		{"long text cut", "abcdefgh", 5, "abcde..."},
		{"runes not bytes", "éééééé", 3, "ééé..."},
		{"no limit", "abc", 0, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.text, tt.limit); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.text, tt.limit, got, tt.want)
			}
		})
	}
}

func TestNewCounter(t *testing.T) {
	tests := []struct {
		name         string
		method       CountingMethod
		expectedName string
		expectError  bool
	}{
		{"words", Words, "words", false},
		{"characters", Characters, "characters", false},
		{"unknown", CountingMethod(9), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter, err := NewCounter(tt.method)
			if tt.expectError {
				if err == nil {
					t.Error("NewCounter() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewCounter() error = %v", err)
			}
			if counter.Name() != tt.expectedName {
				t.Errorf("Name() = %q, want %q", counter.Name(), tt.expectedName)
			}
		})
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    CountingMethod
		wantErr bool
	}{
		{"", Words, false},
		{"words", Words, false},
		{"chars", Characters, false},
		{"characters", Characters, false},
		{"tokens", Words, true},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMethod(%q) = %v, %v", tt.in, got, err)
		}
	}
	if Characters.String() != "characters" || CountingMethod(7).String() != "unknown" {
		t.Error("unexpected String() output")
	}
}
