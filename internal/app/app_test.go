package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriscorrea/dendro/internal/pipeline"
	"github.com/chriscorrea/dendro/internal/runerr"
	"github.com/chriscorrea/dendro/internal/taxonomy"
)

const corpus = `Cats are small mammals that hunt mice at night.

Dogs are loyal mammals that guard the house.

Kittens and puppies are young mammals that play all day.

Cars need fuel and regular engine maintenance.

Trucks burn diesel fuel and need engine repairs.

Electric cars charge batteries instead of burning fuel.`

const pageHTML = `<!DOCTYPE html>
<html><body>
<nav><p>Home About Contact Subscribe Newsletter Login</p></nav>
<p>Cats are small mammals that hunt mice at night and sleep most of the day.</p>
<p>Dogs are loyal mammals that guard the house and follow their owners.</p>
<p>Kittens and puppies are young mammals that play all day in the garden.</p>
<p>Cars need fuel and regular engine maintenance to keep running well.</p>
<footer><p>Copyright 2026. All rights reserved.</p></footer>
</body></html>`

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGatherPreservesOrder(t *testing.T) {
	a := writeSource(t, "a.txt", "First source paragraph.")
	b := writeSource(t, "b.txt", "Second source paragraph.")
	c := writeSource(t, "c.txt", "Third source paragraph.")

	text, err := Gather(context.Background(), Config{Sources: []string{a, b, c}, Concurrency: 2, Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, "First source paragraph.\n\nSecond source paragraph.\n\nThird source paragraph.", text)
}

func TestGatherSkipsFailingSources(t *testing.T) {
	good := writeSource(t, "good.txt", "Only good text.")
	var stderr bytes.Buffer

	text, err := Gather(context.Background(), Config{
		Sources: []string{"/does/not/exist.txt", good},
		Stderr:  &stderr,
	})
	require.NoError(t, err)
	assert.Equal(t, "Only good text.", text)
	assert.Contains(t, stderr.String(), "Warning: failed to process source")

	_, err = Gather(context.Background(), Config{Sources: []string{"/does/not/exist.txt"}, Quiet: true})
	assert.Error(t, err)
}

func TestGatherHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(pageHTML))
	}))
	defer server.Close()

	tests := []struct {
		name        string
		cfg         Config
		contains    []string
		notContains []string
	}{
		{
			name:        "include all keeps boilerplate",
			cfg:         Config{IncludeAll: true},
			contains:    []string{"Cats are small mammals", "Copyright 2026"},
			notContains: []string{"<p>"},
		},
		{
			name:        "selector with boilerplate filter",
			cfg:         Config{Selector: "p", IncludeAll: false},
			contains:    []string{"Cats are small mammals", "Cars need fuel"},
			notContains: []string{"Copyright", "Newsletter"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Sources = []string{server.URL}
			cfg.Quiet = true

			text, err := Gather(context.Background(), cfg)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, text, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, text, unwanted)
			}
		})
	}
}

func TestFocus(t *testing.T) {
	text, err := Focus(corpus, "engine")
	require.NoError(t, err)
	assert.Equal(t, "Cars need fuel and regular engine maintenance.\n\nTrucks burn diesel fuel and need engine repairs.", text)

	_, err = Focus(corpus, "diesel")
	assert.ErrorIs(t, err, runerr.ErrInsufficientData)

	_, err = Focus(corpus, "zebra")
	assert.ErrorIs(t, err, runerr.ErrInsufficientData)
}

func TestScoreKeepsOrder(t *testing.T) {
	paragraphs := strings.Split(corpus, "\n\n")
	scores := Score(paragraphs, "engine")
	require.Len(t, scores, len(paragraphs))
	for i, s := range scores {
		assert.Equal(t, i, s.Index)
		assert.Equal(t, paragraphs[i], s.Text)
	}
	assert.Greater(t, scores[3].Score, 0.0)
	assert.Equal(t, 0.0, scores[0].Score)
}

func TestRun(t *testing.T) {
	path := writeSource(t, "corpus.txt", corpus)

	out, err := Run(context.Background(), Config{
		Sources: []string{path},
		Mode:    "paragraph",
		Quiet:   true,
	})
	require.NoError(t, err)

	var tree taxonomy.Node
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	assert.Len(t, tree.Leaves(), 6)
	assert.Equal(t, 1, tree.ID)
}

func TestRunWithSearchAndProgress(t *testing.T) {
	path := writeSource(t, "corpus.txt", corpus)
	var stderr bytes.Buffer

	out, err := Run(context.Background(), Config{
		Sources:      []string{path},
		Mode:         "sentence",
		SearchQuery:  "engine",
		OutputFormat: Text,
		Stderr:       &stderr,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "- Cars need fuel and regular engine")
	assert.Contains(t, out, "- Trucks burn diesel fuel")
	assert.NotContains(t, out, "Cats")
	assert.Contains(t, stderr.String(), pipeline.StageSegment)
}

func TestRunErrors(t *testing.T) {
	short := writeSource(t, "short.txt", "Just one paragraph here.")

	_, err := Run(context.Background(), Config{})
	assert.Error(t, err)

	_, err = Run(context.Background(), Config{Sources: []string{short}, Mode: "paragraph", Quiet: true})
	assert.True(t, errors.Is(err, runerr.ErrInsufficientData), "got %v", err)
}

func TestClusterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Cluster(ctx, pipeline.Request{Text: corpus, Mode: "paragraph"}, nil)
	// either the run finished first or the wait was abandoned
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
