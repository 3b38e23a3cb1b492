// Package app contains the CLI application logic: it gathers text from the
// sources, optionally focuses it on a query, runs the clustering pipeline and
// renders the resulting tree.
package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/chriscorrea/dendro/internal/classify"
	"github.com/chriscorrea/dendro/internal/extract"
	"github.com/chriscorrea/dendro/internal/fetch"
	"github.com/chriscorrea/dendro/internal/pipeline"
	"github.com/chriscorrea/dendro/internal/segment"
	"github.com/chriscorrea/dendro/internal/spinner"
	"github.com/chriscorrea/dendro/internal/taxonomy"
)

// DefaultConcurrency bounds how many sources are fetched at once.
const DefaultConcurrency = 4

// Config holds all options of one CLI invocation.
type Config struct {
	Sources      []string // URLs, file paths, or "-" for stdin
	Selector     string   // CSS selector for HTML sources
	IncludeAll   bool     // skip readability and boilerplate filtering
	SearchQuery  string   // keep only paragraphs relevant to this query
	Mode         string   // paragraph, sentence or word
	Options      pipeline.Options
	OutputFormat OutputFormat
	Quiet        bool // suppress progress and warnings
	Concurrency  int
	Fetcher      *fetch.Fetcher // nil uses fetch.New()
	Stderr       io.Writer      // nil uses os.Stderr
}

// Run executes one CLI invocation and returns the rendered tree.
func Run(ctx context.Context, cfg Config) (string, error) {
	if len(cfg.Sources) == 0 {
		return "", fmt.Errorf("no sources provided")
	}

	text, err := Gather(ctx, cfg)
	if err != nil {
		return "", err
	}

	if q := strings.TrimSpace(cfg.SearchQuery); q != "" {
		text, err = Focus(text, q)
		if err != nil {
			return "", err
		}
	}

	tree, err := Cluster(ctx, pipeline.Request{Text: text, Mode: cfg.Mode, Options: &cfg.Options}, cfg.progress(ctx))
	if err != nil {
		return "", err
	}
	return Render(tree, cfg.OutputFormat)
}

func (cfg Config) stderr() io.Writer {
	if cfg.Stderr != nil {
		return cfg.Stderr
	}
	return os.Stderr
}

func (cfg Config) progress(ctx context.Context) *spinner.Spinner {
	if cfg.Quiet {
		return nil
	}
	return spinner.New(ctx, cfg.stderr(), "Clustering text...", 0)
}

// Gather fetches every source concurrently and joins their text with blank
// lines in argument order. Failing sources are skipped with a warning; it is
// an error only when no source yields text.
func Gather(ctx context.Context, cfg Config) (string, error) {
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = fetch.New()
	}
	limit := cfg.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	texts := make([]string, len(cfg.Sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, source := range cfg.Sources {
		g.Go(func() error {
			text, err := processSource(gctx, fetcher, source, cfg)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Debug("Source failed", "source", source, "error", err)
				if !cfg.Quiet {
					fmt.Fprintf(cfg.stderr(), "Warning: failed to process source %q: %v\n", source, err)
				}
				return nil
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var parts []string
	for _, t := range texts {
		if t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no content extracted from any source")
	}
	return strings.Join(parts, "\n\n"), nil
}

// processSource fetches one source and reduces HTML to plain paragraphs.
func processSource(ctx context.Context, fetcher *fetch.Fetcher, source string, cfg Config) (string, error) {
	doc, err := fetcher.Fetch(ctx, source)
	if err != nil {
		return "", fmt.Errorf("failed to fetch content: %w", err)
	}
	if !doc.HTML {
		text := strings.TrimSpace(doc.Text())
		if text == "" {
			return "", fmt.Errorf("no content extracted")
		}
		return text, nil
	}

	text, err := extract.Text(bytes.NewReader(doc.Body), extract.Options{
		Selector:   cfg.Selector,
		IncludeAll: cfg.IncludeAll,
		BaseURL:    doc.BaseURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}
	if cfg.IncludeAll {
		return text, nil
	}
	kept := classify.NewClassifier().Filter(segment.Paragraphs(text))
	return strings.Join(kept, "\n\n"), nil
}

// Cluster dispatches req and waits for its terminal message, showing stage
// names on sp when it is non-nil. Cancelling ctx abandons the wait.
func Cluster(ctx context.Context, req pipeline.Request, sp *spinner.Spinner) (*taxonomy.Node, error) {
	if sp != nil {
		sp.Start()
		defer sp.Stop()
	}

	msgs := pipeline.Dispatch(req)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case m, ok := <-msgs:
			if !ok {
				return nil, fmt.Errorf("run ended without a result")
			}
			switch m.Type {
			case pipeline.TypeProgress:
				if sp != nil {
					sp.Stage(m.Message)
				}
			case pipeline.TypeSuccess:
				return m.Data, nil
			case pipeline.TypeError:
				return nil, m.Err()
			}
		}
	}
}
