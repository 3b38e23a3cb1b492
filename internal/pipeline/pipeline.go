// Package pipeline runs one clustering request end to end.
//
// Stages execute strictly in order: segment, normalize, vectorize, distance,
// cluster, cutoff, label, materialize. Each run builds all of its state fresh
// and shares nothing with other runs. Dispatch runs the pipeline on its own
// goroutine and streams progress messages followed by exactly one terminal
// success or error message.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/chriscorrea/dendro/internal/cluster"
	"github.com/chriscorrea/dendro/internal/counter"
	"github.com/chriscorrea/dendro/internal/cutoff"
	"github.com/chriscorrea/dendro/internal/distance"
	"github.com/chriscorrea/dendro/internal/label"
	"github.com/chriscorrea/dendro/internal/lingo"
	"github.com/chriscorrea/dendro/internal/normalize"
	"github.com/chriscorrea/dendro/internal/runerr"
	"github.com/chriscorrea/dendro/internal/segment"
	"github.com/chriscorrea/dendro/internal/taxonomy"
	"github.com/chriscorrea/dendro/internal/vectorize"
)

// tagger tags unit text in every stage that needs parts of speech.
var tagger lingo.Tagger = lingo.Tag

// Stage names reported as progress messages.
const (
	StageSegment   = "Segmenting text"
	StageNormalize = "Normalizing tokens"
	StageVectorize = "Vectorizing"
	StageDistance  = "Computing distances"
	StageCluster   = "Clustering"
	StageCutoff    = "Selecting cutoff"
	StageLabel     = "Labeling clusters"
	StageBuild     = "Building tree"

	stageCount = 8
)

// Message types.
const (
	TypeProgress = "progress"
	TypeSuccess  = "success"
	TypeError    = "error"
)

// Request is one run request.
type Request struct {
	Text    string   `json:"text"`
	Mode    string   `json:"mode"`
	Options *Options `json:"options,omitempty"`
}

// Message is a progress notification or the terminal result of a run.
type Message struct {
	Type    string         `json:"type"`
	Message string         `json:"message,omitempty"`
	Data    *taxonomy.Node `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	Kind    string         `json:"kind,omitempty"`

	err error
}

// Err returns the failure carried by an error message, or nil.
// The original error is kept for in-process callers so errors.Is still works.
func (m Message) Err() error {
	if m.Type != TypeError {
		return nil
	}
	if m.err != nil {
		return m.err
	}
	return errors.New(m.Error)
}

// Progress builds a progress message.
func Progress(stage string) Message {
	return Message{Type: TypeProgress, Message: stage}
}

// Success builds the terminal success message.
func Success(tree *taxonomy.Node) Message {
	return Message{Type: TypeSuccess, Data: tree}
}

// Failure builds the terminal error message for err.
func Failure(err error) Message {
	return Message{Type: TypeError, Error: err.Error(), Kind: runerr.Kind(err), err: err}
}

// Run executes the whole pipeline synchronously. notify, when non-nil,
// receives each stage name before the stage starts. Panics are returned as
// runerr.ErrUnexpected.
func Run(req Request, notify func(stage string)) (tree *taxonomy.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Pipeline panic recovered", "panic", r)
			tree, err = nil, runerr.FromPanic(r)
		}
	}()
	if notify == nil {
		notify = func(string) {}
	}

	start := time.Now()
	mode, err := segment.ParseMode(req.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", runerr.ErrInvalidRequest, err)
	}
	var opts Options
	if req.Options != nil {
		opts = *req.Options
	}
	s, err := opts.Resolve(mode)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid options: %w", runerr.ErrInvalidRequest, err)
	}
	stopwords := lingo.NewStopwords(s.CustomStopwords)

	notify(StageSegment)
	seg, err := segment.Split(req.Text, mode, segment.Filter{
		NounOnly:    s.NounOnly,
		MinWordFreq: s.MinWordFreq,
		Stopwords:   stopwords,
		Tagger:      tagger,
	})
	if err != nil {
		return nil, err
	}
	if s.MaxUnits > 0 && len(seg.Units) > s.MaxUnits {
		return nil, fmt.Errorf("%w (%d units, limit %d)", runerr.ErrTooManyUnits, len(seg.Units), s.MaxUnits)
	}
	texts := seg.Texts()

	var (
		m      *mat.Dense
		tagged [][]lingo.Token
	)
	if mode == segment.Word {
		notify(StageVectorize)
		m = vectorize.Cooccurrence(seg.Units, seg.Contexts)
	} else {
		notify(StageNormalize)
		var norm *normalize.Result
		if s.Enhanced {
			norm = normalize.Normalize(texts, normalize.Options{
				Lemmatize:       s.Lemmatize,
				Ngrams:          s.Ngrams,
				MinNgramFreq:    s.MinNgramFreq,
				NounPhraseBoost: s.NounPhraseBoost,
				GlueWordPenalty: s.GlueWordPenalty,
				Stopwords:       stopwords,
				Tagger:          tagger,
			})
			if s.Lemmatize {
				tagged = norm.Tagged()
			}
		} else {
			norm = normalize.Plain(texts, stopwords)
		}

		notify(StageVectorize)
		vocab := vectorize.BuildVocabulary(norm.Terms, vectorize.MaxDocFreqRatio)
		m = vectorize.TFIDF(norm.Terms, vocab, norm.Weights, s.NormalizeVectors)
	}

	notify(StageDistance)
	d := distance.Cosine(m)

	notify(StageCluster)
	root, err := cluster.Agglomerate(d, s.Linkage)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", runerr.ErrUnexpected, err)
	}
	if verr := cluster.Validate(root, len(seg.Units)); verr != nil {
		slog.Warn("Cluster tree failed validation", "error", verr)
	}

	roots := []cluster.Node{root}
	cut := cluster.Height(root)
	if s.AutoCutoff {
		notify(StageCutoff)
		forest := cutoff.Apply(root, s.CutoffPercentile, s.GapRatio)
		roots, cut = forest.Roots, forest.Selection.Cutoff
	}

	notify(StageLabel)
	if tagged == nil {
		tagged = label.TagUnits(texts, tagger)
	}
	lopt := label.DefaultOptions()
	lopt.Stopwords = stopwords
	labeler := label.New(tagged, lopt)

	notify(StageBuild)
	c, err := counter.NewCounter(s.ValueMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", runerr.ErrUnexpected, err)
	}
	tree = (&taxonomy.Builder{Texts: texts, Labeler: labeler, Counter: c}).Build(roots, cut)

	slog.Debug("Pipeline completed", "mode", mode, "units", len(seg.Units), "roots", len(roots),
		"elapsed", time.Since(start))
	return tree, nil
}

// Dispatch runs req on a new goroutine. The returned channel yields progress
// messages and then one success or error message before it is closed. It is
// buffered for the whole run, so a caller that stops reading never blocks the run.
func Dispatch(req Request) <-chan Message {
	out := make(chan Message, stageCount+1)
	go func() {
		defer close(out)
		tree, err := Run(req, func(stage string) {
			out <- Progress(stage)
		})
		if err != nil {
			if k := runerr.Kind(err); k != runerr.KindInsufficientData && k != runerr.KindInvalidRequest {
				slog.Error("Run failed", "kind", k, "error", err)
			}
			out <- Failure(err)
			return
		}
		out <- Success(tree)
	}()
	return out
}
