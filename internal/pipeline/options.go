package pipeline

import (
	"fmt"

	"github.com/chriscorrea/dendro/internal/cluster"
	"github.com/chriscorrea/dendro/internal/counter"
	"github.com/chriscorrea/dendro/internal/cutoff"
	"github.com/chriscorrea/dendro/internal/segment"
)

// Options are the optional run settings of a request. Nil fields take the
// defaults; see Resolve.
type Options struct {
	NounOnly               *bool    `json:"nounOnly,omitempty" yaml:"nounOnly,omitempty"`
	MinWordFreq            *int     `json:"minWordFreq,omitempty" yaml:"minWordFreq,omitempty"`
	CustomStopwords        []string `json:"customStopwords,omitempty" yaml:"customStopwords,omitempty"`
	EnableEnhancedPipeline *bool    `json:"enableEnhancedPipeline,omitempty" yaml:"enableEnhancedPipeline,omitempty"`
	EnableLemmatization    *bool    `json:"enableLemmatization,omitempty" yaml:"enableLemmatization,omitempty"`
	EnableNgrams           *bool    `json:"enableNgrams,omitempty" yaml:"enableNgrams,omitempty"`
	MinNgramFreq           *int     `json:"minNgramFreq,omitempty" yaml:"minNgramFreq,omitempty"`
	NounPhraseBoost        *float64 `json:"nounPhraseBoost,omitempty" yaml:"nounPhraseBoost,omitempty"`
	GlueWordPenalty        *float64 `json:"glueWordPenalty,omitempty" yaml:"glueWordPenalty,omitempty"`
	NormalizeVectors       *bool    `json:"normalizeVectors,omitempty" yaml:"normalizeVectors,omitempty"`
	EnableAutoCutoff       *bool    `json:"enableAutoCutoff,omitempty" yaml:"enableAutoCutoff,omitempty"`
	CutoffPercentile       *float64 `json:"cutoffPercentile,omitempty" yaml:"cutoffPercentile,omitempty"`

	Linkage     *string  `json:"linkage,omitempty" yaml:"linkage,omitempty"`
	GapRatio    *float64 `json:"gapRatio,omitempty" yaml:"gapRatio,omitempty"`
	MaxUnits    *int     `json:"maxUnits,omitempty" yaml:"maxUnits,omitempty"`
	ValueMethod *string  `json:"valueMethod,omitempty" yaml:"valueMethod,omitempty"`
}

// Settings is a fully resolved set of options.
type Settings struct {
	NounOnly         bool
	MinWordFreq      int
	CustomStopwords  []string
	Enhanced         bool
	Lemmatize        bool
	Ngrams           bool
	MinNgramFreq     int
	NounPhraseBoost  float64
	GlueWordPenalty  float64
	NormalizeVectors bool
	AutoCutoff       bool
	CutoffPercentile float64
	Linkage          cluster.Linkage
	GapRatio         float64
	MaxUnits         int
	ValueMethod      counter.CountingMethod
}

const (
	DefaultMinNgramFreq    = 2
	DefaultNounPhraseBoost = 1.3
	DefaultGlueWordPenalty = 0.5
)

// WithDefaults fills every nil field of o from base.
// Request options layered over configured defaults use this.
func (o Options) WithDefaults(base Options) Options {
	out := o
	pick(&out.NounOnly, base.NounOnly)
	pick(&out.MinWordFreq, base.MinWordFreq)
	pick(&out.EnableEnhancedPipeline, base.EnableEnhancedPipeline)
	pick(&out.EnableLemmatization, base.EnableLemmatization)
	pick(&out.EnableNgrams, base.EnableNgrams)
	pick(&out.MinNgramFreq, base.MinNgramFreq)
	pick(&out.NounPhraseBoost, base.NounPhraseBoost)
	pick(&out.GlueWordPenalty, base.GlueWordPenalty)
	pick(&out.NormalizeVectors, base.NormalizeVectors)
	pick(&out.EnableAutoCutoff, base.EnableAutoCutoff)
	pick(&out.CutoffPercentile, base.CutoffPercentile)
	pick(&out.Linkage, base.Linkage)
	pick(&out.GapRatio, base.GapRatio)
	pick(&out.MaxUnits, base.MaxUnits)
	pick(&out.ValueMethod, base.ValueMethod)
	if out.CustomStopwords == nil {
		out.CustomStopwords = base.CustomStopwords
	}
	return out
}

func pick[T any](dst **T, fallback *T) {
	if *dst == nil {
		*dst = fallback
	}
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// Resolve applies the defaults for mode and validates the result.
// The cutoff is on by default for paragraph and sentence modes and off for word mode.
func (o Options) Resolve(mode segment.Mode) (Settings, error) {
	s := Settings{
		NounOnly:         valueOr(o.NounOnly, false),
		MinWordFreq:      valueOr(o.MinWordFreq, 1),
		CustomStopwords:  o.CustomStopwords,
		Enhanced:         valueOr(o.EnableEnhancedPipeline, true),
		Lemmatize:        valueOr(o.EnableLemmatization, true),
		Ngrams:           valueOr(o.EnableNgrams, true),
		MinNgramFreq:     valueOr(o.MinNgramFreq, DefaultMinNgramFreq),
		NounPhraseBoost:  valueOr(o.NounPhraseBoost, DefaultNounPhraseBoost),
		GlueWordPenalty:  valueOr(o.GlueWordPenalty, DefaultGlueWordPenalty),
		NormalizeVectors: valueOr(o.NormalizeVectors, true),
		AutoCutoff:       valueOr(o.EnableAutoCutoff, mode != segment.Word),
		CutoffPercentile: valueOr(o.CutoffPercentile, cutoff.DefaultPercentile),
		GapRatio:         valueOr(o.GapRatio, cutoff.DefaultGapRatio),
		MaxUnits:         valueOr(o.MaxUnits, 0),
	}

	var err error
	if s.Linkage, err = cluster.ParseLinkage(valueOr(o.Linkage, "")); err != nil {
		return Settings{}, err
	}
	if s.ValueMethod, err = counter.ParseMethod(valueOr(o.ValueMethod, "")); err != nil {
		return Settings{}, err
	}

	switch {
	case s.CutoffPercentile < 0 || s.CutoffPercentile > 1:
		return Settings{}, fmt.Errorf("cutoffPercentile must be within [0, 1], got %v", s.CutoffPercentile)
	case s.GapRatio <= 1:
		return Settings{}, fmt.Errorf("gapRatio must be greater than 1, got %v", s.GapRatio)
	case s.MinNgramFreq < 1:
		return Settings{}, fmt.Errorf("minNgramFreq must be at least 1, got %d", s.MinNgramFreq)
	case s.NounPhraseBoost <= 0 || s.GlueWordPenalty <= 0:
		return Settings{}, fmt.Errorf("weights must be positive (nounPhraseBoost %v, glueWordPenalty %v)", s.NounPhraseBoost, s.GlueWordPenalty)
	case s.MaxUnits < 0:
		return Settings{}, fmt.Errorf("maxUnits must not be negative, got %d", s.MaxUnits)
	}
	return s, nil
}
