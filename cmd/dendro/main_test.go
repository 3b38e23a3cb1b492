package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/chriscorrea/dendro/internal/app"
	"github.com/chriscorrea/dendro/internal/config"
)

func newRunCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addRunFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v) error = %v", args, err)
	}
	return cmd
}

func TestOptionsFromFlagsOnlyChanged(t *testing.T) {
	o := optionsFromFlags(newRunCmd(t))
	if o.NounOnly != nil || o.EnableLemmatization != nil || o.EnableAutoCutoff != nil || o.Linkage != nil || o.CustomStopwords != nil {
		t.Errorf("unset flags must leave options nil: %+v", o)
	}

	o = optionsFromFlags(newRunCmd(t,
		"--noun-only", "--min-word-freq", "2", "--stopwords", "foo,bar",
		"--plain", "--no-lemmatize", "--cutoff=false", "--linkage", "complete", "--value", "characters",
	))
	if o.NounOnly == nil || !*o.NounOnly {
		t.Error("noun-only not set")
	}
	if o.MinWordFreq == nil || *o.MinWordFreq != 2 {
		t.Error("min-word-freq not set")
	}
	if len(o.CustomStopwords) != 2 {
		t.Errorf("stopwords = %v", o.CustomStopwords)
	}
	if o.EnableEnhancedPipeline == nil || *o.EnableEnhancedPipeline {
		t.Error("--plain should disable the enhanced pipeline")
	}
	if o.EnableLemmatization == nil || *o.EnableLemmatization {
		t.Error("--no-lemmatize should disable lemmatization")
	}
	if o.EnableAutoCutoff == nil || *o.EnableAutoCutoff {
		t.Error("--cutoff=false should disable the cutoff")
	}
	if o.Linkage == nil || *o.Linkage != "complete" {
		t.Error("linkage not set")
	}
	if o.ValueMethod == nil || *o.ValueMethod != "characters" {
		t.Error("value not set")
	}
}

func TestBuildConfig(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		positional []string
		wantFormat app.OutputFormat
		wantMode   string
		wantSource []string
	}{
		{"defaults read stdin", nil, nil, app.JSON, "paragraph", []string{"-"}},
		{"text output", []string{"--text", "-m", "Sentence"}, []string{"a.txt"}, app.Text, "sentence", []string{"a.txt"}},
		{"markdown output", []string{"--md"}, []string{"a.txt", "b.txt"}, app.Markdown, "paragraph", []string{"a.txt", "b.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := buildConfig(newRunCmd(t, tt.args...), tt.positional, config.Default())
			if err != nil {
				t.Fatalf("buildConfig() error = %v", err)
			}
			if cfg.OutputFormat != tt.wantFormat {
				t.Errorf("OutputFormat = %v, want %v", cfg.OutputFormat, tt.wantFormat)
			}
			if cfg.Mode != tt.wantMode {
				t.Errorf("Mode = %q, want %q", cfg.Mode, tt.wantMode)
			}
			if len(cfg.Sources) != len(tt.wantSource) {
				t.Fatalf("Sources = %v, want %v", cfg.Sources, tt.wantSource)
			}
			for i := range tt.wantSource {
				if cfg.Sources[i] != tt.wantSource[i] {
					t.Errorf("Sources[%d] = %q, want %q", i, cfg.Sources[i], tt.wantSource[i])
				}
			}
		})
	}
}

func TestBuildConfigLayersDefaults(t *testing.T) {
	base := config.Default()
	nounOnly, linkage := true, "complete"
	base.Defaults.NounOnly = &nounOnly
	base.Defaults.Linkage = &linkage

	cfg, err := buildConfig(newRunCmd(t, "--linkage", "average"), nil, base)
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}
	if cfg.Options.NounOnly == nil || !*cfg.Options.NounOnly {
		t.Error("config file default should apply")
	}
	if *cfg.Options.Linkage != "average" {
		t.Errorf("Linkage = %q, flag should win", *cfg.Options.Linkage)
	}
}

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	cmd := newRunCmd(t, "-o", path)
	if err := writeOutput(cmd, "{}\n"); err != nil {
		t.Fatalf("writeOutput() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}\n" {
		t.Errorf("file content = %q", data)
	}
}
