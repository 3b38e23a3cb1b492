package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chriscorrea/dendro/internal/app"
	"github.com/chriscorrea/dendro/internal/config"
	"github.com/chriscorrea/dendro/internal/pipeline"
)

// loadConfig reads --config when given, otherwise DENDRO_CONFIG / dendro.yaml.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.Load(path)
	}
	return config.FromEnv()
}

// optionsFromFlags collects the run options explicitly set on the command line.
func optionsFromFlags(cmd *cobra.Command) pipeline.Options {
	var o pipeline.Options
	f := cmd.Flags()

	if f.Changed("noun-only") {
		v, _ := f.GetBool("noun-only")
		o.NounOnly = &v
	}
	if f.Changed("min-word-freq") {
		v, _ := f.GetInt("min-word-freq")
		o.MinWordFreq = &v
	}
	if f.Changed("stopwords") {
		o.CustomStopwords, _ = f.GetStringSlice("stopwords")
	}
	if f.Changed("plain") {
		v, _ := f.GetBool("plain")
		enhanced := !v
		o.EnableEnhancedPipeline = &enhanced
	}
	if f.Changed("no-lemmatize") {
		v, _ := f.GetBool("no-lemmatize")
		lemmatize := !v
		o.EnableLemmatization = &lemmatize
	}
	if f.Changed("no-ngrams") {
		v, _ := f.GetBool("no-ngrams")
		ngrams := !v
		o.EnableNgrams = &ngrams
	}
	if f.Changed("cutoff") {
		v, _ := f.GetBool("cutoff")
		o.EnableAutoCutoff = &v
	}
	if f.Changed("cutoff-percentile") {
		v, _ := f.GetFloat64("cutoff-percentile")
		o.CutoffPercentile = &v
	}
	if f.Changed("gap-ratio") {
		v, _ := f.GetFloat64("gap-ratio")
		o.GapRatio = &v
	}
	if f.Changed("linkage") {
		v, _ := f.GetString("linkage")
		o.Linkage = &v
	}
	if f.Changed("max-units") {
		v, _ := f.GetInt("max-units")
		o.MaxUnits = &v
	}
	if f.Changed("value") {
		v, _ := f.GetString("value")
		o.ValueMethod = &v
	}
	return o
}

// buildConfig constructs an app.Config from command flags and arguments.
func buildConfig(cmd *cobra.Command, args []string, cfg *config.Config) (app.Config, error) {
	selector, _ := cmd.Flags().GetString("selector")
	includeAll, _ := cmd.Flags().GetBool("include-all")
	search, _ := cmd.Flags().GetString("search")
	mode, _ := cmd.Flags().GetString("mode")
	quiet, _ := cmd.Flags().GetBool("quiet")
	textFlag, _ := cmd.Flags().GetBool("text")
	mdFlag, _ := cmd.Flags().GetBool("md")

	format := app.JSON
	switch {
	case textFlag:
		format = app.Text
	case mdFlag:
		format = app.Markdown
	}

	sources := args
	if len(sources) == 0 {
		sources = []string{"-"}
	}

	return app.Config{
		Sources:      sources,
		Selector:     selector,
		IncludeAll:   includeAll,
		SearchQuery:  search,
		Mode:         strings.ToLower(mode),
		Options:      optionsFromFlags(cmd).WithDefaults(cfg.Defaults),
		OutputFormat: format,
		Quiet:        quiet,
	}, nil
}

// setupLogger configures the default slog logger for CLI use.
func setupLogger(debug bool) {
	level := slog.LevelError
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// writeOutput prints result or writes it to the --output file.
func writeOutput(cmd *cobra.Command, result string) error {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), result)
		return err
	}
	if err := os.WriteFile(path, []byte(result), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "dendro [sources...]",
	Short: "Cluster text into a labeled hierarchy",
	Long: `Dendro splits text into paragraphs, sentences or words, clusters them by
similarity and prints the resulting tree with keyword labels. Sources may be
URLs, local files, or standard input.

Examples:
  dendro notes.txt
  dendro --mode sentence --text https://example.com/article
  cat essay.md | dendro --mode word --noun-only`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		setupLogger(debug)

		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		appCfg, err := buildConfig(cmd, args, cfg)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		result, err := app.Run(ctx, appCfg)
		if err != nil {
			return fmt.Errorf("dendro failed: %w", err)
		}
		return writeOutput(cmd, result)
	},
}

// addRunFlags registers the flags shared by the root and watch commands.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("mode", "m", "paragraph", "Segmentation mode: paragraph, sentence or word")
	f.StringP("selector", "s", "", "CSS selector for HTML sources")
	f.BoolP("include-all", "i", false, "Include all HTML content without readability or boilerplate filtering")
	f.String("search", "", "Keep only paragraphs relevant to this query before clustering")

	// output
	f.Bool("json", false, "Output the tree as JSON (default)")
	f.Bool("text", false, "Output the tree as indented text")
	f.Bool("md", false, "Output the tree as a Markdown outline")
	cmd.MarkFlagsMutuallyExclusive("json", "text", "md")
	f.StringP("output", "o", "", "Write output to a file instead of stdout")

	// run options
	f.Bool("noun-only", false, "Word mode: keep only nouns")
	f.Int("min-word-freq", 1, "Word mode: minimum occurrences of a word")
	f.StringSlice("stopwords", nil, "Additional stopwords (comma separated)")
	f.Bool("plain", false, "Disable lemmatization, n-grams and weighting")
	f.Bool("no-lemmatize", false, "Compare surface forms instead of lemmas")
	f.Bool("no-ngrams", false, "Disable n-gram detection")
	f.Bool("cutoff", true, "Cut the tree into a forest (default on except in word mode)")
	f.Float64("cutoff-percentile", 0.85, "Percentile of merge heights used as the cutoff")
	f.Float64("gap-ratio", 1.5, "Height ratio that counts as a natural gap")
	f.String("linkage", "average", "Linkage: average or complete")
	f.Int("max-units", 0, "Fail when the text yields more units than this (0 = unlimited)")
	f.String("value", "words", "Leaf value: words or characters")

	f.String("config", "", "Config file (default $DENDRO_CONFIG or dendro.yaml)")
	f.BoolP("quiet", "q", false, "Suppress progress and warnings")
	f.BoolP("debug", "D", false, "Enable debug logging")
	_ = f.MarkHidden("debug")
}

func init() {
	addRunFlags(rootCmd)
	rootCmd.AddCommand(serveCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
