package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/feedback/internal/logging"
	"github.com/cognicore/feedback/pkg/feedback"
	"github.com/cognicore/feedback/pkg/feedback/config"
	"github.com/cognicore/feedback/pkg/feedback/internalerr"
	"github.com/cognicore/feedback/pkg/feedback/report"
)

const separatorWidth = 50

type options struct {
	configPath string
	input      string
	output     string
	embedder   string
	model      string
	endpoint   string
	cache      string
	cacheAge   time.Duration
	language   string
	logLevel   string
	parallel   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Every outcome is reported on the console; the exit status stays 0.
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "feedback-summary",
		Short: "Summarize survey comments into positive and negative feedback",
		Long: `feedback-summary reads survey comments from a JSON file, drops offensive
ones, splits the rest by sentiment, groups similar comments and writes one
representative per group to a text report.

The input may be a list of strings, a list of objects carrying the comment
under a text key ("testo" by default), or an object whose values are lists
of comments.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				msgs, _ := report.Catalog(opts.language)
				if msgs.Unexpected == "" {
					msgs, _ = report.Catalog(report.DefaultLanguage)
				}
				printOutcome(stdout, msgs, err)
				return nil
			}
			run(cmd.Context(), cfg, stdout, stderr)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.input, "input", "", "input JSON file (default input.json)")
	flags.StringVar(&opts.output, "output", "", "output report file (default output.txt)")
	flags.StringVar(&opts.embedder, "embedder", "", "embedding provider: ollama, openai or hashing")
	flags.StringVar(&opts.model, "model", "", "embedding model name")
	flags.StringVar(&opts.endpoint, "endpoint", "", "embedding server base URL")
	flags.StringVar(&opts.cache, "cache", "", `embedding cache: a SQLite file or "memory"`)
	flags.DurationVar(&opts.cacheAge, "cache-max-age", 0, "drop cached vectors older than this on start (SQLite cache only)")
	flags.StringVar(&opts.language, "language", "", "report language: it or en")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVar(&opts.parallel, "parallel", false, "cluster positive and negative feedback concurrently")

	return cmd
}

// resolveConfig layers explicitly set flags over the config file (or the
// defaults when there is none).
func resolveConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	set := cmd.Flags().Changed
	if set("input") {
		cfg.Input = opts.input
	}
	if set("output") {
		cfg.Output = opts.output
	}
	if set("embedder") {
		cfg.Embedder.Provider = strings.ToLower(opts.embedder)
	}
	if set("model") {
		cfg.Embedder.Model = opts.model
	}
	if set("endpoint") {
		cfg.Embedder.Endpoint = opts.endpoint
	}
	if set("cache") {
		cfg.Cache.Path = opts.cache
	}
	if set("cache-max-age") {
		cfg.Cache.MaxAge = opts.cacheAge
	}
	if set("language") {
		cfg.Report.Language = opts.language
	}
	if set("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if set("parallel") {
		cfg.Clustering.Parallel = opts.parallel
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) {
	msgs, _ := report.Catalog(cfg.Report.Language)

	logger, err := logging.New(stderr, cfg.LogLevel)
	if err != nil {
		printOutcome(stdout, msgs, err)
		return
	}

	loader := config.Loader{Config: cfg}
	components, err := loader.Load(ctx)
	if err != nil {
		printOutcome(stdout, msgs, fmt.Errorf("load components: %w", err))
		return
	}
	defer components.Close()

	logger.Debug("components ready",
		"embedder", components.Embedder.Name(),
		"lexicon_added", components.LexiconAdded,
		"vocabulary", components.Vocabulary.Stats())
	if components.CachePruned > 0 {
		logger.Info("embedding cache pruned", "removed", components.CachePruned, "max_age", cfg.Cache.MaxAge)
	}

	engine := feedback.New(feedback.Options{
		Loader:     components.Loader,
		Filter:     components.Filter,
		Classifier: components.Classifier,
		Clusterer:  components.Clusterer,
		Messages:   components.Messages,
		Logger:     logger,
		Parallel:   cfg.Clustering.Parallel,
	})

	res, err := engine.RunFile(ctx, cfg.Input)
	if err != nil {
		printOutcome(stdout, msgs, err)
		return
	}

	separator := strings.Repeat("=", separatorWidth)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, separator)
	fmt.Fprintln(stdout, msgs.ResultTitle)
	fmt.Fprintln(stdout, separator)
	fmt.Fprintln(stdout, res.Report)
	fmt.Fprintln(stdout, separator)

	if err := report.WriteFile(cfg.Output, res.Report); err != nil {
		printOutcome(stdout, msgs, err)
		return
	}
	logger.Info("report saved", "path", cfg.Output, "run", res.RunID)
	if components.Cache != nil {
		if n, err := components.CacheEntries(ctx); err == nil {
			logger.Info("embedding cache size", "model", components.Embedder.Name(), "entries", n)
		}
	}
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, msgs.Saved+"\n", cfg.Output)
}

// printOutcome reports a terminal error with the message matching its kind.
func printOutcome(w io.Writer, msgs report.Messages, err error) {
	switch {
	case errors.Is(err, internalerr.ErrNoValidComments):
		fmt.Fprintln(w, msgs.NoValidComments)
	case errors.Is(err, internalerr.ErrInputNotFound):
		fmt.Fprintf(w, msgs.InputNotFound+"\n", err)
	case errors.Is(err, internalerr.ErrInvalidJSON):
		fmt.Fprintf(w, msgs.InvalidJSON+"\n", err)
	default:
		fmt.Fprintf(w, msgs.Unexpected+"\n", err)
	}
}
