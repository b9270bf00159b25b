package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/link-planner/internal/logging"
	"github.com/jonathan/link-planner/internal/pipeline"
	"github.com/jonathan/link-planner/internal/report"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Crawl a site and write internal link recommendations",
	Long: `Runs the full pipeline: crawl -> content extraction -> embedding and clustering -> pillar selection -> anchor validation -> report.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runFlags         crawlFlags
	runMinWords      int
	runMinClusters   int
	runMaxClusters   int
	runMinSilhouette float64
	runEmbedder      string
	runExtractor     string
	runAPIKey        string
	runOutDir        string
	runFormats       []string
)

func init() {
	runFlags.register(runCommand)

	runCommand.Flags().IntVar(&runMinWords, "min-words", 0, "Minimum words for a page to be clustered (default 200)")
	runCommand.Flags().IntVar(&runMinClusters, "min-clusters", 0, "Smallest cluster count to evaluate (default 2)")
	runCommand.Flags().IntVar(&runMaxClusters, "max-clusters", 0, "Largest cluster count to evaluate (default 15)")
	runCommand.Flags().Float64Var(&runMinSilhouette, "min-silhouette", 0, "Silhouette score below which clustering quality is reported as low (default 0.2)")
	runCommand.Flags().StringVar(&runEmbedder, "embedder", "", "Embedder: hashing or gemini (default hashing)")
	runCommand.Flags().StringVar(&runExtractor, "extractor", "", "Anchor phrase extractor: pos or regex (default pos)")
	runCommand.Flags().StringVarP(&runOutDir, "out", "o", "", "Output directory (default current directory)")
	runCommand.Flags().StringSliceVar(&runFormats, "format", nil, "Output formats: csv, json, xlsx (default csv,json)")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key for --embedder gemini (defaults to GEMINI_API_KEY env var)")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := runFlags.load(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("min-words") {
		cfg.Content.MinContentWords = runMinWords
	}
	if flags.Changed("min-clusters") {
		cfg.Clustering.MinClusters = runMinClusters
	}
	if flags.Changed("max-clusters") {
		cfg.Clustering.MaxClusters = runMaxClusters
	}
	if flags.Changed("min-silhouette") {
		cfg.Clustering.MinSilhouette = runMinSilhouette
	}
	if flags.Changed("embedder") {
		cfg.Clustering.Embedder = runEmbedder
	}
	if flags.Changed("extractor") {
		cfg.Linking.PhraseExtractor = runExtractor
	}
	if flags.Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if flags.Changed("out") {
		cfg.Output.Dir = runOutDir
	}
	if flags.Changed("format") {
		cfg.Output.Formats = normalizeFormats(runFormats)
	}

	cfg, err = finish(cfg)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Planning internal links for %s...\n", cfg.Site)

	result := pipeline.Run(ctx, pipeline.RunOptions{
		Config:  cfg,
		Logger:  logger,
		Verbose: cfg.Verbose,
		Out:     out,
		OnProgress: func(e pipeline.ProgressEvent) {
			if e.Category == pipeline.CategoryWarning {
				logger.Warn(e.Message, logging.String("step", e.Step))
			}
		},
	})

	paths, err := report.WriteAll(ctx, cfg.Output.Dir, cfg.Output.Formats, result)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Pages crawled: %d, usable: %d, clusters: %d, links: %d\n",
		result.TotalPagesCrawled, result.UsablePages, result.NumClusters, result.NumLinksRecommended)
	for _, p := range paths {
		_, _ = fmt.Fprintf(out, "Wrote %s\n", p)
	}

	if !result.Success {
		return fmt.Errorf("run failed: %s", lastError(result.Errors))
	}
	return nil
}

func normalizeFormats(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func lastError(errs []string) string {
	if len(errs) == 0 {
		return "unknown error"
	}
	return errs[len(errs)-1]
}
