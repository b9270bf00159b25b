package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/link-planner/internal/crawling"
	"github.com/jonathan/link-planner/internal/observability"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl a site and print the discovered pages as JSON",
	Long:  "Crawls a site breadth-first from a seed URL, honouring robots.txt and the sitemap, and writes the crawl result (URLs, titles, counters, errors) as JSON.",
	RunE:  runCrawl,
}

var (
	crawlFlagSet crawlFlags
	crawlOutPath string
)

func init() {
	crawlFlagSet.register(crawlCmd)
	crawlCmd.Flags().StringVarP(&crawlOutPath, "out", "o", "", "Write the crawl result to this file instead of stdout")

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	cfg, err := crawlFlagSet.load(cmd)
	if err != nil {
		return err
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

	opts := crawling.OptionsFromConfig(cfg.Crawler, cfg.Clustering.Seed, logger)
	result, err := crawling.New(opts).Crawl(ctx, cfg.Site)
	if err != nil {
		return fmt.Errorf("failed to crawl %s: %w", cfg.Site, err)
	}

	if cfg.Verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintCrawlSummary(result)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal crawl result to JSON: %w", err)
	}

	var out io.Writer = cmd.OutOrStdout()
	if crawlOutPath != "" {
		if err := os.MkdirAll(filepath.Dir(crawlOutPath), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(crawlOutPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write crawl result %s: %w", crawlOutPath, err)
		}
		_, _ = fmt.Fprintf(out, "Crawled %d pages (%d failed)\n", result.TotalSucceeded, result.TotalFailed)
		_, _ = fmt.Fprintf(out, "Result: %s\n", crawlOutPath)
		return nil
	}

	_, err = fmt.Fprintln(out, string(data))
	return err
}
