package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/link-planner/internal/config"
	"github.com/jonathan/link-planner/internal/logging"
)

// crawlFlags are shared by the run and crawl commands.
type crawlFlags struct {
	configPath   string
	site         string
	maxPages     int
	minDelay     float64
	maxDelay     float64
	timeout      float64
	userAgent    string
	ignoreRobots bool
	skipSitemap  bool
	verbose      bool
	logLevel     string
}

func (f *crawlFlags) register(cmd *cobra.Command) {
	// Config file flag (processed first)
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	cmd.Flags().StringVarP(&f.site, "site", "s", "", "Seed URL of the site to crawl")
	cmd.Flags().IntVar(&f.maxPages, "max-pages", 0, "Maximum pages to collect (default 100)")
	cmd.Flags().Float64Var(&f.minDelay, "min-delay", 0, "Minimum delay between requests in seconds (default 0.5)")
	cmd.Flags().Float64Var(&f.maxDelay, "max-delay", 0, "Maximum delay between requests in seconds (default 2.0)")
	cmd.Flags().Float64Var(&f.timeout, "timeout", 0, "Per-request timeout in seconds (default 10)")
	cmd.Flags().StringVar(&f.userAgent, "user-agent", "", "User-Agent header sent with every request")
	cmd.Flags().BoolVar(&f.ignoreRobots, "ignore-robots", false, "Do not consult robots.txt")
	cmd.Flags().BoolVar(&f.skipSitemap, "no-sitemap", false, "Do not seed the crawl from /sitemap.xml")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print detailed progress information")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error (default info)")
}

// load starts from the defaults, applies the optional config file and then the
// explicitly set flags, so explicit zeros from either source are kept.
func (f *crawlFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("site") {
		cfg.Site = f.site
	}
	if flags.Changed("max-pages") {
		cfg.Crawler.MaxPages = f.maxPages
	}
	if flags.Changed("min-delay") {
		cfg.Crawler.MinDelay = f.minDelay
	}
	if flags.Changed("max-delay") {
		cfg.Crawler.MaxDelay = f.maxDelay
	}
	if flags.Changed("timeout") {
		cfg.Crawler.RequestTimeout = f.timeout
	}
	if flags.Changed("user-agent") {
		cfg.Crawler.UserAgent = f.userAgent
	}
	if flags.Changed("ignore-robots") {
		cfg.Crawler.IgnoreRobots = f.ignoreRobots
	}
	if flags.Changed("no-sitemap") {
		cfg.Crawler.SkipSitemap = f.skipSitemap
	}
	if flags.Changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if cfg.Verbose && !flags.Changed("log-level") && cfg.Logging.Level == logging.DefaultLevel {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// finish reads GEMINI_API_KEY when needed and validates the result.
func finish(cfg config.Config) (config.Config, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if cfg.Site == "" {
		return cfg, fmt.Errorf("--site must be provided (via flag or config)")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (logging.Logger, error) {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
