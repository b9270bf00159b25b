package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/link-planner/internal/types"
)

func parseCrawlFlags(t *testing.T, args ...string) (*cobra.Command, *crawlFlags) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	f := &crawlFlags{}
	f.register(cmd)
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd, f
}

func TestCrawlFlags_OverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "site": "https://from-file.example.com",
  "crawler": {"max_pages": 20, "min_delay": 1, "max_delay": 3}
}`), 0644))

	cmd, f := parseCrawlFlags(t, "--config", path, "--max-pages", "5", "--ignore-robots")
	cfg, err := f.load(cmd)
	require.NoError(t, err)

	assert.Equal(t, "https://from-file.example.com", cfg.Site)
	assert.Equal(t, 5, cfg.Crawler.MaxPages)
	assert.Equal(t, 1.0, cfg.Crawler.MinDelay)
	assert.True(t, cfg.Crawler.IgnoreRobots)
	assert.False(t, cfg.Crawler.SkipSitemap)
}

func TestCrawlFlags_VerboseEnablesDebugLogging(t *testing.T) {
	cmd, f := parseCrawlFlags(t, "--site", "https://example.com", "-v")
	cfg, err := f.load(cmd)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)

	cmd, f = parseCrawlFlags(t, "--site", "https://example.com", "-v", "--log-level", "warn")
	cfg, err = f.load(cmd)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestCrawlFlags_MissingConfigFile(t *testing.T) {
	cmd, f := parseCrawlFlags(t, "--config", filepath.Join(t.TempDir(), "missing.json"))
	_, err := f.load(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestFinish_AppliesDefaults(t *testing.T) {
	cmd, f := parseCrawlFlags(t, "--site", "https://example.com")
	cfg, err := f.load(cmd)
	require.NoError(t, err)

	cfg, err = finish(cfg)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Crawler.MaxPages)
	assert.Equal(t, 200, cfg.Content.MinContentWords)
	assert.Equal(t, []string{"csv", "json"}, cfg.Output.Formats)
}

func TestFinish_KeepsExplicitZeros(t *testing.T) {
	cmd, f := parseCrawlFlags(t, "--site", "https://example.com", "--min-delay", "0", "--max-delay", "0")
	cfg, err := f.load(cmd)
	require.NoError(t, err)

	cfg, err = finish(cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Crawler.MinDelay)
	assert.Equal(t, 0.0, cfg.Crawler.MaxDelay)
	assert.Equal(t, 100, cfg.Crawler.MaxPages)
}

func TestFinish_RequiresSite(t *testing.T) {
	cmd, f := parseCrawlFlags(t)
	cfg, err := f.load(cmd)
	require.NoError(t, err)

	_, err = finish(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--site must be provided")
}

func TestFinish_InvalidDelays(t *testing.T) {
	cmd, f := parseCrawlFlags(t, "--site", "https://example.com", "--min-delay", "3", "--max-delay", "1")
	cfg, err := f.load(cmd)
	require.NoError(t, err)

	_, err = finish(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConfig)
}

func TestNormalizeFormats(t *testing.T) {
	assert.Equal(t, []string{"csv", "xlsx"}, normalizeFormats([]string{" CSV", "", "xlsx "}))
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "crawl", "serve", "validate-report"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	port := serveCmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "8080", port.DefValue)
	assert.NotNil(t, serveCmd.Flags().Lookup("max-pages"), "serve shares the crawl flags")
}
