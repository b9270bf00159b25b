// Package config provides configuration loading and validation for the link planner.
// Configuration is an explicit value handed to each pipeline stage; there is no global instance.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/link-planner/internal/logging"
	"github.com/jonathan/link-planner/internal/types"
)

// CrawlerConfig holds crawl limits. Delays and timeouts are in seconds.
type CrawlerConfig struct {
	MaxPages       int     `json:"max_pages,omitempty" validate:"gte=1"`
	RequestTimeout float64 `json:"request_timeout,omitempty" validate:"gt=0"`
	MinDelay       float64 `json:"min_delay,omitempty" validate:"gte=0"`
	MaxDelay       float64 `json:"max_delay,omitempty" validate:"gte=0"`
	UserAgent      string  `json:"user_agent,omitempty" validate:"required"`
	IgnoreRobots   bool    `json:"ignore_robots,omitempty"`
	SkipSitemap    bool    `json:"skip_sitemap,omitempty"`
}

// Timeout returns the per-request timeout.
func (c CrawlerConfig) Timeout() time.Duration {
	return seconds(c.RequestTimeout)
}

// DelayRange returns the randomized delay bounds.
func (c CrawlerConfig) DelayRange() (time.Duration, time.Duration) {
	return seconds(c.MinDelay), seconds(c.MaxDelay)
}

// ContentConfig controls which pages are usable for clustering.
type ContentConfig struct {
	MinContentWords   int `json:"min_content_words,omitempty" validate:"gte=1"`
	MaxEmbeddingChars int `json:"max_embedding_chars,omitempty" validate:"gte=1"`
}

// ClusteringConfig controls k selection and embeddings.
type ClusteringConfig struct {
	MinClusters    int     `json:"min_clusters,omitempty" validate:"gte=2"`
	MaxClusters    int     `json:"max_clusters,omitempty" validate:"gte=2,lte=15"`
	MinSilhouette  float64 `json:"min_silhouette,omitempty" validate:"gte=-1,lte=1"`
	Seed           int64   `json:"seed,omitempty"`
	Embedder       string  `json:"embedder,omitempty" validate:"oneof=hashing gemini"`
	EmbeddingModel string  `json:"embedding_model,omitempty"`
	Dimensions     int     `json:"dimensions,omitempty" validate:"gte=8"`
}

// LinkingConfig controls pillar and anchor rules.
type LinkingConfig struct {
	UtilityKeywords  []string `json:"utility_keywords,omitempty" validate:"dive,required"`
	MinAnchorWords   int      `json:"min_anchor_words,omitempty" validate:"gte=1"`
	MaxAnchorWords   int      `json:"max_anchor_words,omitempty" validate:"gte=1"`
	MinAnchorOverlap int      `json:"min_anchor_overlap,omitempty" validate:"gte=1"`
	PhraseExtractor  string   `json:"phrase_extractor,omitempty" validate:"oneof=pos regex"`
}

// OutputConfig controls the flat files written after a run.
type OutputConfig struct {
	Dir     string   `json:"dir,omitempty"`
	Formats []string `json:"formats,omitempty" validate:"dive,oneof=csv json xlsx"`
}

// Config represents the full configuration that can be loaded from a JSON file.
// A usable Config starts from Default() and has explicit values applied on top.
type Config struct {
	Site       string           `json:"site,omitempty"`
	APIKey     string           `json:"api_key,omitempty"` // Gemini API key, only needed for the gemini embedder
	Verbose    bool             `json:"verbose,omitempty"`
	Crawler    CrawlerConfig    `json:"crawler"`
	Content    ContentConfig    `json:"content"`
	Clustering ClusteringConfig `json:"clustering"`
	Linking    LinkingConfig    `json:"linking"`
	Output     OutputConfig     `json:"output"`
	Logging    logging.Config   `json:"logging"`
}

// DefaultUtilityKeywords identify administrative pages that never act as link sources.
var DefaultUtilityKeywords = []string{
	"privacy", "terms", "cookie", "disclaimer",
	"contact", "login", "signup", "404",
	"legal", "policy", "sitemap",
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Crawler: CrawlerConfig{
			MaxPages:       100,
			RequestTimeout: 10,
			MinDelay:       0.5,
			MaxDelay:       2.0,
			UserAgent:      "Mozilla/5.0 (compatible; LinkPlanner/1.0)",
		},
		Content: ContentConfig{
			MinContentWords:   200,
			MaxEmbeddingChars: 2000,
		},
		Clustering: ClusteringConfig{
			MinClusters:    2,
			MaxClusters:    15,
			MinSilhouette:  0.2,
			Seed:           42,
			Embedder:       "hashing",
			EmbeddingModel: "text-embedding-004",
			Dimensions:     256,
		},
		Linking: LinkingConfig{
			UtilityKeywords:  append([]string(nil), DefaultUtilityKeywords...),
			MinAnchorWords:   2,
			MaxAnchorWords:   5,
			MinAnchorOverlap: 2,
			PhraseExtractor:  "pos",
		},
		Output: OutputConfig{
			Dir:     ".",
			Formats: []string{"csv", "json"},
		},
		Logging: logging.Config{Level: logging.DefaultLevel},
	}
}

// LoadConfig loads configuration from a JSON file on top of Default().
// Fields absent from the file keep their defaults; explicit values, zeros included, win.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

var validate = validator.New()

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return types.NewError(types.KindConfig, "invalid configuration", err)
	}

	if c.Crawler.MinDelay > c.Crawler.MaxDelay {
		return types.NewError(types.KindConfig, "'min_delay' must not exceed 'max_delay'", nil)
	}
	if c.Clustering.MinClusters > c.Clustering.MaxClusters {
		return types.NewError(types.KindConfig, "'min_clusters' must not exceed 'max_clusters'", nil)
	}
	if c.Linking.MinAnchorWords > c.Linking.MaxAnchorWords {
		return types.NewError(types.KindConfig, "'min_anchor_words' must not exceed 'max_anchor_words'", nil)
	}
	if c.Clustering.Embedder == "gemini" && c.APIKey == "" {
		return types.NewError(types.KindConfig, "gemini embedder requires an API key", nil)
	}

	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
