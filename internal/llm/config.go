// Package llm provides the hosted embedding model used to vectorize page text.
package llm

// Provider represents an embedding provider
type Provider string

const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

const (
	// DefaultEmbeddingModel is the Gemini text embedding model.
	DefaultEmbeddingModel = "text-embedding-004"
	// MaxBatchSize is the largest number of texts sent in one BatchEmbedContents call.
	MaxBatchSize = 100
)

// Config holds the embedding model configuration
type Config struct {
	Provider       Provider
	EmbeddingModel string
	BatchSize      int
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderGemini,
		EmbeddingModel: DefaultEmbeddingModel,
		BatchSize:      MaxBatchSize,
	}
}

// WithModel returns a copy of the Config using a different embedding model.
// An empty model keeps the current one.
func (c *Config) WithModel(model string) *Config {
	newConfig := *c
	if model != "" {
		newConfig.EmbeddingModel = model
	}
	return &newConfig
}

func (c *Config) batchSize() int {
	if c.BatchSize <= 0 || c.BatchSize > MaxBatchSize {
		return MaxBatchSize
	}
	return c.BatchSize
}
