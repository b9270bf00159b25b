package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// batchFunc embeds one batch of texts and returns one vector per text.
type batchFunc func(ctx context.Context, texts []string) ([][]float32, error)

// GeminiEmbedder embeds text with a Gemini embedding model.
type GeminiEmbedder struct {
	client *genai.Client
	config *Config
	embed  batchFunc
}

// NewGeminiEmbedder creates a new Gemini embedding client
func NewGeminiEmbedder(ctx context.Context, config *Config, apiKey string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultConfig()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	e := &GeminiEmbedder{client: client, config: config}
	e.embed = e.batchEmbedContents
	return e, nil
}

// Embed returns one vector per text, in input order.
// Texts are sent in batches of at most Config.BatchSize.
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, 0, len(texts))
	size := e.config.batchSize()

	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		batch, err := e.embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed texts %d-%d: %w", start, end-1, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedding model returned %d vectors for %d texts", len(batch), end-start)
		}
		for _, v := range batch {
			vectors = append(vectors, toFloat64(v))
		}
	}

	return vectors, nil
}

// Model returns the embedding model name.
func (e *GeminiEmbedder) Model() string {
	return e.config.EmbeddingModel
}

// Close releases resources held by the client
func (e *GeminiEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

func (e *GeminiEmbedder) batchEmbedContents(ctx context.Context, texts []string) ([][]float32, error) {
	model := e.client.EmbeddingModel(e.config.EmbeddingModel)
	model.TaskType = genai.TaskTypeClustering

	batch := model.NewBatch()
	for _, t := range texts {
		batch = batch.AddContent(genai.Text(t))
	}

	resp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(resp.Embeddings))
	for _, emb := range resp.Embeddings {
		if emb == nil {
			return nil, fmt.Errorf("embedding model returned an empty embedding")
		}
		out = append(out, emb.Values)
	}
	return out, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
