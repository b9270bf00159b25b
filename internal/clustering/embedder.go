package clustering

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/floats"
)

// Embedder turns texts into fixed-size dense vectors, one per text in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, texts []string) ([][]float64, error)

// Embed calls f.
func (f EmbedderFunc) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	return f(ctx, texts)
}

// DefaultDimensions is the vector size of the hashing embedder.
const DefaultDimensions = 256

// HashingEmbedder is an offline embedder: each word and adjacent word pair is hashed
// into a signed bucket, weighted by log term frequency and the vector L2-normalized.
// The same text always yields the same vector.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder returns a HashingEmbedder producing vectors of size dim.
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = DefaultDimensions
	}
	return &HashingEmbedder{dim: dim}
}

// Embed implements Embedder.
func (h *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = h.vector(text)
	}
	return vectors, nil
}

func (h *HashingEmbedder) vector(text string) []float64 {
	tokens := tokenize(text)
	counts := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		counts[tok]++
		if i > 0 {
			counts[tokens[i-1]+" "+tok]++
		}
	}

	v := make([]float64, h.dim)
	for term, n := range counts {
		idx, sign := h.bucket(term)
		v[idx] += sign * (1 + math.Log(float64(n)))
	}
	normalize(v)
	return v
}

func (h *HashingEmbedder) bucket(term string) (int, float64) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(term))
	sum := hasher.Sum64()
	sign := 1.0
	if sum>>63 == 1 {
		sign = -1
	}
	return int(sum % uint64(h.dim)), sign
}

// tokenize lowercases text and keeps alphanumeric words that are not stop words.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := words[:0]
	for _, w := range words {
		if len([]rune(w)) < 2 || embeddingStopWords[w] {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// normalize scales v to unit length in place. Zero vectors are left unchanged.
func normalize(v []float64) {
	if n := floats.Norm(v, 2); n > 0 {
		floats.Scale(1/n, v)
	}
}

var embeddingStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true, "if": true,
	"of": true, "to": true, "in": true, "on": true, "at": true, "by": true, "for": true,
	"with": true, "from": true, "as": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "it": true, "its": true, "this": true, "that": true, "these": true,
	"those": true, "we": true, "you": true, "your": true, "our": true, "they": true, "their": true,
	"he": true, "she": true, "his": true, "her": true, "not": true, "no": true, "can": true,
	"will": true, "do": true, "does": true, "have": true, "has": true, "had": true, "so": true,
	"than": true, "then": true, "there": true, "which": true, "who": true, "what": true,
	"when": true, "how": true, "all": true, "also": true, "more": true, "about": true,
}
