// Package clustering groups page texts into topic clusters, choosing the number of
// clusters automatically by silhouette score.
package clustering

import (
	"context"
	"fmt"

	"github.com/jonathan/link-planner/internal/config"
	"github.com/jonathan/link-planner/internal/content"
	"github.com/jonathan/link-planner/internal/logging"
	"github.com/jonathan/link-planner/internal/types"
)

const (
	// MinClustersFloor is the smallest cluster count ever evaluated.
	MinClustersFloor = 2
	// MaxClustersCeiling is the largest cluster count ever evaluated.
	MaxClustersCeiling = 15
)

// Options configures a Clusterer.
type Options struct {
	MinClusters   int
	MaxClusters   int
	MinSilhouette float64
	Seed          int64
	// MaxChars truncates each text before embedding; 0 disables truncation.
	MaxChars int
	Logger   logging.Logger
}

// OptionsFromConfig builds Options from the clustering and content configuration sections.
func OptionsFromConfig(cl config.ClusteringConfig, ct config.ContentConfig, logger logging.Logger) Options {
	return Options{
		MinClusters:   cl.MinClusters,
		MaxClusters:   cl.MaxClusters,
		MinSilhouette: cl.MinSilhouette,
		Seed:          cl.Seed,
		MaxChars:      ct.MaxEmbeddingChars,
		Logger:        logger,
	}
}

// Clusterer embeds texts and clusters them with k-means, picking k by silhouette.
type Clusterer struct {
	opts     Options
	embedder Embedder
	logger   logging.Logger
}

// NewClusterer creates a Clusterer. A nil embedder selects the hashing embedder.
func NewClusterer(opts Options, embedder Embedder) *Clusterer {
	if embedder == nil {
		embedder = NewHashingEmbedder(DefaultDimensions)
	}
	return &Clusterer{
		opts:     opts,
		embedder: embedder,
		logger:   logging.OrNop(opts.Logger),
	}
}

// KRange returns the inclusive range of cluster counts evaluated for n texts.
// ok is false when no valid k exists.
func (c *Clusterer) KRange(n int) (lo, hi int, ok bool) {
	lo = max(c.opts.MinClusters, MinClustersFloor)
	hi = c.opts.MaxClusters
	if hi <= 0 || hi > MaxClustersCeiling {
		hi = MaxClustersCeiling
	}
	hi = min(hi, n-1)
	return lo, hi, hi >= lo
}

// Cluster assigns every text to a cluster.
//
// Fewer than MinClusters+1 texts, an embedding failure, or texts too similar to form
// MinClusters distinct clusters for any k returns a clustering error and no assignment. When the winning silhouette is below MinSilhouette the assignment is
// returned together with an error matching types.ErrLowQuality; callers treat it as a warning.
func (c *Clusterer) Cluster(ctx context.Context, texts []string) (*types.ClusterAssignment, error) {
	n := len(texts)
	lo, hi, ok := c.KRange(n)
	if !ok {
		return nil, types.NewError(types.KindClustering,
			fmt.Sprintf("need at least %d usable pages to form %d clusters, got %d", lo+1, lo, n), nil)
	}

	vectors, err := c.embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Selecting cluster count",
		logging.Int("pages", n),
		logging.Int("min_k", lo),
		logging.Int("max_k", hi),
	)

	scores := make(map[int]float64, hi-lo+1)
	var bestLabels []int
	bestK, bestScore := 0, -2.0
	for k := lo; k <= hi; k++ {
		if err := ctx.Err(); err != nil {
			return nil, types.NewError(types.KindClustering, "clustering cancelled", err)
		}

		labels := KMeans(vectors, k, c.opts.Seed)
		// Identical vectors collapse into fewer clusters than requested, and the
		// silhouette of such a labelling is undefined.
		if got := distinct(labels); got < lo {
			c.logger.Debug("Skipping cluster count", logging.Int("k", k), logging.Int("distinct", got))
			continue
		}
		score := Silhouette(vectors, labels)
		scores[k] = score
		c.logger.Debug("Evaluated cluster count", logging.Int("k", k), logging.Float64("silhouette", score))

		// Strictly greater keeps the smallest k on ties.
		if score > bestScore {
			bestK, bestScore, bestLabels = k, score, labels
		}
	}

	if bestLabels == nil {
		return nil, types.NewError(types.KindClustering,
			fmt.Sprintf("could not compute a valid clustering for any cluster count in [%d, %d]", lo, hi), nil)
	}

	assignment := &types.ClusterAssignment{
		Labels:       bestLabels,
		NumClusters:  distinct(bestLabels),
		QualityScore: bestScore,
		Embeddings:   vectors,
		Scores:       scores,
	}

	c.logger.Info("Clustering complete",
		logging.Int("k", bestK),
		logging.Int("clusters", assignment.NumClusters),
		logging.Float64("silhouette", bestScore),
	)

	if bestScore < c.opts.MinSilhouette {
		c.logger.Warn("Low clustering quality",
			logging.Float64("silhouette", bestScore),
			logging.Float64("threshold", c.opts.MinSilhouette),
		)
		return assignment, types.NewError(types.KindLowQuality,
			fmt.Sprintf("silhouette score %.3f is below threshold %.2f; topics are weakly separated", bestScore, c.opts.MinSilhouette), nil)
	}
	return assignment, nil
}

// embed truncates, embeds and L2-normalizes texts, checking the embedder's output shape.
func (c *Clusterer) embed(ctx context.Context, texts []string) ([][]float64, error) {
	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = content.Truncate(t, c.opts.MaxChars)
	}

	vectors, err := c.embedder.Embed(ctx, inputs)
	if err != nil {
		return nil, types.NewError(types.KindClustering, "failed to embed page text", err)
	}
	if len(vectors) != len(texts) {
		return nil, types.NewError(types.KindClustering,
			fmt.Sprintf("embedder returned %d vectors for %d texts", len(vectors), len(texts)), nil)
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, types.NewError(types.KindClustering, "embedder returned empty vectors", nil)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, types.NewError(types.KindClustering,
				fmt.Sprintf("vector %d has dimension %d, expected %d", i, len(v), dim), nil)
		}
		v = clone(v)
		normalize(v)
		vectors[i] = v
	}
	return vectors, nil
}

func distinct(labels []int) int {
	seen := make(map[int]bool)
	for _, l := range labels {
		seen[l] = true
	}
	return len(seen)
}
