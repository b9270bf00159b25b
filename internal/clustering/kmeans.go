package clustering

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

const (
	// kmeansRestarts is the number of seeded k-means++ initializations per k.
	kmeansRestarts = 10
	kmeansMaxIter  = 300
	kmeansTol      = 1e-6
)

// KMeans partitions vectors into k clusters using k-means++ seeding and Lloyd iterations.
// The best of several restarts (lowest inertia) is kept. Labels are renumbered in order of
// first appearance, so the first vector is always in cluster 0. Identical input and seed
// always produce identical labels.
func KMeans(vectors [][]float64, k int, seed int64) []int {
	n := len(vectors)
	if n == 0 {
		return nil
	}
	if k <= 1 {
		return make([]int, n)
	}
	if k > n {
		k = n
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducibility, not security
	var best []int
	bestInertia := math.Inf(1)
	for run := 0; run < kmeansRestarts; run++ {
		labels, inertia := lloyd(vectors, initPlusPlus(vectors, k, rng))
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}
	return canonicalLabels(best)
}

// initPlusPlus picks k initial centroids with probability proportional to squared distance.
func initPlusPlus(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(vectors)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(vectors[rng.Intn(n)]))

	d2 := make([]float64, n)
	for i, v := range vectors {
		d2[i] = sqDist(v, centroids[0])
	}

	for len(centroids) < k {
		total := floats.Sum(d2)
		next := 0
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range d2 {
				target -= d
				if target <= 0 {
					next = i
					break
				}
				next = i
			}
		} else {
			next = rng.Intn(n)
		}

		c := clone(vectors[next])
		centroids = append(centroids, c)
		for i, v := range vectors {
			if d := sqDist(v, c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centroids
}

// lloyd runs assignment/update steps until centroids stop moving.
func lloyd(vectors [][]float64, centroids [][]float64) ([]int, float64) {
	n, k := len(vectors), len(centroids)
	dim := len(vectors[0])
	labels := make([]int, n)

	for iter := 0; iter < kmeansMaxIter; iter++ {
		for i, v := range vectors {
			labels[i] = nearest(v, centroids)
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, v := range vectors {
			floats.Add(sums[labels[i]], v)
			counts[labels[i]]++
		}

		shift := 0.0
		for c := range centroids {
			if counts[c] == 0 {
				// Empty cluster: move it onto the point farthest from its centroid.
				far := farthest(vectors, labels, centroids)
				copy(sums[c], vectors[far])
				labels[far] = c
				counts[c] = 1
			} else {
				floats.Scale(1/float64(counts[c]), sums[c])
			}
			shift += sqDist(centroids[c], sums[c])
			centroids[c] = sums[c]
		}

		if shift <= kmeansTol {
			break
		}
	}

	inertia := 0.0
	for i, v := range vectors {
		labels[i] = nearest(v, centroids)
		inertia += sqDist(v, centroids[labels[i]])
	}
	return labels, inertia
}

func nearest(v []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(v, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func farthest(vectors [][]float64, labels []int, centroids [][]float64) int {
	idx, maxDist := 0, -1.0
	for i, v := range vectors {
		if d := sqDist(v, centroids[labels[i]]); d > maxDist {
			idx, maxDist = i, d
		}
	}
	return idx
}

// canonicalLabels renumbers labels in order of first appearance.
func canonicalLabels(labels []int) []int {
	mapping := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := mapping[l]
		if !ok {
			id = len(mapping)
			mapping[l] = id
		}
		out[i] = id
	}
	return out
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
