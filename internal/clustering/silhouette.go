package clustering

import "gonum.org/v1/gonum/floats"

// Silhouette returns the mean silhouette coefficient of labels over vectors using
// Euclidean distance. Points in singleton clusters score 0. The result is -1 when the
// labelling has fewer than 2 or more than n-1 distinct clusters, where it is undefined.
func Silhouette(vectors [][]float64, labels []int) float64 {
	n := len(vectors)
	if n == 0 || len(labels) != n {
		return -1
	}

	sizes := make(map[int]int)
	for _, l := range labels {
		sizes[l]++
	}
	if len(sizes) < 2 || len(sizes) > n-1 {
		return -1
	}

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := floats.Distance(vectors[i], vectors[j], 2)
			dist[i][j], dist[j][i] = d, d
		}
	}

	total := 0.0
	for i := 0; i < n; i++ {
		own := labels[i]
		if sizes[own] == 1 {
			continue
		}

		sums := make(map[int]float64, len(sizes))
		for j := 0; j < n; j++ {
			if j != i {
				sums[labels[j]] += dist[i][j]
			}
		}

		a := sums[own] / float64(sizes[own]-1)
		b := -1.0
		for l, size := range sizes {
			if l == own {
				continue
			}
			if mean := sums[l] / float64(size); b < 0 || mean < b {
				b = mean
			}
		}

		if m := max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(n)
}
