package types

import "fmt"

// ClusterAssignment maps each usable page (by index) to a cluster id.
// Labels[i] is the cluster of the i-th page handed to the clusterer.
type ClusterAssignment struct {
	Labels       []int           `json:"labels"`
	NumClusters  int             `json:"num_clusters"`
	QualityScore float64         `json:"quality_score"`
	Embeddings   [][]float64     `json:"-"`
	Scores       map[int]float64 `json:"scores,omitempty"` // silhouette per evaluated k
}

// Members groups page indices by cluster id, preserving page order inside each group.
func (a *ClusterAssignment) Members() map[int][]int {
	groups := make(map[int][]int, a.NumClusters)
	for idx, label := range a.Labels {
		groups[label] = append(groups[label], idx)
	}
	return groups
}

// ClusterIDs returns the distinct cluster ids in ascending order.
func (a *ClusterAssignment) ClusterIDs() []int {
	seen := make(map[int]bool)
	maxID := -1
	for _, label := range a.Labels {
		seen[label] = true
		if label > maxID {
			maxID = label
		}
	}
	ids := make([]int, 0, len(seen))
	for id := 0; id <= maxID; id++ {
		if seen[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// ClusterSummary describes one topic cluster in the final report.
type ClusterSummary struct {
	ID        int      `json:"id"`
	Label     string   `json:"label"`
	PillarURL string   `json:"pillar_url,omitempty"`
	Members   []string `json:"members"`
}

// DefaultClusterLabel is used when no member has a usable title.
func DefaultClusterLabel(id int) string {
	return fmt.Sprintf("Cluster %d", id)
}
