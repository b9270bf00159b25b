package types

// LinkReport is the structured result of a pipeline run.
// It is the only input external writers (CSV, JSON, XLSX) consume.
type LinkReport struct {
	RunID                string               `json:"run_id"`
	Site                 string               `json:"site"`
	Timestamp            string               `json:"timestamp"` // RFC3339 format
	Success              bool                 `json:"success"`
	TotalPagesCrawled    int                  `json:"total_pages_crawled"`
	UsablePages          int                  `json:"usable_pages"`
	NumClusters          int                  `json:"num_clusters"`
	QualityScore         float64              `json:"quality_score"`
	NumLinksRecommended  int                  `json:"num_links_recommended"`
	ExecutionTimeSeconds float64              `json:"execution_time_seconds"`
	Clusters             []ClusterSummary     `json:"clusters"`
	Recommendations      []LinkRecommendation `json:"recommendations"`
	Warnings             []string             `json:"warnings"`
	Errors               []string             `json:"errors"`
}
