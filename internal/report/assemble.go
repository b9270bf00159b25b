// Package report assembles the structured result of a run and writes it to flat files.
package report

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/link-planner/internal/types"
)

// Metadata is everything about a run except the recommendations themselves.
type Metadata struct {
	RunID             string
	Site              string
	Started           time.Time
	Finished          time.Time
	Success           bool
	TotalPagesCrawled int
	UsablePages       int
	NumClusters       int
	QualityScore      float64
	Clusters          []types.ClusterSummary
	Warnings          []string
	Errors            []string
}

// Assemble packages recommendations and run metadata into a LinkReport.
// Every recommendation is validated; an incomplete one is a planning error.
// Nil slices become empty ones so serialized reports never contain null lists.
func Assemble(recs []types.LinkRecommendation, meta Metadata) (*types.LinkReport, error) {
	for i := range recs {
		if err := recs[i].Validate(); err != nil {
			return nil, types.NewError(types.KindPlanning, fmt.Sprintf("recommendation %d is incomplete", i), err)
		}
	}

	runID := meta.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	finished := meta.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	elapsed := 0.0
	if !meta.Started.IsZero() && finished.After(meta.Started) {
		elapsed = math.Round(finished.Sub(meta.Started).Seconds()*100) / 100
	}

	report := &types.LinkReport{
		RunID:                runID,
		Site:                 meta.Site,
		Timestamp:            finished.UTC().Format(time.RFC3339),
		Success:              meta.Success,
		TotalPagesCrawled:    meta.TotalPagesCrawled,
		UsablePages:          meta.UsablePages,
		NumClusters:          meta.NumClusters,
		QualityScore:         math.Round(meta.QualityScore*1e4) / 1e4,
		NumLinksRecommended:  len(recs),
		ExecutionTimeSeconds: elapsed,
		Clusters:             nonNil(meta.Clusters),
		Recommendations:      nonNil(recs),
		Warnings:             nonNil(meta.Warnings),
		Errors:               nonNil(meta.Errors),
	}
	return report, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
