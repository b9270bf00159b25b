package report

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/link-planner/internal/types"
)

func sampleRecs() []types.LinkRecommendation {
	return []types.LinkRecommendation{
		{
			SourceURL:          "https://example.com/blog/baking-bread",
			TargetURL:          "https://example.com/guides/sourdough",
			AnchorText:         "sourdough starter",
			SupportingSentence: "Feed your sourdough starter twice a day.",
			SemanticScore:      0.8123,
			ClusterID:          0,
		},
	}
}

func TestAssemble_Counts(t *testing.T) {
	started := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	meta := Metadata{
		RunID:             "run-1",
		Site:              "https://example.com",
		Started:           started,
		Finished:          started.Add(2500 * time.Millisecond),
		Success:           true,
		TotalPagesCrawled: 12,
		UsablePages:       10,
		NumClusters:       2,
		QualityScore:      0.412345,
	}

	got, err := Assemble(sampleRecs(), meta)
	require.NoError(t, err)

	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "2026-01-02T15:04:07Z", got.Timestamp)
	assert.Equal(t, 1, got.NumLinksRecommended)
	assert.Equal(t, 12, got.TotalPagesCrawled)
	assert.Equal(t, 10, got.UsablePages)
	assert.InDelta(t, 0.4123, got.QualityScore, 1e-9)
	assert.InDelta(t, 2.5, got.ExecutionTimeSeconds, 1e-9)
	assert.True(t, got.Success)
}

func TestAssemble_EmptySlicesAndRunID(t *testing.T) {
	got, err := Assemble(nil, Metadata{Site: "https://example.com"})
	require.NoError(t, err)

	assert.NotEmpty(t, got.RunID)
	assert.NotNil(t, got.Recommendations)
	assert.NotNil(t, got.Clusters)
	assert.NotNil(t, got.Warnings)
	assert.NotNil(t, got.Errors)
	assert.Zero(t, got.NumLinksRecommended)
	assert.Zero(t, got.ExecutionTimeSeconds)
}

func TestAssemble_RejectsIncompleteRecommendation(t *testing.T) {
	recs := sampleRecs()
	recs[0].AnchorText = ""

	_, err := Assemble(recs, Metadata{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPlanning))
}
