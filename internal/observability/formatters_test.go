package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/jonathan/link-planner/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintCrawlSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	result := &types.CrawlResult{Seed: "https://example.com", TotalAttempted: 8, TotalSucceeded: 7, TotalFailed: 1}
	for i := 0; i < 7; i++ {
		result.Pages = append(result.Pages, types.Page{URL: fmt.Sprintf("https://example.com/p%d", i)})
	}

	p.PrintCrawlSummary(result)
	output := buf.String()

	assert.Contains(t, output, "CRAWL SUMMARY")
	assert.Contains(t, output, "Attempted: 8")
	assert.Contains(t, output, "https://example.com/p0")
	assert.NotContains(t, output, "https://example.com/p6")
	assert.Contains(t, output, "... and 2 more")
}

func TestPrintCrawlSummary_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintCrawlSummary(nil)
	assert.Empty(t, buf.String())
}

func TestPrintClusters(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintClusters([]types.ClusterSummary{
		{ID: 0, Label: "Sourdough Guide", PillarURL: "https://example.com/sourdough", Members: []string{"a", "b", "c"}},
		{ID: 1, Label: "Cluster 1", Members: []string{"d"}},
	}, 0.4213)
	output := buf.String()

	assert.Contains(t, output, "TOPIC CLUSTERS (silhouette 0.421)")
	assert.Contains(t, output, "Sourdough Guide")
	assert.Contains(t, output, "https://example.com/sourdough")
	assert.Contains(t, output, "Cluster 1")
}

func TestPrintRecommendations(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	recs := make([]types.LinkRecommendation, 0, 6)
	for i := 0; i < 6; i++ {
		recs = append(recs, types.LinkRecommendation{
			SourceURL:     fmt.Sprintf("https://example.com/post-%d", i),
			TargetURL:     "https://example.com/pillar",
			AnchorText:    "bread baking",
			SemanticScore: 0.5,
		})
	}

	p.PrintRecommendations(recs)
	output := buf.String()

	assert.Contains(t, output, "LINK RECOMMENDATIONS (6)")
	assert.Contains(t, output, "https://example.com/post-0")
	assert.NotContains(t, output, "https://example.com/post-5")
	assert.Contains(t, output, "0.5000")
}

func TestPrintRecommendations_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRecommendations(nil)
	assert.Contains(t, buf.String(), "No links recommended")
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintReport(&types.LinkReport{
		Site:                "https://example.com",
		Success:             false,
		TotalPagesCrawled:   4,
		NumLinksRecommended: 0,
		Errors:              []string{"clustering failed"},
		Warnings:            []string{"2 pages below minimum word count"},
	})
	output := buf.String()

	assert.Contains(t, output, "RUN SUMMARY")
	assert.Contains(t, output, "FAILED")
	assert.Contains(t, output, "WARNINGS (1) / ERRORS (1)")
	assert.Contains(t, output, "clustering failed")
}

func TestPrintProblems_None(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProblems(nil, nil)
	assert.Contains(t, buf.String(), "NO WARNINGS OR ERRORS")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("x", 100))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "abc", shorten("abc", 5))
	assert.Equal(t, "ab...", shorten("abcdefgh", 5))
	assert.Equal(t, "ab", shorten("abcdefgh", 2))
}
