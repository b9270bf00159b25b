package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/link-planner/internal/clustering"
	"github.com/jonathan/link-planner/internal/config"
	"github.com/jonathan/link-planner/internal/types"
)

// words pads sentence-case filler until the text has at least n words.
func words(lead string, n int, filler string) string {
	parts := []string{lead}
	count := len(strings.Fields(lead))
	for count < n {
		parts = append(parts, filler)
		count += len(strings.Fields(filler))
	}
	return strings.Join(parts, " ")
}

var (
	breadPillar = words("Wild yeast fermentation gives sourdough its sour flavor and open crumb.",
		320, "Dough rests overnight in a cool kitchen and slowly develops flavor from wild yeast.")
	breadPost = words("Our bakery log covers Wild Yeast Fermentation for beginners.",
		220, "Bakers fold the dough every hour and watch the starter bubble.")
	kayakPage = words("Sea kayaks track straight in open water and handle waves well.",
		240, "Paddlers keep a steady stroke and check the tide tables before launch.")
)

func topicPages() []types.Page {
	return []types.Page{
		{URL: "https://example.com/bread/sourdough-guide", Title: "Sourdough Guide", Text: breadPillar},
		{URL: "https://example.com/blog/bakery-log", Title: "Bakery Log", Text: breadPost},
		{URL: "https://example.com/kayaks/sea-kayaks", Title: "Sea Kayaks", Text: kayakPage},
	}
}

// topicEmbedder maps bread texts and kayak texts onto two orthogonal directions.
func topicEmbedder() clustering.Embedder {
	return clustering.EmbedderFunc(func(_ context.Context, texts []string) ([][]float64, error) {
		out := make([][]float64, len(texts))
		for i, text := range texts {
			if strings.Contains(strings.ToLower(text), "dough") {
				out[i] = []float64{1, 0}
			} else {
				out[i] = []float64{0, 1}
			}
		}
		return out, nil
	})
}

func testConfig(site string) config.Config {
	cfg := config.Default()
	cfg.Site = site
	cfg.Linking.PhraseExtractor = "regex"
	return cfg
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestRunPages_ThreeTopicPages(t *testing.T) {
	var events []ProgressEvent
	opts := RunOptions{
		Config:     testConfig("https://example.com"),
		Embedder:   topicEmbedder(),
		OnProgress: func(e ProgressEvent) { events = append(events, e) },
	}

	result := RunPages(context.Background(), topicPages(), opts)

	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 3, result.TotalPagesCrawled)
	assert.Equal(t, 3, result.UsablePages)
	assert.Equal(t, 2, result.NumClusters)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Recommendations, 1)
	rec := result.Recommendations[0]
	assert.Equal(t, "https://example.com/blog/bakery-log", rec.SourceURL)
	assert.Equal(t, "https://example.com/bread/sourdough-guide", rec.TargetURL)
	assert.Equal(t, "Wild Yeast Fermentation", rec.AnchorText)
	assert.Contains(t, rec.SupportingSentence, "Wild Yeast Fermentation")
	assert.InDelta(t, 1.0, rec.SemanticScore, 1e-9)
	assert.Equal(t, 1, result.NumLinksRecommended)

	require.Len(t, result.Clusters, 2)
	for _, c := range result.Clusters {
		for _, r := range result.Recommendations {
			assert.NotEqual(t, c.PillarURL, r.SourceURL, "pillar pages never link out")
		}
	}

	steps := make([]string, 0, len(events))
	for _, e := range events {
		steps = append(steps, e.Step)
		assert.Equal(t, result.RunID, e.RunID)
	}
	assert.Contains(t, steps, StepExtract)
	assert.Contains(t, steps, StepCluster)
	assert.Contains(t, steps, StepPlan)
	assert.Contains(t, steps, StepAssemble)
}

func TestRunPages_HashingEmbedderInvariants(t *testing.T) {
	result := RunPages(context.Background(), topicPages(), RunOptions{Config: testConfig("https://example.com")})

	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.GreaterOrEqual(t, result.NumClusters, 2)

	pillarOf := make(map[int]string)
	for _, c := range result.Clusters {
		pillarOf[c.ID] = c.PillarURL
	}
	sources := make(map[string]bool)
	for _, rec := range result.Recommendations {
		assert.NotEqual(t, rec.SourceURL, rec.TargetURL)
		assert.Equal(t, pillarOf[rec.ClusterID], rec.TargetURL)
		assert.False(t, sources[rec.SourceURL], "one recommendation per source")
		sources[rec.SourceURL] = true
	}
}

func TestRunPages_SingleUsablePageFails(t *testing.T) {
	pages := []types.Page{
		{URL: "https://example.com/bread/sourdough-guide", Title: "Sourdough Guide", Text: breadPillar},
		{URL: "https://example.com/about", Title: "About", Text: "A short page about us."},
	}

	result := RunPages(context.Background(), pages, RunOptions{Config: testConfig("https://example.com")})

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.NumLinksRecommended)
	assert.Empty(t, result.Recommendations)
	assert.Equal(t, 2, result.TotalPagesCrawled)
	assert.Equal(t, 1, result.UsablePages)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[len(result.Errors)-1], "clustering error")
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "1 pages below the minimum of 200 words")
}

func TestRunPages_IdenticalPagesFailClustering(t *testing.T) {
	var pages []types.Page
	for _, slug := range []string{"a", "b", "c", "d"} {
		pages = append(pages, types.Page{
			URL:   "https://example.com/bread/" + slug,
			Title: "Sourdough",
			Text:  breadPillar,
		})
	}

	result := RunPages(context.Background(), pages, RunOptions{Config: testConfig("https://example.com")})

	assert.False(t, result.Success)
	assert.Equal(t, 4, result.UsablePages)
	assert.Equal(t, 0, result.NumClusters)
	assert.Empty(t, result.Recommendations)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[len(result.Errors)-1], "clustering error")
}

func TestRunPages_UtilityPageNeverSource(t *testing.T) {
	pages := append(topicPages(), types.Page{
		URL:   "https://example.com/privacy",
		Title: "Privacy",
		Text:  words("We bake with Wild Yeast Fermentation and respect your data.", 210, "Dough records are kept for one year."),
	})

	result := RunPages(context.Background(), pages, RunOptions{
		Config:   testConfig("https://example.com"),
		Embedder: topicEmbedder(),
	})

	require.True(t, result.Success, "errors: %v", result.Errors)
	for _, rec := range result.Recommendations {
		assert.NotEqual(t, "https://example.com/privacy", rec.SourceURL)
	}
}

func TestRunPages_LowQualityIsWarning(t *testing.T) {
	cfg := testConfig("https://example.com")
	cfg.Clustering.MinSilhouette = 0.99

	result := RunPages(context.Background(), topicPages(), RunOptions{Config: cfg, Embedder: topicEmbedder()})

	assert.True(t, result.Success)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, strings.Join(result.Warnings, "\n"), "below threshold")
	assert.Equal(t, 1, result.NumLinksRecommended)
}

func TestRunPages_Deterministic(t *testing.T) {
	opts := RunOptions{Config: testConfig("https://example.com")}

	first := RunPages(context.Background(), topicPages(), opts)
	second := RunPages(context.Background(), topicPages(), opts)

	assert.Equal(t, first.Recommendations, second.Recommendations)
	assert.Equal(t, first.Clusters, second.Clusters)
	assert.Equal(t, first.QualityScore, second.QualityScore)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunPages_GeminiWithoutKey(t *testing.T) {
	cfg := testConfig("https://example.com")
	cfg.Clustering.Embedder = "gemini"

	result := RunPages(context.Background(), topicPages(), RunOptions{Config: cfg})

	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "config error")
}

func TestRunPages_ExtractsHTML(t *testing.T) {
	pages := topicPages()
	pages[2].Text = ""
	pages[2].HTML = "<html><head><title>Sea Kayaks</title></head><body><nav>Home Shop</nav><main><p>" +
		kayakPage + "</p></main></body></html>"
	pages = append(pages, types.Page{URL: "https://example.com/empty", HTML: "<html><body><script>x()</script></body></html>"})

	result := RunPages(context.Background(), pages, RunOptions{Config: testConfig("https://example.com"), Embedder: topicEmbedder()})

	require.True(t, result.Success)
	assert.Equal(t, 3, result.UsablePages)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "extraction error for https://example.com/empty")
}

func TestRun_CrawlsSite(t *testing.T) {
	mux := http.NewServeMux()
	page := func(title, body string, links ...string) string {
		var sb strings.Builder
		sb.WriteString("<html><head><title>" + title + "</title></head><body><main><p>" + body + "</p>")
		for _, l := range links {
			sb.WriteString(fmt.Sprintf(`<a href="%s">%s</a>`, l, l))
		}
		sb.WriteString("</main></body></html>")
		return sb.String()
	}
	serve := func(path, markup string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != path {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(markup))
		})
	}
	serve("/", page("Home", "Welcome.", "/bread/sourdough-guide", "/blog/bakery-log", "/kayaks/sea-kayaks", "/missing"))
	serve("/bread/sourdough-guide", page("Sourdough Guide", breadPillar))
	serve("/blog/bakery-log", page("Bakery Log", breadPost, "/bread/sourdough-guide"))
	serve("/kayaks/sea-kayaks", page("Sea Kayaks", kayakPage))

	server := httptest.NewServer(mux)
	defer server.Close()

	result := Run(context.Background(), RunOptions{
		Config:   testConfig(server.URL),
		Embedder: topicEmbedder(),
		Client:   server.Client(),
		Sleep:    noSleep,
	})

	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 4, result.TotalPagesCrawled)
	assert.Equal(t, 3, result.UsablePages)
	assert.Len(t, result.Errors, 1, "the missing page is recorded")
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, server.URL+"/blog/bakery-log", result.Recommendations[0].SourceURL)
	assert.Equal(t, server.URL+"/bread/sourdough-guide", result.Recommendations[0].TargetURL)
}

func TestRun_InvalidSite(t *testing.T) {
	result := Run(context.Background(), RunOptions{Config: testConfig("not a url"), Sleep: noSleep})

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "invalid seed URL")
}
