// Package pipeline provides the high-level orchestration for a link planning run:
// crawl, extract, cluster, plan and assemble.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/link-planner/internal/clustering"
	"github.com/jonathan/link-planner/internal/config"
	"github.com/jonathan/link-planner/internal/content"
	"github.com/jonathan/link-planner/internal/crawling"
	"github.com/jonathan/link-planner/internal/linking"
	"github.com/jonathan/link-planner/internal/llm"
	"github.com/jonathan/link-planner/internal/logging"
	"github.com/jonathan/link-planner/internal/observability"
	"github.com/jonathan/link-planner/internal/report"
	"github.com/jonathan/link-planner/internal/types"
)

// Pipeline steps reported through ProgressEvent.Step.
const (
	StepCrawl    = "crawl"
	StepExtract  = "extract"
	StepCluster  = "cluster"
	StepPlan     = "plan"
	StepAssemble = "assemble"
)

// Progress categories.
const (
	CategoryInfo    = "info"
	CategoryWarning = "warning"
	CategoryError   = "error"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running the pipeline.
// Config is expected to be merged with defaults and validated by the caller.
type RunOptions struct {
	Config config.Config
	Logger logging.Logger

	// Embedder overrides the embedder selected by Config.Clustering.Embedder.
	Embedder clustering.Embedder
	// Client and Sleep are handed to the crawler; tests use them to avoid real delays.
	Client *http.Client
	Sleep  func(ctx context.Context, d time.Duration) error

	Verbose    bool
	Out        io.Writer // verbose output, defaults to stdout
	OnProgress ProgressCallback
}

type run struct {
	opts    RunOptions
	runID   string
	logger  logging.Logger
	printer *observability.Printer
	started time.Time
}

func newRun(opts RunOptions) *run {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	runID := uuid.NewString()
	return &run{
		opts:    opts,
		runID:   runID,
		logger:  logging.OrNop(opts.Logger).With(logging.String("run_id", runID)),
		printer: observability.NewPrinter(out),
		started: time.Now(),
	}
}

// emitProgress calls the progress callback if configured
func (r *run) emitProgress(step, category, message string, content any) {
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(ProgressEvent{
			Step:     step,
			Category: category,
			Message:  message,
			RunID:    r.runID,
			Content:  content,
		})
	}
}

// Run crawls Config.Site and plans internal links for it.
// It always returns a report; stage failures are recorded in its Errors and Warnings,
// and Success is false when a fatal stage error stopped the run.
func Run(ctx context.Context, opts RunOptions) *types.LinkReport {
	r := newRun(opts)
	cfg := opts.Config

	crawlOpts := crawling.OptionsFromConfig(cfg.Crawler, cfg.Clustering.Seed, r.logger)
	crawlOpts.Client = opts.Client
	crawlOpts.Sleep = opts.Sleep

	r.logger.Info("Crawling site", logging.String("site", cfg.Site))
	crawl, err := crawling.New(crawlOpts).Crawl(ctx, cfg.Site)
	if err != nil {
		r.emitProgress(StepCrawl, CategoryError, err.Error(), nil)
		return r.fail(report.Metadata{Site: cfg.Site}, err)
	}
	if opts.Verbose {
		r.printer.PrintCrawlSummary(crawl)
	}
	r.emitProgress(StepCrawl, CategoryInfo,
		fmt.Sprintf("Crawled %d pages (%d failed)", crawl.TotalSucceeded, crawl.TotalFailed), crawl.URLs())

	return r.process(ctx, crawl)
}

// RunPages plans links for pages that were collected elsewhere.
// Pages carrying HTML are extracted; pages carrying only Text are used as-is.
func RunPages(ctx context.Context, pages []types.Page, opts RunOptions) *types.LinkReport {
	r := newRun(opts)
	site := opts.Config.Site
	if site == "" && len(pages) > 0 {
		site = pages[0].URL
	}
	r.opts.Config.Site = site
	crawl := &types.CrawlResult{
		Seed:           site,
		Pages:          pages,
		Errors:         []string{},
		TotalAttempted: len(pages),
		TotalSucceeded: len(pages),
	}
	return r.process(ctx, crawl)
}

func (r *run) process(ctx context.Context, crawl *types.CrawlResult) *types.LinkReport {
	cfg := r.opts.Config
	meta := report.Metadata{
		Site:              cfg.Site,
		TotalPagesCrawled: len(crawl.Pages),
		Errors:            append([]string{}, crawl.Errors...),
	}

	usable, skipped, extractErrs := r.extract(crawl.Pages, cfg.Content.MinContentWords)
	meta.Errors = append(meta.Errors, extractErrs...)
	meta.UsablePages = len(usable)
	if skipped > 0 {
		meta.Warnings = append(meta.Warnings,
			fmt.Sprintf("%d pages below the minimum of %d words were excluded from clustering", skipped, cfg.Content.MinContentWords))
	}
	r.emitProgress(StepExtract, CategoryInfo,
		fmt.Sprintf("%d of %d pages usable for clustering", len(usable), len(crawl.Pages)), nil)

	embedder, closeEmbedder, err := r.embedder(ctx)
	if err != nil {
		return r.fail(meta, err)
	}
	defer closeEmbedder()

	texts := make([]string, len(usable))
	for i := range usable {
		texts[i] = usable[i].Text
	}

	clusterer := clustering.NewClusterer(clustering.OptionsFromConfig(cfg.Clustering, cfg.Content, r.logger), embedder)
	assignment, err := clusterer.Cluster(ctx, texts)
	switch {
	case err != nil && errors.Is(err, types.ErrLowQuality) && assignment != nil:
		meta.Warnings = append(meta.Warnings, err.Error())
		r.emitProgress(StepCluster, CategoryWarning, err.Error(), nil)
	case err != nil:
		r.emitProgress(StepCluster, CategoryError, err.Error(), nil)
		return r.fail(meta, err)
	}
	meta.NumClusters = assignment.NumClusters
	meta.QualityScore = assignment.QualityScore
	r.emitProgress(StepCluster, CategoryInfo,
		fmt.Sprintf("Grouped %d pages into %d clusters (silhouette %.3f)", len(usable), assignment.NumClusters, assignment.QualityScore),
		assignment.Scores)

	planner := linking.NewPlanner(linking.OptionsFromConfig(cfg.Linking, r.logger))
	recs, err := planner.Plan(usable, assignment)
	if err != nil {
		r.emitProgress(StepPlan, CategoryError, err.Error(), nil)
		return r.fail(meta, err)
	}
	summaries, err := planner.Summaries(usable, assignment)
	if err != nil {
		return r.fail(meta, err)
	}
	meta.Clusters = summaries
	if r.opts.Verbose {
		r.printer.PrintClusters(summaries, assignment.QualityScore)
		r.printer.PrintRecommendations(recs)
	}
	r.emitProgress(StepPlan, CategoryInfo, fmt.Sprintf("Planned %d links", len(recs)), nil)

	meta.Success = true
	result, err := r.assemble(recs, meta)
	if err != nil {
		return r.fail(meta, err)
	}
	r.emitProgress(StepAssemble, CategoryInfo, "Assembled report", nil)
	return result
}

// extract fills Text, WordCount, Hash and Title for every page and returns the pages
// with at least minWords words. HTML is dropped once extracted.
func (r *run) extract(pages []types.Page, minWords int) (usable []types.Page, skipped int, errs []string) {
	usable = make([]types.Page, 0, len(pages))
	for i := range pages {
		page := pages[i]
		if page.HTML != "" {
			doc, err := content.Analyze(page.HTML)
			page.HTML = ""
			if err != nil {
				se := &types.StageError{Kind: types.KindExtraction, URL: page.URL, Message: "failed to extract content", Cause: err}
				r.logger.Warn("Skipping page", logging.String("url", page.URL), logging.Err(err))
				errs = append(errs, se.Error())
				continue
			}
			page.Text = doc.Text
			page.WordCount = doc.WordCount
			page.Hash = doc.Hash
			if page.Title == "" {
				page.Title = doc.Title
			}
		} else {
			page.Text = content.CleanText(page.Text)
			if page.WordCount == 0 {
				page.WordCount = content.WordCount(page.Text)
			}
			if page.Hash == "" && page.Text != "" {
				page.Hash = content.Hash(page.Text)
			}
		}

		if !page.HasText() {
			errs = append(errs, types.NewError(types.KindExtraction, "no content for "+page.URL, nil).Error())
			continue
		}
		if page.WordCount < minWords {
			r.logger.Debug("Page below word threshold",
				logging.String("url", page.URL),
				logging.Int("words", page.WordCount),
			)
			skipped++
			continue
		}
		usable = append(usable, page)
	}
	return usable, skipped, errs
}

// embedder returns the configured embedder and a func releasing it.
func (r *run) embedder(ctx context.Context) (clustering.Embedder, func(), error) {
	noop := func() {}
	if r.opts.Embedder != nil {
		return r.opts.Embedder, noop, nil
	}

	cl := r.opts.Config.Clustering
	switch cl.Embedder {
	case "", "hashing":
		dim := cl.Dimensions
		if dim <= 0 {
			dim = clustering.DefaultDimensions
		}
		return clustering.NewHashingEmbedder(dim), noop, nil
	case "gemini":
		gemini, err := llm.NewGeminiEmbedder(ctx, llm.DefaultConfig().WithModel(cl.EmbeddingModel), r.opts.Config.APIKey)
		if err != nil {
			return nil, noop, types.NewError(types.KindConfig, "failed to create gemini embedder", err)
		}
		return gemini, func() { _ = gemini.Close() }, nil
	default:
		return nil, noop, types.NewError(types.KindConfig, fmt.Sprintf("unknown embedder %q", cl.Embedder), nil)
	}
}

func (r *run) assemble(recs []types.LinkRecommendation, meta report.Metadata) (*types.LinkReport, error) {
	meta.RunID = r.runID
	meta.Started = r.started
	meta.Finished = time.Now()
	result, err := report.Assemble(recs, meta)
	if err != nil {
		return nil, err
	}
	if r.opts.Verbose {
		r.printer.PrintReport(result)
	}
	r.logger.Info("Run finished",
		logging.Bool("success", result.Success),
		logging.Int("links", result.NumLinksRecommended),
		logging.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// fail records a fatal stage error and returns a report without recommendations.
func (r *run) fail(meta report.Metadata, err error) *types.LinkReport {
	r.logger.Error("Run failed", logging.String("kind", string(types.KindOf(err))), logging.Err(err))
	meta.Success = false
	meta.Errors = append(meta.Errors, err.Error())
	// Assemble only rejects invalid recommendations and there are none here.
	result, _ := r.assemble(nil, meta)
	return result
}
