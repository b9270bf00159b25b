// Package crawling provides the same-site breadth-first crawler that collects pages for link planning.
package crawling

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/link-planner/internal/config"
	"github.com/jonathan/link-planner/internal/content"
	"github.com/jonathan/link-planner/internal/fetch"
	"github.com/jonathan/link-planner/internal/logging"
	"github.com/jonathan/link-planner/internal/types"
	"github.com/jonathan/link-planner/internal/urlutil"
)

// Options configures a Crawler.
type Options struct {
	MaxPages      int
	MinDelay      time.Duration
	MaxDelay      time.Duration
	Timeout       time.Duration
	UserAgent     string
	RespectRobots bool
	UseSitemap    bool
	// Seed drives the delay jitter.
	Seed int64

	Client *http.Client
	Logger logging.Logger
	// Sleep waits between requests; tests replace it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// OptionsFromConfig maps the crawler section of the configuration onto Options.
func OptionsFromConfig(cfg config.CrawlerConfig, seed int64, logger logging.Logger) Options {
	minDelay, maxDelay := cfg.DelayRange()
	return Options{
		MaxPages:      cfg.MaxPages,
		MinDelay:      minDelay,
		MaxDelay:      maxDelay,
		Timeout:       cfg.Timeout(),
		UserAgent:     cfg.UserAgent,
		RespectRobots: !cfg.IgnoreRobots,
		UseSitemap:    !cfg.SkipSitemap,
		Seed:          seed,
		Logger:        logger,
	}
}

// Crawler performs a single-threaded breadth-first crawl of one site.
// A Crawler owns its visited set and is not safe for concurrent use.
type Crawler struct {
	opts      Options
	fetchOpts *fetch.Options
	robots    *fetch.RobotsChecker
	rng       *rand.Rand
	logger    logging.Logger
}

// New creates a Crawler, filling unset options with defaults.
func New(opts Options) *Crawler {
	if opts.MaxPages <= 0 {
		opts.MaxPages = config.Default().Crawler.MaxPages
	}
	if opts.Timeout <= 0 {
		opts.Timeout = fetch.DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = fetch.DefaultUserAgent
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}

	fetchOpts := &fetch.Options{
		Timeout:   opts.Timeout,
		UserAgent: opts.UserAgent,
		Client:    opts.Client,
	}

	c := &Crawler{
		opts:      opts,
		fetchOpts: fetchOpts,
		rng:       rand.New(rand.NewSource(opts.Seed)), //nolint:gosec // jitter only
		logger:    logging.OrNop(opts.Logger),
	}
	if opts.RespectRobots {
		c.robots = fetch.NewRobotsChecker(fetchOpts)
	}
	return c
}

// Crawl traverses the site of seedURL breadth-first and returns the pages in discovery order.
// Per-page failures are recorded in the result and never abort the crawl.
// The only returned error is an invalid seed URL.
func (c *Crawler) Crawl(ctx context.Context, seedURL string) (*types.CrawlResult, error) {
	seed, err := urlutil.Normalize(seedURL)
	if err != nil {
		return nil, types.NewFetchError(types.FetchRequest, seedURL, "invalid seed URL", err)
	}

	result := &types.CrawlResult{
		Seed:   seed,
		Pages:  make([]types.Page, 0),
		Errors: make([]string, 0),
	}

	c.logger.Info("Starting crawl",
		logging.String("seed", seed),
		logging.Int("max_pages", c.opts.MaxPages),
	)

	frontier := newFrontier(seed)
	frontier.push(seed)

	if c.opts.UseSitemap {
		c.seedFromSitemap(ctx, seed, frontier)
	}

	for frontier.len() > 0 && len(result.Pages) < c.opts.MaxPages {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("crawl cancelled: %v", ctx.Err()))
			break
		}

		pageURL := frontier.pop()

		if !c.allowed(ctx, pageURL) {
			continue
		}

		result.TotalAttempted++
		page, links, err := c.visit(ctx, pageURL)
		if err != nil {
			result.TotalFailed++
			result.Errors = append(result.Errors, err.Error())
			c.logFailure(err)
			continue
		}

		result.TotalSucceeded++
		result.Pages = append(result.Pages, *page)
		c.logger.Debug("Crawled page",
			logging.String("url", page.URL),
			logging.Int("links", len(links)),
		)

		for _, link := range links {
			frontier.push(link)
		}
	}

	c.logger.Info("Crawl complete",
		logging.Int("succeeded", result.TotalSucceeded),
		logging.Int("failed", result.TotalFailed),
		logging.Int("attempted", result.TotalAttempted),
	)

	return result, nil
}

// visit waits out the rate limit, fetches pageURL and extracts its outgoing links.
// A panic while handling the page is converted into a critical fetch error.
func (c *Crawler) visit(ctx context.Context, pageURL string) (page *types.Page, links []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			page, links = nil, nil
			err = types.NewFetchError(types.FetchCritical, pageURL, fmt.Sprintf("unexpected error: %v", r), nil)
		}
	}()

	if err := c.opts.Sleep(ctx, c.nextDelay(ctx, pageURL)); err != nil {
		return nil, nil, types.NewFetchError(types.FetchRequest, pageURL, "interrupted while rate limiting", err)
	}

	res, err := fetch.URL(ctx, pageURL, c.fetchOpts)
	if err != nil {
		return nil, nil, err
	}
	if !res.IsHTML() {
		return nil, nil, types.NewFetchError(types.FetchRequest, pageURL,
			fmt.Sprintf("unsupported content type %q", res.ContentType), nil)
	}

	if final, err := urlutil.Normalize(res.FinalURL); err == nil && !urlutil.SameSite(final, pageURL) {
		return nil, nil, types.NewFetchError(types.FetchRequest, pageURL, "redirected off-site to "+final, nil)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.HTML))
	if err != nil {
		return nil, nil, types.NewFetchError(types.FetchCritical, pageURL, "failed to parse HTML", err)
	}

	page = &types.Page{
		URL:       pageURL,
		Title:     content.CleanText(doc.Find("title").First().Text()),
		HTML:      res.HTML,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	// Relative links resolve against the URL actually served, which may keep a trailing slash.
	base := res.FinalURL
	if !urlutil.IsValid(base) {
		base = pageURL
	}
	return page, linksFromDocument(doc, base), nil
}

func (c *Crawler) seedFromSitemap(ctx context.Context, seed string, frontier *frontier) {
	urls, err := SitemapURLs(ctx, seed, c.fetchOpts)
	if err != nil {
		c.logger.Debug("Sitemap unavailable", logging.String("seed", seed), logging.Err(err))
		return
	}

	added := 0
	for _, u := range urls {
		if frontier.push(u) {
			added++
		}
	}
	c.logger.Info("Seeded from sitemap",
		logging.Int("found", len(urls)),
		logging.Int("queued", added),
	)
}

func (c *Crawler) allowed(ctx context.Context, pageURL string) bool {
	if c.robots == nil {
		return true
	}
	ok, err := c.robots.IsAllowed(ctx, pageURL)
	if err != nil || ok {
		return true
	}
	c.logger.Debug("Skipping URL",
		logging.Err(types.NewFetchError(types.FetchRobots, pageURL, "disallowed by robots.txt", nil)),
	)
	return false
}

// nextDelay samples uniformly from [MinDelay, MaxDelay] and honours a larger robots.txt Crawl-delay.
func (c *Crawler) nextDelay(ctx context.Context, pageURL string) time.Duration {
	delay := c.opts.MinDelay
	if spread := c.opts.MaxDelay - c.opts.MinDelay; spread > 0 {
		delay += time.Duration(c.rng.Int63n(int64(spread) + 1))
	}
	if c.robots != nil {
		if robotsDelay := c.robots.CrawlDelay(ctx, pageURL); robotsDelay > delay {
			delay = robotsDelay
		}
	}
	return delay
}

func (c *Crawler) logFailure(err error) {
	var se *types.StageError
	if errors.As(err, &se) && se.Reason == types.FetchTimeout {
		c.logger.Error("Fetch timed out", logging.String("url", se.URL), logging.Err(err))
		return
	}
	c.logger.Warn("Fetch failed", logging.Err(err))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
