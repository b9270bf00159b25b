package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
)

const robotsTxtPath = "/robots.txt"

// maxRobotsBodyBytes limits the size of robots.txt responses we will read.
const maxRobotsBodyBytes = 512 * 1024

// RobotsChecker checks and caches robots.txt rules per host for the lifetime of one crawl.
// It is owned by a single crawler and is not safe for concurrent use.
type RobotsChecker struct {
	opts  *Options
	cache map[string]*robotsEntry // keyed by scheme://host
}

type robotsEntry struct {
	data     *robotstxt.RobotsData
	allowAll bool // robots.txt missing, unreachable or unparseable
}

// NewRobotsChecker creates a RobotsChecker that fetches with opts.
func NewRobotsChecker(opts *Options) *RobotsChecker {
	return &RobotsChecker{
		opts:  opts.withDefaults(),
		cache: make(map[string]*robotsEntry),
	}
}

// IsAllowed checks rawURL against its host's robots.txt.
// Missing or errored robots.txt results in allow all.
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("robots: parse url: %w", err)
	}
	if parsed.Host == "" {
		return false, fmt.Errorf("robots: empty host in url %q", rawURL)
	}

	entry := r.entry(ctx, parsed)
	if entry.allowAll {
		return true, nil
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	return entry.data.TestAgent(path, r.opts.UserAgent), nil
}

// CrawlDelay returns the Crawl-delay declared for our user agent, or 0.
func (r *RobotsChecker) CrawlDelay(ctx context.Context, rawURL string) time.Duration {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return 0
	}

	entry := r.entry(ctx, parsed)
	if entry.allowAll || entry.data == nil {
		return 0
	}

	group := entry.data.FindGroup(r.opts.UserAgent)
	if group == nil {
		return 0
	}
	return group.CrawlDelay
}

func (r *RobotsChecker) entry(ctx context.Context, u *url.URL) *robotsEntry {
	key := strings.ToLower(u.Scheme + "://" + u.Host)
	if cached, ok := r.cache[key]; ok {
		return cached
	}

	entry := r.fetch(ctx, key+robotsTxtPath)
	r.cache[key] = entry
	return entry
}

func (r *RobotsChecker) fetch(ctx context.Context, robotsURL string) *robotsEntry {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return &robotsEntry{allowAll: true}
	}
	req.Header.Set("User-Agent", r.opts.UserAgent)

	resp, err := r.opts.client().Do(req)
	if err != nil {
		return &robotsEntry{allowAll: true}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return &robotsEntry{allowAll: true}
	}

	// Server errors are treated like a missing file.
	if resp.StatusCode >= http.StatusInternalServerError {
		return &robotsEntry{allowAll: true}
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return &robotsEntry{allowAll: true}
	}
	return &robotsEntry{data: data}
}
