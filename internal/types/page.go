// Package types provides type definitions for structured data used throughout the link planner.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Page represents a single crawled page.
// HTML is transient: it is dropped once text extraction has run.
type Page struct {
	URL       string `json:"url" validate:"required,url"`
	Title     string `json:"title,omitempty"`
	HTML      string `json:"-"`
	Text      string `json:"text,omitempty"`
	WordCount int    `json:"word_count"`
	Hash      string `json:"hash,omitempty"`      // SHA256 hex digest of the extracted text
	Timestamp string `json:"timestamp,omitempty"` // RFC3339 format
}

// HasText reports whether content extraction produced any text for the page.
func (p *Page) HasText() bool {
	return p.Text != ""
}

// CrawlResult is the output of a single crawl. It is not modified after the crawl returns.
type CrawlResult struct {
	Seed           string   `json:"seed"`
	Pages          []Page   `json:"pages"`
	Errors         []string `json:"errors"`
	TotalAttempted int      `json:"total_attempted"`
	TotalSucceeded int      `json:"total_succeeded"`
	TotalFailed    int      `json:"total_failed"`
}

// URLs returns the page URLs in discovery order.
func (r *CrawlResult) URLs() []string {
	urls := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		urls = append(urls, p.URL)
	}
	return urls
}
