package crawling

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/link-planner/internal/fetch"
	"github.com/jonathan/link-planner/internal/types"
	"github.com/jonathan/link-planner/internal/urlutil"
)

const sitemapPath = "/sitemap.xml"

// maxChildSitemaps bounds how many sitemaps of an index file are followed.
const maxChildSitemaps = 10

// Sitemap is the parsed content of a sitemap or sitemap index document.
type Sitemap struct {
	URLs    []string
	IsIndex bool
}

// ParseSitemap reads every <loc> entry of a sitemap document.
// Entries are normalized, invalid ones dropped and duplicates removed keeping first occurrence.
func ParseSitemap(body string) (*Sitemap, error) {
	if strings.TrimSpace(body) == "" {
		return nil, types.NewError(types.KindExtraction, "empty sitemap", nil)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, types.NewError(types.KindExtraction, "failed to parse sitemap", err)
	}

	sitemap := &Sitemap{IsIndex: doc.Find("sitemapindex").Length() > 0}
	seen := make(map[string]bool)
	doc.Find("loc").Each(func(_ int, s *goquery.Selection) {
		normalized, err := urlutil.Normalize(strings.TrimSpace(s.Text()))
		if err != nil || !urlutil.IsValid(normalized) || seen[normalized] {
			return
		}
		seen[normalized] = true
		sitemap.URLs = append(sitemap.URLs, normalized)
	})

	return sitemap, nil
}

// SitemapURLs fetches /sitemap.xml for the site of seedURL and returns its page URLs.
// A sitemap index is followed one level deep.
func SitemapURLs(ctx context.Context, seedURL string, opts *fetch.Options) ([]string, error) {
	sitemapURL, err := urlutil.Resolve(seedURL, sitemapPath)
	if err != nil {
		return nil, types.NewFetchError(types.FetchRequest, seedURL, "invalid seed URL", err)
	}

	root, err := fetchSitemap(ctx, sitemapURL, opts)
	if err != nil {
		return nil, err
	}
	if !root.IsIndex {
		return root.URLs, nil
	}

	seen := make(map[string]bool)
	urls := make([]string, 0)
	for i, child := range root.URLs {
		if i >= maxChildSitemaps {
			break
		}
		sitemap, err := fetchSitemap(ctx, child, opts)
		if err != nil || sitemap.IsIndex {
			continue
		}
		for _, u := range sitemap.URLs {
			if !seen[u] {
				seen[u] = true
				urls = append(urls, u)
			}
		}
	}
	return urls, nil
}

func fetchSitemap(ctx context.Context, sitemapURL string, opts *fetch.Options) (*Sitemap, error) {
	result, err := fetch.URL(ctx, sitemapURL, opts)
	if err != nil {
		return nil, err
	}
	return ParseSitemap(result.HTML)
}
