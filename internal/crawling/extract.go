package crawling

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/link-planner/internal/types"
	"github.com/jonathan/link-planner/internal/urlutil"
)

// skippedExtensions are link targets that never return HTML worth crawling.
var skippedExtensions = map[string]bool{
	".pdf": true, ".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".svg": true,
	".webp": true, ".ico": true, ".css": true, ".js": true, ".json": true, ".xml": true,
	".zip": true, ".gz": true, ".mp3": true, ".mp4": true, ".avi": true, ".mov": true,
	".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
}

// ExtractLinks extracts all same-site links from HTML content.
// Links are resolved against baseURL, normalized and returned once each in document order.
func ExtractLinks(htmlContent string, baseURL string) ([]string, error) {
	if !urlutil.IsValid(baseURL) {
		return nil, types.NewError(types.KindExtraction, "invalid base URL "+baseURL+" (must have scheme and host)", nil)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, types.NewError(types.KindExtraction, "failed to parse HTML", err)
	}

	return linksFromDocument(doc, baseURL), nil
}

func linksFromDocument(doc *goquery.Document, baseURL string) []string {
	// <base href> overrides the document URL for relative links.
	// It is resolved without normalization so a trailing slash keeps its directory meaning.
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if base, err := url.Parse(baseURL); err == nil {
			if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
				baseURL = base.ResolveReference(ref).String()
			}
		}
	}

	linkSet := make(map[string]bool)
	links := make([]string, 0)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		if rel := strings.ToLower(s.AttrOr("rel", "")); strings.Contains(rel, "nofollow") {
			return
		}

		// Resolve rejects mailto:, javascript: and other non-http schemes.
		absoluteURL, err := urlutil.Resolve(baseURL, href)
		if err != nil {
			return
		}
		if !urlutil.SameSite(absoluteURL, baseURL) || hasSkippedExtension(absoluteURL) {
			return
		}

		if !linkSet[absoluteURL] {
			linkSet[absoluteURL] = true
			links = append(links, absoluteURL)
		}
	})

	return links
}

func hasSkippedExtension(rawURL string) bool {
	return skippedExtensions[strings.ToLower(path.Ext(urlutil.Path(rawURL)))]
}
