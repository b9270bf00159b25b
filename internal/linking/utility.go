// Package linking turns clustered pages into internal link recommendations: it picks
// each cluster's pillar page, extracts anchor candidates from the other members and
// keeps the anchors that are topically relevant to the pillar.
package linking

import (
	"strings"

	"github.com/jonathan/link-planner/internal/types"
	"github.com/jonathan/link-planner/internal/urlutil"
)

// IsUtilityPage reports whether the URL path or the title contains any utility keyword.
// The host is ignored so a keyword in the domain name does not flag the whole site.
func IsUtilityPage(pageURL, title string, keywords []string) bool {
	haystack := urlutil.Path(pageURL) + " " + strings.ToLower(title)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// SelectPillar returns the index of the non-utility member with the greatest word count.
// Ties go to the earliest-crawled page. ok is false when every member is a utility page.
func SelectPillar(pages []types.Page, members []int, keywords []string) (idx int, ok bool) {
	idx = -1
	for _, m := range members {
		p := pages[m]
		if IsUtilityPage(p.URL, p.Title, keywords) {
			continue
		}
		if idx < 0 || p.WordCount > pages[idx].WordCount || (p.WordCount == pages[idx].WordCount && m < idx) {
			idx = m
		}
	}
	return idx, idx >= 0
}

// ClusterLabel names a cluster after its longest member title, falling back to "Cluster N".
func ClusterLabel(pages []types.Page, members []int, id int) string {
	label := ""
	for _, m := range members {
		if t := strings.TrimSpace(pages[m].Title); len([]rune(t)) > len([]rune(label)) {
			label = t
		}
	}
	if label == "" {
		return types.DefaultClusterLabel(id)
	}
	return label
}
