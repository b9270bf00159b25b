package crawling

import "github.com/jonathan/link-planner/internal/urlutil"

// frontier is the BFS queue plus the set of every URL ever enqueued.
// A URL is admitted at most once, so no page is fetched twice in a run.
type frontier struct {
	seed  string
	queue []string
	seen  map[string]bool
}

func newFrontier(seed string) *frontier {
	return &frontier{seed: seed, seen: make(map[string]bool)}
}

// push normalizes u and enqueues it when valid, same-site and unseen.
// Rejected URLs are dropped silently.
func (f *frontier) push(u string) bool {
	normalized, err := urlutil.Normalize(u)
	if err != nil || !urlutil.SameSite(normalized, f.seed) || f.seen[normalized] {
		return false
	}
	f.seen[normalized] = true
	f.queue = append(f.queue, normalized)
	return true
}

func (f *frontier) pop() string {
	u := f.queue[0]
	f.queue = f.queue[1:]
	return u
}

func (f *frontier) len() int {
	return len(f.queue)
}
