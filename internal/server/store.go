package server

import (
	"sync"

	"github.com/jonathan/link-planner/internal/types"
)

// RunSummary is the list view of a stored report.
type RunSummary struct {
	RunID               string `json:"run_id"`
	Site                string `json:"site"`
	Timestamp           string `json:"timestamp"`
	Success             bool   `json:"success"`
	NumLinksRecommended int    `json:"num_links_recommended"`
}

// runStore keeps the most recent reports in memory, evicting the oldest beyond max.
type runStore struct {
	mu      sync.RWMutex
	max     int
	order   []string
	reports map[string]*types.LinkReport
}

func newRunStore(max int) *runStore {
	return &runStore{max: max, reports: make(map[string]*types.LinkReport)}
}

func (s *runStore) put(r *types.LinkReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[r.RunID]; !ok {
		s.order = append(s.order, r.RunID)
	}
	s.reports[r.RunID] = r
	for len(s.order) > s.max {
		delete(s.reports, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *runStore) get(id string) (*types.LinkReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	return r, ok
}

// list returns summaries newest first.
func (s *runStore) list() []RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RunSummary, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		r := s.reports[s.order[i]]
		out = append(out, RunSummary{
			RunID:               r.RunID,
			Site:                r.Site,
			Timestamp:           r.Timestamp,
			Success:             r.Success,
			NumLinksRecommended: r.NumLinksRecommended,
		})
	}
	return out
}
