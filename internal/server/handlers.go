package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/jonathan/link-planner/internal/config"
	"github.com/jonathan/link-planner/internal/logging"
	"github.com/jonathan/link-planner/internal/pipeline"
	"github.com/jonathan/link-planner/internal/report"
	"github.com/jonathan/link-planner/internal/types"
)

// RunRequest is the body of POST /run and POST /run/stream.
// Zero or absent fields keep the server's base configuration.
type RunRequest struct {
	Site          string   `json:"site"`
	MaxPages      int      `json:"max_pages,omitempty"`
	MinDelay      *float64 `json:"min_delay,omitempty"`
	MaxDelay      *float64 `json:"max_delay,omitempty"`
	MinWords      int      `json:"min_content_words,omitempty"`
	MinClusters   int      `json:"min_clusters,omitempty"`
	MaxClusters   int      `json:"max_clusters,omitempty"`
	MinSilhouette *float64 `json:"min_silhouette,omitempty"`
	Embedder      string   `json:"embedder,omitempty"`
	Extractor     string   `json:"phrase_extractor,omitempty"`
}

// config applies the request onto the base configuration and validates the result.
// Explicit zeros in the request are kept.
func (req *RunRequest) config(base config.Config) (config.Config, error) {
	if req.Site == "" {
		return config.Config{}, &ErrValidation{Field: "site", Message: "is required"}
	}

	cfg := base
	cfg.Site = req.Site
	if req.MaxPages > 0 {
		cfg.Crawler.MaxPages = req.MaxPages
	}
	if req.MinDelay != nil {
		cfg.Crawler.MinDelay = *req.MinDelay
	}
	if req.MaxDelay != nil {
		cfg.Crawler.MaxDelay = *req.MaxDelay
	}
	if req.MinWords > 0 {
		cfg.Content.MinContentWords = req.MinWords
	}
	if req.MinClusters > 0 {
		cfg.Clustering.MinClusters = req.MinClusters
	}
	if req.MaxClusters > 0 {
		cfg.Clustering.MaxClusters = req.MaxClusters
	}
	if req.MinSilhouette != nil {
		cfg.Clustering.MinSilhouette = *req.MinSilhouette
	}
	if req.Embedder != "" {
		cfg.Clustering.Embedder = req.Embedder
	}
	if req.Extractor != "" {
		cfg.Linking.PhraseExtractor = req.Extractor
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (s *Server) decodeRun(w http.ResponseWriter, r *http.Request) (config.Config, bool) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return config.Config{}, false
	}
	cfg, err := req.config(s.base)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return config.Config{}, false
	}
	return cfg, true
}

// acquire claims the single run slot without waiting.
func (s *Server) acquire() bool {
	select {
	case s.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Server) release() {
	<-s.slot
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRun runs the pipeline to completion and returns its report.
// A failed run answers 422 with the report, so errors and warnings are still visible.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.decodeRun(w, r)
	if !ok {
		return
	}
	if !s.acquire() {
		busy := &ErrBusy{}
		s.errorResponse(w, HTTPStatus(busy), busy.Error())
		return
	}
	defer s.release()

	s.logger.Info("Starting run", logging.String("site", cfg.Site))
	result := s.run(r.Context(), pipeline.RunOptions{Config: cfg, Logger: s.logger, Out: io.Discard})
	s.runs.put(result)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	s.jsonResponse(w, status, result)
}

// handleRunStream runs the pipeline and streams progress as "step" events,
// finishing with a "complete" event that carries the report.
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.decodeRun(w, r)
	if !ok {
		return
	}
	if !s.acquire() {
		busy := &ErrBusy{}
		s.errorResponse(w, HTTPStatus(busy), busy.Error())
		return
	}
	defer s.release()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("Starting streaming run", logging.String("site", cfg.Site))
	result := s.run(r.Context(), pipeline.RunOptions{
		Config: cfg,
		Logger: s.logger,
		Out:    io.Discard,
		OnProgress: func(event pipeline.ProgressEvent) {
			if err := sse.WriteEvent("step", event); err != nil {
				s.logger.Warn("Error writing SSE event", logging.Err(err))
			}
		},
	})
	s.runs.put(result)

	if !result.Success && len(result.Errors) > 0 {
		_ = sse.WriteError(result.Errors[len(result.Errors)-1])
	}
	if err := sse.WriteEvent("complete", result); err != nil {
		s.logger.Warn("Error writing SSE event", logging.Err(err))
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.runs.list())
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*types.LinkReport, bool) {
	id := r.PathValue("id")
	result, ok := s.runs.get(id)
	if !ok {
		err := &ErrRunNotFound{RunID: id}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return nil, false
	}
	return result, true
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if result, ok := s.lookup(w, r); ok {
		s.jsonResponse(w, http.StatusOK, result)
	}
}

// handleRunCSV returns a stored run's recommendations in the CSV file layout.
func (s *Server) handleRunCSV(w http.ResponseWriter, r *http.Request) {
	result, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+
		report.Filename(result.Site, timestampOf(result), "links.csv")+`"`)
	if err := report.EncodeCSV(w, result.Recommendations); err != nil {
		s.logger.Error("Error writing CSV response", logging.Err(err))
	}
}

func timestampOf(r *types.LinkReport) time.Time {
	at, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		return time.Now().UTC()
	}
	return at
}
