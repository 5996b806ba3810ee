package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"feedcal/internal/agg"
	"feedcal/internal/config"
	appLog "feedcal/internal/log"
	"feedcal/internal/model"
)

// Server provides the HTTP API: occurrence queries plus pass-through CRUD of
// feed-source records.
type Server struct {
	cfg       *config.Config
	sources   *config.SourceStore
	collector *agg.Collector
	mux       *http.ServeMux

	// In-memory cache for default-window /api/events responses, to avoid
	// redundant fetch/parse/expand work on every request. Requests with
	// explicit bounds bypass it.
	eventsMu    sync.RWMutex
	eventsCache *eventsCache
}

// NewServer constructs a Server over the given stores and collector.
func NewServer(cfg *config.Config, sources *config.SourceStore, collector *agg.Collector) *Server {
	s := &Server{
		cfg:       cfg,
		sources:   sources,
		collector: collector,
		mux:       http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/cron-events", s.handleCronEvents)
	s.mux.HandleFunc("/api/sources", s.handleSources)
	s.mux.HandleFunc("/api/sources/", s.handleSourceByID)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// eventsResponse is the JSON response shape for occurrence queries.
type eventsResponse struct {
	Occurrences []model.Occurrence `json:"occurrences"`
	RangeStart  time.Time          `json:"range_start"`
	RangeEnd    time.Time          `json:"range_end"`
}

// eventsCache holds a cached default-window response and its timestamp.
type eventsCache struct {
	resp      eventsResponse
	updatedAt time.Time
}

const eventsCacheTTL = 30 * time.Second

// handleEvents returns all occurrences, feed and cron, in the requested
// window.
//
// GET /api/events?from=<RFC3339>&to=<RFC3339>
// Defaults: from = now, to = now + WindowDays.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	windowStart, windowEnd, explicit, err := s.queryWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !explicit {
		s.eventsMu.RLock()
		ec := s.eventsCache
		s.eventsMu.RUnlock()
		if ec != nil && time.Since(ec.updatedAt) < eventsCacheTTL {
			writeJSON(w, http.StatusOK, ec.resp)
			return
		}
	}

	resp := s.collect(r.Context(), windowStart, windowEnd)

	if !explicit {
		s.eventsMu.Lock()
		s.eventsCache = &eventsCache{resp: resp, updatedAt: time.Now()}
		s.eventsMu.Unlock()
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleCronEvents returns only cron-job occurrences in the requested
// window, same defaults as /api/events.
func (s *Server) handleCronEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	windowStart, windowEnd, _, err := s.queryWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobs := config.LoadJobs(s.cfg.JobsPath)
	occ := s.collector.CollectCron(windowStart, windowEnd, jobs)

	writeJSON(w, http.StatusOK, eventsResponse{
		Occurrences: occ,
		RangeStart:  windowStart,
		RangeEnd:    windowEnd,
	})
}

// Refresh recomputes the default-window aggregate and primes the response
// cache. The background refresh loop calls this on its schedule.
func (s *Server) Refresh(ctx context.Context) {
	now := time.Now()
	resp := s.collect(ctx, now, now.AddDate(0, 0, s.cfg.WindowDays))

	s.eventsMu.Lock()
	s.eventsCache = &eventsCache{resp: resp, updatedAt: time.Now()}
	s.eventsMu.Unlock()

	appLog.Info("refresh completed", "occurrences", len(resp.Occurrences))
}

func (s *Server) collect(ctx context.Context, windowStart, windowEnd time.Time) eventsResponse {
	sources := s.sources.List()
	jobs := config.LoadJobs(s.cfg.JobsPath)

	occ := s.collector.Collect(ctx, windowStart, windowEnd, sources, jobs)
	return eventsResponse{
		Occurrences: occ,
		RangeStart:  windowStart,
		RangeEnd:    windowEnd,
	}
}

// queryWindow resolves the from/to query parameters. explicit reports
// whether the caller supplied either bound.
func (s *Server) queryWindow(r *http.Request) (start, end time.Time, explicit bool, err error) {
	q := r.URL.Query()
	now := time.Now()

	start = now
	end = now.AddDate(0, 0, s.cfg.WindowDays)

	if v := q.Get("from"); v != "" {
		explicit = true
		start, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return start, end, explicit, errors.New("bad 'from' timestamp, want RFC3339")
		}
	}
	if v := q.Get("to"); v != "" {
		explicit = true
		end, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return start, end, explicit, errors.New("bad 'to' timestamp, want RFC3339")
		}
	}
	if end.Before(start) {
		return start, end, explicit, errors.New("'to' is before 'from'")
	}
	return start, end, explicit, nil
}

// handleSources serves GET (list) and POST (create) on /api/sources.
func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"sources": s.sources.List()})

	case http.MethodPost:
		var src model.FeedSource
		if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
			writeError(w, http.StatusBadRequest, "bad source record")
			return
		}
		created, err := s.sources.Create(src)
		if err != nil {
			appLog.Error("source create failed", err)
			writeError(w, http.StatusInternalServerError, "failed to store source")
			return
		}
		writeJSON(w, http.StatusCreated, created)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleSourceByID serves PUT (update) and DELETE on /api/sources/{id}.
func (s *Server) handleSourceByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/sources/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "unknown source")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var src model.FeedSource
		if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
			writeError(w, http.StatusBadRequest, "bad source record")
			return
		}
		updated, err := s.sources.Update(id, src)
		if errors.Is(err, config.ErrSourceNotFound) {
			writeError(w, http.StatusNotFound, "unknown source")
			return
		}
		if err != nil {
			appLog.Error("source update failed", err, "source_id", id)
			writeError(w, http.StatusInternalServerError, "failed to store source")
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		err := s.sources.Delete(id)
		if errors.Is(err, config.ErrSourceNotFound) {
			writeError(w, http.StatusNotFound, "unknown source")
			return
		}
		if err != nil {
			appLog.Error("source delete failed", err, "source_id", id)
			writeError(w, http.StatusInternalServerError, "failed to delete source")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
