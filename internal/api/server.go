// Package api exposes the record store over HTTP for dashboards and
// ad-hoc queries. The API is read-only; writes happen only through the
// pipeline.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/lanternhealth/enforcement-cli/internal/store"
)

// defaultSinceDays bounds the unfiltered records listing.
const defaultSinceDays = 30

// defaultMinScore is the high-priority cutoff when none is given.
const defaultMinScore = 70

// Server serves the records API.
type Server struct {
	store store.Store
}

// NewServer creates a Server over the given store.
func NewServer(st store.Store) *Server {
	return &Server{store: st}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/records", s.handleRecords)
		r.Get("/records/high-priority", s.handleHighPriority)
		r.Get("/records/{id}", s.handleRecord)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRecords lists recent records. The since parameter accepts RFC 3339
// or plain dates; absent, the window is the last 30 days.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	since := time.Now().UTC().AddDate(0, 0, -defaultSinceDays)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := parseSince(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unparseable since parameter")
			return
		}
		since = parsed
	}

	recs, err := s.store.ListRecent(r.Context(), since)
	if err != nil {
		zap.L().Error("api: list records", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "store query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(recs), "records": recs})
}

// handleHighPriority lists records at or above a minimum priority score.
func (s *Server) handleHighPriority(w http.ResponseWriter, r *http.Request) {
	min := defaultMinScore
	if raw := r.URL.Query().Get("min"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 || parsed > 100 {
			writeError(w, http.StatusBadRequest, "min must be an integer in [0,100]")
			return
		}
		min = parsed
	}

	recs, err := s.store.ListHighPriority(r.Context(), min)
	if err != nil {
		zap.L().Error("api: list high priority", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "store query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(recs), "records": recs})
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		zap.L().Error("api: get record", zap.String("doc_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "store query failed")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no such record")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func parseSince(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
