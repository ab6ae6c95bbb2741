// Package server exposes the published snapshot over HTTP: JSON reads,
// a Server-Sent-Events push stream, and Prometheus metrics.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"drive-telemetry/internal/config"
	"drive-telemetry/pkg/types"
)

// SnapshotSource is what the handlers need from the poller: the
// current snapshot, non-blocking, plus a way to schedule a refresh.
type SnapshotSource interface {
	Snapshot() *types.Snapshot
	Refresh()
}

// Server holds the HTTP surface of the service.
type Server struct {
	cfg    *config.Settings
	source SnapshotSource
}

// New creates a Server around the given snapshot source.
func New(cfg *config.Settings, source SnapshotSource) *Server {
	return &Server{cfg: cfg, source: source}
}

// Routes builds the router. The SSE stream lives outside any timeout
// middleware so subscriptions can outlive ordinary requests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/storage", s.handleStorage)
		r.Get("/drives", s.handleDrives)
		r.Get("/volumes", s.handleVolumes)
		r.Get("/drives/stream", s.handleDriveStream)
		r.Post("/refresh", s.handleRefresh)
	})

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<html>
<head><title>Drive Telemetry</title></head>
<body>
<h1>Drive Telemetry</h1>
<p><a href="/api/v1/storage">Storage Snapshot</a></p>
<p><a href="/api/v1/drives">Drives</a></p>
<p><a href="/api/v1/volumes">Volumes</a></p>
<p><a href="/metrics">Metrics</a></p>
<p><a href="/health">Health Check</a></p>
</body>
</html>
`)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	writeJSON(w, map[string]interface{}{
		"status":       "ok",
		"service":      "drive-telemetry",
		"drives":       len(snap.Drives),
		"generated_at": snap.GeneratedAt,
	})
}

// handleStorage returns the full snapshot envelope: drives plus the
// unrelated volumes list.
func (s *Server) handleStorage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.source.Snapshot())
}

func (s *Server) handleDrives(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.source.Snapshot().Drives)
}

func (s *Server) handleVolumes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.source.Snapshot().Volumes)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.source.Refresh()
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "refresh scheduled"})
}

// handleDriveStream pushes the drive list at the requested cadence for
// the life of the connection. Each subscriber owns its ticker; a
// disconnect stops that ticker without touching the poll loop or other
// subscribers.
func (s *Server) handleDriveStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	interval := s.streamInterval(r.URL.Query().Get("interval"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func() bool {
		data, err := json.Marshal(s.source.Snapshot().Drives)
		if err != nil {
			log.Error().Err(err).Msg("Failed to encode drive list for stream")
			return false
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send() {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}

// streamInterval parses the interval query parameter in seconds,
// falling back to the configured default when absent, unparseable, or
// out of range.
func (s *Server) streamInterval(raw string) time.Duration {
	if raw == "" {
		return s.cfg.StreamInterval
	}
	sec, err := strconv.Atoi(raw)
	if err != nil || sec < 1 || sec > 3600 {
		return s.cfg.StreamInterval
	}
	return time.Duration(sec) * time.Second
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
