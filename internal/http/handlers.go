package http

import (
	"errors"
	"net/http"
	"time"

	"gofinances/internal/core"
	"gofinances/internal/log"
)

// handleHealth performs a basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).String(),
	})
}

type feedResponse struct {
	Loaded bool          `json:"loaded"`
	Feed   core.Snapshot `json:"feed"`
}

// handleFeed returns the current snapshot. Before the first successful
// load (or restore) the response carries loaded=false and an empty feed.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.loader.Current()
	writeJSON(w, http.StatusOK, feedResponse{Loaded: ok, Feed: snap})
}

// handleFeedReload runs one load round-trip. On failure the previously
// loaded snapshot is untouched and still served by GET /api/feed.
func (s *Server) handleFeedReload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loader.Load(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrFeedUnavailable) {
			status = http.StatusBadGateway
		}
		s.logger.ErrorContext(r.Context(), "Feed reload failed",
			log.FieldError, err, log.FieldOperation, "reload")
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, feedResponse{Loaded: true, Feed: snap})
}
