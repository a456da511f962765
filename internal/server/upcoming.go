package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/teemow/planner/internal/agenda"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/timestamp"
)

// UpcomingResponse is the body of GET /events/upcoming.
type UpcomingResponse struct {
	Upcoming []agenda.Item `json:"upcoming"`
}

// handleUpcoming never fails the request: provider and credential problems
// are logged and yield an empty list so the sidebar keeps rendering.
func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With(slog.String("request_id", middleware.GetReqID(r.Context())))
	empty := UpcomingResponse{Upcoming: []agenda.Item{}}

	credential := r.URL.Query().Get("user_token")
	if credential == "" {
		credential = bearerToken(r)
	}
	if credential == "" {
		writeError(w, http.StatusBadRequest, "user_token is required")
		return
	}

	loc := timestamp.LoadLocation(r.URL.Query().Get("timezone"), s.cfg.DisplayLocation)

	lister, err := s.cfg.Listers(r.Context(), credential)
	if err != nil {
		logger.Warn("failed to create calendar client for upcoming events", logging.Err(err))
		writeJSON(w, http.StatusOK, empty)
		return
	}

	items, err := agenda.Fetch(r.Context(), lister, s.cfg.Clock(), loc, s.cfg.UpcomingDays)
	if err != nil {
		logger.Warn("failed to list upcoming events", logging.Err(err))
		writeJSON(w, http.StatusOK, empty)
		return
	}
	writeJSON(w, http.StatusOK, UpcomingResponse{Upcoming: items})
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
