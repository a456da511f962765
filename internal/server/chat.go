package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/teemow/planner/internal/calendar"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/session"
)

const invalidTokenDetail = "Invalid or expired Google OAuth token."

// ChatMessage is one message of the conversation as the browser sends it.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Messages  []ChatMessage `json:"messages"`
	UserToken string        `json:"user_token"`
	Timezone  string        `json:"timezone"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
	RunID    string `json:"run_id,omitempty"`
	Status   string `json:"status,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With(slog.String("request_id", middleware.GetReqID(r.Context())))

	var req ChatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		logger.Info("malformed chat request", logging.Err(err))
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	history := toHistory(req.Messages)
	if len(history) == 0 {
		writeError(w, http.StatusBadRequest, "messages must include at least one user or assistant message")
		return
	}

	zone := req.Timezone
	if zone == "" {
		zone = s.cfg.DefaultTimezone
	}
	sc := session.New(req.UserToken, zone)

	res, err := s.cfg.Runner.Run(r.Context(), history, sc)
	if err != nil {
		var authErr *calendar.AuthError
		if errors.As(err, &authErr) {
			logger.Info("chat rejected credential",
				slog.String("credential", logging.SanitizeToken(req.UserToken)),
				logging.Err(err),
			)
			writeError(w, http.StatusUnauthorized, invalidTokenDetail)
			return
		}
		logger.Error("chat run failed", logging.Err(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response: res.Answer,
		RunID:    res.RunID,
		Status:   string(res.Status),
	})
}

// toHistory keeps user and assistant messages only. Tool results never
// round-trip through the browser.
func toHistory(messages []ChatMessage) []session.Message {
	out := make([]session.Message, 0, len(messages))
	for _, m := range messages {
		switch session.Role(m.Role) {
		case session.RoleUser:
			out = append(out, session.UserMessage(m.Content))
		case session.RoleAssistant:
			out = append(out, session.AssistantMessage(m.Content))
		}
	}
	return out
}
