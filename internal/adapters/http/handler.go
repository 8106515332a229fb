package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/PabloGalante/fable-engine/internal/app/story"
	"github.com/PabloGalante/fable-engine/internal/domain"
	"github.com/PabloGalante/fable-engine/internal/observability"
)

type Server struct {
	svc *story.Service
}

func NewServer(svc *story.Service) http.Handler {
	s := &Server{svc: svc}
	mux := http.NewServeMux()

	// /api/story/stream → run one turn, respond with SSE (POST)
	mux.HandleFunc("/api/story/stream", s.handleStoryStream)

	mux.HandleFunc("/healthz", s.handleHealth)

	return chainMiddlewares(mux, withLogging, withCORS, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type turnRequest struct {
	SessionID string            `json:"sessionId"`
	Character *domain.Character `json:"character"`
	Action    string            `json:"action"`
}

// ─────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────

func (s *Server) handleStoryStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	// Validation failures are plain 4xx responses; SSE never starts.
	if req.SessionID == "" || req.Character == nil || strings.TrimSpace(req.Action) == "" {
		badRequest(w, "sessionId, character and action are required")
		return
	}

	writer, err := newSSEFrameWriter(w, r)
	if err != nil {
		internalError(w, r, err)
		return
	}

	in := story.TurnInput{
		SessionID: domain.SessionID(req.SessionID),
		Character: *req.Character,
		Action:    req.Action,
	}

	if err := s.svc.Turn(r.Context(), in, writer); err != nil {
		log := observability.LoggerFromContext(r.Context())
		if errors.Is(err, story.ErrInvalidInput) {
			log.Warn("turn rejected", "error", err)
			return
		}
		log.Error("turn failed", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Error("internal error", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
