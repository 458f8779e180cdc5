package handler

import (
	"net/http"
	"strings"

	"github.com/mcoot/mindgym/internal/api/middleware"
	"github.com/mcoot/mindgym/internal/api/request"
	"github.com/mcoot/mindgym/internal/api/response"
	"github.com/mcoot/mindgym/internal/services/session"
)

// maxNameLength bounds display names
const maxNameLength = 64

// SessionHandler handles session endpoints
type SessionHandler struct {
	sessions *session.Manager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Manager) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
	}
}

// Login handles POST /api/v1/sessions
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}
	if len([]rune(name)) > maxNameLength {
		WriteError(w, NewInvalidRequestError("name is too long"))
		return
	}

	sess, err := h.sessions.Login(r.Context(), name)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SessionResponseFromSession(sess))
}

// Current handles GET /api/v1/sessions/current
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	sess := middleware.MustGetSession(r.Context())
	response.JSON(w, http.StatusOK, response.SessionResponseFromSession(sess))
}

// Logout handles DELETE /api/v1/sessions/current
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := middleware.MustGetSession(r.Context())

	if err := h.sessions.Logout(r.Context(), sess.Token); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
