package handler

import (
	"net/http"

	"github.com/mcoot/mindgym/internal/api/middleware"
	"github.com/mcoot/mindgym/internal/sse"
)

// EventsHandler streams session store events over SSE
type EventsHandler struct {
	hubs *sse.HubManager
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hubs *sse.HubManager) *EventsHandler {
	return &EventsHandler{
		hubs: hubs,
	}
}

// Stream handles GET /api/v1/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sess := middleware.MustGetSession(r.Context())
	sse.ServeSSE(w, r, h.hubs, sess.Token)
}
