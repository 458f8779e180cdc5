package sse

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/mindgym/internal/model"
)

// Publisher forwards session store events to the session's hub
type Publisher struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// NewPublisher creates a new Publisher
func NewPublisher(hubManager *HubManager, logger *slog.Logger) *Publisher {
	return &Publisher{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "sse-publisher")),
	}
}

// Publish sends event to every client of its session. A logged_out event is
// delivered and then the session's hub is closed.
func (p *Publisher) Publish(event model.Event) {
	hub := p.hubManager.GetHub(event.SessionToken)
	if hub == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("sse failed to encode event",
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()))
		return
	}
	hub.BroadcastEvent(string(event.Type), string(data))

	if event.Type == model.EventLoggedOut {
		p.hubManager.RemoveHub(event.SessionToken)
	}
}
