package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/mindgym/internal/api/handler"
	"github.com/mcoot/mindgym/internal/api/middleware"
	"github.com/mcoot/mindgym/internal/api/response"
	"github.com/mcoot/mindgym/internal/services/progression"
	"github.com/mcoot/mindgym/internal/services/session"
	"github.com/mcoot/mindgym/internal/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	SessionManager     *session.Manager
	ProgressionService *progression.Service
	HubManager         *sse.HubManager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	sessionHandler := handler.NewSessionHandler(cfg.SessionManager)
	progressionHandler := handler.NewProgressionHandler(cfg.ProgressionService)
	eventsHandler := handler.NewEventsHandler(cfg.HubManager)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.SessionManager)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health check and login (no auth)
	api.HandleFunc("/health", healthHandler(cfg.SessionManager)).Methods(http.MethodGet)
	api.HandleFunc("/sessions", sessionHandler.Login).Methods(http.MethodPost)

	// Everything else requires a session
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)

	protected.HandleFunc("/sessions/current", sessionHandler.Current).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/current", sessionHandler.Logout).Methods(http.MethodDelete)

	protected.HandleFunc("/profile", progressionHandler.Profile).Methods(http.MethodGet)
	protected.HandleFunc("/results", progressionHandler.SubmitResult).Methods(http.MethodPost)
	protected.HandleFunc("/leaderboard", progressionHandler.Leaderboard).Methods(http.MethodGet)
	protected.HandleFunc("/leaderboard/rank", progressionHandler.Rank).Methods(http.MethodGet)
	protected.HandleFunc("/badges", progressionHandler.Badges).Methods(http.MethodGet)
	protected.HandleFunc("/stats", progressionHandler.Stats).Methods(http.MethodGet)
	protected.HandleFunc("/notifications/drain", progressionHandler.DrainNotifications).Methods(http.MethodPost)

	protected.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)

	return r
}

func healthHandler(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{
			Status:         "ok",
			ActiveSessions: sessions.ActiveSessions(),
		})
	}
}
