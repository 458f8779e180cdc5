package handler

import (
	"net/http"

	"github.com/mcoot/mindgym/internal/api/middleware"
	"github.com/mcoot/mindgym/internal/api/request"
	"github.com/mcoot/mindgym/internal/api/response"
	"github.com/mcoot/mindgym/internal/services/progression"
)

// ProgressionHandler handles profile, result and leaderboard endpoints
type ProgressionHandler struct {
	progression *progression.Service
}

// NewProgressionHandler creates a new progression handler
func NewProgressionHandler(progression *progression.Service) *ProgressionHandler {
	return &ProgressionHandler{
		progression: progression,
	}
}

// Profile handles GET /api/v1/profile
func (h *ProgressionHandler) Profile(w http.ResponseWriter, r *http.Request) {
	sess := middleware.MustGetSession(r.Context())
	response.JSON(w, http.StatusOK, response.ProfileFromModel(sess.Store.Profile()))
}

// SubmitResult handles POST /api/v1/results
func (h *ProgressionHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	sess := middleware.MustGetSession(r.Context())

	var req request.SubmitResultRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, err)
		return
	}

	outcome, err := h.progression.SubmitResult(r.Context(), sess.Token, req.ToModel())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.OutcomeFromModel(outcome))
}

// Leaderboard handles GET /api/v1/leaderboard
func (h *ProgressionHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	sess := middleware.MustGetSession(r.Context())
	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(sess.Store.Leaderboard(), sess.UserID))
}

// Rank handles GET /api/v1/leaderboard/rank?name=
// Without a name the session's own rank is returned.
func (h *ProgressionHandler) Rank(w http.ResponseWriter, r *http.Request) {
	sess := middleware.MustGetSession(r.Context())
	lb := sess.Store.Leaderboard()

	name := r.URL.Query().Get("name")
	if name == "" {
		response.JSON(w, http.StatusOK, response.Rank{
			Name: sess.Store.Profile().Name,
			Rank: lb.RankOfID(string(sess.UserID)),
			Of:   lb.Len(),
		})
		return
	}

	response.JSON(w, http.StatusOK, response.Rank{
		Name: name,
		Rank: lb.RankOf(name),
		Of:   lb.Len(),
	})
}

// Badges handles GET /api/v1/badges
func (h *ProgressionHandler) Badges(w http.ResponseWriter, r *http.Request) {
	sess := middleware.MustGetSession(r.Context())
	response.JSON(w, http.StatusOK, response.BadgesResponseFromProfile(sess.Store.Profile()))
}

// Stats handles GET /api/v1/stats
func (h *ProgressionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	sess := middleware.MustGetSession(r.Context())

	stats, err := h.progression.Stats(r.Context(), sess.Token)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StatsFromModel(stats))
}

// DrainNotifications handles POST /api/v1/notifications/drain
func (h *ProgressionHandler) DrainNotifications(w http.ResponseWriter, r *http.Request) {
	sess := middleware.MustGetSession(r.Context())
	response.JSON(w, http.StatusOK, response.NotificationsFromModel(sess.Store.DrainNotifications()))
}
