package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/mindgym/internal/api"
	"github.com/mcoot/mindgym/internal/api/apierr"
	"github.com/mcoot/mindgym/internal/api/response"
	"github.com/mcoot/mindgym/internal/factory"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// API tests are integration tests - use production factory with real random/clock
	app, err := factory.New(factory.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		SessionManager:     app.SessionManager,
		ProgressionService: app.ProgressionService,
		HubManager:         app.HubManager,
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp response.Health
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.ActiveSessions)

	login(t, ts, "Alice")

	rr = ts.request(http.MethodGet, "/api/v1/health", nil, "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.ActiveSessions)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{"name": "  Ada Lovelace "}, "")
	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp response.SessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.True(t, strings.HasPrefix(resp.SessionToken, "sess_"))
	assert.Equal(t, "Ada Lovelace", resp.Profile.Name)
	assert.Equal(t, "AL", resp.Profile.Avatar)
	assert.Equal(t, 1, resp.Profile.Level)
	assert.Equal(t, 0, resp.Profile.XP)
	assert.Len(t, resp.Profile.Badges, 10)
	assert.True(t, resp.ExpiresAt.After(time.Now()))
}

func TestLoginValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"empty name", map[string]string{"name": ""}},
		{"blank name", map[string]string{"name": "   "}},
		{"too long", map[string]string{"name": strings.Repeat("x", 65)}},
		{"wrong type", map[string]int{"name": 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/sessions", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assertErrorCode(t, rr, apierr.CodeInvalidRequest)
		})
	}
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/sessions/current"},
		{http.MethodDelete, "/api/v1/sessions/current"},
		{http.MethodGet, "/api/v1/profile"},
		{http.MethodPost, "/api/v1/results"},
		{http.MethodGet, "/api/v1/leaderboard"},
		{http.MethodGet, "/api/v1/leaderboard/rank"},
		{http.MethodGet, "/api/v1/badges"},
		{http.MethodGet, "/api/v1/stats"},
		{http.MethodPost, "/api/v1/notifications/drain"},
		{http.MethodGet, "/api/v1/events"},
	}

	for _, p := range paths {
		rr := ts.request(p.method, p.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", p.method, p.path)
	}
}

func TestUnknownToken(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/profile", nil, "sess_doesnotexist")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assertErrorCode(t, rr, apierr.CodeSessionNotFound)
}

func TestSessionCookie(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "Alice")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCurrentSession(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "Alice")

	rr := ts.request(http.MethodGet, "/api/v1/sessions/current", nil, token)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp response.SessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, token, resp.SessionToken)
	assert.Equal(t, "Alice", resp.Profile.Name)
}

func TestSubmitResult(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "Alice")

	body := map[string]any{"game": "Reaction Rush", "score": 100, "accuracy": 100, "speed": 5}
	rr := ts.request(http.MethodPost, "/api/v1/results", body, token)
	assert.Equal(t, http.StatusOK, rr.Code)

	var outcome response.Outcome
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &outcome))
	assert.Equal(t, 225, outcome.XPAwarded)
	assert.False(t, outcome.LevelUp)
	assert.Equal(t, 1, outcome.NewLevel)

	ids := make([]string, 0, len(outcome.NewBadges))
	for _, b := range outcome.NewBadges {
		ids = append(ids, b.ID)
		assert.True(t, b.Unlocked)
		assert.NotNil(t, b.UnlockedAt)
	}
	assert.Equal(t, []string{"first-game", "accuracy-90", "perfect", "speed-demon"}, ids)

	// Profile reflects the round
	rr = ts.request(http.MethodGet, "/api/v1/profile", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var profile response.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	assert.Equal(t, 225, profile.XP)
	assert.Equal(t, 1, profile.GamesPlayed)
	assert.Equal(t, 1, profile.Streak)
	assert.Equal(t, 113, profile.RewardPoints)
	assert.InDelta(t, 100.0, profile.TotalAccuracy, 0.001)
	assert.InDelta(t, 5.0, profile.TotalSpeed, 0.001)
	require.Len(t, profile.Scores, 1)
	assert.Equal(t, "Reaction Rush", profile.Scores[0].Game)
	assert.False(t, profile.Scores[0].Date.IsZero())
	assert.NotEmpty(t, profile.LastPlayedDate)
}

func TestSubmitResultLevelUp(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "Alice")

	body := map[string]any{"game": "Logic Loop", "score": 250, "accuracy": 100, "speed": 30}
	rr := ts.request(http.MethodPost, "/api/v1/results", body, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var outcome response.Outcome
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &outcome))
	assert.Equal(t, 525, outcome.XPAwarded)
	assert.True(t, outcome.LevelUp)
	assert.Equal(t, 2, outcome.NewLevel)
}

func TestSubmitResultValidation(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "Alice")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing game", map[string]any{"score": 10, "accuracy": 50, "speed": 5}},
		{"negative score", map[string]any{"game": "Focus Flow", "score": -1, "accuracy": 50, "speed": 5}},
		{"oversized score", map[string]any{"game": "Focus Flow", "score": int64(9e18), "accuracy": 100, "speed": 5}},
		{"accuracy over 100", map[string]any{"game": "Focus Flow", "score": 10, "accuracy": 101, "speed": 5}},
		{"negative accuracy", map[string]any{"game": "Focus Flow", "score": 10, "accuracy": -5, "speed": 5}},
		{"negative speed", map[string]any{"game": "Focus Flow", "score": 10, "accuracy": 50, "speed": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/results", tt.body, token)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assertErrorCode(t, rr, apierr.CodeInvalidResult)
		})
	}

	// Nothing was applied
	rr := ts.request(http.MethodGet, "/api/v1/profile", nil, token)
	var profile response.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	assert.Equal(t, 0, profile.GamesPlayed)
	assert.Equal(t, 0, profile.XP)
}

func TestSubmitResultMalformedBody(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "Alice")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/results", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assertErrorCode(t, rr, apierr.CodeInvalidRequest)
}

func TestLeaderboard(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "Alice")

	// Fresh player is not on the board yet
	lb := getLeaderboard(t, ts, token)
	assert.Len(t, lb.Entries, 10)
	assert.Equal(t, 11, lb.UserRank)
	assert.Equal(t, "NeuralNinja", lb.Entries[0].Name)

	// 3000 * 1.0 * 2 + 25 = 6025 XP puts Alice between SynapStar and LogicLion
	body := map[string]any{"game": "Memory Matrix", "score": 3000, "accuracy": 100, "speed": 60}
	rr := ts.request(http.MethodPost, "/api/v1/results", body, token)
	require.Equal(t, http.StatusOK, rr.Code)

	lb = getLeaderboard(t, ts, token)
	require.Len(t, lb.Entries, 11)
	assert.Equal(t, 7, lb.UserRank)

	you := lb.Entries[6]
	assert.Equal(t, "Alice", you.Name)
	assert.True(t, you.IsYou)
	assert.Equal(t, 6025, you.XP)
	assert.Equal(t, 13, you.Level)
	assert.Equal(t, 7, you.Rank)
	for i, e := range lb.Entries {
		assert.Equal(t, i+1, e.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, lb.Entries[i-1].XP, e.XP)
		}
	}
}

func TestRank(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "Alice")

	rr := ts.request(http.MethodGet, "/api/v1/leaderboard/rank?name=BrainWave", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var rank response.Rank
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rank))
	assert.Equal(t, response.Rank{Name: "BrainWave", Rank: 2, Of: 10}, rank)

	rr = ts.request(http.MethodGet, "/api/v1/leaderboard/rank?name=Nobody", nil, token)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rank))
	assert.Equal(t, 11, rank.Rank)

	rr = ts.request(http.MethodGet, "/api/v1/leaderboard/rank", nil, token)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rank))
	assert.Equal(t, response.Rank{Name: "Alice", Rank: 11, Of: 10}, rank)
}

func TestBadges(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "Alice")

	body := map[string]any{"game": "Focus Flow", "score": 50, "accuracy": 95, "speed": 20}
	rr := ts.request(http.MethodPost, "/api/v1/results", body, token)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/badges", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var badges response.Badges
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &badges))
	assert.Equal(t, 2, badges.Unlocked)
	assert.Equal(t, 10, badges.Total)
	require.Len(t, badges.Badges, 10)
	assert.Equal(t, "first-game", badges.Badges[0].ID)
	assert.True(t, badges.Badges[0].Unlocked)
	assert.False(t, badges.Badges[1].Unlocked)
}

func TestStats(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "Alice")

	for _, body := range []map[string]any{
		{"game": "Tap Frenzy", "score": 80, "accuracy": 80, "speed": 12},
		{"game": "Tap Frenzy", "score": 60, "accuracy": 60, "speed": 8},
	} {
		rr := ts.request(http.MethodPost, "/api/v1/results", body, token)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := ts.request(http.MethodGet, "/api/v1/stats", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var stats response.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, "Alice", stats.Name)
	assert.Equal(t, 2, stats.GamesPlayed)
	assert.InDelta(t, 70.0, stats.Accuracy, 0.001)
	assert.InDelta(t, 10.0, stats.Speed, 0.001)
	assert.Len(t, stats.RecentScores, 2)
	assert.Equal(t, 10, stats.BadgesTotal)

	var tap *response.GameAverage
	for i := range stats.Games {
		if stats.Games[i].Game == "Tap Frenzy" {
			tap = &stats.Games[i]
		}
	}
	require.NotNil(t, tap)
	assert.Equal(t, 2, tap.Plays)
	assert.InDelta(t, 70.0, tap.Score, 0.001)
}

func TestDrainNotifications(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "Alice")

	body := map[string]any{"game": "Logic Loop", "score": 250, "accuracy": 100, "speed": 30}
	rr := ts.request(http.MethodPost, "/api/v1/results", body, token)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/notifications/drain", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.Notifications
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Notifications)
	assert.Equal(t, "level_up", resp.Notifications[0].Kind)
	assert.Equal(t, 1, resp.Notifications[0].PreviousLevel)
	assert.Equal(t, 2, resp.Notifications[0].Level)

	// Queue is empty afterwards
	rr = ts.request(http.MethodPost, "/api/v1/notifications/drain", nil, token)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Empty(t, resp.Notifications)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "Alice")

	rr := ts.request(http.MethodDelete, "/api/v1/sessions/current", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/profile", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/health", nil, "")
	var health response.Health
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.Equal(t, 0, health.ActiveSessions)
}

func TestSessionsAreIsolated(t *testing.T) {
	ts := newTestServer(t)
	alice := login(t, ts, "Alice")
	bob := login(t, ts, "Bob")

	body := map[string]any{"game": "Focus Flow", "score": 100, "accuracy": 50, "speed": 20}
	rr := ts.request(http.MethodPost, "/api/v1/results", body, alice)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/profile", nil, bob)
	var profile response.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	assert.Equal(t, 0, profile.XP)

	// Each session has its own leaderboard
	lb := getLeaderboard(t, ts, bob)
	assert.Len(t, lb.Entries, 10)
}

func TestEventStream(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "Alice")

	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	assert.Equal(t, "connected", nextEvent(t, reader))

	body := map[string]any{"game": "Reaction Rush", "score": 10, "accuracy": 50, "speed": 20}
	rr := ts.request(http.MethodPost, "/api/v1/results", body, token)
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, "profile_updated", nextEvent(t, reader))
	assert.Equal(t, "leaderboard_updated", nextEvent(t, reader))
	assert.Equal(t, "badge_unlocked", nextEvent(t, reader))

	// Logging out ends the stream
	rr = ts.request(http.MethodDelete, "/api/v1/sessions/current", nil, token)
	require.Equal(t, http.StatusNoContent, rr.Code)

	assert.Equal(t, "logged_out", nextEvent(t, reader))
}

// Helper functions

func login(t *testing.T, ts *testServer, name string) string {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{"name": name}, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.SessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	return resp.SessionToken
}

func getLeaderboard(t *testing.T, ts *testServer, token string) response.Leaderboard {
	t.Helper()

	rr := ts.request(http.MethodGet, "/api/v1/leaderboard", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var lb response.Leaderboard
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &lb))
	return lb
}

func assertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, code string) {
	t.Helper()

	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, code, resp.Error.Code)
}

// nextEvent reads SSE lines until the next event name, skipping keepalives
func nextEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()

	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if name, ok := strings.CutPrefix(strings.TrimRight(line, "\r\n"), "event: "); ok {
			return name
		}
	}
}
