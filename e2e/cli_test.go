package e2e_test

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/mindgym/internal/api"
	"github.com/mcoot/mindgym/internal/factory"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "mindgym-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/mindgym")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	// Create temp token file
	tokenFile := filepath.Join(t.TempDir(), "token")

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  tokenFile,
	}
}

func (r *cliRunner) args(args ...string) []string {
	return append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)
}

func (r *cliRunner) run(args ...string) (string, error) {
	cmd := exec.Command(r.binaryPath, r.args(args...)...)
	cmd.Env = cleanEnv()
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token", token,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = cleanEnv()
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runJSON(t *testing.T, result any, args ...string) {
	t.Helper()

	output, err := r.run(args...)
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), result), "output: %s", output)
}

// cleanEnv drops MINDGYM_* variables so the host shell cannot leak a token
func cleanEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		if len(kv) >= 8 && kv[:8] == "MINDGYM_" {
			continue
		}
		env = append(env, kv)
	}
	return env
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// Create application
	app, err := factory.New(factory.Config{Logger: logger})
	require.NoError(t, err)

	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		SessionManager:     app.SessionManager,
		ProgressionService: app.ProgressionService,
		HubManager:         app.HubManager,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)

	serverCfg := api.DefaultServerConfig()
	serverCfg.ShutdownTimeout = 5 * time.Second
	server := api.NewServer(mux, serverCfg, logger)

	// Start server
	go func() {
		if err := server.Serve(listener); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + listener.Addr().String()
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		addr: serverURL,
		shutdown: func() {
			app.HubManager.Close()
			_ = server.Shutdown(context.Background())
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type badgeResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Unlocked bool   `json:"unlocked"`
}

type profileResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Avatar      string          `json:"avatar"`
	XP          int             `json:"xp"`
	Level       int             `json:"level"`
	Streak      int             `json:"streak"`
	GamesPlayed int             `json:"games_played"`
	Badges      []badgeResponse `json:"badges"`
}

type sessionResponse struct {
	SessionToken string          `json:"session_token"`
	Profile      profileResponse `json:"profile"`
}

type outcomeResponse struct {
	XPAwarded int             `json:"xp_awarded"`
	LevelUp   bool            `json:"level_up"`
	NewLevel  int             `json:"new_level"`
	NewBadges []badgeResponse `json:"new_badges"`
}

type leaderboardResponse struct {
	Entries []struct {
		Rank  int    `json:"rank"`
		Name  string `json:"name"`
		XP    int    `json:"xp"`
		IsYou bool   `json:"is_you"`
	} `json:"entries"`
	UserRank int `json:"user_rank"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type eventLine struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	var resp healthResponse
	cli.runJSON(t, &resp, "health")
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_SessionCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Log in
	var session sessionResponse
	cli.runJSON(t, &session, "login", "--name", "Alice")
	assert.Equal(t, "Alice", session.Profile.Name)
	assert.Equal(t, 1, session.Profile.Level)
	assert.NotEmpty(t, session.SessionToken)

	// Whoami (token should be saved in token file)
	var current sessionResponse
	cli.runJSON(t, &current, "whoami")
	assert.Equal(t, session.SessionToken, current.SessionToken)
	assert.Equal(t, session.Profile.ID, current.Profile.ID)

	// Explicit token works too
	output, err := cli.runWithToken(session.SessionToken, "profile")
	require.NoError(t, err, "output: %s", output)

	// Log out
	var msg messageResponse
	cli.runJSON(t, &msg, "logout")
	assert.Equal(t, "Logged out", msg.Message)

	// The old token no longer works
	output, err = cli.runWithToken(session.SessionToken, "profile")
	assert.Error(t, err)
	assert.Contains(t, output, "SESSION_NOT_FOUND")
}

func TestCLI_ProgressionFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	cli.runJSON(t, &sessionResponse{}, "login", "--name", "Grace Hopper")

	// A perfect, fast round
	var outcome outcomeResponse
	cli.runJSON(t, &outcome, "play", "--game", "Reaction Rush", "--score", "100", "--accuracy", "100", "--speed", "5")
	assert.Equal(t, 225, outcome.XPAwarded)
	assert.False(t, outcome.LevelUp)
	assert.Len(t, outcome.NewBadges, 4)

	// A big round that levels up twice
	cli.runJSON(t, &outcome, "play", "--game", "Memory Matrix", "--score", "600", "--accuracy", "75", "--speed", "40")
	assert.Equal(t, 925, outcome.XPAwarded)
	assert.True(t, outcome.LevelUp)
	assert.Equal(t, 3, outcome.NewLevel)

	var profile profileResponse
	cli.runJSON(t, &profile, "profile")
	assert.Equal(t, "GH", profile.Avatar)
	assert.Equal(t, 1150, profile.XP)
	assert.Equal(t, 3, profile.Level)
	assert.Equal(t, 2, profile.GamesPlayed)
	assert.Equal(t, 1, profile.Streak)

	var board leaderboardResponse
	cli.runJSON(t, &board, "leaderboard")
	require.Len(t, board.Entries, 11)
	assert.Equal(t, 11, board.UserRank)
	assert.True(t, board.Entries[10].IsYou)
	assert.Equal(t, "Grace Hopper", board.Entries[10].Name)

	var notes struct {
		Notifications []struct {
			Kind string `json:"kind"`
		} `json:"notifications"`
	}
	cli.runJSON(t, &notes, "notifications")
	assert.Len(t, notes.Notifications, 5)

	cli.runJSON(t, &notes, "notifications")
	assert.Empty(t, notes.Notifications)
}

func TestCLI_InvalidResult(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	cli.runJSON(t, &sessionResponse{}, "login", "--name", "Alice")

	output, err := cli.run("play", "--game", "Tap Frenzy", "--score", "10", "--accuracy", "120", "--speed", "4")
	assert.Error(t, err)
	assert.Contains(t, output, "INVALID_RESULT")
}

func TestCLI_Events(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	cli.runJSON(t, &sessionResponse{}, "login", "--name", "Alice")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// connected + profile_updated + leaderboard_updated + badge_unlocked
	stream := exec.CommandContext(ctx, cli.binaryPath, cli.args("events", "--json", "--limit", "4")...)
	stream.Env = cleanEnv()
	stdout, err := stream.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, stream.Start())

	lines := bufio.NewScanner(stdout)
	next := func() eventLine {
		t.Helper()
		require.True(t, lines.Scan(), "stream ended early: %v", lines.Err())
		var e eventLine
		require.NoError(t, json.Unmarshal(lines.Bytes(), &e), "line: %s", lines.Text())
		return e
	}

	assert.Equal(t, "connected", next().Event)

	output, err := cli.run("play", "--game", "Focus Flow", "--score", "40", "--accuracy", "50", "--speed", "20")
	require.NoError(t, err, "output: %s", output)

	updated := next()
	assert.Equal(t, "profile_updated", updated.Event)
	var payload struct {
		Type    string `json:"type"`
		Payload struct {
			XP int `json:"xp"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(updated.Data, &payload))
	assert.Equal(t, "profile_updated", payload.Type)
	assert.Equal(t, 65, payload.Payload.XP)

	assert.Equal(t, "leaderboard_updated", next().Event)
	assert.Equal(t, "badge_unlocked", next().Event)

	require.NoError(t, stream.Wait())
}
