package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/mindgym/internal/dependencies/clock"
	"github.com/mcoot/mindgym/internal/dependencies/random"
	"github.com/mcoot/mindgym/internal/model"
	"github.com/mcoot/mindgym/internal/storage"
)

const (
	tokenPrefix = "sess_"
	tokenLength = 32
)

// Session is a live, logged-in session and its store.
// Expiry slides forward on every successful Resume.
type Session struct {
	Token     model.SessionToken
	UserID    model.UserID
	Store     *Store
	CreatedAt time.Time

	mu        sync.Mutex
	expiresAt time.Time
}

// Info returns the session metadata without the store
func (s *Session) Info() model.SessionInfo {
	return model.SessionInfo{
		Token:     s.Token,
		UserID:    s.UserID,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt(),
	}
}

// ExpiresAt returns when the session lapses without further activity
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

func (s *Session) expired(now time.Time) bool {
	return now.After(s.ExpiresAt())
}

func (s *Session) extend(until time.Time) {
	s.mu.Lock()
	s.expiresAt = until
	s.mu.Unlock()
}

// Manager maps session tokens to stores
type Manager struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[model.SessionToken]*Session
	sinks    []Subscriber

	sessionDuration time.Duration
}

// Config holds configuration for the session manager
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// NewManager creates a new session Manager
func NewManager(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
	cfg Config,
) *Manager {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Manager{
		storage:         storage,
		clock:           clock,
		random:          random,
		logger:          logger,
		sessions:        make(map[model.SessionToken]*Session),
		sessionDuration: cfg.SessionDuration,
	}
}

// Observe subscribes fn to every current and future session store
func (m *Manager) Observe(fn Subscriber) {
	m.mu.Lock()
	m.sinks = append(m.sinks, fn)
	stores := make([]*Store, 0, len(m.sessions))
	for _, sess := range m.sessions {
		stores = append(stores, sess.Store)
	}
	m.mu.Unlock()

	for _, st := range stores {
		st.Subscribe(fn)
	}
}

// Login creates a new session with a default profile and logs it in as name
func (m *Manager) Login(ctx context.Context, name string) (*Session, error) {
	token := model.SessionToken(tokenPrefix + m.random.String(tokenLength, random.TokenAlphabet))
	userID := model.UserID(m.random.UUID())

	st := NewStore(token, userID, m.storage, m.clock, m.logger)
	sess := m.register(st, userID)

	if err := st.Login(ctx, name); err != nil {
		m.remove(token)
		m.logger.Error("failed to log in",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	m.logger.Info("session created",
		slog.String("user_id", string(userID)),
		slog.String("name", name),
	)
	return sess, nil
}

// Resume returns the live session for token, restoring it from storage if
// the process no longer holds it but storage still marks it authenticated
func (m *Manager) Resume(ctx context.Context, token model.SessionToken) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[token]
	m.mu.RUnlock()

	if ok {
		if sess.expired(m.clock.Now()) {
			m.expire(ctx, sess)
			return nil, model.ErrSessionNotFound
		}
		if !sess.Store.IsAuthenticated() {
			return nil, model.ErrNotAuthenticated
		}
		m.touch(ctx, sess)
		return sess, nil
	}

	authenticated, err := m.storage.IsAuthenticated(ctx, token)
	if err != nil {
		return nil, err
	}
	if !authenticated {
		return nil, model.ErrSessionNotFound
	}

	st := NewStore(token, model.UserID(m.random.UUID()), m.storage, m.clock, m.logger)
	profile, restored := st.Restore(ctx)
	if !restored {
		// The marker outlived the profile; the session cannot be rebuilt
		if err := m.storage.ClearAuthenticated(ctx, token); err != nil {
			m.logger.Error("failed to clear stale authentication marker", slog.String("error", err.Error()))
		}
		return nil, model.ErrSessionNotFound
	}

	sess = m.register(st, profile.ID)
	m.touch(ctx, sess)
	m.logger.Info("session restored",
		slog.String("user_id", string(profile.ID)),
		slog.Int("xp", profile.XP),
	)
	return sess, nil
}

// Logout logs the session out and forgets it
func (m *Manager) Logout(ctx context.Context, token model.SessionToken) error {
	sess, err := m.Resume(ctx, token)
	if err != nil {
		return err
	}
	m.remove(token)
	return sess.Store.Logout(ctx)
}

// ActiveSessions returns the number of live sessions
func (m *Manager) ActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanExpiredSessions drops expired sessions and their persisted state
// (call periodically)
func (m *Manager) CleanExpiredSessions(ctx context.Context) {
	now := m.clock.Now()
	m.mu.RLock()
	var expired []*Session
	for _, sess := range m.sessions {
		if sess.expired(now) {
			expired = append(expired, sess)
		}
	}
	m.mu.RUnlock()

	for _, sess := range expired {
		m.expire(ctx, sess)
	}
}

// touch slides the session's expiry and the persisted state's lifetime
func (m *Manager) touch(ctx context.Context, sess *Session) {
	sess.extend(m.clock.Now().Add(m.sessionDuration))
	if err := m.storage.Touch(ctx, sess.Token); err != nil {
		m.logger.Error("failed to extend session",
			slog.String("user_id", string(sess.UserID)),
			slog.String("error", err.Error()),
		)
	}
}

// expire forgets sess and logs its store out, which closes any observers
// and deletes the persisted state
func (m *Manager) expire(ctx context.Context, sess *Session) {
	m.remove(sess.Token)
	if err := sess.Store.Logout(ctx); err != nil {
		m.logger.Error("failed to expire session",
			slog.String("user_id", string(sess.UserID)),
			slog.String("error", err.Error()),
		)
		return
	}
	m.logger.Debug("session expired", slog.String("user_id", string(sess.UserID)))
}

// register adds a session for st. If another request registered the same
// token first, that session is returned instead.
func (m *Manager) register(st *Store, userID model.UserID) *Session {
	now := m.clock.Now()
	sess := &Session{
		Token:     st.Token(),
		UserID:    userID,
		Store:     st,
		CreatedAt: now,
		expiresAt: now.Add(m.sessionDuration),
	}

	m.mu.Lock()
	if existing, ok := m.sessions[sess.Token]; ok {
		m.mu.Unlock()
		return existing
	}
	m.sessions[sess.Token] = sess
	sinks := make([]Subscriber, len(m.sinks))
	copy(sinks, m.sinks)
	m.mu.Unlock()

	for _, fn := range sinks {
		st.Subscribe(fn)
	}
	return sess
}

func (m *Manager) remove(token model.SessionToken) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}
