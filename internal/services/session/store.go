package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/mindgym/internal/dependencies/clock"
	"github.com/mcoot/mindgym/internal/model"
	"github.com/mcoot/mindgym/internal/storage"
)

// Subscriber receives every event a store publishes, in mutation order.
// Subscribers are called after the store lock is released and must not
// mutate the store they observe.
type Subscriber func(model.Event)

// Mutation changes a profile and its leaderboard in place and returns the
// notifications the change produced. It runs under the store lock.
type Mutation func(profile *model.UserProfile, leaderboard *model.Leaderboard) []model.Notification

// Store holds the authoritative profile and leaderboard of one session
type Store struct {
	token   model.SessionToken
	userID  model.UserID
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger

	mu            sync.Mutex
	profile       *model.UserProfile
	leaderboard   *model.Leaderboard
	authenticated bool
	outbox        []model.Notification

	// pubMu is taken before mu is released so events are delivered in the
	// order their mutations were applied
	pubMu sync.Mutex

	subMu       sync.Mutex
	subscribers map[int]Subscriber
	nextSubID   int
}

// NewStore creates a store with a default profile and the seed leaderboard
func NewStore(
	token model.SessionToken,
	userID model.UserID,
	storage storage.Storage,
	clock clock.Clock,
	logger *slog.Logger,
) *Store {
	return &Store{
		token:       token,
		userID:      userID,
		storage:     storage,
		clock:       clock,
		logger:      logger.With(slog.String("session", shortToken(token))),
		profile:     defaultProfile(userID),
		leaderboard: model.SeedLeaderboard(),
		subscribers: make(map[int]Subscriber),
	}
}

func defaultProfile(id model.UserID) *model.UserProfile {
	p := model.NewUserProfile()
	p.ID = id
	return p
}

// Token returns the session token this store is bound to
func (s *Store) Token() model.SessionToken {
	return s.token
}

// Restore loads the persisted profile. It returns false when nothing usable
// was persisted, in which case the store keeps its defaults. Corrupt data is
// discarded.
func (s *Store) Restore(ctx context.Context) (*model.UserProfile, bool) {
	data, err := s.storage.GetProfile(ctx, s.token)
	if err != nil {
		if !errors.Is(err, model.ErrProfileNotFound) {
			s.logger.Error("failed to load profile", slog.String("error", err.Error()))
		}
		return nil, false
	}

	profile, err := decodeProfile(data)
	if err != nil {
		s.logger.Warn("discarding corrupt profile", slog.String("error", err.Error()))
		if err := s.storage.DeleteProfile(ctx, s.token); err != nil {
			s.logger.Error("failed to delete corrupt profile", slog.String("error", err.Error()))
		}
		return nil, false
	}
	if profile.ID == "" {
		profile.ID = s.userID
	}

	authenticated, err := s.storage.IsAuthenticated(ctx, s.token)
	if err != nil {
		s.logger.Error("failed to load authentication marker", slog.String("error", err.Error()))
	}

	leaderboard := model.SeedLeaderboard()
	if profile.GamesPlayed > 0 {
		leaderboard.Upsert(model.EntryForProfile(profile))
	}

	s.mu.Lock()
	s.profile = profile
	s.userID = profile.ID
	s.leaderboard = leaderboard
	s.authenticated = authenticated
	snapshot := profile.Clone()
	s.mu.Unlock()

	s.logger.Debug("profile restored",
		slog.Int("xp", snapshot.XP),
		slog.Int("games_played", snapshot.GamesPlayed),
	)
	return snapshot, true
}

// Persist overwrites the persisted profile with the current one
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.storage.SaveProfile(ctx, s.token, data); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Login sets the display identity and marks the session authenticated
func (s *Store) Login(ctx context.Context, name string) error {
	s.mu.Lock()
	s.profile.Name = name
	s.profile.Avatar = model.AvatarFromName(name)
	s.authenticated = true
	if s.leaderboard.RankOfID(string(s.profile.ID)) <= s.leaderboard.Len() {
		s.leaderboard.Upsert(model.EntryForProfile(s.profile))
	}

	if err := s.storage.SetAuthenticated(ctx, s.token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("mark authenticated: %w", err)
	}
	if err := s.persistLocked(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	event := model.Event{
		Type:         model.EventLoggedIn,
		Timestamp:    s.clock.Now(),
		SessionToken: s.token,
		Payload:      model.LoggedInPayload{Name: s.profile.Name, Avatar: s.profile.Avatar},
	}
	s.pubMu.Lock()
	s.mu.Unlock()
	defer s.pubMu.Unlock()

	s.logger.Info("logged in", slog.String("name", name))
	s.publish(event)
	return nil
}

// Logout clears authentication, resets the profile to defaults and removes
// all persisted state of the session
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.authenticated = false
	s.profile = defaultProfile(s.userID)
	s.leaderboard = model.SeedLeaderboard()
	s.outbox = nil
	event := model.Event{
		Type:         model.EventLoggedOut,
		Timestamp:    s.clock.Now(),
		SessionToken: s.token,
	}
	s.pubMu.Lock()
	s.mu.Unlock()
	defer s.pubMu.Unlock()

	err := s.storage.DeleteSession(ctx, s.token)
	if err != nil {
		s.logger.Error("failed to delete session state", slog.String("error", err.Error()))
		err = fmt.Errorf("delete session: %w", err)
	}

	s.logger.Info("logged out")
	s.publish(event)
	return err
}

// IsAuthenticated reports whether the session is logged in
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Profile returns a snapshot of the profile
func (s *Store) Profile() *model.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

// Leaderboard returns a snapshot of the leaderboard
func (s *Store) Leaderboard() *model.Leaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaderboard.Clone()
}

// Snapshot returns consistent copies of the profile and leaderboard
func (s *Store) Snapshot() (*model.UserProfile, *model.Leaderboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone(), s.leaderboard.Clone()
}

// RankOf returns the rank of the first leaderboard entry named name,
// or the leaderboard size plus one when absent
func (s *Store) RankOf(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaderboard.RankOf(name)
}

// UserRank returns the rank of this session's own entry
func (s *Store) UserRank() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaderboard.RankOfID(string(s.profile.ID))
}

// Update applies fn atomically, persists the result, queues the returned
// notifications and publishes the resulting events.
// A failed persist is logged and does not undo the in-memory change.
func (s *Store) Update(ctx context.Context, fn Mutation) error {
	s.mu.Lock()
	if !s.authenticated {
		s.mu.Unlock()
		return model.ErrNotAuthenticated
	}

	notifications := fn(s.profile, s.leaderboard)

	if err := s.persistLocked(ctx); err != nil {
		s.logger.Error("failed to persist profile", slog.String("error", err.Error()))
	}
	s.outbox = append(s.outbox, notifications...)

	now := s.clock.Now()
	events := make([]model.Event, 0, 2+len(notifications))
	events = append(events,
		model.Event{
			Type:         model.EventProfileUpdated,
			Timestamp:    now,
			SessionToken: s.token,
			Payload: model.ProfileUpdatedPayload{
				XP:           s.profile.XP,
				Level:        s.profile.Level,
				Streak:       s.profile.Streak,
				GamesPlayed:  s.profile.GamesPlayed,
				Accuracy:     s.profile.TotalAccuracy,
				Speed:        s.profile.TotalSpeed,
				RewardPoints: s.profile.RewardPoints,
			},
		},
		model.Event{
			Type:         model.EventLeaderboardUpdated,
			Timestamp:    now,
			SessionToken: s.token,
			Payload: model.LeaderboardUpdatedPayload{
				Rank: s.leaderboard.RankOfID(string(s.profile.ID)),
				Size: s.leaderboard.Len(),
			},
		},
	)
	for _, n := range notifications {
		events = append(events, n.ToEvent(s.token))
	}
	s.pubMu.Lock()
	s.mu.Unlock()
	defer s.pubMu.Unlock()

	for _, e := range events {
		s.publish(e)
	}
	return nil
}

// DrainNotifications empties the outbox and returns what it held
func (s *Store) DrainNotifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	drained := s.outbox
	s.outbox = nil
	if drained == nil {
		return []model.Notification{}
	}
	return drained
}

// PendingNotifications returns the outbox length
func (s *Store) PendingNotifications() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outbox)
}

// Subscribe registers fn for every future event. The returned function
// removes the registration.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) publish(event model.Event) {
	s.subMu.Lock()
	subs := make([]Subscriber, 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
}

func decodeProfile(data []byte) (*model.UserProfile, error) {
	var p *model.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New("profile is null")
	}
	p.Normalize()
	return p, nil
}

// shortToken trims a token for log output
func shortToken(token model.SessionToken) string {
	const keep = 10
	if len(token) <= keep {
		return string(token)
	}
	return string(token[:keep])
}
