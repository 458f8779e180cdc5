package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/mindgym/internal/dependencies/mocks"
	"github.com/mcoot/mindgym/internal/model"
	"github.com/mcoot/mindgym/internal/storage/memory"
	"github.com/mcoot/mindgym/internal/testutil"
)

type ManagerSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	manager *Manager
	ctx     context.Context
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.manager = NewManager(s.storage, s.clock, s.random, testutil.NopLogger(), DefaultConfig())
	s.ctx = context.Background()
}

func (s *ManagerSuite) newManager() *Manager {
	return NewManager(s.storage, s.clock, s.random, testutil.NopLogger(), DefaultConfig())
}

// Login tests

func (s *ManagerSuite) TestLoginCreatesSession() {
	s.random.QueueString("abc123")
	s.random.QueueUUID("8f8d3f3c-0000-4000-8000-000000000001")

	sess, err := s.manager.Login(s.ctx, "Ada")
	s.Require().NoError(err)

	s.Equal(model.SessionToken("sess_abc123"), sess.Token)
	s.Equal(model.UserID("8f8d3f3c-0000-4000-8000-000000000001"), sess.UserID)
	s.Equal("Ada", sess.Store.Profile().Name)
	s.Equal(sess.UserID, sess.Store.Profile().ID)
	s.Equal(s.clock.Now().Add(24*time.Hour), sess.ExpiresAt())
	s.Equal(1, s.manager.ActiveSessions())
}

func (s *ManagerSuite) TestLoginTokensAreDistinct() {
	a, _ := s.manager.Login(s.ctx, "Ada")
	b, _ := s.manager.Login(s.ctx, "Bob")

	s.NotEqual(a.Token, b.Token)
	s.NotEqual(a.UserID, b.UserID)
	s.True(strings.HasPrefix(string(a.Token), "sess_"))
}

func (s *ManagerSuite) TestInfo() {
	sess, _ := s.manager.Login(s.ctx, "Ada")

	info := sess.Info()
	s.Equal(sess.Token, info.Token)
	s.Equal(sess.UserID, info.UserID)
	s.Equal(sess.CreatedAt, info.CreatedAt)
}

// Resume tests

func (s *ManagerSuite) TestResumeLiveSession() {
	sess, _ := s.manager.Login(s.ctx, "Ada")

	resumed, err := s.manager.Resume(s.ctx, sess.Token)
	s.Require().NoError(err)
	s.Same(sess, resumed)
}

func (s *ManagerSuite) TestResumeUnknownToken() {
	_, err := s.manager.Resume(s.ctx, "sess_unknown")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *ManagerSuite) TestResumeExpired() {
	sess, _ := s.manager.Login(s.ctx, "Ada")
	s.clock.Advance(25 * time.Hour)

	_, err := s.manager.Resume(s.ctx, sess.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)

	// Persisted state is gone too
	_, err = s.newManager().Resume(s.ctx, sess.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *ManagerSuite) TestResumeAfterRestart() {
	sess, _ := s.manager.Login(s.ctx, "Ada")
	_ = sess.Store.Update(s.ctx, func(p *model.UserProfile, lb *model.Leaderboard) []model.Notification {
		p.XP = 700
		p.GamesPlayed = 2
		lb.Upsert(model.EntryForProfile(p))
		return nil
	})

	restarted := s.newManager()
	resumed, err := restarted.Resume(s.ctx, sess.Token)
	s.Require().NoError(err)

	p := resumed.Store.Profile()
	s.Equal(700, p.XP)
	s.Equal(2, p.Level)
	s.Equal(sess.UserID, resumed.UserID)
	s.True(resumed.Store.IsAuthenticated())
	s.Equal(11, resumed.Store.Leaderboard().Len())
}

func (s *ManagerSuite) TestResumeWithStaleMarker() {
	_ = s.storage.SetAuthenticated(s.ctx, "sess_stale")

	_, err := s.manager.Resume(s.ctx, "sess_stale")
	s.ErrorIs(err, model.ErrSessionNotFound)

	ok, _ := s.storage.IsAuthenticated(s.ctx, "sess_stale")
	s.False(ok)
}

func (s *ManagerSuite) TestResumeSlidesExpiry() {
	sess, _ := s.manager.Login(s.ctx, "Ada")

	s.clock.Advance(20 * time.Hour)
	_, err := s.manager.Resume(s.ctx, sess.Token)
	s.Require().NoError(err)
	s.Equal(s.clock.Now().Add(24*time.Hour), sess.ExpiresAt())

	s.clock.Advance(20 * time.Hour)
	_, err = s.manager.Resume(s.ctx, sess.Token)
	s.Require().NoError(err)

	s.clock.Advance(25 * time.Hour)
	s.manager.CleanExpiredSessions(s.ctx)
	s.Equal(0, s.manager.ActiveSessions())
}

func (s *ManagerSuite) TestRestoredSessionUsesSameWindow() {
	sess, _ := s.manager.Login(s.ctx, "Ada")
	s.clock.Advance(10 * time.Hour)

	resumed, err := s.newManager().Resume(s.ctx, sess.Token)
	s.Require().NoError(err)

	s.Equal(s.clock.Now().Add(24*time.Hour), resumed.ExpiresAt())
}

// Logout tests

func (s *ManagerSuite) TestLogout() {
	sess, _ := s.manager.Login(s.ctx, "Ada")

	s.Require().NoError(s.manager.Logout(s.ctx, sess.Token))

	s.Equal(0, s.manager.ActiveSessions())
	_, err := s.manager.Resume(s.ctx, sess.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)

	_, err = s.newManager().Resume(s.ctx, sess.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *ManagerSuite) TestLogoutUnknown() {
	err := s.manager.Logout(s.ctx, "sess_unknown")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// Observe tests

func (s *ManagerSuite) TestObserveSeesExistingAndNewSessions() {
	existing, _ := s.manager.Login(s.ctx, "Ada")
	rec := &recorder{}
	s.manager.Observe(rec.record)

	fresh, _ := s.manager.Login(s.ctx, "Bob")
	_ = s.manager.Logout(s.ctx, existing.Token)

	s.Equal([]model.EventType{model.EventLoggedIn, model.EventLoggedOut}, rec.types())
	s.Equal(fresh.Token, rec.events[0].SessionToken)
	s.Equal(existing.Token, rec.events[1].SessionToken)
}

// CleanExpiredSessions tests

func (s *ManagerSuite) TestCleanExpiredSessions() {
	ada, _ := s.manager.Login(s.ctx, "Ada")
	s.clock.Advance(12 * time.Hour)
	bob, _ := s.manager.Login(s.ctx, "Bob")
	s.clock.Advance(13 * time.Hour)

	s.manager.CleanExpiredSessions(s.ctx)

	s.Equal(1, s.manager.ActiveSessions())
	_, err := s.storage.GetProfile(s.ctx, ada.Token)
	s.ErrorIs(err, model.ErrProfileNotFound)
	_, err = s.storage.GetProfile(s.ctx, bob.Token)
	s.NoError(err)
}
