package progression

import (
	"context"
	"log/slog"

	"github.com/mcoot/mindgym/internal/dependencies/clock"
	"github.com/mcoot/mindgym/internal/model"
	"github.com/mcoot/mindgym/internal/services/session"
)

// Sessions resolves a token to a live session
type Sessions interface {
	Resume(ctx context.Context, token model.SessionToken) (*session.Session, error)
}

// Service turns submitted rounds into progression for a session
type Service struct {
	sessions Sessions
	engine   *Engine
	clock    clock.Clock
	logger   *slog.Logger
}

// New creates a new progression Service
func New(sessions Sessions, engine *Engine, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		sessions: sessions,
		engine:   engine,
		clock:    clock,
		logger:   logger,
	}
}

// SubmitResult applies one completed round to the session's profile.
// A zero result date is stamped with the current time.
func (s *Service) SubmitResult(ctx context.Context, token model.SessionToken, result model.GameResult) (Outcome, error) {
	sess, err := s.sessions.Resume(ctx, token)
	if err != nil {
		return Outcome{}, err
	}

	now := s.clock.Now()
	if result.Date.IsZero() {
		result.Date = now
	}

	var outcome Outcome
	err = sess.Store.Update(ctx, func(p *model.UserProfile, lb *model.Leaderboard) []model.Notification {
		var notifications []model.Notification
		outcome, notifications = s.engine.Apply(p, lb, result, now)
		return notifications
	})
	if err != nil {
		return Outcome{}, err
	}

	s.logger.Info("result submitted",
		slog.String("user_id", string(sess.UserID)),
		slog.String("game", result.Game),
		slog.Int("score", result.Score),
		slog.Int("xp_awarded", outcome.XPAwarded),
		slog.Int("level", outcome.NewLevel),
		slog.Int("new_badges", len(outcome.NewBadges)),
	)
	if outcome.LevelUp {
		s.logger.Info("level up",
			slog.String("user_id", string(sess.UserID)),
			slog.Int("level", outcome.NewLevel),
		)
	}

	return outcome, nil
}

// Stats summarizes the session's progression
func (s *Service) Stats(ctx context.Context, token model.SessionToken) (*Stats, error) {
	sess, err := s.sessions.Resume(ctx, token)
	if err != nil {
		return nil, err
	}
	profile, leaderboard := sess.Store.Snapshot()
	return BuildStats(profile, leaderboard), nil
}
