package progression

import (
	"time"

	"github.com/mcoot/mindgym/internal/dependencies/clock"
	"github.com/mcoot/mindgym/internal/model"
)

// Outcome reports what a single round changed
type Outcome struct {
	XPAwarded int
	LevelUp   bool
	NewLevel  int
	NewBadges []model.Badge
}

// Engine applies the progression rules. Calendar days are taken in loc.
type Engine struct {
	loc *time.Location
}

// NewEngine creates an Engine using loc for streak days. A nil loc means UTC.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{loc: loc}
}

// Location returns the engine's calendar location
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Apply folds one completed round into p and lb and returns the outcome and
// the notifications it produced. now stamps newly unlocked badges.
func (e *Engine) Apply(p *model.UserProfile, lb *model.Leaderboard, r model.GameResult, now time.Time) (Outcome, []model.Notification) {
	xp := XPForResult(r)

	today := clock.Day(r.Date, e.loc)
	p.Streak = NextStreak(p.Streak, p.LastPlayedDate, today)
	p.LastPlayedDate = today

	p.TotalAccuracy = RollingMean(p.TotalAccuracy, p.GamesPlayed, r.Accuracy)
	p.TotalSpeed = RollingMean(p.TotalSpeed, p.GamesPlayed, r.Speed)
	p.GamesPlayed++

	oldLevel := p.Level
	p.XP = addCapped(p.XP, xp)
	p.Level = model.LevelForXP(p.XP)

	p.RewardPoints = addCapped(p.RewardPoints, RewardPointsFor(xp))

	p.AppendScore(r)

	var notifications []model.Notification
	outcome := Outcome{
		XPAwarded: xp,
		NewLevel:  p.Level,
		NewBadges: []model.Badge{},
	}
	if p.Level > oldLevel {
		outcome.LevelUp = true
		notifications = append(notifications, model.Notification{
			Kind:          model.NotificationLevelUp,
			PreviousLevel: oldLevel,
			Level:         p.Level,
			CreatedAt:     now,
		})
	}

	for _, b := range EvaluateBadges(p, now) {
		outcome.NewBadges = append(outcome.NewBadges, b)
		badge := b
		notifications = append(notifications, model.Notification{
			Kind:      model.NotificationBadgeUnlocked,
			Badge:     &badge,
			CreatedAt: now,
		})
	}

	lb.Upsert(model.EntryForProfile(p))

	return outcome, notifications
}
