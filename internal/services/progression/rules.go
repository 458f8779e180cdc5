package progression

import (
	"math"
	"time"

	"github.com/mcoot/mindgym/internal/dependencies/clock"
	"github.com/mcoot/mindgym/internal/model"
)

const (
	// ParticipationXP is awarded for every completed round regardless of score
	ParticipationXP = 25

	// AccuracyBadgeThreshold and SpeedBadgeThreshold gate the result badges
	AccuracyBadgeThreshold = 90.0
	PerfectAccuracy        = 100.0
	SpeedBadgeThreshold    = 10.0

	// MaxScore bounds a single round's score so xp arithmetic cannot overflow
	MaxScore = 1_000_000

	// maxXP caps accumulated xp and reward points
	maxXP = math.MaxInt32
)

// roundHalfUp rounds to the nearest integer with halves going up
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// XPForResult returns round(score * accuracy/100 * 2) + ParticipationXP.
// Score is clamped to [0, MaxScore] and accuracy to [0, 100].
func XPForResult(r model.GameResult) int {
	score := min(max(r.Score, 0), MaxScore)
	accuracy := min(max(r.Accuracy, 0), 100)
	if math.IsNaN(accuracy) {
		accuracy = 0
	}
	return roundHalfUp(float64(score)*(accuracy/100)*2) + ParticipationXP
}

// addCapped returns total+delta saturated at maxXP
func addCapped(total, delta int) int {
	if delta > maxXP-total {
		return maxXP
	}
	return total + delta
}

// RewardPointsFor returns the reward points earned alongside xp
func RewardPointsFor(xp int) int {
	return roundHalfUp(float64(xp) * 0.5)
}

// NextStreak returns the streak after playing on today, given the previous
// streak and the last day played. Days use clock.DayLayout.
func NextStreak(streak int, lastPlayed, today string) int {
	switch {
	case lastPlayed == today:
		return streak
	case lastPlayed != "" && lastPlayed == clock.PreviousDay(today):
		return streak + 1
	default:
		return 1
	}
}

// RollingMean folds value into a mean over n samples and rounds to one decimal
func RollingMean(mean float64, n int, value float64) float64 {
	return model.Round1((mean*float64(n) + value) / float64(n+1))
}

// badgeRule is a predicate over the profile after a round has been applied
type badgeRule struct {
	id        model.BadgeID
	satisfied func(p *model.UserProfile) bool
}

var badgeRules = []badgeRule{
	{model.BadgeFirstGame, func(p *model.UserProfile) bool { return p.GamesPlayed >= 1 }},
	{model.BadgeStreak3, func(p *model.UserProfile) bool { return p.Streak >= 3 }},
	{model.BadgeStreak7, func(p *model.UserProfile) bool { return p.Streak >= 7 }},
	{model.BadgeAccuracy90, func(p *model.UserProfile) bool { return p.BestAccuracy >= AccuracyBadgeThreshold }},
	{model.BadgeGames10, func(p *model.UserProfile) bool { return p.GamesPlayed >= 10 }},
	{model.BadgeGames50, func(p *model.UserProfile) bool { return p.GamesPlayed >= 50 }},
	{model.BadgeLevel5, func(p *model.UserProfile) bool { return p.Level >= 5 }},
	{model.BadgeLevel10, func(p *model.UserProfile) bool { return p.Level >= 10 }},
	{model.BadgePerfect, func(p *model.UserProfile) bool { return p.BestAccuracy >= PerfectAccuracy }},
	{model.BadgeSpeedDemon, func(p *model.UserProfile) bool { return p.HasFastest && p.FastestSpeed < SpeedBadgeThreshold }},
}

// EvaluateBadges unlocks every locked badge whose predicate now holds and
// returns copies of the newly unlocked badges in catalog order
func EvaluateBadges(p *model.UserProfile, now time.Time) []model.Badge {
	var unlocked []model.Badge
	for _, rule := range badgeRules {
		b := p.Badge(rule.id)
		if b == nil || b.Unlocked || !rule.satisfied(p) {
			continue
		}
		if b.Unlock(now) {
			unlocked = append(unlocked, *b)
		}
	}
	return unlocked
}
