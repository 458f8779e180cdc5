package model

import "time"

// BadgeID is the stable identifier of a catalog badge
type BadgeID string

const (
	BadgeFirstGame  BadgeID = "first-game"
	BadgeStreak3    BadgeID = "streak-3"
	BadgeStreak7    BadgeID = "streak-7"
	BadgeAccuracy90 BadgeID = "accuracy-90"
	BadgeGames10    BadgeID = "games-10"
	BadgeGames50    BadgeID = "games-50"
	BadgeLevel5     BadgeID = "level-5"
	BadgeLevel10    BadgeID = "level-10"
	BadgePerfect    BadgeID = "perfect"
	BadgeSpeedDemon BadgeID = "speed-demon"
)

// Badge is a one-time unlockable achievement.
// Unlocked only ever flips from false to true.
type Badge struct {
	ID          BadgeID    `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlockedAt,omitempty"`
}

// Unlock marks the badge unlocked at t. Returns false if it already was.
func (b *Badge) Unlock(t time.Time) bool {
	if b.Unlocked {
		return false
	}
	b.Unlocked = true
	at := t
	b.UnlockedAt = &at
	return true
}

func (b Badge) clone() Badge {
	if b.UnlockedAt != nil {
		at := *b.UnlockedAt
		b.UnlockedAt = &at
	}
	return b
}

var badgeCatalog = []Badge{
	{ID: BadgeFirstGame, Name: "First Steps", Description: "Play your first game", Icon: "footprints"},
	{ID: BadgeStreak3, Name: "On Fire", Description: "3-day streak", Icon: "flame"},
	{ID: BadgeStreak7, Name: "Unstoppable", Description: "7-day streak", Icon: "zap"},
	{ID: BadgeAccuracy90, Name: "Sharpshooter", Description: "90%+ accuracy in any game", Icon: "target"},
	{ID: BadgeGames10, Name: "Dedicated", Description: "Play 10 games", Icon: "trophy"},
	{ID: BadgeGames50, Name: "Brain Athlete", Description: "Play 50 games", Icon: "brain"},
	{ID: BadgeLevel5, Name: "Rising Star", Description: "Reach level 5", Icon: "star"},
	{ID: BadgeLevel10, Name: "Mind Master", Description: "Reach level 10", Icon: "crown"},
	{ID: BadgePerfect, Name: "Perfectionist", Description: "Get 100% accuracy", Icon: "sparkles"},
	{ID: BadgeSpeedDemon, Name: "Speed Demon", Description: "Complete a game in under 10s", Icon: "timer"},
}

// DefaultBadges returns a fresh, fully locked copy of the badge catalog
func DefaultBadges() []Badge {
	badges := make([]Badge, len(badgeCatalog))
	copy(badges, badgeCatalog)
	return badges
}

// mergeBadges lays persisted unlock state over the catalog, dropping unknown
// ids and restoring missing ones in catalog order
func mergeBadges(stored []Badge) []Badge {
	byID := make(map[BadgeID]Badge, len(stored))
	for _, b := range stored {
		byID[b.ID] = b
	}
	badges := DefaultBadges()
	for i := range badges {
		if s, ok := byID[badges[i].ID]; ok && s.Unlocked {
			badges[i].Unlocked = true
			badges[i].UnlockedAt = s.clone().UnlockedAt
		}
	}
	return badges
}
