package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Session events
	EventLoggedIn  EventType = "logged_in"
	EventLoggedOut EventType = "logged_out"

	// Progression events
	EventProfileUpdated     EventType = "profile_updated"
	EventLeaderboardUpdated EventType = "leaderboard_updated"
	EventLevelUp            EventType = "level_up"
	EventBadgeUnlocked      EventType = "badge_unlocked"
)

// Event is published by a session store to its subscribers after a change
type Event struct {
	Type         EventType    `json:"type"`
	Timestamp    time.Time    `json:"timestamp"`
	SessionToken SessionToken `json:"-"`
	Payload      any          `json:"payload,omitempty"`
}

// ProfileUpdatedPayload contains the headline numbers after a mutation
type ProfileUpdatedPayload struct {
	XP           int     `json:"xp"`
	Level        int     `json:"level"`
	Streak       int     `json:"streak"`
	GamesPlayed  int     `json:"gamesPlayed"`
	Accuracy     float64 `json:"totalAccuracy"`
	Speed        float64 `json:"totalSpeed"`
	RewardPoints int     `json:"rewardPoints"`
}

// LeaderboardUpdatedPayload contains the user's rank after a re-sort
type LeaderboardUpdatedPayload struct {
	Rank int `json:"rank"`
	Size int `json:"size"`
}

// LevelUpPayload contains data for level up events
type LevelUpPayload struct {
	OldLevel int `json:"oldLevel"`
	NewLevel int `json:"newLevel"`
}

// BadgeUnlockedPayload contains data for badge unlocked events
type BadgeUnlockedPayload struct {
	Badge Badge `json:"badge"`
}

// LoggedInPayload contains data for login events
type LoggedInPayload struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// NotificationKind distinguishes one-shot notifications in the outbox
type NotificationKind string

const (
	NotificationLevelUp       NotificationKind = "level_up"
	NotificationBadgeUnlocked NotificationKind = "badge_unlocked"
)

// Notification is a pending one-shot message waiting to be drained by a consumer
type Notification struct {
	Kind          NotificationKind `json:"kind"`
	PreviousLevel int              `json:"previousLevel,omitempty"`
	Level         int              `json:"level,omitempty"`
	Badge         *Badge           `json:"badge,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// ToEvent converts a notification into the event announcing it
func (n Notification) ToEvent(token SessionToken) Event {
	switch n.Kind {
	case NotificationLevelUp:
		return Event{
			Type:         EventLevelUp,
			Timestamp:    n.CreatedAt,
			SessionToken: token,
			Payload:      LevelUpPayload{OldLevel: n.PreviousLevel, NewLevel: n.Level},
		}
	default:
		var payload BadgeUnlockedPayload
		if n.Badge != nil {
			payload.Badge = n.Badge.clone()
		}
		return Event{
			Type:         EventBadgeUnlocked,
			Timestamp:    n.CreatedAt,
			SessionToken: token,
			Payload:      payload,
		}
	}
}
