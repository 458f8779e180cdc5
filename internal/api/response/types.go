package response

import (
	"time"

	"github.com/mcoot/mindgym/internal/model"
	"github.com/mcoot/mindgym/internal/services/progression"
	"github.com/mcoot/mindgym/internal/services/session"
)

// Badge represents a badge in API responses
type Badge struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

// BadgeFromModel converts a model.Badge
func BadgeFromModel(b model.Badge) Badge {
	return Badge{
		ID:          string(b.ID),
		Name:        b.Name,
		Description: b.Description,
		Icon:        b.Icon,
		Unlocked:    b.Unlocked,
		UnlockedAt:  b.UnlockedAt,
	}
}

// BadgesFromModel converts a badge list, never returning nil
func BadgesFromModel(badges []model.Badge) []Badge {
	out := make([]Badge, 0, len(badges))
	for _, b := range badges {
		out = append(out, BadgeFromModel(b))
	}
	return out
}

// GameResult represents one completed round
type GameResult struct {
	Game     string    `json:"game"`
	Score    int       `json:"score"`
	Accuracy float64   `json:"accuracy"`
	Speed    float64   `json:"speed"`
	Date     time.Time `json:"date"`
}

// GameResultsFromModel converts a result list, never returning nil
func GameResultsFromModel(results []model.GameResult) []GameResult {
	out := make([]GameResult, 0, len(results))
	for _, r := range results {
		out = append(out, GameResult(r))
	}
	return out
}

// Profile represents a user profile in API responses
type Profile struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Avatar         string       `json:"avatar"`
	XP             int          `json:"xp"`
	Level          int          `json:"level"`
	Streak         int          `json:"streak"`
	GamesPlayed    int          `json:"games_played"`
	TotalAccuracy  float64      `json:"total_accuracy"`
	TotalSpeed     float64      `json:"total_speed"`
	RewardPoints   int          `json:"reward_points"`
	LastPlayedDate string       `json:"last_played_date,omitempty"`
	Scores         []GameResult `json:"scores"`
	Badges         []Badge      `json:"badges"`
}

// ProfileFromModel converts a model.UserProfile
func ProfileFromModel(p *model.UserProfile) Profile {
	return Profile{
		ID:             string(p.ID),
		Name:           p.Name,
		Avatar:         p.Avatar,
		XP:             p.XP,
		Level:          p.Level,
		Streak:         p.Streak,
		GamesPlayed:    p.GamesPlayed,
		TotalAccuracy:  p.TotalAccuracy,
		TotalSpeed:     p.TotalSpeed,
		RewardPoints:   p.RewardPoints,
		LastPlayedDate: p.LastPlayedDate,
		Scores:         GameResultsFromModel(p.Scores),
		Badges:         BadgesFromModel(p.Badges),
	}
}

// SessionResponse is the response for session endpoints
type SessionResponse struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Profile      Profile   `json:"profile"`
}

// SessionResponseFromSession creates a SessionResponse from a live session
func SessionResponseFromSession(s *session.Session) SessionResponse {
	return SessionResponse{
		SessionToken: string(s.Token),
		ExpiresAt:    s.ExpiresAt(),
		Profile:      ProfileFromModel(s.Store.Profile()),
	}
}

// LeaderboardEntry represents one ranked row
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	XP     int    `json:"xp"`
	Level  int    `json:"level"`
	IsYou  bool   `json:"is_you,omitempty"`
}

// Leaderboard is the response for the leaderboard endpoint
type Leaderboard struct {
	Entries  []LeaderboardEntry `json:"entries"`
	UserRank int                `json:"user_rank"`
}

// LeaderboardFromModel converts a leaderboard, marking the entry with userID
func LeaderboardFromModel(lb *model.Leaderboard, userID model.UserID) Leaderboard {
	out := Leaderboard{
		Entries:  make([]LeaderboardEntry, 0, lb.Len()),
		UserRank: lb.RankOfID(string(userID)),
	}
	for _, e := range lb.Entries {
		out.Entries = append(out.Entries, LeaderboardEntry{
			Rank:   e.Rank,
			Name:   e.Name,
			Avatar: e.Avatar,
			XP:     e.XP,
			Level:  e.Level,
			IsYou:  e.ID == string(userID),
		})
	}
	return out
}

// Rank is the response for the rank query
type Rank struct {
	Name string `json:"name"`
	Rank int    `json:"rank"`
	Of   int    `json:"of"`
}

// Outcome is the response for a submitted result
type Outcome struct {
	XPAwarded int     `json:"xp_awarded"`
	LevelUp   bool    `json:"level_up"`
	NewLevel  int     `json:"new_level"`
	NewBadges []Badge `json:"new_badges"`
}

// OutcomeFromModel converts a progression.Outcome
func OutcomeFromModel(o progression.Outcome) Outcome {
	return Outcome{
		XPAwarded: o.XPAwarded,
		LevelUp:   o.LevelUp,
		NewLevel:  o.NewLevel,
		NewBadges: BadgesFromModel(o.NewBadges),
	}
}

// Badges is the response for the badge catalog
type Badges struct {
	Unlocked int     `json:"unlocked"`
	Total    int     `json:"total"`
	Badges   []Badge `json:"badges"`
}

// BadgesResponseFromProfile builds the badge catalog response
func BadgesResponseFromProfile(p *model.UserProfile) Badges {
	return Badges{
		Unlocked: p.UnlockedBadgeCount(),
		Total:    len(p.Badges),
		Badges:   BadgesFromModel(p.Badges),
	}
}

// GameAverage summarizes one game's rounds
type GameAverage struct {
	Game     string  `json:"game"`
	Plays    int     `json:"plays"`
	Score    float64 `json:"score"`
	Accuracy float64 `json:"accuracy"`
}

// Stats is the response for the stats endpoint
type Stats struct {
	Name           string        `json:"name"`
	Avatar         string        `json:"avatar"`
	XP             int           `json:"xp"`
	Level          int           `json:"level"`
	XPIntoLevel    int           `json:"xp_into_level"`
	XPToNextLevel  int           `json:"xp_to_next_level"`
	Streak         int           `json:"streak"`
	Accuracy       float64       `json:"accuracy"`
	Speed          float64       `json:"speed"`
	GamesPlayed    int           `json:"games_played"`
	RewardPoints   int           `json:"reward_points"`
	Rank           int           `json:"rank"`
	BadgesUnlocked int           `json:"badges_unlocked"`
	BadgesTotal    int           `json:"badges_total"`
	RecentScores   []GameResult  `json:"recent_scores"`
	Games          []GameAverage `json:"games"`
}

// StatsFromModel converts progression.Stats
func StatsFromModel(s *progression.Stats) Stats {
	games := make([]GameAverage, 0, len(s.Games))
	for _, g := range s.Games {
		games = append(games, GameAverage(g))
	}
	return Stats{
		Name:           s.Name,
		Avatar:         s.Avatar,
		XP:             s.XP,
		Level:          s.Level,
		XPIntoLevel:    s.XPIntoLevel,
		XPToNextLevel:  s.XPToNextLevel,
		Streak:         s.Streak,
		Accuracy:       s.Accuracy,
		Speed:          s.Speed,
		GamesPlayed:    s.GamesPlayed,
		RewardPoints:   s.RewardPoints,
		Rank:           s.Rank,
		BadgesUnlocked: s.BadgesUnlocked,
		BadgesTotal:    s.BadgesTotal,
		RecentScores:   GameResultsFromModel(s.RecentScores),
		Games:          games,
	}
}

// Notification is one drained outbox item
type Notification struct {
	Kind          string    `json:"kind"`
	PreviousLevel int       `json:"previous_level,omitempty"`
	Level         int       `json:"level,omitempty"`
	Badge         *Badge    `json:"badge,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Notifications is the response for draining the outbox
type Notifications struct {
	Notifications []Notification `json:"notifications"`
}

// NotificationsFromModel converts drained notifications
func NotificationsFromModel(ns []model.Notification) Notifications {
	out := Notifications{Notifications: make([]Notification, 0, len(ns))}
	for _, n := range ns {
		item := Notification{
			Kind:          string(n.Kind),
			PreviousLevel: n.PreviousLevel,
			Level:         n.Level,
			CreatedAt:     n.CreatedAt,
		}
		if n.Badge != nil {
			b := BadgeFromModel(*n.Badge)
			item.Badge = &b
		}
		out.Notifications = append(out.Notifications, item)
	}
	return out
}

// Health is the response for the health endpoint
type Health struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
}
