package model

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// XPPerLevel is the flat amount of XP separating consecutive levels
const XPPerLevel = 500

// DefaultPlayerName and DefaultAvatar are used for a fresh profile
const (
	DefaultPlayerName = "Player"
	DefaultAvatar     = "PL"
)

// UserID is the stable synthetic identifier of a player.
// It is the leaderboard join key, so renaming never duplicates an entry.
type UserID string

// GameResult is the record a minigame produces when a round completes.
// Immutable once appended to a profile's score history.
type GameResult struct {
	Game     string    `json:"game"`
	Score    int       `json:"score"`
	Accuracy float64   `json:"accuracy"` // percent, 0-100
	Speed    float64   `json:"speed"`    // seconds
	Date     time.Time `json:"date"`
}

// UserProfile is the single authoritative progression record of a session
type UserProfile struct {
	ID             UserID       `json:"id"`
	Name           string       `json:"name"`
	Avatar         string       `json:"avatar"`
	XP             int          `json:"xp"`
	Level          int          `json:"level"`
	Streak         int          `json:"streak"`
	GamesPlayed    int          `json:"gamesPlayed"`
	TotalAccuracy  float64      `json:"totalAccuracy"`
	TotalSpeed     float64      `json:"totalSpeed"`
	RewardPoints   int          `json:"rewardPoints"`
	Scores         []GameResult `json:"scores"`
	Badges         []Badge      `json:"badges"`
	LastPlayedDate string       `json:"lastPlayedDate"`

	// Aggregates over Scores, maintained on append
	BestAccuracy float64 `json:"bestAccuracy"`
	FastestSpeed float64 `json:"fastestSpeed"`
	HasFastest   bool    `json:"hasFastest"`
}

// NewUserProfile returns a profile with default values and a locked badge catalog
func NewUserProfile() *UserProfile {
	return &UserProfile{
		Name:   DefaultPlayerName,
		Avatar: DefaultAvatar,
		Level:  1,
		Scores: []GameResult{},
		Badges: DefaultBadges(),
	}
}

// LevelForXP returns floor(xp / XPPerLevel) + 1
func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	return xp/XPPerLevel + 1
}

// XPIntoLevel returns how much XP has been earned within the current level
func XPIntoLevel(xp int) int {
	if xp < 0 {
		return 0
	}
	return xp % XPPerLevel
}

// XPToNextLevel returns the XP still needed to reach the next level
func XPToNextLevel(xp int) int {
	return XPPerLevel - XPIntoLevel(xp)
}

// AvatarFromName derives uppercase initials from up to two space-separated
// tokens of name. Falls back to DefaultAvatar when name has no tokens.
func AvatarFromName(name string) string {
	var initials []rune
	for _, token := range strings.Fields(name) {
		for _, r := range token {
			initials = append(initials, unicode.ToUpper(r))
			break
		}
		if len(initials) == 2 {
			break
		}
	}
	if len(initials) == 0 {
		return DefaultAvatar
	}
	return string(initials)
}

// Round1 rounds to one decimal place
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// AppendScore appends a result to the history and folds it into the aggregates
func (p *UserProfile) AppendScore(r GameResult) {
	p.Scores = append(p.Scores, r)
	if r.Accuracy > p.BestAccuracy {
		p.BestAccuracy = r.Accuracy
	}
	if !p.HasFastest || r.Speed < p.FastestSpeed {
		p.FastestSpeed = r.Speed
		p.HasFastest = true
	}
}

// RebuildAggregates recomputes the score aggregates from the full history.
// Used when a profile is restored from storage.
func (p *UserProfile) RebuildAggregates() {
	p.BestAccuracy = 0
	p.FastestSpeed = 0
	p.HasFastest = false
	for _, r := range p.Scores {
		if r.Accuracy > p.BestAccuracy {
			p.BestAccuracy = r.Accuracy
		}
		if !p.HasFastest || r.Speed < p.FastestSpeed {
			p.FastestSpeed = r.Speed
			p.HasFastest = true
		}
	}
}

// Badge returns the badge with the given id, or nil
func (p *UserProfile) Badge(id BadgeID) *Badge {
	for i := range p.Badges {
		if p.Badges[i].ID == id {
			return &p.Badges[i]
		}
	}
	return nil
}

// UnlockedBadgeCount returns how many badges are unlocked
func (p *UserProfile) UnlockedBadgeCount() int {
	n := 0
	for _, b := range p.Badges {
		if b.Unlocked {
			n++
		}
	}
	return n
}

// Clone returns a deep copy safe to hand to readers
func (p *UserProfile) Clone() *UserProfile {
	c := *p
	c.Scores = make([]GameResult, len(p.Scores))
	copy(c.Scores, p.Scores)
	c.Badges = make([]Badge, len(p.Badges))
	for i, b := range p.Badges {
		c.Badges[i] = b.clone()
	}
	return &c
}

// Normalize repairs a decoded profile so invariants hold: level is derived
// from xp, the badge catalog is complete, and aggregates match the history.
func (p *UserProfile) Normalize() {
	if p.XP < 0 {
		p.XP = 0
	}
	p.Level = LevelForXP(p.XP)
	if p.Scores == nil {
		p.Scores = []GameResult{}
	}
	p.Badges = mergeBadges(p.Badges)
	if strings.TrimSpace(p.Avatar) == "" {
		p.Avatar = AvatarFromName(p.Name)
	}
	p.RebuildAggregates()
}
