package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case SessionResult:
		o.printSession(v)
	case Profile:
		o.printProfile(v)
	case Outcome:
		o.printOutcome(v)
	case Leaderboard:
		o.printLeaderboard(v)
	case RankResult:
		o.printRank(v)
	case Badges:
		o.printBadges(v)
	case Stats:
		o.printStats(v)
	case Notifications:
		o.printNotifications(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

// Badge response type (matches API)
type Badge struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

// GameResult response type
type GameResult struct {
	Game     string    `json:"game"`
	Score    int       `json:"score"`
	Accuracy float64   `json:"accuracy"`
	Speed    float64   `json:"speed"`
	Date     time.Time `json:"date"`
}

// Profile response type
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

// SessionResult combines the token and profile of a session
type SessionResult struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Profile      Profile   `json:"profile"`
}

// Outcome response type
type Outcome struct {
	XPAwarded int     `json:"xp_awarded"`
	LevelUp   bool    `json:"level_up"`
	NewLevel  int     `json:"new_level"`
	NewBadges []Badge `json:"new_badges"`
}

// LeaderboardEntry response type
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	XP     int    `json:"xp"`
	Level  int    `json:"level"`
	IsYou  bool   `json:"is_you,omitempty"`
}

// Leaderboard response type
type Leaderboard struct {
	Entries  []LeaderboardEntry `json:"entries"`
	UserRank int                `json:"user_rank"`
}

// RankResult response type
type RankResult struct {
	Name string `json:"name"`
	Rank int    `json:"rank"`
	Of   int    `json:"of"`
}

// Badges response type
type Badges struct {
	Unlocked int     `json:"unlocked"`
	Total    int     `json:"total"`
	Badges   []Badge `json:"badges"`
}

// GameAverage response type
type GameAverage struct {
	Game     string  `json:"game"`
	Plays    int     `json:"plays"`
	Score    float64 `json:"score"`
	Accuracy float64 `json:"accuracy"`
}

// Stats response type
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

// Notification response type
type Notification struct {
	Kind          string    `json:"kind"`
	PreviousLevel int       `json:"previous_level,omitempty"`
	Level         int       `json:"level,omitempty"`
	Badge         *Badge    `json:"badge,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Notifications response type
type Notifications struct {
	Notifications []Notification `json:"notifications"`
}

// HealthResult response type
type HealthResult struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
}

func (o *Output) printSession(s SessionResult) {
	o.printf("Logged in as %s (%s)\n", s.Profile.Name, s.Profile.Avatar)
	o.printf("Token: %s\n", s.SessionToken)
	o.printf("Expires: %s\n", s.ExpiresAt.Local().Format(time.RFC1123))
}

func (o *Output) printProfile(p Profile) {
	o.printf("%s (%s)\n", p.Name, p.Avatar)
	o.printf("Level %d, %d XP\n", p.Level, p.XP)
	o.printf("Streak: %d day(s)\n", p.Streak)
	o.printf("Games played: %d\n", p.GamesPlayed)
	o.printf("Accuracy: %.1f%%  Speed: %.1fs\n", p.TotalAccuracy, p.TotalSpeed)
	o.printf("Reward points: %d\n", p.RewardPoints)

	unlocked := 0
	for _, b := range p.Badges {
		if b.Unlocked {
			unlocked++
		}
	}
	o.printf("Badges: %d/%d\n", unlocked, len(p.Badges))
}

func (o *Output) printOutcome(r Outcome) {
	o.printf("+%d XP\n", r.XPAwarded)
	if r.LevelUp {
		o.printf("Level up! You are now level %d\n", r.NewLevel)
	} else {
		o.printf("Level %d\n", r.NewLevel)
	}
	for _, b := range r.NewBadges {
		o.printf("Badge unlocked: %s - %s\n", b.Name, b.Description)
	}
}

func (o *Output) printLeaderboard(l Leaderboard) {
	for _, e := range l.Entries {
		marker := "  "
		if e.IsYou {
			marker = "> "
		}
		o.printf("%s%3d. %-14s %-3s L%-3d %7d XP\n", marker, e.Rank, e.Name, e.Avatar, e.Level, e.XP)
	}
	o.printf("Your rank: %d\n", l.UserRank)
}

func (o *Output) printRank(r RankResult) {
	if r.Rank > r.Of {
		o.printf("%s is not ranked (%d players)\n", r.Name, r.Of)
		return
	}
	o.printf("%s is ranked %d of %d\n", r.Name, r.Rank, r.Of)
}

func (o *Output) printBadges(b Badges) {
	o.printf("Badges: %d/%d unlocked\n", b.Unlocked, b.Total)
	for _, badge := range b.Badges {
		check := "[ ]"
		if badge.Unlocked {
			check = "[x]"
		}
		o.printf("  %s %-14s %s\n", check, badge.Name, badge.Description)
	}
}

func (o *Output) printStats(s Stats) {
	o.printf("%s (%s) - rank %d\n", s.Name, s.Avatar, s.Rank)
	o.printf("Level %d: %d XP into level, %d to next\n", s.Level, s.XPIntoLevel, s.XPToNextLevel)
	o.printf("Streak: %d  Games: %d  Reward points: %d\n", s.Streak, s.GamesPlayed, s.RewardPoints)
	o.printf("Accuracy: %.1f%%  Speed: %.1fs\n", s.Accuracy, s.Speed)
	o.printf("Badges: %d/%d\n", s.BadgesUnlocked, s.BadgesTotal)

	if len(s.Games) > 0 {
		o.printf("\nPer game:\n")
		for _, g := range s.Games {
			if g.Plays == 0 {
				continue
			}
			o.printf("  %-16s %3d plays  avg score %.1f  avg accuracy %.1f%%\n", g.Game, g.Plays, g.Score, g.Accuracy)
		}
	}

	if len(s.RecentScores) > 0 {
		o.printf("\nRecent:\n")
		for _, r := range s.RecentScores {
			o.printf("  %s  %-16s %6d  %5.1f%%  %5.1fs\n", r.Date.Local().Format("2006-01-02 15:04"), r.Game, r.Score, r.Accuracy, r.Speed)
		}
	}
}

func (o *Output) printNotifications(n Notifications) {
	if len(n.Notifications) == 0 {
		o.printf("No new notifications\n")
		return
	}
	for _, note := range n.Notifications {
		o.printf("%s\n", describeNotification(note))
	}
}

func describeNotification(n Notification) string {
	switch {
	case n.Kind == "level_up":
		return fmt.Sprintf("Level up: %d -> %d", n.PreviousLevel, n.Level)
	case n.Kind == "badge_unlocked" && n.Badge != nil:
		return fmt.Sprintf("Badge unlocked: %s", n.Badge.Name)
	default:
		return strings.ReplaceAll(n.Kind, "_", " ")
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	o.printf("Status: %s\n", h.Status)
	o.printf("Active sessions: %d\n", h.ActiveSessions)
}
