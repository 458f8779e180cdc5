package progression

import "github.com/mcoot/mindgym/internal/model"

// RecentScoreCount is how many of the latest results Stats reports
const RecentScoreCount = 20

// KnownGames lists the minigames in display order
var KnownGames = []string{
	"Memory Matrix",
	"Logic Loop",
	"Reaction Rush",
	"Tap Frenzy",
	"Precision Click",
	"Focus Flow",
}

// GameAverage summarizes every round of one game
type GameAverage struct {
	Game     string
	Plays    int
	Score    float64
	Accuracy float64
}

// Stats is the dashboard view of a profile
type Stats struct {
	Name           string
	Avatar         string
	XP             int
	Level          int
	XPIntoLevel    int
	XPToNextLevel  int
	Streak         int
	Accuracy       float64
	Speed          float64
	GamesPlayed    int
	RewardPoints   int
	Rank           int
	BadgesUnlocked int
	BadgesTotal    int
	RecentScores   []model.GameResult
	Games          []GameAverage
}

// BuildStats derives Stats from a profile and its leaderboard
func BuildStats(p *model.UserProfile, lb *model.Leaderboard) *Stats {
	recent := p.Scores
	if len(recent) > RecentScoreCount {
		recent = recent[len(recent)-RecentScoreCount:]
	}
	recentCopy := make([]model.GameResult, len(recent))
	copy(recentCopy, recent)

	return &Stats{
		Name:           p.Name,
		Avatar:         p.Avatar,
		XP:             p.XP,
		Level:          p.Level,
		XPIntoLevel:    model.XPIntoLevel(p.XP),
		XPToNextLevel:  model.XPToNextLevel(p.XP),
		Streak:         p.Streak,
		Accuracy:       p.TotalAccuracy,
		Speed:          p.TotalSpeed,
		GamesPlayed:    p.GamesPlayed,
		RewardPoints:   p.RewardPoints,
		Rank:           lb.RankOfID(string(p.ID)),
		BadgesUnlocked: p.UnlockedBadgeCount(),
		BadgesTotal:    len(p.Badges),
		RecentScores:   recentCopy,
		Games:          gameAverages(p.Scores),
	}
}

func gameAverages(scores []model.GameResult) []GameAverage {
	type sums struct {
		plays    int
		score    float64
		accuracy float64
	}
	byGame := make(map[string]*sums, len(KnownGames))
	for _, g := range KnownGames {
		byGame[g] = &sums{}
	}
	for _, r := range scores {
		if s, ok := byGame[r.Game]; ok {
			s.plays++
			s.score += float64(r.Score)
			s.accuracy += r.Accuracy
		}
	}

	averages := make([]GameAverage, 0, len(KnownGames))
	for _, g := range KnownGames {
		s := byGame[g]
		avg := GameAverage{Game: g, Plays: s.plays}
		if s.plays > 0 {
			avg.Score = model.Round1(s.score / float64(s.plays))
			avg.Accuracy = model.Round1(s.accuracy / float64(s.plays))
		}
		averages = append(averages, avg)
	}
	return averages
}
