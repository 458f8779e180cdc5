package model

import "sort"

// LeaderboardEntry is one ranked row. Rank is derived on every update.
type LeaderboardEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	XP     int    `json:"xp"`
	Level  int    `json:"level"`
	Rank   int    `json:"rank"`
}

// Leaderboard holds entries sorted by XP descending
type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
}

var seedEntries = []LeaderboardEntry{
	{ID: "1", Name: "NeuralNinja", Avatar: "NN", XP: 12500, Level: 15},
	{ID: "2", Name: "BrainWave", Avatar: "BW", XP: 11200, Level: 14},
	{ID: "3", Name: "MindMeld", Avatar: "MM", XP: 9800, Level: 12},
	{ID: "4", Name: "ThinkTank", Avatar: "TT", XP: 8500, Level: 11},
	{ID: "5", Name: "CogniPro", Avatar: "CP", XP: 7200, Level: 9},
	{ID: "6", Name: "SynapStar", Avatar: "SS", XP: 6100, Level: 8},
	{ID: "7", Name: "LogicLion", Avatar: "LL", XP: 5400, Level: 7},
	{ID: "8", Name: "QuickMind", Avatar: "QM", XP: 4200, Level: 6},
	{ID: "9", Name: "FocusFox", Avatar: "FF", XP: 3100, Level: 4},
	{ID: "10", Name: "ZenBrain", Avatar: "ZB", XP: 2000, Level: 3},
}

// SeedLeaderboard returns the synthetic ten-entry leaderboard
func SeedLeaderboard() *Leaderboard {
	entries := make([]LeaderboardEntry, len(seedEntries))
	copy(entries, seedEntries)
	lb := &Leaderboard{Entries: entries}
	lb.Rerank()
	return lb
}

// Upsert replaces the entry with the same ID or appends it, then re-ranks
func (l *Leaderboard) Upsert(entry LeaderboardEntry) {
	replaced := false
	for i := range l.Entries {
		if l.Entries[i].ID == entry.ID {
			l.Entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		l.Entries = append(l.Entries, entry)
	}
	l.Rerank()
}

// Rerank stable-sorts by XP descending and assigns ranks 1..N by position
func (l *Leaderboard) Rerank() {
	sort.SliceStable(l.Entries, func(i, j int) bool {
		return l.Entries[i].XP > l.Entries[j].XP
	})
	for i := range l.Entries {
		l.Entries[i].Rank = i + 1
	}
}

// RankOf returns the rank of the first entry named name, or Len()+1 if absent
func (l *Leaderboard) RankOf(name string) int {
	for _, e := range l.Entries {
		if e.Name == name {
			return e.Rank
		}
	}
	return len(l.Entries) + 1
}

// RankOfID returns the rank of the entry with the given id, or Len()+1 if absent
func (l *Leaderboard) RankOfID(id string) int {
	for _, e := range l.Entries {
		if e.ID == id {
			return e.Rank
		}
	}
	return len(l.Entries) + 1
}

// Len returns the number of entries
func (l *Leaderboard) Len() int {
	return len(l.Entries)
}

// Clone returns a copy of the leaderboard
func (l *Leaderboard) Clone() *Leaderboard {
	entries := make([]LeaderboardEntry, len(l.Entries))
	copy(entries, l.Entries)
	return &Leaderboard{Entries: entries}
}

// EntryForProfile builds the leaderboard row for a profile
func EntryForProfile(p *UserProfile) LeaderboardEntry {
	return LeaderboardEntry{
		ID:     string(p.ID),
		Name:   p.Name,
		Avatar: p.Avatar,
		XP:     p.XP,
		Level:  LevelForXP(p.XP),
	}
}
