package domain

import (
	"sort"
	"time"
)

// SessionResult is the single score record produced when a round finishes.
type SessionResult struct {
	RoundID    string    `json:"roundId"`
	Username   string    `json:"username"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Entry converts the result into its persisted leaderboard form.
func (r SessionResult) Entry() LeaderboardEntry {
	return LeaderboardEntry{
		Username: r.Username,
		Score:    r.Score,
		QuizDate: r.FinishedAt,
	}
}

// LeaderboardEntry is a persisted result as read back for display.
type LeaderboardEntry struct {
	Username string    `json:"username"`
	Score    int       `json:"score"`
	QuizDate time.Time `json:"quizDate"`
}

// Leaderboard is the ranked snapshot pushed to feed subscribers.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// RankEntries orders entries by score descending, earlier quiz date first
// among equal scores. Entries equal on both keep their input order.
func RankEntries(entries []LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].QuizDate.Before(entries[j].QuizDate)
	})
}
