package memory

import (
	"context"
	"sync"

	"quiz-round/internal/domain"
)

// ResultStore is an in-process, append-only result store. Nothing survives
// the process; it backs tests and runs without a database.
type ResultStore struct {
	mu      sync.RWMutex
	entries []domain.LeaderboardEntry
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) Save(_ context.Context, result domain.SessionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, result.Entry())
	return nil
}

func (s *ResultStore) FetchRanked(_ context.Context) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	entries := make([]domain.LeaderboardEntry, len(s.entries))
	copy(entries, s.entries)
	s.mu.RUnlock()

	domain.RankEntries(entries)
	return entries, nil
}
