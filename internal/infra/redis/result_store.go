package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quiz-round/internal/domain"
)

// ResultStore appends results to a Redis list and ranks them on read.
// Results are stored as: RPUSH {prefix}:results {json entry}
type ResultStore struct {
	client *redis.Client
	prefix string
}

func NewResultStore(client *redis.Client, prefix string) *ResultStore {
	if prefix == "" {
		prefix = "quiz"
	}
	return &ResultStore{client: client, prefix: prefix}
}

func (s *ResultStore) Save(ctx context.Context, result domain.SessionResult) error {
	data, err := json.Marshal(result.Entry())
	if err != nil {
		return domain.NewStorageError("save result", err)
	}
	if err := s.client.RPush(ctx, s.key(), data).Err(); err != nil {
		return domain.NewStorageError("save result", err)
	}
	return nil
}

func (s *ResultStore) FetchRanked(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	raw, err := s.client.LRange(ctx, s.key(), 0, -1).Result()
	if err != nil {
		return nil, domain.NewStorageError("fetch ranked", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(raw))
	for i, item := range raw {
		var e domain.LeaderboardEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, domain.NewStorageError("fetch ranked", fmt.Errorf("decode entry %d: %w", i, err))
		}
		entries = append(entries, e)
	}
	domain.RankEntries(entries)
	return entries, nil
}

func (s *ResultStore) key() string {
	return s.prefix + ":results"
}
