package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-round/internal/domain"
)

// ResultStore appends session results to the results table.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) Save(ctx context.Context, result domain.SessionResult) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO results (username, score, quiz_date) VALUES ($1, $2, $3)`,
		result.Username, result.Score, result.FinishedAt.UTC())
	if err != nil {
		return domain.NewStorageError("save result", err)
	}
	return nil
}

func (s *ResultStore) FetchRanked(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT username, score, quiz_date FROM results ORDER BY score DESC, quiz_date ASC, id ASC`)
	if err != nil {
		return nil, domain.NewStorageError("fetch ranked", err)
	}
	defer rows.Close()

	entries := []domain.LeaderboardEntry{}
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Score, &e.QuizDate); err != nil {
			return nil, domain.NewStorageError("fetch ranked", fmt.Errorf("scan result: %w", err))
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("fetch ranked", err)
	}
	return entries, nil
}
