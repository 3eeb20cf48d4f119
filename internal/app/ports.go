package app

import (
	"context"

	"quiz-round/internal/domain"
)

// ResultSink persists finished rounds. Saves are append-only.
type ResultSink interface {
	Save(ctx context.Context, result domain.SessionResult) error
}

// LeaderboardReader returns every saved result, best first.
type LeaderboardReader interface {
	FetchRanked(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

// ResultStore abstracts where results live (in-memory, Redis, Postgres).
type ResultStore interface {
	ResultSink
	LeaderboardReader
}

// QuestionLoader supplies the question list for a source (file path, set name).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, source string) ([]domain.Question, error)
}

// Timer is the round countdown the session drives. *timer.Round implements it.
type Timer interface {
	Start(seconds int, onTick func(remaining int), onExpire func())
	Stop()
	Remaining() int
}
