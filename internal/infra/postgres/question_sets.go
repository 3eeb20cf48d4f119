package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-round/internal/domain"
)

// questionRow is the JSONB shape of one stored question.
type questionRow struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  string   `json:"answer"`
}

// QuestionSetStore keeps named question lists as JSONB documents.
type QuestionSetStore struct {
	pool *pgxpool.Pool
}

func NewQuestionSetStore(pool *pgxpool.Pool) *QuestionSetStore {
	return &QuestionSetStore{pool: pool}
}

// LoadQuestions returns the set called name.
func (s *QuestionSetStore) LoadQuestions(ctx context.Context, name string) ([]domain.Question, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM question_sets WHERE name=$1`, name).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load question set %q: %w", name, domain.ErrQuestionSetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load question set: %w", err)
	}
	return decodeQuestions(raw)
}

// SaveSet stores questions under name, replacing any previous set.
func (s *QuestionSetStore) SaveSet(ctx context.Context, name string, questions []domain.Question) error {
	data, err := encodeQuestions(questions)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO question_sets (name, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		name, string(data))
	if err != nil {
		return fmt.Errorf("save question set: %w", err)
	}
	return nil
}

func encodeQuestions(questions []domain.Question) ([]byte, error) {
	rows := make([]questionRow, 0, len(questions))
	for _, q := range questions {
		opts := q.Options()
		rows = append(rows, questionRow{
			Prompt:  q.Prompt(),
			Options: opts[:],
			Answer:  q.CorrectAnswerRaw(),
		})
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal question set: %w", err)
	}
	return data, nil
}

func decodeQuestions(raw []byte) ([]domain.Question, error) {
	var rows []questionRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal question set: %w", err)
	}
	questions := make([]domain.Question, 0, len(rows))
	for _, r := range rows {
		questions = append(questions, domain.NewQuestion(r.Prompt, r.Options, r.Answer))
	}
	return questions, nil
}
