package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-round/internal/domain"
)

func TestResultStoreRanksByScoreThenDate(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore()
	t1 := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	for _, r := range []domain.SessionResult{
		{Username: "A", Score: 50, FinishedAt: t1},
		{Username: "B", Score: 70, FinishedAt: t2},
		{Username: "C", Score: 70, FinishedAt: t1},
	} {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	entries, err := store.FetchRanked(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	got := []string{entries[0].Username, entries[1].Username, entries[2].Username}
	want := []string{"C", "B", "A"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestResultStoreFetchReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore()
	_ = store.Save(ctx, domain.SessionResult{Username: "alice", Score: 2})

	entries, _ := store.FetchRanked(ctx)
	entries[0].Score = 99

	again, _ := store.FetchRanked(ctx)
	if again[0].Score != 2 {
		t.Fatalf("expected stored score untouched, got %d", again[0].Score)
	}
}

func TestStaticQuestionLoader(t *testing.T) {
	loader := NewStaticQuestionLoader(map[string][]domain.Question{DemoSet: SampleQuestions()})

	qs, err := loader.LoadQuestions(context.Background(), DemoSet)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(qs) != len(SampleQuestions()) {
		t.Fatalf("expected %d questions, got %d", len(SampleQuestions()), len(qs))
	}
	for _, q := range qs {
		if !q.IsCorrect(q.CorrectOptionText()) {
			t.Fatalf("sample question %q has no resolvable answer", q.Prompt())
		}
	}

	if _, err := loader.LoadQuestions(context.Background(), "missing"); !errors.Is(err, domain.ErrQuestionSetNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
