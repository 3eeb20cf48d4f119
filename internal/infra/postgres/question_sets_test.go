package postgres

import (
	"testing"

	"quiz-round/internal/domain"
)

func TestQuestionSetRoundTripKeepsAnswerSemantics(t *testing.T) {
	in := []domain.Question{
		domain.NewQuestion("What is 2 + 2?", []string{"3", "4", "5", "6"}, "b"),
		domain.NewQuestion("Capital of France?", []string{"Berlin", "Madrid", "Paris"}, "Paris"),
	}

	data, err := encodeQuestions(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := decodeQuestions(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(out) != len(in) {
		t.Fatalf("expected %d questions, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("question %d changed: %+v vs %+v", i, out[i], in[i])
		}
	}
	if !out[0].IsCorrect("B") || !out[1].IsCorrect("paris") {
		t.Fatalf("answers no longer match after decode")
	}
	if out[1].Options()[3] != "" {
		t.Fatalf("expected padded fourth option")
	}
}

func TestDecodeQuestionsRejectsGarbage(t *testing.T) {
	if _, err := decodeQuestions([]byte(`{"not":"a list"}`)); err == nil {
		t.Fatalf("expected decode error")
	}
}
