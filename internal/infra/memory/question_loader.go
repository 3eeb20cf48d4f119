package memory

import (
	"context"

	"quiz-round/internal/domain"
)

// StaticQuestionLoader serves question lists from a map (useful for tests/demos).
type StaticQuestionLoader struct {
	sets map[string][]domain.Question
}

func NewStaticQuestionLoader(sets map[string][]domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{sets: sets}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, source string) ([]domain.Question, error) {
	if qs, ok := l.sets[source]; ok {
		return append([]domain.Question(nil), qs...), nil
	}
	return nil, domain.ErrQuestionSetNotFound
}

// DemoSet is the name under which SampleQuestions are registered.
const DemoSet = "demo"

// SampleQuestions is a small built-in question list for trying the quiz
// without a question file.
func SampleQuestions() []domain.Question {
	return []domain.Question{
		domain.NewQuestion("What is 2 + 2?", []string{"3", "4", "5", "22"}, "B"),
		domain.NewQuestion("Which planet is known as the Red Planet?", []string{"Venus", "Jupiter", "Mars", "Mercury"}, "Mars"),
		domain.NewQuestion("What is the largest mammal?", []string{"Elephant", "Blue Whale", "Giraffe", "Orca"}, "b"),
		domain.NewQuestion("Which gas do plants absorb?", []string{"Oxygen", "Nitrogen", "Helium", "Carbon Dioxide"}, "D"),
		domain.NewQuestion("How many continents are there?", []string{"5", "6", "7", "8"}, "7"),
	}
}
