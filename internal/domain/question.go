package domain

import (
	"regexp"
	"strings"
)

// OptionCount is the fixed number of answer options per question.
const OptionCount = 4

var answerLetter = regexp.MustCompile(`(?i)^[A-D]$`)

// Question models one multiple-choice question with options A through D.
//
// The correct answer is kept exactly as supplied: either a letter A-D
// (case-insensitive) or free text expected to equal one option's text.
type Question struct {
	prompt  string
	options [OptionCount]string
	raw     string
	letter  int // option index when raw is a letter, -1 otherwise
}

// NewQuestion trims every field. Options beyond the fourth are ignored and
// missing ones become empty strings.
func NewQuestion(prompt string, options []string, correctAnswerRaw string) Question {
	q := Question{
		prompt: strings.TrimSpace(prompt),
		raw:    strings.TrimSpace(correctAnswerRaw),
		letter: -1,
	}
	for i := 0; i < OptionCount && i < len(options); i++ {
		q.options[i] = strings.TrimSpace(options[i])
	}
	if idx, ok := letterIndex(q.raw); ok {
		q.letter = idx
	}
	return q
}

func (q Question) Prompt() string { return q.prompt }

// Options returns the options in display order A, B, C, D.
func (q Question) Options() [OptionCount]string { return q.options }

func (q Question) CorrectAnswerRaw() string { return q.raw }

// NormalizedCorrectAnswer is the normalized option text when the raw answer
// is a letter, or the normalized raw text otherwise.
func (q Question) NormalizedCorrectAnswer() string {
	if q.letter >= 0 {
		return Normalize(q.options[q.letter])
	}
	return Normalize(q.raw)
}

// IsCorrect accepts an answer letter or option text.
func (q Question) IsCorrect(selected string) bool {
	if q.letter >= 0 {
		if idx, ok := letterIndex(strings.TrimSpace(selected)); ok {
			return idx == q.letter
		}
		return Normalize(selected) == Normalize(q.options[q.letter])
	}
	// Letter interpretation only applies to the raw answer field.
	return Normalize(selected) == Normalize(q.raw)
}

// CorrectOptionText returns the display text of the correct answer. A free
// text answer that matches an option yields that option's text as shown.
func (q Question) CorrectOptionText() string {
	if idx := q.CorrectOptionIndex(); idx >= 0 {
		return q.options[idx]
	}
	return q.raw
}

// CorrectOptionIndex returns the index of the correct option, or -1 when a
// free text answer matches none of the options.
func (q Question) CorrectOptionIndex() int {
	if q.letter >= 0 {
		return q.letter
	}
	return q.textIndex(q.raw)
}

// OptionIndex resolves a submission to the option it refers to, or -1.
func (q Question) OptionIndex(selected string) int {
	if idx, ok := letterIndex(strings.TrimSpace(selected)); ok {
		return idx
	}
	return q.textIndex(selected)
}

func (q Question) textIndex(text string) int {
	n := Normalize(text)
	for i, opt := range q.options {
		if Normalize(opt) == n {
			return i
		}
	}
	return -1
}

// Normalize trims, collapses whitespace runs to a single space and
// lowercases. All answer comparisons go through it.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// OptionLetter returns "A".."D" for an option index.
func OptionLetter(idx int) string {
	if idx < 0 || idx >= OptionCount {
		return ""
	}
	return string(rune('A' + idx))
}

func letterIndex(s string) (int, bool) {
	if !answerLetter.MatchString(s) {
		return -1, false
	}
	return int(strings.ToUpper(s)[0] - 'A'), true
}
