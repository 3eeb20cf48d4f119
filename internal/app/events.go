package app

import "quiz-round/internal/domain"

// State is a quiz session's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoaded
	StateRunning
	StateAnswered
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoaded:
		return "loaded"
	case StateRunning:
		return "running"
	case StateAnswered:
		return "answered"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Finish reasons.
const (
	ReasonCompleted = "completed"
	ReasonExpired   = "expired"
)

// EventKind names what a session just did.
type EventKind string

const (
	EventLoaded   EventKind = "loaded"
	EventQuestion EventKind = "question"
	EventAnswered EventKind = "answered"
	EventTick     EventKind = "tick"
	EventFinished EventKind = "finished"
)

// Feedback describes the outcome of one accepted submission.
type Feedback struct {
	Selected       string `json:"selected"`
	SelectedOption int    `json:"selectedOption"` // -1 when the text matches no option
	Correct        bool   `json:"correct"`
	CorrectOption  int    `json:"correctOption"` // -1 for a free text answer matching no option
	CorrectText    string `json:"correctText"`
}

// Event is emitted to the presentation layer after every transition.
type Event struct {
	Kind      EventKind
	State     State
	Index     int
	Total     int
	Score     int
	Remaining int

	Question domain.Question      // EventQuestion
	Feedback Feedback             // EventAnswered
	Result   domain.SessionResult // EventFinished
	Reason   string               // EventFinished
	Err      error                // EventFinished, set when the result was not saved
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	State     State
	Username  string
	Index     int
	Total     int
	Score     int
	Remaining int
	Question  domain.Question
	Feedback  *Feedback
	Result    *domain.SessionResult
}
