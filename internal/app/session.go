package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quiz-round/internal/domain"
	"quiz-round/internal/metrics"
)

const (
	// DefaultRoundSeconds bounds one pass through the questions.
	DefaultRoundSeconds = 60
	defaultSaveTimeout  = 5 * time.Second
)

// Option configures a Session.
type Option func(*Session)

// WithRoundSeconds overrides the round duration. Non-positive values keep the default.
func WithRoundSeconds(seconds int) Option {
	return func(s *Session) {
		if seconds > 0 {
			s.roundSeconds = seconds
		}
	}
}

// WithSaveTimeout bounds the result save issued on timer expiry.
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.saveTimeout = d
		}
	}
}

// WithClock allows deterministic timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithObserver receives every event the session emits.
func WithObserver(fn func(Event)) Option {
	return func(s *Session) { s.observe = fn }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) { s.logger = logger.With().Str("component", "session").Logger() }
}

func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Session) { s.metrics = rec }
}

// WithDispatcher routes timer callbacks through fn instead of running them
// on the timer goroutine. Runner uses it to serialize them with UI calls.
func WithDispatcher(fn func(func())) Option {
	return func(s *Session) { s.dispatch = fn }
}

// Session is the quiz state machine for one player. It is not safe for
// concurrent use; Runner serializes access when a real timer is involved.
type Session struct {
	timer        Timer
	sink         ResultSink
	roundSeconds int
	saveTimeout  time.Duration
	now          func() time.Time
	observe      func(Event)
	dispatch     func(func())
	logger       zerolog.Logger
	metrics      *metrics.Recorder

	questions []domain.Question
	index     int
	score     int
	state     State
	username  string
	round     uint64
	roundID   string
	feedback  *Feedback
	result    *domain.SessionResult
	saveErr   error
}

// NewSession builds an idle session. sink may be nil, in which case results
// are only emitted as events.
func NewSession(timer Timer, sink ResultSink, opts ...Option) *Session {
	s := &Session{
		timer:        timer,
		sink:         sink,
		roundSeconds: DefaultRoundSeconds,
		saveTimeout:  defaultSaveTimeout,
		now:          time.Now,
		dispatch:     func(fn func()) { fn() },
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the question list and resets progress. A round in flight is
// abandoned: its timer stops and no result is recorded.
func (s *Session) Load(questions []domain.Question) {
	if s.state == StateRunning || s.state == StateAnswered {
		s.timer.Stop()
		s.logger.Info().Str("round", s.roundID).Msg("round abandoned by reload")
	}
	s.round++
	s.questions = append([]domain.Question(nil), questions...)
	s.index = 0
	s.score = 0
	s.feedback = nil
	s.result = nil
	s.saveErr = nil
	s.state = StateLoaded
	s.emit(Event{Kind: EventLoaded})
}

// Start begins a round from Loaded, or restarts one from Finished. It
// rejects an empty username or question list without changing state, and
// ignores calls while a round is in progress.
func (s *Session) Start(username string) error {
	switch s.state {
	case StateRunning, StateAnswered:
		return nil
	case StateIdle:
		return domain.ErrNoQuestions
	}
	if len(s.questions) == 0 {
		return domain.ErrNoQuestions
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.ErrUsernameRequired
	}

	s.round++
	s.roundID = uuid.NewString()
	s.username = username
	s.index = 0
	s.score = 0
	s.feedback = nil
	s.result = nil
	s.saveErr = nil
	s.state = StateRunning

	round := s.round
	s.timer.Start(s.roundSeconds,
		func(remaining int) { s.dispatch(func() { s.tick(round, remaining) }) },
		func() { s.dispatch(func() { s.expire(round) }) },
	)
	s.metrics.RoundStarted()
	s.logger.Info().
		Str("round", s.roundID).
		Str("username", username).
		Int("questions", len(s.questions)).
		Int("seconds", s.roundSeconds).
		Msg("round started")
	s.emitQuestion()
	return nil
}

// SubmitAnswer scores the current question. Only the first submission per
// question counts; ok is false when the call was ignored.
func (s *Session) SubmitAnswer(text string) (fb Feedback, ok bool) {
	if s.state != StateRunning {
		return Feedback{}, false
	}
	q := s.questions[s.index]
	fb = Feedback{
		Selected:       strings.TrimSpace(text),
		SelectedOption: q.OptionIndex(text),
		Correct:        q.IsCorrect(text),
		CorrectOption:  q.CorrectOptionIndex(),
		CorrectText:    q.CorrectOptionText(),
	}
	if fb.Correct {
		s.score++
	}
	s.feedback = &fb
	s.state = StateAnswered
	s.metrics.Answer(fb.Correct)
	s.emit(Event{Kind: EventAnswered, Feedback: fb})
	return fb, true
}

// Advance moves past an answered question, finishing the round after the
// last one. The returned error is a *domain.StorageError when the result
// could not be saved; the round is finished regardless.
func (s *Session) Advance(ctx context.Context) error {
	if s.state != StateAnswered {
		return nil
	}
	s.index++
	s.feedback = nil
	if s.index >= len(s.questions) {
		return s.finish(ctx, ReasonCompleted)
	}
	s.state = StateRunning
	s.emitQuestion()
	return nil
}

// Expire ends the current round as if its timer ran out. It only acts while
// a round is Running or Answered; in Loaded no countdown has started, so an
// expiry there is ignored and the session stays Loaded.
func (s *Session) Expire(ctx context.Context) error {
	if s.state != StateRunning && s.state != StateAnswered {
		return nil
	}
	return s.finish(ctx, ReasonExpired)
}

func (s *Session) expire(round uint64) {
	if round != s.round {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()
	_ = s.Expire(ctx)
}

func (s *Session) tick(round uint64, remaining int) {
	if round != s.round || (s.state != StateRunning && s.state != StateAnswered) {
		return
	}
	s.emit(Event{Kind: EventTick, Remaining: remaining})
}

func (s *Session) finish(ctx context.Context, reason string) error {
	s.timer.Stop()
	s.state = StateFinished
	result := domain.SessionResult{
		RoundID:    s.roundID,
		Username:   s.username,
		Score:      s.score,
		Total:      len(s.questions),
		FinishedAt: s.now(),
	}
	s.result = &result
	s.metrics.RoundFinished(reason)
	s.logger.Info().
		Str("round", result.RoundID).
		Str("username", result.Username).
		Int("score", result.Score).
		Int("total", result.Total).
		Str("reason", reason).
		Msg("round finished")

	if s.sink != nil {
		if err := s.sink.Save(ctx, result); err != nil {
			s.saveErr = domain.NewStorageError("save result", err)
			s.metrics.SaveFailed()
			s.logger.Error().Err(err).Str("round", result.RoundID).Msg("result not saved")
		}
	}
	s.emit(Event{Kind: EventFinished, Result: result, Reason: reason, Err: s.saveErr})
	return s.saveErr
}

func (s *Session) emitQuestion() {
	s.emit(Event{Kind: EventQuestion, Question: s.questions[s.index]})
}

func (s *Session) emit(ev Event) {
	if s.observe == nil {
		return
	}
	ev.State = s.state
	ev.Index = s.index
	ev.Total = len(s.questions)
	ev.Score = s.score
	if ev.Kind != EventTick {
		ev.Remaining = s.timer.Remaining()
	}
	s.observe(ev)
}

func (s *Session) State() State { return s.state }

func (s *Session) Username() string { return s.username }

func (s *Session) CurrentIndex() int { return s.index }

func (s *Session) Score() int { return s.score }

// FinalScore is the score of the last finished round.
func (s *Session) FinalScore() int {
	if s.result == nil {
		return 0
	}
	return s.result.Score
}

func (s *Session) TotalQuestions() int { return len(s.questions) }

// Result returns the last finished round's result.
func (s *Session) Result() (domain.SessionResult, bool) {
	if s.result == nil {
		return domain.SessionResult{}, false
	}
	return *s.result, true
}

// SaveErr reports whether the last result failed to persist.
func (s *Session) SaveErr() error { return s.saveErr }

// CurrentQuestion returns the question on display while a round is active.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	if s.state != StateRunning && s.state != StateAnswered {
		return domain.Question{}, false
	}
	return s.questions[s.index], true
}

// Snapshot copies the externally visible state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:     s.state,
		Username:  s.username,
		Index:     s.index,
		Total:     len(s.questions),
		Score:     s.score,
		Remaining: s.timer.Remaining(),
	}
	if q, ok := s.CurrentQuestion(); ok {
		snap.Question = q
	}
	if s.feedback != nil {
		fb := *s.feedback
		snap.Feedback = &fb
	}
	if s.result != nil {
		res := *s.result
		snap.Result = &res
	}
	return snap
}

// close stops any running countdown; the session is unusable afterwards.
func (s *Session) close() {
	s.round++
	s.timer.Stop()
}
