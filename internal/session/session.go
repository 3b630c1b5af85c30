// Package session owns the lifecycle of quiz attempts: loading a pool, configuring,
// answering, submitting and retaking.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pavelanni/instantquiz/internal/model"
	"github.com/pavelanni/instantquiz/internal/scoring"
	"github.com/pavelanni/instantquiz/internal/shuffle"
)

var (
	// ErrWrongPhase is returned when an operation is not allowed in the current phase.
	ErrWrongPhase = errors.New("operation not allowed in current phase")
	// ErrAnswerKind is returned when an answer does not fit the question kind.
	ErrAnswerKind = errors.New("answer does not match question type")
	// ErrEmptyPool is returned when loading zero questions.
	ErrEmptyPool = errors.New("no questions to load")
)

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock and timer source.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithRand seeds exam derivation with a fixed random source.
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) { s.engine = shuffle.New(rng) }
}

// WithOnSubmit registers a callback invoked once per submitted attempt, from
// whichever goroutine performed the submission. It runs with the session locked,
// before the results are visible, and must not call back into the Session.
func WithOnSubmit(fn func(model.ResultsReport)) Option {
	return func(s *Session) { s.onSubmit = fn }
}

// Session is a single-user quiz session. It is safe for concurrent use; the exam
// timer fires on its own goroutine.
type Session struct {
	mu       sync.Mutex
	clock    Clock
	engine   *shuffle.Engine
	onSubmit func(model.ResultsReport)

	phase   model.Phase
	pool    []model.Question
	config  model.QuizConfig
	exam    []model.Question
	state   model.ExamState
	report  *model.ResultsReport
	timer   Timer
	attempt int // bumped on every start and reset; stale timer callbacks compare against it
}

// New creates a session in the ingestion phase.
func New(opts ...Option) *Session {
	s := &Session{
		clock: systemClock{},
		phase: model.PhaseIngestion,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = shuffle.New(nil)
	}
	return s
}

// Snapshot is a copy of the session state for presentation.
type Snapshot struct {
	Phase    model.Phase
	PoolSize int
	Config   model.QuizConfig
	Exam     []model.Question
	State    model.ExamState
}

// Current returns the question at the current index, if an exam is loaded.
func (snap Snapshot) Current() (model.Question, bool) {
	i := snap.State.CurrentIndex
	if i < 0 || i >= len(snap.Exam) {
		return model.Question{}, false
	}
	return snap.Exam[i], true
}

// LoadQuestions replaces the pool and moves to configuration with default settings.
// Any running exam is discarded.
func (s *Session) LoadQuestions(questions []model.Question) error {
	if len(questions) == 0 {
		return ErrEmptyPool
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.discardLocked()
	s.pool = make([]model.Question, len(questions))
	for i, q := range questions {
		s.pool[i] = q.Clone()
	}
	s.config = model.DefaultConfig(len(s.pool))
	s.setPhaseLocked(model.PhaseConfiguration)
	return nil
}

// Pool returns a copy of the loaded question pool.
func (s *Session) Pool() []model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Question, len(s.pool))
	for i, q := range s.pool {
		out[i] = q.Clone()
	}
	return out
}

// Phase returns the current phase.
func (s *Session) Phase() model.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Config returns the configuration of the current or most recent attempt.
func (s *Session) Config() model.QuizConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// StartQuiz validates cfg, derives the exam and starts the timer if enabled.
func (s *Session) StartQuiz(cfg model.QuizConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != model.PhaseConfiguration {
		return fmt.Errorf("start quiz in %s phase: %w", s.phase, ErrWrongPhase)
	}
	if err := cfg.Validate(len(s.pool)); err != nil {
		return err
	}
	exam, err := s.engine.DeriveExam(s.pool, cfg)
	if err != nil {
		return fmt.Errorf("derive exam: %w", err)
	}

	s.attempt++
	s.config = cfg
	s.exam = exam
	s.state = model.NewExamState(len(exam), s.clock.Now())
	s.report = nil
	if cfg.TimerEnabled {
		attempt := s.attempt
		s.timer = s.clock.AfterFunc(time.Duration(cfg.TimerMinutes)*time.Minute, func() {
			s.expire(attempt)
		})
	}
	s.setPhaseLocked(model.PhaseExam)
	return nil
}

// SetAnswer overwrites the answer slot at index i.
func (s *Session) SetAnswer(i int, a model.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireExamLocked("set answer"); err != nil {
		return err
	}
	q := s.questionLocked(i)
	if !a.Fits(q.Kind) {
		return fmt.Errorf("question %d is %s: %w", i+1, q.Kind, ErrAnswerKind)
	}
	switch {
	case a.IsEmpty():
		a = model.Answer{}
	case q.Kind == model.KindSingleChoice:
		a = model.ChoiceAnswer(a.Choice)
	case q.Kind == model.KindMultiSelect:
		a = model.ChoicesAnswer(a.Choices...)
	}
	if err := checkLetters(q, a); err != nil {
		return err
	}
	s.state = withAnswer(s.state, i, a)
	return nil
}

// ToggleOption selects a single-choice option or flips a multi-select option.
func (s *Session) ToggleOption(i int, letter string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireExamLocked("toggle option"); err != nil {
		return err
	}
	q := s.questionLocked(i)
	if !q.Kind.IsChoice() {
		return fmt.Errorf("question %d is %s: %w", i+1, q.Kind, ErrAnswerKind)
	}
	a := model.ChoiceAnswer(letter)
	if err := checkLetters(q, a); err != nil {
		return err
	}
	s.state = withToggledOption(s.state, i, q.Kind, a.Choice)
	return nil
}

// ToggleMarkForReview flips the review mark of question i.
func (s *Session) ToggleMarkForReview(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireExamLocked("mark for review"); err != nil {
		return err
	}
	s.questionLocked(i)
	s.state = withToggledMark(s.state, i)
	return nil
}

// GoToQuestion moves to question i. Recorded answers are kept.
func (s *Session) GoToQuestion(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireExamLocked("go to question"); err != nil {
		return err
	}
	s.questionLocked(i)
	s.state = withCurrent(s.state, i)
	return nil
}

// Next moves forward one question, stopping at the last.
func (s *Session) Next() error {
	return s.step(1)
}

// Previous moves back one question, stopping at the first.
func (s *Session) Previous() error {
	return s.step(-1)
}

func (s *Session) step(delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireExamLocked("navigate"); err != nil {
		return err
	}
	i := min(max(s.state.CurrentIndex+delta, 0), len(s.exam)-1)
	s.state = withCurrent(s.state, i)
	return nil
}

// SubmitQuiz scores the attempt and moves to analytics. It reports whether this call
// performed the submission; calls outside the exam phase are no-ops.
func (s *Session) SubmitQuiz() bool {
	s.mu.Lock()
	if s.phase != model.PhaseExam {
		s.mu.Unlock()
		return false
	}
	s.submitLocked()
	s.mu.Unlock()
	return true
}

// expire is the timer callback for one attempt.
func (s *Session) expire(attempt int) {
	s.mu.Lock()
	if attempt != s.attempt || s.phase != model.PhaseExam {
		s.mu.Unlock()
		return
	}
	slog.Info("exam time expired, submitting", "attempt", attempt)
	s.submitLocked()
	s.mu.Unlock()
}

// submitLocked grades the exam and hands the report to onSubmit before the
// analytics phase becomes observable.
func (s *Session) submitLocked() {
	s.stopTimerLocked()
	s.state.EndedAt = s.clock.Now()
	report := scoring.Score(s.exam, s.state, s.config, s.state.EndedAt)
	s.report = &report
	if s.onSubmit != nil {
		s.onSubmit(report)
	}
	s.setPhaseLocked(model.PhaseAnalytics)
}

// Reset discards everything and returns to ingestion.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.discardLocked()
	s.pool = nil
	s.config = model.QuizConfig{}
	s.setPhaseLocked(model.PhaseIngestion)
}

// RetakeQuiz returns to configuration with the same pool and settings.
// The next StartQuiz derives a fresh exam.
func (s *Session) RetakeQuiz() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != model.PhaseAnalytics {
		return fmt.Errorf("retake in %s phase: %w", s.phase, ErrWrongPhase)
	}
	s.discardLocked()
	s.setPhaseLocked(model.PhaseConfiguration)
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	exam := make([]model.Question, len(s.exam))
	for i, q := range s.exam {
		exam[i] = q.Clone()
	}
	return Snapshot{
		Phase:    s.phase,
		PoolSize: len(s.pool),
		Config:   s.config,
		Exam:     exam,
		State:    s.state.Clone(),
	}
}

// Results returns the report of the submitted attempt.
func (s *Session) Results() (model.ResultsReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return model.ResultsReport{}, false
	}
	return *s.report, true
}

// TimeRemaining returns the time left on a timed exam. ok is false when no timer runs.
func (s *Session) TimeRemaining() (remaining time.Duration, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != model.PhaseExam || !s.config.TimerEnabled {
		return 0, false
	}
	deadline := s.state.StartedAt.Add(time.Duration(s.config.TimerMinutes) * time.Minute)
	return max(deadline.Sub(s.clock.Now()), 0), true
}

func (s *Session) requireExamLocked(op string) error {
	if s.phase != model.PhaseExam {
		return fmt.Errorf("%s in %s phase: %w", op, s.phase, ErrWrongPhase)
	}
	return nil
}

// questionLocked returns exam question i and panics if i is out of range.
func (s *Session) questionLocked(i int) model.Question {
	if i < 0 || i >= len(s.exam) {
		panic(fmt.Sprintf("session: question index %d out of range [0, %d)", i, len(s.exam)))
	}
	return s.exam[i]
}

// discardLocked drops the current attempt and cancels its timer.
func (s *Session) discardLocked() {
	s.stopTimerLocked()
	s.attempt++
	s.exam = nil
	s.state = model.ExamState{}
	s.report = nil
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) setPhaseLocked(p model.Phase) {
	if s.phase != p {
		slog.Debug("session phase change", "from", s.phase, "to", p)
	}
	s.phase = p
}

// checkLetters rejects choice letters that address no option.
func checkLetters(q model.Question, a model.Answer) error {
	letters := a.Choices
	if a.Choice != "" {
		letters = []string{a.Choice}
	}
	for _, l := range letters {
		if idx := model.LetterIndex(l); idx < 0 || idx >= len(q.Options) {
			return fmt.Errorf("option %q not in question %s: %w", l, q.ID, ErrAnswerKind)
		}
	}
	return nil
}
