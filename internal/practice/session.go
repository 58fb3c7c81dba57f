package practice

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"dictee/internal/models"
)

// PassThreshold is the number of failed attempts after which a unit may be passed
const PassThreshold = 3

// State is the coarse state of a session
type State string

const (
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// TransitionKind names what a state-changing operation did
type TransitionKind string

const (
	TransitionAttempted TransitionKind = "attempted"
	TransitionAdvanced  TransitionKind = "advanced"
	TransitionCompleted TransitionKind = "completed"
	TransitionRestarted TransitionKind = "restarted"
)

// Transition is reported to the hook after each state change
type Transition struct {
	Kind    TransitionKind
	Index   int
	Outcome *models.UnitOutcome
}

// SubmitResult describes the effect of one submitted answer
type SubmitResult struct {
	Attempt   models.Attempt
	Correct   bool
	Outcome   *models.UnitOutcome
	Completed bool
}

// Option configures a Session
type Option func(*Session)

// WithClock overrides the clock used to timestamp attempts
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithTransitionHook registers a callback run after every state change.
// Callers use it for side effects such as cancelling speech on advance.
func WithTransitionHook(hook func(Transition)) Option {
	return func(s *Session) {
		s.hook = hook
	}
}

// Session drives a learner through the units of a dictation.
// Invariants: index == len(outcomes); completed iff index == len(units).
type Session struct {
	dictation   *models.Dictation
	contentType models.ContentType
	index       int
	log         *AttemptLog
	outcomes    []models.UnitOutcome
	completed   bool
	now         func() time.Time
	hook        func(Transition)
}

// NewSession starts a session on the first unit of d
func NewSession(d *models.Dictation, opts ...Option) (*Session, error) {
	if err := checkDictation(d); err != nil {
		return nil, err
	}

	s := &Session{
		dictation:   d,
		contentType: d.ContentTypeOrDefault(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = NewAttemptLog(s.now)

	return s, nil
}

func checkDictation(d *models.Dictation) error {
	if d == nil {
		return fmt.Errorf("%w: no dictation", ErrInvalidDictation)
	}
	if len(d.Sentences) == 0 {
		return fmt.Errorf("%w: no units", ErrInvalidDictation)
	}
	if len(d.Sentences) > models.MaxUnits {
		return fmt.Errorf("%w: %d units, at most %d allowed", ErrInvalidDictation, len(d.Sentences), models.MaxUnits)
	}
	for i, unit := range d.Sentences {
		if strings.TrimSpace(unit) == "" {
			return fmt.Errorf("%w: unit %d is blank", ErrInvalidDictation, i+1)
		}
		if utf8.RuneCountInString(unit) > models.MaxUnitLength {
			return fmt.Errorf("%w: unit %d exceeds %d characters", ErrInvalidDictation, i+1, models.MaxUnitLength)
		}
	}
	return nil
}

// Dictation returns the dictation being played
func (s *Session) Dictation() *models.Dictation {
	return s.dictation
}

// State returns whether the session is in progress or completed
func (s *Session) State() State {
	if s.completed {
		return StateCompleted
	}
	return StateInProgress
}

// Completed reports whether every unit has been resolved
func (s *Session) Completed() bool {
	return s.completed
}

// CurrentIndex returns the 0-based index of the active unit
func (s *Session) CurrentIndex() int {
	return s.index
}

// TotalUnits returns the number of units in the dictation
func (s *Session) TotalUnits() int {
	return len(s.dictation.Sentences)
}

// CurrentUnit returns the expected text of the active unit, or "" when completed
func (s *Session) CurrentUnit() string {
	if s.completed {
		return ""
	}
	return s.dictation.Sentences[s.index]
}

// AttemptCount returns the attempts made on the active unit
func (s *Session) AttemptCount() int {
	return s.log.Count()
}

// Attempts returns the attempts made on the active unit
func (s *Session) Attempts() []models.Attempt {
	return s.log.Attempts()
}

// CanPass reports whether the active unit may be passed
func (s *Session) CanPass() bool {
	return !s.completed && s.log.Count() >= PassThreshold
}

// Outcomes returns a copy of the resolved unit outcomes
func (s *Session) Outcomes() []models.UnitOutcome {
	out := make([]models.UnitOutcome, len(s.outcomes))
	copy(out, s.outcomes)
	return out
}

// Summary aggregates the outcomes resolved so far
func (s *Session) Summary() models.Summary {
	return Summarize(s.outcomes)
}

// SubmitAnswer evaluates text against the active unit. A correct answer
// resolves the unit and advances; a wrong one stays on the unit.
func (s *Session) SubmitAnswer(text string) (SubmitResult, error) {
	if s.completed {
		return SubmitResult{}, ErrSessionCompleted
	}
	if strings.TrimSpace(text) == "" {
		return SubmitResult{}, ErrEmptyInput
	}

	correct := IsCorrect(text, s.dictation.Sentences[s.index], s.contentType)
	attempt, err := s.log.Record(text, correct)
	if err != nil {
		return SubmitResult{}, err
	}

	result := SubmitResult{Attempt: attempt, Correct: correct}
	if !correct {
		s.notify(Transition{Kind: TransitionAttempted, Index: s.index})
		return result, nil
	}

	outcome := s.resolve(StarsFor(s.log.Count()), false)
	result.Outcome = &outcome
	result.Completed = s.completed
	return result, nil
}

// PassUnit gives up on the active unit after PassThreshold attempts,
// awarding no stars, and advances.
func (s *Session) PassUnit() (models.UnitOutcome, error) {
	if s.completed {
		return models.UnitOutcome{}, ErrSessionCompleted
	}
	if count := s.log.Count(); count < PassThreshold {
		return models.UnitOutcome{}, fmt.Errorf("%w: %d of %d attempts made", ErrPassNotAllowed, count, PassThreshold)
	}

	return s.resolve(0, true), nil
}

// Restart discards every outcome and returns to the first unit
func (s *Session) Restart() {
	s.index = 0
	s.outcomes = nil
	s.completed = false
	s.log.Reset()
	s.notify(Transition{Kind: TransitionRestarted, Index: 0})
}

func (s *Session) resolve(stars int, passed bool) models.UnitOutcome {
	outcome := models.UnitOutcome{
		Expected: s.dictation.Sentences[s.index],
		Attempts: s.log.Attempts(),
		Stars:    stars,
		Passed:   passed,
	}
	s.outcomes = append(s.outcomes, outcome)
	s.index++
	s.log.Reset()

	kind := TransitionAdvanced
	if s.index == len(s.dictation.Sentences) {
		s.completed = true
		kind = TransitionCompleted
	}
	s.notify(Transition{Kind: kind, Index: s.index, Outcome: &outcome})

	return outcome
}

func (s *Session) notify(t Transition) {
	if s.hook != nil {
		s.hook(t)
	}
}
