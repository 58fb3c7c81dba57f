package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"dictee/internal/audio"
	"dictee/internal/models"
	"dictee/internal/observe"
	"dictee/internal/practice"
	"dictee/internal/sessionstore"
)

const (
	lockStripes = 64
	// maxSaveAttempts bounds retries when another server saved the same
	// session first
	maxSaveAttempts = 5
)

// ResultRecorder keeps the history of completed sessions
type ResultRecorder interface {
	Record(ctx context.Context, result *models.PracticeResult) error
	ListByDictation(ctx context.Context, dictationID string, limit int) ([]models.PracticeResult, error)
}

// SpeechPlayer speaks units in the background, one channel per session
type SpeechPlayer interface {
	Speak(channel, text, lang string)
	Cancel(channel string)
}

// SessionView is what a learner sees of a session. The text of the active
// unit is never included.
type SessionView struct {
	SessionID    string               `json:"session_id"`
	DictationID  string               `json:"dictation_id"`
	Title        string               `json:"title"`
	Language     string               `json:"language"`
	Type         models.ContentType   `json:"type"`
	State        practice.State       `json:"state"`
	CurrentIndex int                  `json:"current_index"`
	TotalUnits   int                  `json:"total_units"`
	AttemptCount int                  `json:"attempt_count"`
	CanPass      bool                 `json:"can_pass"`
	Attempts     []models.Attempt     `json:"attempts"`
	Outcomes     []models.UnitOutcome `json:"outcomes"`
	Summary      *models.Summary      `json:"summary,omitempty"`
	StartedAt    time.Time            `json:"started_at"`
}

// AnswerResult reports the evaluation of one submission
type AnswerResult struct {
	Correct bool                `json:"correct"`
	Attempt models.Attempt      `json:"attempt"`
	Outcome *models.UnitOutcome `json:"outcome,omitempty"`
	Session SessionView         `json:"session"`
}

// PassResult reports a skipped unit with the answer revealed
type PassResult struct {
	Outcome models.UnitOutcome  `json:"outcome"`
	Diff    []practice.WordDiff `json:"diff"`
	Session SessionView         `json:"session"`
}

// PracticeService runs dictation sessions for learners
type PracticeService struct {
	dictations DictationStore
	sessions   sessionstore.Store
	results    ResultRecorder
	speaker    SpeechPlayer
	synth      audio.Synthesizer
	metrics    *observe.Metrics
	now        func() time.Time

	locks [lockStripes]sync.Mutex
}

// PracticeOption configures a PracticeService
type PracticeOption func(*PracticeService)

// WithSpeech enables spoken units. speaker prefetches in the background;
// synth serves audio on demand.
func WithSpeech(speaker SpeechPlayer, synth audio.Synthesizer) PracticeOption {
	return func(s *PracticeService) {
		s.speaker = speaker
		s.synth = synth
	}
}

// WithMetrics records session metrics
func WithMetrics(m *observe.Metrics) PracticeOption {
	return func(s *PracticeService) { s.metrics = m }
}

// WithPracticeClock overrides time.Now
func WithPracticeClock(now func() time.Time) PracticeOption {
	return func(s *PracticeService) { s.now = now }
}

// NewPracticeService creates a new practice service
func NewPracticeService(dictations DictationStore, sessions sessionstore.Store, results ResultRecorder, opts ...PracticeOption) *PracticeService {
	s := &PracticeService{
		dictations: dictations,
		sessions:   sessions,
		results:    results,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a session on a stored dictation
func (s *PracticeService) Start(ctx context.Context, dictationID string) (*SessionView, error) {
	d, err := s.dictations.Get(ctx, dictationID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("dictation %s: %w", dictationID, ErrNotFound)
	}
	return s.StartDictation(ctx, d)
}

// StartDictation opens a session on d, which need not be stored
func (s *PracticeService) StartDictation(ctx context.Context, d *models.Dictation) (*SessionView, error) {
	session, err := practice.NewSession(d, practice.WithClock(s.now))
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec := &sessionstore.Record{
		SessionID: uuid.NewString(),
		Dictation: *d,
		Snapshot:  session.Snapshot(),
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSessionStarted(ctx, d.Language)
	}
	s.speak(rec.SessionID, session)

	slog.Info("practice session started", "session_id", rec.SessionID, "dictation_id", d.ID, "units", session.TotalUnits())
	view := buildView(rec, session)
	return &view, nil
}

// View returns the current state of a session
func (s *PracticeService) View(ctx context.Context, sessionID string) (*SessionView, error) {
	rec, session, err := s.load(ctx, sessionID, nil)
	if err != nil {
		return nil, err
	}
	view := buildView(rec, session)
	return &view, nil
}

// Submit evaluates an answer for the active unit
func (s *PracticeService) Submit(ctx context.Context, sessionID, text string) (*AnswerResult, error) {
	var result *AnswerResult
	err := s.mutate(ctx, sessionID, func(rec *sessionstore.Record, session *practice.Session) error {
		submitted, err := session.SubmitAnswer(text)
		if err != nil {
			return err
		}
		result = &AnswerResult{
			Correct: submitted.Correct,
			Attempt: submitted.Attempt,
			Outcome: submitted.Outcome,
			Session: buildView(rec, session),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordAnswer(ctx, result.Correct)
	}
	return result, nil
}

// Pass skips the active unit once enough attempts were made
func (s *PracticeService) Pass(ctx context.Context, sessionID string) (*PassResult, error) {
	var result *PassResult
	err := s.mutate(ctx, sessionID, func(rec *sessionstore.Record, session *practice.Session) error {
		outcome, err := session.PassUnit()
		if err != nil {
			return err
		}

		var last string
		if n := len(outcome.Attempts); n > 0 {
			last = outcome.Attempts[n-1].Text
		}
		result = &PassResult{
			Outcome: outcome,
			Diff:    practice.CompareWords(last, outcome.Expected),
			Session: buildView(rec, session),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Restart discards all progress and returns to the first unit
func (s *PracticeService) Restart(ctx context.Context, sessionID string) (*SessionView, error) {
	var (
		view         SessionView
		wasCompleted bool
	)
	err := s.mutate(ctx, sessionID, func(rec *sessionstore.Record, session *practice.Session) error {
		wasCompleted = session.Completed()
		session.Restart()
		view = buildView(rec, session)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if wasCompleted && s.metrics != nil {
		s.metrics.RecordSessionStarted(ctx, view.Language)
	}
	return &view, nil
}

// Abandon deletes a session
func (s *PracticeService) Abandon(ctx context.Context, sessionID string) error {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	rec, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if s.speaker != nil {
		s.speaker.Cancel(sessionID)
	}
	if !rec.Snapshot.Completed && s.metrics != nil {
		s.metrics.RecordSessionEnded(ctx, rec.Dictation.Language)
	}
	slog.Info("practice session abandoned", "session_id", sessionID)
	return nil
}

// Audio returns the cached speech file for the active unit, synthesising it
// if the background prefetch has not finished
func (s *PracticeService) Audio(ctx context.Context, sessionID string) (string, error) {
	if s.synth == nil {
		return "", audio.ErrUnsupported
	}

	rec, session, err := s.load(ctx, sessionID, nil)
	if err != nil {
		return "", err
	}
	if session.Completed() {
		return "", practice.ErrSessionCompleted
	}

	start := time.Now()
	path, err := s.synth.GenerateAudioFile(ctx, session.CurrentUnit(), rec.Dictation.Language)
	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.RecordSpeech(ctx, time.Since(start).Seconds(), status)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// Results lists the completed sessions of a dictation, newest first
func (s *PracticeService) Results(ctx context.Context, dictationID string, limit int) ([]models.PracticeResult, error) {
	return s.results.ListByDictation(ctx, dictationID, limit)
}

// mutate loads a session, applies fn under the session lock, persists the
// new snapshot and reacts to the transitions fn caused. The lock only
// covers this process: when another server saved the session in between,
// the store reports a conflict and fn is applied again to the fresh record.
// fn must not have side effects beyond the session and its captured results.
func (s *PracticeService) mutate(ctx context.Context, sessionID string, fn func(*sessionstore.Record, *practice.Session) error) error {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	for attempt := 1; ; attempt++ {
		rec, session, transitions, err := s.apply(ctx, sessionID, fn)
		if err != nil {
			return err
		}

		err = s.sessions.Put(ctx, rec)
		if errors.Is(err, sessionstore.ErrConflict) && attempt < maxSaveAttempts {
			slog.Debug("session saved concurrently, retrying", "session_id", sessionID, "attempt", attempt)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		for _, t := range transitions {
			s.handleTransition(ctx, rec, session, t)
		}
		return nil
	}
}

// apply restores the session and runs fn on it, collecting transitions
func (s *PracticeService) apply(ctx context.Context, sessionID string, fn func(*sessionstore.Record, *practice.Session) error) (*sessionstore.Record, *practice.Session, []practice.Transition, error) {
	var transitions []practice.Transition
	rec, session, err := s.load(ctx, sessionID, func(t practice.Transition) {
		transitions = append(transitions, t)
	})
	if err != nil {
		return nil, nil, nil, err
	}

	if err := fn(rec, session); err != nil {
		return nil, nil, nil, err
	}

	rec.Snapshot = session.Snapshot()
	rec.UpdatedAt = s.now().UTC()
	return rec, session, transitions, nil
}

func (s *PracticeService) handleTransition(ctx context.Context, rec *sessionstore.Record, session *practice.Session, t practice.Transition) {
	switch t.Kind {
	case practice.TransitionAdvanced, practice.TransitionRestarted:
		if t.Outcome != nil && s.metrics != nil {
			s.metrics.RecordUnitResolved(ctx, t.Outcome.Stars, t.Outcome.Passed)
		}
		s.speak(rec.SessionID, session)

	case practice.TransitionCompleted:
		if s.speaker != nil {
			s.speaker.Cancel(rec.SessionID)
		}
		summary := session.Summary()
		if t.Outcome != nil && s.metrics != nil {
			s.metrics.RecordUnitResolved(ctx, t.Outcome.Stars, t.Outcome.Passed)
		}
		if s.metrics != nil {
			s.metrics.RecordSessionCompleted(ctx, rec.Dictation.Language, summary.Percentage)
		}

		result := models.ResultFromSummary(rec.Dictation.ID, rec.SessionID, session.TotalUnits(), summary, s.now().UTC())
		if err := s.results.Record(ctx, &result); err != nil {
			// The session itself is saved; only the history entry is lost
			slog.Error("failed to record practice result", "session_id", rec.SessionID, "error", err)
		}
		slog.Info("practice session completed",
			"session_id", rec.SessionID,
			"dictation_id", rec.Dictation.ID,
			"stars", summary.TotalStars,
			"max_stars", summary.MaxStars,
			"percentage", summary.Percentage)
	}
}

func (s *PracticeService) load(ctx context.Context, sessionID string, hook func(practice.Transition)) (*sessionstore.Record, *practice.Session, error) {
	rec, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	opts := []practice.Option{practice.WithClock(s.now)}
	if hook != nil {
		opts = append(opts, practice.WithTransitionHook(hook))
	}
	session, err := practice.RestoreSession(&rec.Dictation, rec.Snapshot, opts...)
	if err != nil {
		if errors.Is(err, practice.ErrInvalidSnapshot) {
			slog.Warn("discarding corrupt session", "session_id", sessionID, "error", err)
			_ = s.sessions.Delete(ctx, sessionID)
			return nil, nil, fmt.Errorf("%w: %w", ErrSessionNotFound, err)
		}
		return nil, nil, err
	}
	return rec, session, nil
}

// speak prefetches the active unit; speech never affects scoring
func (s *PracticeService) speak(sessionID string, session *practice.Session) {
	if s.speaker == nil || session.Completed() {
		return
	}
	s.speaker.Speak(sessionID, session.CurrentUnit(), session.Dictation().Language)
}

func (s *PracticeService) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()%lockStripes]
}

func buildView(rec *sessionstore.Record, session *practice.Session) SessionView {
	view := SessionView{
		SessionID:    rec.SessionID,
		DictationID:  rec.Dictation.ID,
		Title:        rec.Dictation.Title,
		Language:     rec.Dictation.Language,
		Type:         rec.Dictation.ContentTypeOrDefault(),
		State:        session.State(),
		CurrentIndex: session.CurrentIndex(),
		TotalUnits:   session.TotalUnits(),
		AttemptCount: session.AttemptCount(),
		CanPass:      session.CanPass(),
		Attempts:     session.Attempts(),
		Outcomes:     session.Outcomes(),
		StartedAt:    rec.StartedAt,
	}
	if session.Completed() {
		summary := session.Summary()
		view.Summary = &summary
	}
	return view
}
