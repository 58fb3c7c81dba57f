package practice

import (
	"time"

	"dictee/internal/models"
)

// AttemptLog is the ordered, append-only record of attempts for one unit
type AttemptLog struct {
	attempts []models.Attempt
	now      func() time.Time
}

// NewAttemptLog creates an empty log. A nil clock defaults to time.Now.
func NewAttemptLog(now func() time.Time) *AttemptLog {
	if now == nil {
		now = time.Now
	}
	return &AttemptLog{now: now}
}

// Record appends an attempt with the next position
func (l *AttemptLog) Record(text string, correct bool) (models.Attempt, error) {
	if l.HasSucceeded() {
		return models.Attempt{}, ErrAlreadyResolved
	}

	attempt := models.Attempt{
		Text:        text,
		IsCorrect:   correct,
		Position:    len(l.attempts) + 1,
		AttemptedAt: l.now(),
	}
	l.attempts = append(l.attempts, attempt)
	return attempt, nil
}

// Count returns the number of recorded attempts
func (l *AttemptLog) Count() int {
	return len(l.attempts)
}

// HasSucceeded reports whether any attempt was correct
func (l *AttemptLog) HasSucceeded() bool {
	for _, a := range l.attempts {
		if a.IsCorrect {
			return true
		}
	}
	return false
}

// Attempts returns a copy of the recorded attempts
func (l *AttemptLog) Attempts() []models.Attempt {
	out := make([]models.Attempt, len(l.attempts))
	copy(out, l.attempts)
	return out
}

// Reset clears the log
func (l *AttemptLog) Reset() {
	l.attempts = nil
}
