package practice

import (
	"fmt"

	"dictee/internal/models"
)

// Snapshot is the serialisable state of a session
type Snapshot struct {
	DictationID string               `json:"dictation_id"`
	Index       int                  `json:"index"`
	Outcomes    []models.UnitOutcome `json:"outcomes"`
	Attempts    []models.Attempt     `json:"attempts"`
	Completed   bool                 `json:"completed"`
}

// Snapshot captures the session state
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		DictationID: s.dictation.ID,
		Index:       s.index,
		Outcomes:    s.Outcomes(),
		Attempts:    s.log.Attempts(),
		Completed:   s.completed,
	}
}

// RestoreSession rebuilds a session from a snapshot taken on d
func RestoreSession(d *models.Dictation, snap Snapshot, opts ...Option) (*Session, error) {
	s, err := NewSession(d, opts...)
	if err != nil {
		return nil, err
	}

	if snap.DictationID != "" && snap.DictationID != d.ID {
		return nil, fmt.Errorf("%w: taken on dictation %s", ErrInvalidSnapshot, snap.DictationID)
	}
	if snap.Index != len(snap.Outcomes) {
		return nil, fmt.Errorf("%w: index %d with %d outcomes", ErrInvalidSnapshot, snap.Index, len(snap.Outcomes))
	}
	if snap.Index > s.TotalUnits() {
		return nil, fmt.Errorf("%w: index %d beyond %d units", ErrInvalidSnapshot, snap.Index, s.TotalUnits())
	}
	if snap.Completed != (snap.Index == s.TotalUnits()) {
		return nil, fmt.Errorf("%w: completion flag disagrees with index", ErrInvalidSnapshot)
	}
	if snap.Completed && len(snap.Attempts) > 0 {
		return nil, fmt.Errorf("%w: attempts on a completed session", ErrInvalidSnapshot)
	}
	for i, a := range snap.Attempts {
		if a.IsCorrect {
			return nil, fmt.Errorf("%w: in-progress unit already solved", ErrInvalidSnapshot)
		}
		if a.Position != i+1 {
			return nil, fmt.Errorf("%w: attempt %d has position %d", ErrInvalidSnapshot, i+1, a.Position)
		}
	}

	s.index = snap.Index
	s.completed = snap.Completed
	s.outcomes = append([]models.UnitOutcome(nil), snap.Outcomes...)
	s.log.attempts = append([]models.Attempt(nil), snap.Attempts...)

	return s, nil
}
