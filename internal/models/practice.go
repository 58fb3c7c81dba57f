package models

import "time"

// Attempt is one submission for the active unit
type Attempt struct {
	Text        string    `json:"text"`
	IsCorrect   bool      `json:"is_correct"`
	Position    int       `json:"position"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// UnitOutcome is the resolved result for one unit
type UnitOutcome struct {
	Expected string    `json:"expected"`
	Attempts []Attempt `json:"attempts"`
	Stars    int       `json:"stars"`
	Passed   bool      `json:"passed"`
}

// Summary aggregates the outcomes of a completed session
type Summary struct {
	TotalStars   int         `json:"total_stars"`
	MaxStars     int         `json:"max_stars"`
	Percentage   int         `json:"percentage"`
	CountByStars map[int]int `json:"count_by_stars"`
}

// PracticeResult is a completed session as kept in the results history
type PracticeResult struct {
	ID          int64     `json:"id"`
	DictationID string    `json:"dictation_id"`
	SessionID   string    `json:"session_id"`
	TotalUnits  int       `json:"total_units"`
	TotalStars  int       `json:"total_stars"`
	MaxStars    int       `json:"max_stars"`
	Percentage  int       `json:"percentage"`
	Stars3      int       `json:"stars_3"`
	Stars2      int       `json:"stars_2"`
	Stars1      int       `json:"stars_1"`
	Stars0      int       `json:"stars_0"`
	CompletedAt time.Time `json:"completed_at"`
}

// ResultFromSummary builds a history record for a completed session
func ResultFromSummary(dictationID, sessionID string, units int, s Summary, at time.Time) PracticeResult {
	return PracticeResult{
		DictationID: dictationID,
		SessionID:   sessionID,
		TotalUnits:  units,
		TotalStars:  s.TotalStars,
		MaxStars:    s.MaxStars,
		Percentage:  s.Percentage,
		Stars3:      s.CountByStars[3],
		Stars2:      s.CountByStars[2],
		Stars1:      s.CountByStars[1],
		Stars0:      s.CountByStars[0],
		CompletedAt: at,
	}
}
