package practice

import "errors"

var (
	// ErrEmptyInput is returned when a blank answer is submitted
	ErrEmptyInput = errors.New("empty input")
	// ErrAlreadyResolved is returned when an attempt is recorded on a solved unit
	ErrAlreadyResolved = errors.New("unit already resolved")
	// ErrPassNotAllowed is returned when a unit is passed before the attempt threshold
	ErrPassNotAllowed = errors.New("pass not allowed")
	// ErrInvalidDictation is returned when a session cannot be built from a dictation
	ErrInvalidDictation = errors.New("invalid dictation")
	// ErrSessionCompleted is returned when an answer or pass reaches a completed session
	ErrSessionCompleted = errors.New("session completed")
	// ErrInvalidSnapshot is returned when a stored session no longer fits its dictation
	ErrInvalidSnapshot = errors.New("invalid session snapshot")
)
