package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dictee/internal/models"
	"dictee/internal/practice"
)

// DefaultTTL is how long an idle session is kept
const DefaultTTL = 24 * time.Hour

var (
	// ErrNotFound is returned for unknown or expired sessions
	ErrNotFound = errors.New("session not found")
	// ErrConflict is returned by Put when the stored record changed since
	// it was read
	ErrConflict = errors.New("session changed concurrently")
)

// Record is a stored in-progress or completed session. The dictation is
// copied so later edits do not break a session being played.
type Record struct {
	SessionID string            `json:"session_id"`
	Dictation models.Dictation  `json:"dictation"`
	Snapshot  practice.Snapshot `json:"snapshot"`
	StartedAt time.Time         `json:"started_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	// Version counts saves; Put compares it against the stored record
	Version int64 `json:"version"`
}

// Store keeps session records between requests.
//
// Put is a compare-and-set: it saves rec only if the stored version still
// equals rec.Version (a record with Version 0 must not exist yet) and then
// increments rec.Version. Otherwise it returns ErrConflict.
type Store interface {
	Get(ctx context.Context, id string) (*Record, error)
	Put(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// encodeNext serialises rec as it will be stored after a successful Put
func encodeNext(rec *Record) ([]byte, error) {
	next := *rec
	next.Version++
	return encode(&next)
}

func encode(rec *Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", rec.SessionID, err)
	}
	return data, nil
}

func decode(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &rec, nil
}
