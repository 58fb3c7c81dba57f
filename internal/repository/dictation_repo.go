package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"dictee/internal/database"
	"dictee/internal/models"
)

// ErrQuotaExceeded is returned when inserting past the configured dictation limit
var ErrQuotaExceeded = errors.New("dictation quota exceeded")

var dictationColumns = []string{"id", "title", "language", "content_type", "sentences", "created_at", "updated_at"}

// DictationRepository handles database operations for dictations
type DictationRepository struct {
	db            database.DBTX
	maxDictations int
	now           func() time.Time
}

// NewDictationRepository creates a new dictation repository. A maxDictations
// of zero or less disables the quota.
func NewDictationRepository(db database.DBTX, maxDictations int) *DictationRepository {
	return &DictationRepository{db: db, maxDictations: maxDictations, now: time.Now}
}

// WithTx returns a repository running on tx with the same settings
func (r *DictationRepository) WithTx(tx database.DBTX) *DictationRepository {
	return &DictationRepository{db: tx, maxDictations: r.maxDictations, now: r.now}
}

// Get retrieves a dictation by ID, returning nil when it does not exist
func (r *DictationRepository) Get(ctx context.Context, id string) (*models.Dictation, error) {
	row := r.db.Builder().
		Select(dictationColumns...).
		From("dictations").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx)

	d, err := scanDictation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dictation: %w", err)
	}
	return d, nil
}

// Put inserts or replaces a dictation. UpdatedAt is set to now; CreatedAt
// is kept from the stored row. With a quota, the check and the insert run
// in one transaction holding the insert lock of the table.
func (r *DictationRepository) Put(ctx context.Context, d *models.Dictation) error {
	if db, ok := r.db.(*database.DB); ok && r.maxDictations > 0 {
		return db.WithTx(ctx, func(tx *database.Tx) error {
			return r.WithTx(tx).put(ctx, d)
		})
	}
	return r.put(ctx, d)
}

func (r *DictationRepository) put(ctx context.Context, d *models.Dictation) error {
	if _, inTx := r.db.(*database.Tx); inTx && r.maxDictations > 0 {
		if lock := r.db.GetDialect().LockForInsert("dictations"); lock != "" {
			if _, err := r.db.ExecContext(ctx, lock); err != nil {
				return fmt.Errorf("failed to lock dictations: %w", err)
			}
		}
	}

	existing, err := r.Get(ctx, d.ID)
	if err != nil {
		return err
	}

	if existing == nil && r.maxDictations > 0 {
		count, err := r.Count(ctx)
		if err != nil {
			return err
		}
		if count >= r.maxDictations {
			return fmt.Errorf("%w: %d stored", ErrQuotaExceeded, count)
		}
	}

	now := r.now().UTC()
	if existing != nil {
		d.CreatedAt = existing.CreatedAt
	} else if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	sentences, err := json.Marshal(d.Sentences)
	if err != nil {
		return fmt.Errorf("failed to encode sentences: %w", err)
	}

	_, err = r.db.Builder().
		Insert("dictations").
		Columns(dictationColumns...).
		Values(d.ID, d.Title, d.Language, string(d.ContentTypeOrDefault()), string(sentences), d.CreatedAt.UTC(), d.UpdatedAt).
		Suffix(r.db.GetDialect().UpsertSuffix("id", "title", "language", "content_type", "sentences", "updated_at")).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to save dictation: %w", err)
	}
	return nil
}

// Delete removes a dictation and reports whether it existed
func (r *DictationRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.Builder().
		Delete("dictations").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete dictation: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// DeleteAll removes every dictation
func (r *DictationRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.Builder().Delete("dictations").ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to clear dictations: %w", err)
	}
	return nil
}

// Count returns the number of stored dictations
func (r *DictationRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Builder().
		Select("COUNT(*)").
		From("dictations").
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count dictations: %w", err)
	}
	return count, nil
}

// List retrieves dictations matching filter, most recently updated first
func (r *DictationRepository) List(ctx context.Context, filter models.DictationFilter) ([]models.Dictation, error) {
	query := r.db.Builder().
		Select(dictationColumns...).
		From("dictations").
		OrderBy("updated_at DESC", "id")

	if filter.Language != "" {
		query = query.Where(sq.Eq{"language": filter.Language})
	}
	if filter.Type != "" {
		query = query.Where(sq.Eq{"content_type": string(filter.Type)})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where(sq.Like{"LOWER(title)": "%" + strings.ToLower(search) + "%"})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dictations: %w", err)
	}
	defer rows.Close()

	dictations := []models.Dictation{}
	for rows.Next() {
		d, err := scanDictation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dictation: %w", err)
		}
		dictations = append(dictations, *d)
	}

	return dictations, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDictation(row rowScanner) (*models.Dictation, error) {
	var (
		d           models.Dictation
		contentType string
		sentences   string
	)
	if err := row.Scan(&d.ID, &d.Title, &d.Language, &contentType, &sentences, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}

	d.Type = models.ContentType(contentType)
	if err := json.Unmarshal([]byte(sentences), &d.Sentences); err != nil {
		return nil, fmt.Errorf("decode sentences of %s: %w", d.ID, err)
	}
	return &d, nil
}
