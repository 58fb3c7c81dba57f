package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"dictee/internal/database"
	"dictee/internal/models"
)

// ResultRepository handles the history of completed practice sessions
type ResultRepository struct {
	db database.DBTX
}

// NewResultRepository creates a new result repository
func NewResultRepository(db database.DBTX) *ResultRepository {
	return &ResultRepository{db: db}
}

// WithTx returns a repository running on tx
func (r *ResultRepository) WithTx(tx database.DBTX) *ResultRepository {
	return &ResultRepository{db: tx}
}

var resultColumns = []string{"id", "dictation_id", "session_id", "total_units", "total_stars", "max_stars", "percentage",
	"stars_3", "stars_2", "stars_1", "stars_0", "completed_at"}

// Record stores a completed session and sets its ID
func (r *ResultRepository) Record(ctx context.Context, result *models.PracticeResult) error {
	insert := r.db.Builder().
		Insert("practice_results").
		Columns("dictation_id", "session_id", "total_units", "total_stars", "max_stars", "percentage",
			"stars_3", "stars_2", "stars_1", "stars_0", "completed_at").
		Values(result.DictationID, result.SessionID, result.TotalUnits, result.TotalStars, result.MaxStars, result.Percentage,
			result.Stars3, result.Stars2, result.Stars1, result.Stars0, result.CompletedAt.UTC())

	id, err := r.db.InsertReturningID(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to record practice result: %w", err)
	}
	result.ID = id
	return nil
}

// ListByDictation returns the most recent results for a dictation
func (r *ResultRepository) ListByDictation(ctx context.Context, dictationID string, limit int) ([]models.PracticeResult, error) {
	query := r.db.Builder().
		Select(resultColumns...).
		From("practice_results").
		Where(sq.Eq{"dictation_id": dictationID}).
		OrderBy("completed_at DESC", "id DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	return r.list(ctx, query)
}

// ListAll returns every stored result, oldest first
func (r *ResultRepository) ListAll(ctx context.Context) ([]models.PracticeResult, error) {
	return r.list(ctx, r.db.Builder().
		Select(resultColumns...).
		From("practice_results").
		OrderBy("completed_at", "id"))
}

func (r *ResultRepository) list(ctx context.Context, query sq.SelectBuilder) ([]models.PracticeResult, error) {
	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list practice results: %w", err)
	}
	defer rows.Close()

	results := []models.PracticeResult{}
	for rows.Next() {
		var pr models.PracticeResult
		if err := rows.Scan(&pr.ID, &pr.DictationID, &pr.SessionID, &pr.TotalUnits, &pr.TotalStars, &pr.MaxStars,
			&pr.Percentage, &pr.Stars3, &pr.Stars2, &pr.Stars1, &pr.Stars0, &pr.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan practice result: %w", err)
		}
		results = append(results, pr)
	}

	return results, rows.Err()
}
