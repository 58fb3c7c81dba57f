package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"dictee/internal/database"
	"dictee/internal/models"
	"dictee/internal/repository"
	"dictee/internal/validation"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string                  `json:"version"`
	ExportedAt   time.Time               `json:"exported_at"`
	DatabaseType string                  `json:"database_type"`
	Dictations   []models.Dictation      `json:"dictations"`
	Results      []models.PracticeResult `json:"results,omitempty"`
}

// ImportReport summarises a restore
type ImportReport struct {
	Dictations int      `json:"dictations"`
	Results    int      `json:"results"`
	Skipped    []string `json:"skipped,omitempty"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db            *database.DB
	maxDictations int
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, maxDictations int) *BackupService {
	return &BackupService{db: db, maxDictations: maxDictations}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}

	slog.Info("database exported", "path", outputPath)
	return nil
}

// ExportToWriter writes a JSON backup to w
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	dictations, err := repository.NewDictationRepository(s.db, 0).List(ctx, models.DictationFilter{})
	if err != nil {
		return fmt.Errorf("failed to export dictations: %w", err)
	}
	results, err := repository.NewResultRepository(s.db).ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to export results: %w", err)
	}

	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.Name(),
		Dictations:   dictations,
		Results:      results,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	slog.Info("backup written", "dictations", len(dictations), "results", len(results))
	return nil
}

// Import restores a backup file. With clear set, existing dictations are
// removed first.
func (s *BackupService) Import(ctx context.Context, inputPath string, clear bool) (*ImportReport, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file, clear)
}

// ImportFromReader restores a backup in a single transaction. Dictations
// are upserted by ID; invalid ones are skipped and reported.
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader, clear bool) (*ImportReport, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	slog.Info("importing backup", "version", backup.Version, "exported_at", backup.ExportedAt, "source", backup.DatabaseType)

	report := &ImportReport{}
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		dictations := repository.NewDictationRepository(tx, s.maxDictations)
		results := repository.NewResultRepository(tx)

		if clear {
			if err := dictations.DeleteAll(ctx); err != nil {
				return err
			}
		}

		imported := make(map[string]bool, len(backup.Dictations))
		for i := range backup.Dictations {
			d := &backup.Dictations[i]
			if d.ID == "" {
				report.Skipped = append(report.Skipped, fmt.Sprintf("dictation %q: missing id", d.Title))
				continue
			}
			if err := validation.ValidateDictation(d); err != nil {
				report.Skipped = append(report.Skipped, fmt.Sprintf("dictation %s: %v", d.ID, err))
				continue
			}
			if err := dictations.Put(ctx, d); err != nil {
				return fmt.Errorf("failed to import dictation %s: %w", d.ID, err)
			}
			imported[d.ID] = true
			report.Dictations++
		}

		for i := range backup.Results {
			result := backup.Results[i]
			if !imported[result.DictationID] {
				report.Skipped = append(report.Skipped, fmt.Sprintf("result of session %s: unknown dictation", result.SessionID))
				continue
			}
			if err := results.Record(ctx, &result); err != nil {
				return fmt.Errorf("failed to import result: %w", err)
			}
			report.Results++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("database import completed", "dictations", report.Dictations, "results", report.Results, "skipped", len(report.Skipped))
	return report, nil
}

// DatabaseStats counts the stored rows
type DatabaseStats struct {
	DatabaseType string `json:"database_type"`
	Dictations   int    `json:"dictations"`
	Results      int    `json:"results"`
}

// Stats counts dictations and recorded results
func (s *BackupService) Stats(ctx context.Context) (*DatabaseStats, error) {
	stats := &DatabaseStats{DatabaseType: s.db.Dialect.Name()}

	counts := []struct {
		table string
		dest  *int
	}{
		{"dictations", &stats.Dictations},
		{"practice_results", &stats.Results},
	}
	for _, c := range counts {
		query, args, err := s.db.Builder().Select("COUNT(*)").From(c.table).ToSql()
		if err != nil {
			return nil, err
		}
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}
	return stats, nil
}
