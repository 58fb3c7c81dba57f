package service

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dictee/internal/database"
	"dictee/internal/models"
	"dictee/internal/repository"
)

func openBackupDB(t *testing.T, name string) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping SQLite-backed test in short mode")
	}
	db, err := database.Initialize(context.Background(), filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBackupService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	source := openBackupDB(t, "source.db")

	require.NoError(t, repository.NewDictationRepository(source, 0).Put(ctx, sampleDictation()))
	result := models.ResultFromSummary("d1", "s1", 3,
		models.Summary{TotalStars: 6, MaxStars: 9, Percentage: 67, CountByStars: map[int]int{1: 1, 2: 1, 3: 1}},
		time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC))
	require.NoError(t, repository.NewResultRepository(source).Record(ctx, &result))

	var buf bytes.Buffer
	require.NoError(t, NewBackupService(source, 0).ExportToWriter(ctx, &buf))

	var backup BackupData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &backup))
	assert.Equal(t, BackupVersion, backup.Version)
	assert.Equal(t, "sqlite", backup.DatabaseType)
	require.Len(t, backup.Dictations, 1)
	require.Len(t, backup.Results, 1)

	target := openBackupDB(t, "target.db")
	report, err := NewBackupService(target, 0).ImportFromReader(ctx, bytes.NewReader(buf.Bytes()), true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Dictations)
	assert.Equal(t, 1, report.Results)
	assert.Empty(t, report.Skipped)

	restored, err := repository.NewDictationRepository(target, 0).Get(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, sampleDictation().Sentences, restored.Sentences)

	stats, err := NewBackupService(target, 0).Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &DatabaseStats{DatabaseType: "sqlite", Dictations: 1, Results: 1}, stats)
}

func TestBackupService_SkipsInvalid(t *testing.T) {
	ctx := context.Background()
	db := openBackupDB(t, "backup.db")

	backup := BackupData{
		Version: BackupVersion,
		Dictations: []models.Dictation{
			*sampleDictation(),
			{ID: "", Title: "No id", Language: "fr-FR", Sentences: []string{"a"}},
			{ID: "d3", Title: "", Language: "fr-FR", Sentences: []string{"a"}},
		},
		Results: []models.PracticeResult{{DictationID: "gone", SessionID: "s9"}},
	}
	data, err := json.Marshal(backup)
	require.NoError(t, err)

	report, err := NewBackupService(db, 0).ImportFromReader(ctx, bytes.NewReader(data), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Dictations)
	assert.Zero(t, report.Results)
	assert.Len(t, report.Skipped, 3)
}

func TestBackupService_RejectsGarbage(t *testing.T) {
	db := openBackupDB(t, "garbage.db")

	_, err := NewBackupService(db, 0).ImportFromReader(context.Background(), bytes.NewReader([]byte("not json")), false)
	assert.ErrorIs(t, err, ErrInvalidBackup)
}
