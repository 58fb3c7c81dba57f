package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dictee/internal/codec"
	"dictee/internal/models"
	"dictee/internal/validation"
)

func TestDictationService_Create(t *testing.T) {
	store := newMemoryDictations()
	svc := NewDictationService(store, nil)

	d, err := svc.Create(context.Background(), &models.Dictation{
		Title:     "  Les saisons ",
		Sentences: []string{" L'hiver est froid. ", "", "   ", "L'été est chaud."},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "Les saisons", d.Title)
	assert.Equal(t, models.DefaultLanguage, d.Language)
	assert.Equal(t, models.ContentSentences, d.Type)
	assert.Equal(t, []string{"L'hiver est froid.", "L'été est chaud."}, d.Sentences)

	count, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDictationService_CreateInvalid(t *testing.T) {
	svc := NewDictationService(newMemoryDictations(), nil)

	tests := []struct {
		name  string
		d     *models.Dictation
		field string
	}{
		{"blank title", &models.Dictation{Title: "  ", Sentences: []string{"a"}}, "title"},
		{"no units", &models.Dictation{Title: "T", Sentences: []string{" "}}, "sentences"},
		{"bad language", &models.Dictation{Title: "T", Language: "french", Sentences: []string{"a"}}, "language"},
		{"bad type", &models.Dictation{Title: "T", Type: "poems", Sentences: []string{"a"}}, "type"},
		{"title too long", &models.Dictation{Title: strings.Repeat("x", 101), Sentences: []string{"a"}}, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.d)
			var verrs validation.ValidationErrors
			require.True(t, errors.As(err, &verrs), "got %v", err)
			assert.Contains(t, verrs.Messages("en"), tt.field)
		})
	}
}

func TestDictationService_QuotaExceeded(t *testing.T) {
	store := newMemoryDictations(sampleDictation())
	store.limit = 1
	svc := NewDictationService(store, nil)

	_, err := svc.Create(context.Background(), &models.Dictation{Title: "T", Sentences: []string{"a"}})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestDictationService_UpdateDeleteGet(t *testing.T) {
	ctx := context.Background()
	svc := NewDictationService(newMemoryDictations(sampleDictation()), nil)

	updated, err := svc.Update(ctx, "d1", &models.Dictation{ID: "ignored", Title: "Nouveau", Language: "fr-FR", Sentences: []string{"Une phrase."}})
	require.NoError(t, err)
	assert.Equal(t, "d1", updated.ID)

	got, err := svc.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Nouveau", got.Title)

	_, err = svc.Update(ctx, "missing", updated)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "d1"))
	assert.ErrorIs(t, svc.Delete(ctx, "d1"), ErrNotFound)

	_, err = svc.Get(ctx, "d1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDictationService_EvictsDroppedAudio(t *testing.T) {
	ctx := context.Background()
	cache := &recordingAudioCache{}
	svc := NewDictationService(newMemoryDictations(sampleDictation()), nil, WithAudioCache(cache))

	_, err := svc.Update(ctx, "d1", &models.Dictation{
		Title:     "Les animaux",
		Language:  "fr-FR",
		Sentences: []string{"Le chat dort.", "Le lapin saute."},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"fr-FR|Le chien aboie.", "fr-FR|Les oiseaux chantent."}, cache.deleted)

	cache.deleted = nil
	_, err = svc.Update(ctx, "d1", &models.Dictation{
		Title:     "The animals",
		Language:  "en-GB",
		Sentences: []string{"Le chat dort.", "Le lapin saute."},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"fr-FR|Le chat dort.", "fr-FR|Le lapin saute."}, cache.deleted)

	cache.deleted = nil
	require.NoError(t, svc.Delete(ctx, "d1"))
	assert.ElementsMatch(t, []string{"en-GB|Le chat dort.", "en-GB|Le lapin saute."}, cache.deleted)

	cache.deleted = nil
	assert.ErrorIs(t, svc.Delete(ctx, "d1"), ErrNotFound)
	assert.Empty(t, cache.deleted)
}

func TestDictationService_Duplicate(t *testing.T) {
	ctx := context.Background()
	long := sampleDictation()
	long.ID = "long"
	long.Title = strings.Repeat("é", models.MaxTitleLength)
	svc := NewDictationService(newMemoryDictations(sampleDictation(), long), nil)

	copied, err := svc.Duplicate(ctx, "d1")
	require.NoError(t, err)
	assert.NotEqual(t, "d1", copied.ID)
	assert.Equal(t, "Les animaux (copie)", copied.Title)
	assert.Equal(t, sampleDictation().Sentences, copied.Sentences)

	copiedLong, err := svc.Duplicate(ctx, "long")
	require.NoError(t, err)
	assert.Len(t, []rune(copiedLong.Title), models.MaxTitleLength)
	assert.True(t, strings.HasSuffix(copiedLong.Title, "(copie)"))

	_, err = svc.Duplicate(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDictationService_Markdown(t *testing.T) {
	ctx := context.Background()
	svc := NewDictationService(newMemoryDictations(), nil)

	d, err := svc.ImportMarkdown(ctx, "---\ntitle: Mots du jour\nlanguage: fr-FR\ntype: words\n---\n\nchat\nchien\n")
	require.NoError(t, err)
	assert.Equal(t, models.ContentWords, d.Type)

	filename, content, err := svc.ExportMarkdown(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "mots-du-jour.md", filename)
	assert.Contains(t, content, "type: words")

	_, err = svc.ImportMarkdown(ctx, "no front matter")
	assert.ErrorIs(t, err, codec.ErrMissingFrontMatter)
}

func TestDictationService_ImportLegacyAndShared(t *testing.T) {
	ctx := context.Background()
	svc := NewDictationService(newMemoryDictations(), nil)

	legacy, err := svc.ImportLegacy(ctx, "https://example.org/dictee/?tl=en&titre=Hi&d[1]=72|105")
	require.NoError(t, err)
	assert.Equal(t, "en-US", legacy.Language)
	assert.Equal(t, []string{"Hi"}, legacy.Sentences)

	payload, err := codec.EncodeShare(sampleDictation())
	require.NoError(t, err)
	shared, err := svc.ImportShared(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, "Les animaux", shared.Title)
	assert.NotEqual(t, "d1", shared.ID)

	_, err = svc.ImportShared(ctx, "%%%")
	assert.ErrorIs(t, err, codec.ErrInvalidShare)
}

func TestDictationService_ImportCloud(t *testing.T) {
	ctx := context.Background()
	fetcher := &mockFetcher{FetchFunc: func(ctx context.Context, rawURL string) (string, error) {
		if strings.Contains(rawURL, "broken") {
			return "", errors.New("boom")
		}
		return "---\ntitle: Distant\nlanguage: en-US\n---\nHello world.\n", nil
	}}
	svc := NewDictationService(newMemoryDictations(), fetcher)

	d, err := svc.ImportCloud(ctx, "https://example.org/file.md")
	require.NoError(t, err)
	assert.Equal(t, "Distant", d.Title)

	_, err = svc.ImportCloud(ctx, "https://example.org/broken.md")
	assert.ErrorIs(t, err, ErrCloudFetch)

	_, err = NewDictationService(newMemoryDictations(), nil).ImportCloud(ctx, "https://example.org/file.md")
	assert.ErrorIs(t, err, ErrCloudFetch)
}
