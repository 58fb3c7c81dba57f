package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"dictee/internal/codec"
	"dictee/internal/models"
	"dictee/internal/validation"
)

const duplicateSuffix = " (copie)"

// DictationStore persists dictations. Get returns nil, nil when the
// dictation does not exist.
type DictationStore interface {
	Get(ctx context.Context, id string) (*models.Dictation, error)
	Put(ctx context.Context, d *models.Dictation) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter models.DictationFilter) ([]models.Dictation, error)
	Count(ctx context.Context) (int, error)
}

// Fetcher downloads the text of a remote dictation file
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// AudioCache holds synthesised speech keyed by text and language
type AudioCache interface {
	DeleteAudioFile(text, lang string) error
}

// DictationService handles dictation authoring and import/export
type DictationService struct {
	store   DictationStore
	fetcher Fetcher
	audio   AudioCache
	now     func() time.Time
}

// DictationOption configures a DictationService
type DictationOption func(*DictationService)

// WithAudioCache evicts the speech of units that an update or delete drops
func WithAudioCache(c AudioCache) DictationOption {
	return func(s *DictationService) { s.audio = c }
}

// NewDictationService creates a new dictation service. fetcher may be nil,
// in which case ImportCloud fails.
func NewDictationService(store DictationStore, fetcher Fetcher, opts ...DictationOption) *DictationService {
	s := &DictationService{store: store, fetcher: fetcher, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores d under a fresh ID after cleaning and validating it
func (s *DictationService) Create(ctx context.Context, d *models.Dictation) (*models.Dictation, error) {
	clean := prepare(d)
	clean.ID = uuid.NewString()
	clean.CreatedAt = time.Time{}

	if err := validation.ValidateDictation(clean); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, clean); err != nil {
		return nil, err
	}

	slog.Info("dictation created", "dictation_id", clean.ID, "title", clean.Title, "units", clean.UnitCount())
	return clean, nil
}

// Update replaces the content of an existing dictation
func (s *DictationService) Update(ctx context.Context, id string, d *models.Dictation) (*models.Dictation, error) {
	previous, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	clean := prepare(d)
	clean.ID = id
	if err := validation.ValidateDictation(clean); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, clean); err != nil {
		return nil, err
	}

	s.evictAudio(previous, clean)
	slog.Info("dictation updated", "dictation_id", id, "units", clean.UnitCount())
	return clean, nil
}

// Delete removes a dictation
func (s *DictationService) Delete(ctx context.Context, id string) error {
	previous, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	existed, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("dictation %s: %w", id, ErrNotFound)
	}

	s.evictAudio(previous, nil)
	slog.Info("dictation deleted", "dictation_id", id)
	return nil
}

// evictAudio drops cached speech for the units of previous that current no
// longer speaks. Running sessions regenerate anything they still need.
func (s *DictationService) evictAudio(previous, current *models.Dictation) {
	if s.audio == nil || previous == nil {
		return
	}

	kept := make(map[string]bool)
	if current != nil && current.Language == previous.Language {
		for _, unit := range current.Sentences {
			kept[unit] = true
		}
	}
	for _, unit := range previous.Sentences {
		if kept[unit] {
			continue
		}
		if err := s.audio.DeleteAudioFile(unit, previous.Language); err != nil {
			slog.Warn("failed to evict cached audio", "dictation_id", previous.ID, "error", err)
		}
	}
}

// Get returns a dictation or ErrNotFound
func (s *DictationService) Get(ctx context.Context, id string) (*models.Dictation, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("dictation %s: %w", id, ErrNotFound)
	}
	return d, nil
}

// List returns dictations matching filter, most recently updated first
func (s *DictationService) List(ctx context.Context, filter models.DictationFilter) ([]models.Dictation, error) {
	return s.store.List(ctx, filter)
}

// Count returns the number of stored dictations
func (s *DictationService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Duplicate stores a copy of a dictation with a suffixed title
func (s *DictationService) Duplicate(ctx context.Context, id string) (*models.Dictation, error) {
	original, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	copied := *original
	copied.Sentences = append([]string(nil), original.Sentences...)
	copied.Title = truncateRunes(original.Title, models.MaxTitleLength-utf8.RuneCountInString(duplicateSuffix)) + duplicateSuffix
	return s.Create(ctx, &copied)
}

// ImportMarkdown parses a Markdown file and stores it as a new dictation
func (s *DictationService) ImportMarkdown(ctx context.Context, content string) (*models.Dictation, error) {
	d, err := codec.ParseMarkdown(content)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, d)
}

// ExportMarkdown renders a dictation as Markdown and proposes a file name
func (s *DictationService) ExportMarkdown(ctx context.Context, id string) (filename, content string, err error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return "", "", err
	}
	content, err = codec.GenerateMarkdown(d)
	if err != nil {
		return "", "", err
	}
	return codec.SanitizeFilename(d.Title) + ".md", content, nil
}

// ImportLegacy migrates a dictation encoded in an old-format URL
func (s *DictationService) ImportLegacy(ctx context.Context, rawURL string) (*models.Dictation, error) {
	d, err := codec.ParseLegacyURL(rawURL)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, d)
}

// ImportShared stores the dictation carried by a share payload
func (s *DictationService) ImportShared(ctx context.Context, payload string) (*models.Dictation, error) {
	d, err := codec.DecodeShare(payload)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, d)
}

// FetchCloud downloads and parses a remote Markdown dictation without storing it
func (s *DictationService) FetchCloud(ctx context.Context, rawURL string) (*models.Dictation, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("%w: no fetcher configured", ErrCloudFetch)
	}
	content, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCloudFetch, err)
	}
	return codec.ParseMarkdown(content)
}

// ImportCloud downloads a remote Markdown dictation and stores it
func (s *DictationService) ImportCloud(ctx context.Context, rawURL string) (*models.Dictation, error) {
	d, err := s.FetchCloud(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, d)
}

// prepare returns a copy of d with trimmed fields, blank units dropped and
// defaults applied
func prepare(d *models.Dictation) *models.Dictation {
	if d == nil {
		return &models.Dictation{}
	}

	clean := &models.Dictation{
		ID:        d.ID,
		Title:     strings.TrimSpace(d.Title),
		Language:  strings.TrimSpace(d.Language),
		Type:      d.Type,
		CreatedAt: d.CreatedAt,
	}
	if clean.Language == "" {
		clean.Language = models.DefaultLanguage
	}
	if clean.Type == "" {
		clean.Type = models.ContentSentences
	}
	for _, unit := range d.Sentences {
		if unit = strings.TrimSpace(unit); unit != "" {
			clean.Sentences = append(clean.Sentences, unit)
		}
	}
	return clean
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
