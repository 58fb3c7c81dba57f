package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"dictee/internal/models"
)

// memoryDictations is an in-memory DictationStore
type memoryDictations struct {
	mu    sync.Mutex
	items map[string]models.Dictation
	limit int
}

func newMemoryDictations(seed ...*models.Dictation) *memoryDictations {
	m := &memoryDictations{items: make(map[string]models.Dictation)}
	for _, d := range seed {
		m.items[d.ID] = *d
	}
	return m
}

func (m *memoryDictations) Get(ctx context.Context, id string) (*models.Dictation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *memoryDictations) Put(ctx context.Context, d *models.Dictation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[d.ID]; !exists && m.limit > 0 && len(m.items) >= m.limit {
		return ErrQuotaExceeded
	}
	m.items[d.ID] = *d
	return nil
}

func (m *memoryDictations) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[id]
	delete(m.items, id)
	return ok, nil
}

func (m *memoryDictations) List(ctx context.Context, filter models.DictationFilter) ([]models.Dictation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Dictation{}
	for _, d := range m.items {
		if filter.Language != "" && d.Language != filter.Language {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(d.Title), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *memoryDictations) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items), nil
}

// memoryResults is an in-memory ResultRecorder
type memoryResults struct {
	mu      sync.Mutex
	results []models.PracticeResult
	err     error
}

func (m *memoryResults) Record(ctx context.Context, result *models.PracticeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	result.ID = int64(len(m.results) + 1)
	m.results = append(m.results, *result)
	return nil
}

func (m *memoryResults) ListByDictation(ctx context.Context, dictationID string, limit int) ([]models.PracticeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PracticeResult
	for _, r := range m.results {
		if r.DictationID == dictationID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryResults) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

// mockFetcher serves canned bodies per URL
type mockFetcher struct {
	FetchFunc func(ctx context.Context, rawURL string) (string, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	return m.FetchFunc(ctx, rawURL)
}

// recordingSpeaker remembers what it was asked to say
type recordingSpeaker struct {
	mu        sync.Mutex
	spoken    []string
	cancelled []string
}

func (r *recordingSpeaker) Speak(channel, text, lang string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, text)
}

func (r *recordingSpeaker) Cancel(channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, channel)
}

type mockSynth struct {
	GenerateFunc func(ctx context.Context, text, lang string) (string, error)
}

func (m *mockSynth) GenerateAudioFile(ctx context.Context, text, lang string) (string, error) {
	return m.GenerateFunc(ctx, text, lang)
}

// mockSES captures sent messages
type mockSES struct {
	mu   sync.Mutex
	sent []*sesv2.SendEmailInput
	err  error
}

func (m *mockSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.sent = append(m.sent, params)
	id := "msg-1"
	return &sesv2.SendEmailOutput{MessageId: &id}, nil
}

type recordingAudioCache struct {
	deleted []string
}

func (c *recordingAudioCache) DeleteAudioFile(text, lang string) error {
	c.deleted = append(c.deleted, lang+"|"+text)
	return nil
}

func sampleDictation() *models.Dictation {
	return &models.Dictation{
		ID:        "d1",
		Title:     "Les animaux",
		Language:  "fr-FR",
		Type:      models.ContentSentences,
		Sentences: []string{"Le chat dort.", "Le chien aboie.", "Les oiseaux chantent."},
	}
}
