package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dictee/internal/cloud"
	"dictee/internal/codec"
	"dictee/internal/config"
)

func TestShareService_Link(t *testing.T) {
	ctx := context.Background()
	dictations := NewDictationService(newMemoryDictations(sampleDictation()), nil)
	svc := NewShareService(dictations, nil, "https://dictee.example.org/")

	link, err := svc.Link(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "encoded", link.Kind)
	assert.True(t, strings.HasPrefix(link.URL, "https://dictee.example.org/?share="))

	_, err = svc.Link(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	big := sampleDictation()
	big.ID = "big"
	big.Sentences = make([]string, codec.MaxShareUnits+1)
	for i := range big.Sentences {
		big.Sentences[i] = fmt.Sprintf("Phrase %d.", i)
	}
	svc = NewShareService(NewDictationService(newMemoryDictations(big), nil), nil, "https://dictee.example.org")
	_, err = svc.Link(ctx, "big")
	assert.ErrorIs(t, err, codec.ErrTooManyUnits)
}

func TestShareService_CloudLink(t *testing.T) {
	svc := NewShareService(nil, nil, "https://dictee.example.org")

	link, err := svc.CloudLink("https://www.dropbox.com/s/abc/file.md?dl=0")
	require.NoError(t, err)
	assert.Equal(t, "cloud", link.Kind)
	assert.Equal(t, "Dropbox", link.Service)
	require.NotNil(t, link.Source)
	assert.Equal(t, cloud.ServiceDropbox, link.Source.Service)
	assert.Equal(t, "https://dl.dropboxusercontent.com/s/abc/file.md?dl=1", link.Source.NormalizedURL)

	_, err = svc.CloudLink("not a url")
	assert.ErrorIs(t, err, cloud.ErrInvalidURL)
}

func TestShareService_ImportCloudBatch(t *testing.T) {
	fetcher := &mockFetcher{FetchFunc: func(ctx context.Context, rawURL string) (string, error) {
		if strings.HasSuffix(rawURL, "bad.md") {
			return "", errors.New("404")
		}
		return "---\ntitle: " + path.Base(rawURL) + "\nlanguage: fr-FR\n---\nUne phrase.\n", nil
	}}
	store := newMemoryDictations()
	svc := NewShareService(NewDictationService(store, fetcher), nil, "")

	urls := []string{
		"https://example.org/a1.md",
		"https://example.org/bad.md",
		"https://example.org/a2.md",
		"https://example.org/a3.md",
		"https://example.org/a4.md",
		"https://example.org/a5.md",
	}
	outcomes := svc.ImportCloudBatch(context.Background(), urls)
	require.Len(t, outcomes, len(urls))

	for i, o := range outcomes {
		assert.Equal(t, urls[i], o.URL)
		if i == 1 {
			assert.ErrorIs(t, o.Err(), ErrCloudFetch)
			assert.NotEmpty(t, o.Error)
			continue
		}
		require.NoError(t, o.Err())
		assert.Equal(t, path.Base(urls[i]), o.Dictation.Title)
	}

	count, _ := store.Count(context.Background())
	assert.Equal(t, 5, count)
}

func TestShareService_SendByEmail(t *testing.T) {
	ctx := context.Background()
	dictations := NewDictationService(newMemoryDictations(sampleDictation()), nil)

	disabled := NewShareService(dictations, &EmailService{}, "https://dictee.example.org")
	_, err := disabled.SendByEmail(ctx, "d1", "parent@example.org", "fr")
	assert.ErrorIs(t, err, ErrEmailDisabled)

	ses := &mockSES{}
	email := NewEmailServiceWithClient(ses, config.EmailConfig{From: "noreply@example.org", FromName: "Dictée"})
	svc := NewShareService(dictations, email, "https://dictee.example.org")

	link, err := svc.SendByEmail(ctx, "d1", "parent@example.org", "fr")
	require.NoError(t, err)
	require.Len(t, ses.sent, 1)

	sent := ses.sent[0]
	assert.Equal(t, []string{"parent@example.org"}, sent.Destination.ToAddresses)
	assert.Equal(t, "Dictée : Les animaux", *sent.Content.Simple.Subject.Data)
	assert.Contains(t, *sent.Content.Simple.Body.Text.Data, link.URL)
	assert.Contains(t, *sent.FromEmailAddress, "noreply@example.org")

	_, err = svc.SendByEmail(ctx, "d1", "not-an-address", "fr")
	assert.ErrorIs(t, err, ErrInvalidRecipient)

	ses.err = errors.New("throttled")
	_, err = svc.SendByEmail(ctx, "d1", "parent@example.org", "en")
	assert.Error(t, err)
}
