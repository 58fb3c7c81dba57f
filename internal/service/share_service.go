package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"dictee/internal/cloud"
	"dictee/internal/codec"
	"dictee/internal/models"
)

// cloudImportConcurrency bounds parallel downloads in a batch import
const cloudImportConcurrency = 4

// ShareLink is a link that opens a dictation for a learner
type ShareLink struct {
	URL     string `json:"url"`
	Kind    string `json:"kind"`
	Service string `json:"service,omitempty"`
	// Source describes the cloud file behind a cloud link
	Source *cloud.Info `json:"source,omitempty"`
}

// ImportOutcome reports one entry of a batch import
type ImportOutcome struct {
	URL       string            `json:"url"`
	Dictation *models.Dictation `json:"dictation,omitempty"`
	Error     string            `json:"error,omitempty"`
	err       error
}

// Err returns the import failure, if any
func (o ImportOutcome) Err() error {
	return o.err
}

// ShareService builds share links and imports shared dictations
type ShareService struct {
	dictations *DictationService
	email      *EmailService
	baseURL    string
}

// NewShareService creates a new share service producing links under baseURL
func NewShareService(dictations *DictationService, email *EmailService, baseURL string) *ShareService {
	return &ShareService{dictations: dictations, email: email, baseURL: baseURL}
}

// Link encodes a stored dictation into a self-contained share link
func (s *ShareService) Link(ctx context.Context, id string) (*ShareLink, error) {
	d, err := s.dictations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	link, err := codec.ShareLink(d, s.baseURL)
	if err != nil {
		return nil, err
	}
	return &ShareLink{URL: link, Kind: "encoded"}, nil
}

// CloudLink wraps a public cloud file URL into a share link
func (s *ShareService) CloudLink(cloudURL string) (*ShareLink, error) {
	if _, err := cloud.ParseURL(cloudURL); err != nil {
		return nil, err
	}
	source := cloud.Describe(cloudURL)
	return &ShareLink{
		URL:     codec.CloudShareLink(cloudURL, s.baseURL),
		Kind:    "cloud",
		Service: codec.CloudServiceName(cloudURL),
		Source:  &source,
	}, nil
}

// Decode returns the dictation inside a share payload without storing it
func (s *ShareService) Decode(payload string) (*models.Dictation, error) {
	return codec.DecodeShare(payload)
}

// SendByEmail mails the share link of a dictation to a recipient
func (s *ShareService) SendByEmail(ctx context.Context, id, toEmail, locale string) (*ShareLink, error) {
	if s.email == nil || !s.email.IsEnabled() {
		return nil, ErrEmailDisabled
	}

	link, err := s.Link(ctx, id)
	if err != nil {
		return nil, err
	}
	d, err := s.dictations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.email.SendShareEmail(ctx, toEmail, locale, d.Title, link.URL); err != nil {
		return nil, err
	}
	return link, nil
}

// ImportCloudBatch imports several remote dictations concurrently. One
// failing URL does not stop the others; outcomes keep the input order.
func (s *ShareService) ImportCloudBatch(ctx context.Context, urls []string) []ImportOutcome {
	outcomes := make([]ImportOutcome, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cloudImportConcurrency)
	for i, u := range urls {
		g.Go(func() error {
			d, err := s.dictations.ImportCloud(gctx, u)
			outcomes[i] = ImportOutcome{URL: u, Dictation: d, err: err}
			if err != nil {
				outcomes[i].Error = err.Error()
				slog.Warn("cloud import failed", "url", u, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("cloud batch import finished", "urls", len(urls), "failed", countFailed(outcomes))
	return outcomes
}

func countFailed(outcomes []ImportOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.err != nil {
			n++
		}
	}
	return n
}

// String describes an outcome for logs and the admin CLI
func (o ImportOutcome) String() string {
	if o.err != nil {
		return fmt.Sprintf("%s: %v", o.URL, o.err)
	}
	return fmt.Sprintf("%s: %s", o.URL, o.Dictation.ID)
}
