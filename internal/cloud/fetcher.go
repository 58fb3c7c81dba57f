package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds one download
	DefaultTimeout = 10 * time.Second
	// DefaultMaxBytes is the largest file accepted
	DefaultMaxBytes int64 = 1 << 20
)

var (
	ErrInvalidURL = errors.New("invalid cloud URL")
	ErrEmptyFile  = errors.New("cloud file is empty")
	ErrTooLarge   = errors.New("cloud file too large")
	// ErrBlockedAddress is returned when a download resolves to a
	// loopback, private or link-local address
	ErrBlockedAddress = errors.New("cloud host address not allowed")
)

// HTTPError is returned when the host answers with a non-2xx status
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("cloud fetch failed: HTTP %s", e.Status)
}

// maxRedirects bounds the redirect chain of one download
const maxRedirects = 5

// Config configures a Fetcher
type Config struct {
	Timeout     time.Duration
	BearerToken string
	// TokenHosts lists the hosts (with or without port) that receive the
	// bearer token
	TokenHosts []string
	MaxBytes   int64
	// AllowPrivateNetworks lets downloads reach loopback, private and
	// link-local addresses
	AllowPrivateNetworks bool
}

// Fetcher downloads Markdown files from public cloud links
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*fetcherOptions)

type fetcherOptions struct {
	transport http.RoundTripper
	logger    *slog.Logger
}

// WithTransport sets the round tripper requests go through. The address
// guard lives in the default transport; a custom one replaces it.
func WithTransport(rt http.RoundTripper) FetcherOption {
	return func(o *fetcherOptions) { o.transport = rt }
}

// WithLogger sets the logger used for content-type warnings
func WithLogger(l *slog.Logger) FetcherOption {
	return func(o *fetcherOptions) { o.logger = l }
}

// NewFetcher builds a Fetcher. The bearer token, when configured, goes
// through an oauth2 static token source and only to cfg.TokenHosts.
func NewFetcher(cfg Config, opts ...FetcherOption) *Fetcher {
	o := fetcherOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}

	transport := o.transport
	if transport == nil {
		transport = newGuardedTransport(cfg.AllowPrivateNetworks)
	}
	if cfg.BearerToken != "" && len(cfg.TokenHosts) > 0 {
		transport = newScopedTokenTransport(transport, cfg.BearerToken, cfg.TokenHosts)
	}

	client := &http.Client{
		Transport:     transport,
		Timeout:       cfg.Timeout,
		CheckRedirect: checkRedirect,
	}
	return &Fetcher{client: client, maxBytes: cfg.MaxBytes, logger: o.logger}
}

// checkRedirect applies the URL rules of ParseURL to every hop
func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: stopped after %d redirects", ErrInvalidURL, maxRedirects)
	}
	_, err := ParseURL(req.URL.String())
	return err
}

// ParseURL checks that rawURL is an absolute http(s) URL
func ParseURL(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return parsed, nil
}

// Fetch downloads the Markdown behind rawURL after normalising it
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	target := Normalize(rawURL)
	parsed, err := ParseURL(target)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/markdown, text/plain, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", parsed.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "text") && !strings.Contains(ct, "markdown") {
		f.logger.Warn("unexpected cloud content type", "host", parsed.Host, "content_type", ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
	}

	content := string(body)
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyFile
	}
	return content, nil
}
