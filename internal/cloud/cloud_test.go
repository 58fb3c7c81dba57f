package cloud

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"codimd short", "https://codimd.example.org/abc123", "https://codimd.example.org/s/abc123/download"},
		{"codimd published", "https://codimd.example.org/s/abc123/", "https://codimd.example.org/s/abc123/download"},
		{"hedgedoc download", "https://hedgedoc.example.org/s/x/download", "https://hedgedoc.example.org/s/x/download"},
		{"dropbox query", "https://www.dropbox.com/s/k/file.md?dl=0", "https://dl.dropboxusercontent.com/s/k/file.md?dl=1"},
		{"dropbox trailing", "https://www.dropbox.com/scl/fi/k/file.md?rlkey=z&dl=0", "https://dl.dropboxusercontent.com/scl/fi/k/file.md?rlkey=z&dl=1"},
		{"drive", "https://drive.google.com/file/d/1AbC_-x/view?usp=sharing", "https://drive.google.com/uc?export=download&id=1AbC_-x"},
		{"drive without id", "https://drive.google.com/open", "https://drive.google.com/open"},
		{"raw", "  https://example.org/dictee.md ", "https://example.org/dictee.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestDescribe(t *testing.T) {
	info := Describe("https://drive.google.com/file/d/abc/view")
	assert.Equal(t, ServiceGoogleDrive, info.Service)
	assert.Equal(t, "Google Drive", info.Label)
	assert.Equal(t, "Lien direct", Describe("https://example.org/a.md").Label)
}

func TestFetcher_Fetch(t *testing.T) {
	var gotAccept, gotAuth string
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "text/markdown")
		_, _ = w.Write([]byte("---\ntitle: x\nlanguage: fr\n---\nphrase\n"))
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "https://")
	f := NewFetcher(Config{BearerToken: "secret", TokenHosts: []string{host}}, WithTransport(srv.Client().Transport))
	content, err := f.Fetch(context.Background(), srv.URL+"/a.md")
	require.NoError(t, err)
	assert.Contains(t, content, "title: x")
	assert.Equal(t, "text/markdown, text/plain, */*", gotAccept)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestFetcher_TokenStaysOnAllowedHosts(t *testing.T) {
	var foreignAuth []string
	foreign := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		foreignAuth = append(foreignAuth, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("contenu"))
	}))
	defer foreign.Close()

	trusted := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, foreign.URL+"/moved.md", http.StatusFound)
	}))
	defer trusted.Close()

	// Both servers share the test certificate, so either client works
	f := NewFetcher(Config{
		BearerToken: "s3cret",
		TokenHosts:  []string{"codimd.example.org", strings.TrimPrefix(trusted.URL, "https://")},
	}, WithTransport(foreign.Client().Transport))

	tests := []struct {
		name string
		url  string
	}{
		{"unlisted host", foreign.URL + "/evil.md"},
		{"redirect off an allowed host", trusted.URL + "/a.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			foreignAuth = nil
			content, err := f.Fetch(context.Background(), tt.url)
			require.NoError(t, err)
			assert.Equal(t, "contenu", content)
			assert.Equal(t, []string{""}, foreignAuth)
		})
	}
}

func TestFetcher_PlainHTTPNeverCarriesToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("contenu"))
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	f := NewFetcher(Config{BearerToken: "s3cret", TokenHosts: []string{host}}, WithTransport(srv.Client().Transport))
	_, err := f.Fetch(context.Background(), srv.URL+"/a.md")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestFetcher_RefusesPrivateAddresses(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("interne"))
	}))
	defer srv.Close()

	_, err := NewFetcher(Config{}).Fetch(context.Background(), srv.URL+"/a.md")
	assert.ErrorIs(t, err, ErrBlockedAddress)
	assert.Zero(t, hits.Load())

	content, err := NewFetcher(Config{AllowPrivateNetworks: true}).Fetch(context.Background(), srv.URL+"/a.md")
	require.NoError(t, err)
	assert.Equal(t, "interne", content)
}

func TestRefusePrivateAddress(t *testing.T) {
	tests := []struct {
		address string
		blocked bool
	}{
		{"127.0.0.1:80", true},
		{"10.1.2.3:443", true},
		{"192.168.0.10:443", true},
		{"169.254.169.254:80", true},
		{"0.0.0.0:80", true},
		{"[::1]:443", true},
		{"[fe80::1]:443", true},
		{"[fd00::1]:443", true},
		{"[::ffff:127.0.0.1]:80", true},
		{"93.184.216.34:443", false},
		{"[2606:4700::1111]:443", false},
	}
	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			err := refusePrivateAddress("tcp", tt.address, nil)
			if tt.blocked {
				assert.ErrorIs(t, err, ErrBlockedAddress)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckRedirect(t *testing.T) {
	req := func(raw string) *http.Request {
		r, err := http.NewRequest(http.MethodGet, raw, nil)
		require.NoError(t, err)
		return r
	}

	assert.NoError(t, checkRedirect(req("https://example.org/b.md"), []*http.Request{req("https://example.org/a.md")}))
	assert.ErrorIs(t, checkRedirect(req("file:///etc/passwd"), nil), ErrInvalidURL)

	via := make([]*http.Request, maxRedirects)
	assert.ErrorIs(t, checkRedirect(req("https://example.org/b.md"), via), ErrInvalidURL)
}

func TestFetcher_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/empty":
			_, _ = w.Write([]byte("  \n"))
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("a", 64)))
		}
	}))
	defer srv.Close()

	f := NewFetcher(Config{MaxBytes: 32}, WithTransport(srv.Client().Transport))
	ctx := context.Background()

	_, err := f.Fetch(ctx, srv.URL+"/missing")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)

	_, err = f.Fetch(ctx, srv.URL+"/empty")
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = f.Fetch(ctx, srv.URL+"/big")
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = f.Fetch(ctx, "ftp://example.org/file.md")
	assert.ErrorIs(t, err, ErrInvalidURL)
}
