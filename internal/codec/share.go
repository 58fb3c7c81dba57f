package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"dictee/internal/models"
)

// Share link limits
const (
	MaxShareUnits     = 20
	MaxShareURLLength = 2000
)

type sharePayload struct {
	Title     string             `json:"title"`
	Language  string             `json:"language"`
	Sentences []string           `json:"sentences"`
	Type      models.ContentType `json:"type,omitempty"`
}

// EncodeShare packs a dictation into base64 JSON
func EncodeShare(d *models.Dictation) (string, error) {
	payload := sharePayload{
		Title:     d.Title,
		Language:  d.Language,
		Sentences: d.Sentences,
	}
	if d.Type == models.ContentWords {
		payload.Type = models.ContentWords
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode share payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeShare unpacks a payload produced by EncodeShare
func DecodeShare(encoded string) (*models.Dictation, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}

	var payload sharePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}
	if payload.Title == "" || payload.Language == "" || payload.Sentences == nil {
		return nil, fmt.Errorf("%w: title, language and sentences are required", ErrInvalidShare)
	}

	contentType := models.ContentSentences
	if payload.Type == models.ContentWords {
		contentType = models.ContentWords
	}

	return &models.Dictation{
		Title:     payload.Title,
		Language:  payload.Language,
		Type:      contentType,
		Sentences: payload.Sentences,
	}, nil
}

// ShareLink builds a self-contained link carrying the whole dictation
func ShareLink(d *models.Dictation, baseURL string) (string, error) {
	if len(d.Sentences) > MaxShareUnits {
		return "", fmt.Errorf("%w: %d units, at most %d", ErrTooManyUnits, len(d.Sentences), MaxShareUnits)
	}

	encoded, err := EncodeShare(d)
	if err != nil {
		return "", err
	}

	link := strings.TrimRight(baseURL, "/") + "/?share=" + url.QueryEscape(encoded)
	if len(link) > MaxShareURLLength {
		return "", fmt.Errorf("%w: %d characters, at most %d", ErrURLTooLong, len(link), MaxShareURLLength)
	}
	return link, nil
}

// CloudShareLink builds a link pointing at a Markdown file hosted elsewhere
func CloudShareLink(cloudURL, baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/?cloud=" + url.QueryEscape(cloudURL)
}

// CloudServiceName returns a display name for the host of a cloud link
func CloudServiceName(cloudURL string) string {
	switch {
	case cloudURL == "":
		return "Cloud"
	case strings.Contains(cloudURL, "codimd"), strings.Contains(cloudURL, "hedgedoc"):
		return "CodiMD"
	case strings.Contains(cloudURL, "nuage"), strings.Contains(cloudURL, "nextcloud"):
		return "Nuage"
	case strings.Contains(cloudURL, "dropbox"):
		return "Dropbox"
	case strings.Contains(cloudURL, "drive.google"):
		return "Google Drive"
	default:
		return "Cloud"
	}
}
