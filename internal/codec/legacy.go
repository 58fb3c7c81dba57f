package codec

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf16"

	"dictee/internal/models"
)

const (
	legacyDefaultTitle = "Dictée migrée"
	legacyMaxUnits     = 100
)

// legacyLanguages maps the two-letter codes of old links to full tags
var legacyLanguages = map[string]string{
	"fr": "fr-FR",
	"en": "en-US",
	"es": "es-ES",
	"de": "de-DE",
	"it": "it-IT",
	"pt": "pt-PT",
	"nl": "nl-NL",
	"ru": "ru-RU",
	"ar": "ar-SA",
	"zh": "zh-CN",
	"ja": "ja-JP",
}

// ParseLegacyURL decodes a dictation from an old-style link, given either
// the full URL or its query string. Units are carried in d[1], d[2], ...
// as |-separated decimal character codes.
func ParseLegacyURL(raw string) (*models.Dictation, error) {
	query := strings.TrimSpace(raw)
	if query == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidLegacyURL)
	}
	if _, after, found := strings.Cut(query, "?"); found {
		query, _, _ = strings.Cut(after, "?")
	}

	// Malformed pairs are skipped; the remaining values are still usable.
	params, _ := url.ParseQuery(query)

	title := firstNonEmpty(params.Get("titre"), params.Get("title"), legacyDefaultTitle)
	if unescaped, err := url.PathUnescape(title); err == nil {
		title = unescaped
	}

	var units []string
	for i := 1; i <= legacyMaxUnits; i++ {
		encoded := params.Get(fmt.Sprintf("d[%d]", i))
		if strings.TrimSpace(encoded) == "" {
			break
		}
		if unit, ok := decodeCharCodes(encoded); ok && unit != "" {
			units = append(units, unit)
		}
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("%w: expected d[1], d[2], ... parameters", ErrNoUnits)
	}

	return &models.Dictation{
		Title:     title,
		Language:  LegacyLanguage(firstNonEmpty(params.Get("tl"), params.Get("lang"), "fr")),
		Type:      models.ContentSentences,
		Sentences: units,
	}, nil
}

// LegacyLanguage maps an old two-letter language code to a full tag.
// Unknown codes pass through lower-cased.
func LegacyLanguage(code string) string {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if tag, ok := legacyLanguages[normalized]; ok {
		return tag
	}
	if normalized == "" {
		return models.DefaultLanguage
	}
	return normalized
}

// IsLegacyURL reports whether raw looks like an old-style dictation link
func IsLegacyURL(raw string) bool {
	lower := strings.ToLower(raw)
	return (strings.Contains(lower, "micetf.fr/dictee") || strings.Contains(lower, "d[1]") || strings.Contains(lower, "d%5b1%5d")) &&
		!strings.Contains(lower, ".md")
}

// decodeCharCodes turns "66|111|110" into "Bon". Codes are UTF-16 units.
func decodeCharCodes(encoded string) (string, bool) {
	var codes []uint16
	for _, field := range strings.Split(encoded, "|") {
		if field == "" {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSpace(field), 10, 16)
		if err != nil {
			return "", false
		}
		codes = append(codes, uint16(n))
	}
	return string(utf16.Decode(codes)), true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
