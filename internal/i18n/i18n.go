// Package i18n holds the user-facing message catalogues.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when the client asks for nothing we know
const DefaultLocale = "fr"

//go:embed locales/*.yaml
var localeFS embed.FS

// Catalog maps locale to flattened message keys such as "errors.not_found"
type Catalog struct {
	messages map[string]map[string]string
}

var defaultCatalog = mustLoad()

func mustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Load parses every embedded locale file
func Load() (*Catalog, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read locales: %w", err)
	}

	c := &Catalog{messages: make(map[string]map[string]string)}
	for _, entry := range entries {
		data, err := localeFS.ReadFile(path.Join("locales", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}

		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
		}

		flat := make(map[string]string)
		flatten("", tree, flat)
		c.messages[strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))] = flat
	}
	if _, ok := c.messages[DefaultLocale]; !ok {
		return nil, fmt.Errorf("missing default locale %q", DefaultLocale)
	}
	return c, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Locales returns the available locales, sorted
func (c *Catalog) Locales() []string {
	locales := make([]string, 0, len(c.messages))
	for l := range c.messages {
		locales = append(locales, l)
	}
	sort.Strings(locales)
	return locales
}

// Translate returns the message for key in locale, falling back to the
// default locale and then to the key itself. {name} placeholders are
// replaced from args.
func (c *Catalog) Translate(locale, key string, args map[string]string) string {
	msg, ok := c.messages[locale][key]
	if !ok {
		msg, ok = c.messages[DefaultLocale][key]
	}
	if !ok {
		return key
	}
	for name, value := range args {
		msg = strings.ReplaceAll(msg, "{"+name+"}", value)
	}
	return msg
}

// Translate looks key up in the embedded catalogue
func Translate(locale, key string) string {
	return defaultCatalog.Translate(locale, key, nil)
}

// Format looks key up and fills its placeholders
func Format(locale, key string, args map[string]string) string {
	return defaultCatalog.Translate(locale, key, args)
}

// Supported reports whether locale has a catalogue
func Supported(locale string) bool {
	_, ok := defaultCatalog.messages[locale]
	return ok
}

// MatchLocale picks the first supported language of an Accept-Language
// header, ignoring quality weights
func MatchLocale(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		base, _, _ := strings.Cut(strings.ToLower(tag), "-")
		if Supported(base) {
			return base
		}
	}
	return DefaultLocale
}
