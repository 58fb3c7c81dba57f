package codec

import (
	"regexp"
	"strings"

	"dictee/internal/models"
)

const frontMatterDelimiter = "---"

// ParseMarkdown reads a dictation from its Markdown form: a front matter
// block with title, language and an optional type, then one unit per
// non-blank line. The returned dictation has no ID or timestamps.
func ParseMarkdown(content string) (*models.Dictation, error) {
	lines := strings.Split(content, "\n")
	if len(lines) < 3 || strings.TrimSpace(lines[0]) != frontMatterDelimiter {
		return nil, ErrMissingFrontMatter
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontMatterDelimiter {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, ErrUnclosedFrontMatter
	}

	meta := make(map[string]string)
	for _, line := range lines[1:end] {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		meta[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if meta["title"] == "" {
		return nil, ErrMissingTitle
	}
	if meta["language"] == "" {
		return nil, ErrMissingLanguage
	}

	var units []string
	for _, line := range lines[end+1:] {
		if unit := strings.TrimSpace(line); unit != "" {
			units = append(units, unit)
		}
	}
	if len(units) == 0 {
		return nil, ErrNoUnits
	}

	contentType := models.ContentSentences
	if models.ContentType(meta["type"]) == models.ContentWords {
		contentType = models.ContentWords
	}

	return &models.Dictation{
		Title:     meta["title"],
		Language:  meta["language"],
		Type:      contentType,
		Sentences: units,
	}, nil
}

// GenerateMarkdown writes d in the form read by ParseMarkdown
func GenerateMarkdown(d *models.Dictation) (string, error) {
	if d == nil || d.Title == "" || d.Language == "" || len(d.Sentences) == 0 {
		return "", ErrIncompleteDictation
	}

	var b strings.Builder
	b.WriteString(frontMatterDelimiter + "\n")
	b.WriteString("title: " + d.Title + "\n")
	b.WriteString("language: " + d.Language + "\n")
	if d.Type == models.ContentWords {
		b.WriteString("type: " + string(models.ContentWords) + "\n")
	}
	b.WriteString(frontMatterDelimiter + "\n\n")
	b.WriteString(strings.Join(d.Sentences, "\n"))
	b.WriteString("\n")

	return b.String(), nil
}

var filenameUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeFilename turns a title into a lower-case, dash-separated file stem
func SanitizeFilename(title string) string {
	name := filenameUnsafe.ReplaceAllString(strings.TrimSpace(strings.ToLower(title)), "-")
	name = strings.Trim(name, "-")
	if name == "" {
		return "dictee"
	}
	return name
}
