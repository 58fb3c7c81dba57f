package models

import "time"

// ContentType selects how answers are compared for a dictation
type ContentType string

const (
	// ContentSentences compares whole sentences, case and punctuation included
	ContentSentences ContentType = "sentences"
	// ContentWords compares isolated words, ignoring case and edge punctuation
	ContentWords ContentType = "words"
)

// Valid reports whether t is one of the known content types
func (t ContentType) Valid() bool {
	return t == ContentSentences || t == ContentWords
}

// Limits on dictation content
const (
	MaxTitleLength = 100
	MaxUnits       = 100
	MaxUnitLength  = 500
)

// Dictation is a named, language-tagged ordered list of units to dictate
type Dictation struct {
	ID        string      `json:"id"`
	Title     string      `json:"title" validate:"notblank,max=100"`
	Language  string      `json:"language" validate:"required,langtag"`
	Type      ContentType `json:"type" validate:"omitempty,oneof=sentences words"`
	Sentences []string    `json:"sentences" validate:"required,min=1,max=100,dive,notblank,max=500"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// UnitCount returns the number of units in the dictation
func (d *Dictation) UnitCount() int {
	return len(d.Sentences)
}

// ContentTypeOrDefault returns the content type, falling back to sentences
func (d *Dictation) ContentTypeOrDefault() ContentType {
	if d.Type.Valid() {
		return d.Type
	}
	return ContentSentences
}

// DictationFilter narrows a dictation listing
type DictationFilter struct {
	Language string
	Type     ContentType
	Search   string
	Limit    int
	Offset   int
}
