package handlers

import (
	"dictee/internal/models"
	"dictee/internal/service"
)

// dictationRequest is the body of create and update calls
type dictationRequest struct {
	Title     string             `json:"title"`
	Language  string             `json:"language"`
	Type      models.ContentType `json:"type"`
	Sentences []string           `json:"sentences"`
}

func (r dictationRequest) toModel() *models.Dictation {
	return &models.Dictation{
		Title:     r.Title,
		Language:  r.Language,
		Type:      r.Type,
		Sentences: r.Sentences,
	}
}

type dictationListResponse struct {
	Dictations []models.Dictation `json:"dictations"`
	Total      int                `json:"total"`
}

type resultsResponse struct {
	DictationID string                  `json:"dictation_id"`
	Results     []models.PracticeResult `json:"results"`
}

type languageView struct {
	models.Language
	Display string `json:"display"`
}

type languagesResponse struct {
	Default   string         `json:"default"`
	Languages []languageView `json:"languages"`
}

type importMarkdownRequest struct {
	Content string `json:"content"`
}

type importURLRequest struct {
	URL string `json:"url"`
}

type importSharedRequest struct {
	Payload string `json:"payload"`
}

type importCloudRequest struct {
	URL  string   `json:"url,omitempty"`
	URLs []string `json:"urls,omitempty"`
}

type importBatchResponse struct {
	Outcomes []service.ImportOutcome `json:"outcomes"`
	Imported int                     `json:"imported"`
	Failed   int                     `json:"failed"`
}

type cloudShareRequest struct {
	URL string `json:"url"`
}

type emailShareRequest struct {
	To string `json:"to"`
}

// startSessionRequest names exactly one source for the dictation to play
type startSessionRequest struct {
	DictationID string `json:"dictation_id,omitempty"`
	Share       string `json:"share,omitempty"`
	CloudURL    string `json:"cloud_url,omitempty"`
}

type answerRequest struct {
	Text string `json:"text"`
}
