package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"dictee/internal/service"
)

// ImportHandler handles dictation imports
type ImportHandler struct {
	dictationService *service.DictationService
	shareService     *service.ShareService
}

// NewImportHandler creates a new import handler
func NewImportHandler(dictationService *service.DictationService, shareService *service.ShareService) *ImportHandler {
	return &ImportHandler{
		dictationService: dictationService,
		shareService:     shareService,
	}
}

// ImportMarkdown stores a dictation from Markdown. The body is either a
// JSON object with a content field or the raw Markdown text.
func (h *ImportHandler) ImportMarkdown(w http.ResponseWriter, r *http.Request) {
	content, err := readMarkdown(w, r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	d, err := h.dictationService.ImportMarkdown(r.Context(), content)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

// ImportLegacy stores a dictation decoded from an old-format URL
func (h *ImportHandler) ImportLegacy(w http.ResponseWriter, r *http.Request) {
	var req importURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	d, err := h.dictationService.ImportLegacy(r.Context(), req.URL)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

// ImportShared stores the dictation carried by a share payload
func (h *ImportHandler) ImportShared(w http.ResponseWriter, r *http.Request) {
	var req importSharedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	d, err := h.dictationService.ImportShared(r.Context(), req.Payload)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

// ImportCloud stores one remote dictation, or several when urls is given.
// A batch always answers 200 with one outcome per URL.
func (h *ImportHandler) ImportCloud(w http.ResponseWriter, r *http.Request) {
	var req importCloudRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	switch {
	case len(req.URLs) > 0 && req.URL != "":
		respondWithError(w, r, fmt.Errorf("%w: url and urls are exclusive", errBadRequest))
	case len(req.URLs) > maxBatchURLs:
		respondWithError(w, r, fmt.Errorf("%w: at most %d urls", errBadRequest, maxBatchURLs))
	case len(req.URLs) > 0:
		outcomes := h.shareService.ImportCloudBatch(r.Context(), req.URLs)
		resp := importBatchResponse{Outcomes: outcomes}
		for _, o := range outcomes {
			if o.Err() != nil {
				resp.Failed++
			} else {
				resp.Imported++
			}
		}
		respondJSON(w, http.StatusOK, resp)
	default:
		d, err := h.dictationService.ImportCloud(r.Context(), req.URL)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, d)
	}
}

func readMarkdown(w http.ResponseWriter, r *http.Request) (string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req importMarkdownRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return "", err
		}
		return req.Content, nil
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return string(data), nil
}
