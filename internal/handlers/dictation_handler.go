package handlers

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"dictee/internal/models"
	"dictee/internal/service"
)

// DictationHandler handles dictation authoring requests
type DictationHandler struct {
	dictationService *service.DictationService
	practiceService  *service.PracticeService
}

// NewDictationHandler creates a new dictation handler
func NewDictationHandler(dictationService *service.DictationService, practiceService *service.PracticeService) *DictationHandler {
	return &DictationHandler{
		dictationService: dictationService,
		practiceService:  practiceService,
	}
}

// ListDictations returns stored dictations, filtered by the query string
func (h *DictationHandler) ListDictations(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	dictations, err := h.dictationService.List(r.Context(), filter)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	total, err := h.dictationService.Count(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	if dictations == nil {
		dictations = []models.Dictation{}
	}
	respondJSON(w, http.StatusOK, dictationListResponse{Dictations: dictations, Total: total})
}

// CreateDictation stores a new dictation
func (h *DictationHandler) CreateDictation(w http.ResponseWriter, r *http.Request) {
	var req dictationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	d, err := h.dictationService.Create(r.Context(), req.toModel())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

// GetDictation returns one dictation
func (h *DictationHandler) GetDictation(w http.ResponseWriter, r *http.Request) {
	d, err := h.dictationService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// UpdateDictation replaces the content of a dictation
func (h *DictationHandler) UpdateDictation(w http.ResponseWriter, r *http.Request) {
	var req dictationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	d, err := h.dictationService.Update(r.Context(), r.PathValue("id"), req.toModel())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// DeleteDictation removes a dictation and its results
func (h *DictationHandler) DeleteDictation(w http.ResponseWriter, r *http.Request) {
	if err := h.dictationService.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateDictation stores a copy of a dictation
func (h *DictationHandler) DuplicateDictation(w http.ResponseWriter, r *http.Request) {
	d, err := h.dictationService.Duplicate(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

// DownloadMarkdown serves a dictation as a Markdown attachment
func (h *DictationHandler) DownloadMarkdown(w http.ResponseWriter, r *http.Request) {
	filename, content, err := h.dictationService.ExportMarkdown(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

// ListResults returns the completed sessions of a dictation
func (h *DictationHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.dictationService.Get(r.Context(), id); err != nil {
		respondWithError(w, r, err)
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"), defaultResultsLimit)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	results, err := h.practiceService.Results(r.Context(), id, limit)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if results == nil {
		results = []models.PracticeResult{}
	}
	respondJSON(w, http.StatusOK, resultsResponse{DictationID: id, Results: results})
}

// ListLanguages returns the languages offered for dictations
func (h *DictationHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	langs := make([]languageView, 0, len(models.Languages))
	for _, lang := range models.Languages {
		langs = append(langs, languageView{Language: lang, Display: models.LanguageLabel(lang.Code)})
	}
	respondJSON(w, http.StatusOK, languagesResponse{Default: models.DefaultLanguage, Languages: langs})
}

func parseFilter(r *http.Request) (models.DictationFilter, error) {
	q := r.URL.Query()
	filter := models.DictationFilter{
		Language: q.Get("language"),
		Type:     models.ContentType(q.Get("type")),
		Search:   strings.TrimSpace(q.Get("q")),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return filter, fmt.Errorf("%w: unknown type %q", errBadRequest, filter.Type)
	}

	limit, err := parseLimit(q.Get("limit"), 0)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit

	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, fmt.Errorf("%w: invalid offset %q", errBadRequest, raw)
		}
		filter.Offset = offset
	}
	return filter, nil
}

// parseLimit reads a positive limit, capped at maxListLimit
func parseLimit(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("%w: invalid limit %q", errBadRequest, raw)
	}
	return min(limit, maxListLimit), nil
}
