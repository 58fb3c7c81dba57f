package handlers

import (
	"net/http"

	"dictee/internal/i18n"
	"dictee/internal/service"
)

// ShareHandler handles share links and share-by-email
type ShareHandler struct {
	shareService *service.ShareService
}

// NewShareHandler creates a new share handler
func NewShareHandler(shareService *service.ShareService) *ShareHandler {
	return &ShareHandler{shareService: shareService}
}

// ShareDictation returns a self-contained link to a stored dictation
func (h *ShareHandler) ShareDictation(w http.ResponseWriter, r *http.Request) {
	link, err := h.shareService.Link(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, link)
}

// ShareCloud wraps a public cloud file URL into a share link
func (h *ShareHandler) ShareCloud(w http.ResponseWriter, r *http.Request) {
	var req cloudShareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	link, err := h.shareService.CloudLink(req.URL)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, link)
}

// EmailDictation mails the share link of a dictation
func (h *ShareHandler) EmailDictation(w http.ResponseWriter, r *http.Request) {
	var req emailShareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	locale := i18n.MatchLocale(r.Header.Get("Accept-Language"))
	link, err := h.shareService.SendByEmail(r.Context(), r.PathValue("id"), req.To, locale)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, link)
}
