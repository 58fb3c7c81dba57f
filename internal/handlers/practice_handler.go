package handlers

import (
	"fmt"
	"net/http"

	"dictee/internal/models"
	"dictee/internal/security"
	"dictee/internal/service"
)

// PracticeHandler handles learner sessions
type PracticeHandler struct {
	practiceService  *service.PracticeService
	dictationService *service.DictationService
	shareService     *service.ShareService
}

// NewPracticeHandler creates a new practice handler
func NewPracticeHandler(practiceService *service.PracticeService, dictationService *service.DictationService, shareService *service.ShareService) *PracticeHandler {
	return &PracticeHandler{
		practiceService:  practiceService,
		dictationService: dictationService,
		shareService:     shareService,
	}
}

// StartSession opens a session on a stored, shared or remote dictation
func (h *PracticeHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	var (
		view *service.SessionView
		err  error
	)
	switch sources(req) {
	case 0:
		err = fmt.Errorf("%w: dictation_id, share or cloud_url is required", errBadRequest)
	case 1:
		view, err = h.start(r, req)
	default:
		err = fmt.Errorf("%w: dictation_id, share and cloud_url are exclusive", errBadRequest)
	}
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (h *PracticeHandler) start(r *http.Request, req startSessionRequest) (*service.SessionView, error) {
	ctx := r.Context()
	if req.DictationID != "" {
		return h.practiceService.Start(ctx, req.DictationID)
	}

	var (
		d   *models.Dictation
		err error
	)
	if req.Share != "" {
		d, err = h.shareService.Decode(req.Share)
	} else {
		d, err = h.dictationService.FetchCloud(ctx, req.CloudURL)
	}
	if err != nil {
		return nil, err
	}
	return h.practiceService.StartDictation(ctx, d)
}

func sources(req startSessionRequest) int {
	n := 0
	for _, s := range []string{req.DictationID, req.Share, req.CloudURL} {
		if s != "" {
			n++
		}
	}
	return n
}

// GetSession returns the learner's view of a session
func (h *PracticeHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.practiceService.View(r.Context(), sessionID(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// SubmitAnswer evaluates an answer for the active unit
func (h *PracticeHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	result, err := h.practiceService.Submit(r.Context(), sessionID(r), req.Text)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// PassUnit skips the active unit and reveals its text
func (h *PracticeHandler) PassUnit(w http.ResponseWriter, r *http.Request) {
	result, err := h.practiceService.Pass(r.Context(), sessionID(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// RestartSession discards progress and returns to the first unit
func (h *PracticeHandler) RestartSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.practiceService.Restart(r.Context(), sessionID(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// AbandonSession deletes a session
func (h *PracticeHandler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	if err := h.practiceService.Abandon(r.Context(), sessionID(r)); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAudio serves the spoken version of the active unit
func (h *PracticeHandler) GetAudio(w http.ResponseWriter, r *http.Request) {
	path, err := h.practiceService.Audio(r.Context(), sessionID(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, path)
}

// sessionID returns the session path value. Malformed IDs are replaced by
// an empty string, which no store holds.
func sessionID(r *http.Request) string {
	id := r.PathValue("id")
	if !security.IsValidSessionID(id) {
		return ""
	}
	return id
}
