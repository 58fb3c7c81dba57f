package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dictee/internal/service"
)

// maxBackupBytes bounds an uploaded backup
const maxBackupBytes = 10 << 20

// AudioCatalog lists the cached speech files
type AudioCatalog interface {
	GetAllAudioFiles() ([]string, error)
}

// AdminHandler handles database backup and restore
type AdminHandler struct {
	backupService *service.BackupService
	sessionCount  func() int
	audio         AudioCatalog
}

// NewAdminHandler creates a new admin handler. sessionCount reports live
// sessions and may be nil when the store cannot count them; audio is nil
// when speech is disabled.
func NewAdminHandler(backupService *service.BackupService, sessionCount func() int, audio AudioCatalog) *AdminHandler {
	return &AdminHandler{backupService: backupService, sessionCount: sessionCount, audio: audio}
}

type adminStatsResponse struct {
	*service.DatabaseStats
	ActiveSessions *int `json:"active_sessions,omitempty"`
	CachedAudio    *int `json:"cached_audio,omitempty"`
}

// ExportDatabase streams a JSON backup as a download
func (h *AdminHandler) ExportDatabase(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("dictee_backup_%s.json", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := h.backupService.ExportToWriter(r.Context(), w); err != nil {
		// Headers are gone once encoding started; log only.
		slog.Error("database export failed", "error", err)
		return
	}
	slog.Info("database exported", "teacher", GetTeacherFromContext(r.Context()))
}

// ImportDatabase restores a backup sent as a multipart backup_file field or
// as the raw JSON body. clear_data=true empties the database first.
func (h *AdminHandler) ImportDatabase(w http.ResponseWriter, r *http.Request) {
	var (
		body      io.Reader
		clearData bool
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxBackupBytes); err != nil {
			respondWithError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		file, _, err := r.FormFile("backup_file")
		if err != nil {
			respondWithError(w, r, fmt.Errorf("%w: backup_file is required", errBadRequest))
			return
		}
		defer file.Close()
		body = file
		clearData = r.FormValue("clear_data") == "true"
	} else {
		body = http.MaxBytesReader(w, r.Body, maxBackupBytes)
		clearData, _ = strconv.ParseBool(r.URL.Query().Get("clear_data"))
	}

	report, err := h.backupService.ImportFromReader(r.Context(), body, clearData)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	slog.Info("database imported", "clear_data", clearData, "dictations", report.Dictations, "skipped", len(report.Skipped))
	respondJSON(w, http.StatusOK, report)
}

// Stats reports row counts, live sessions and cached speech files
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.backupService.Stats(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	resp := adminStatsResponse{DatabaseStats: stats}
	if h.sessionCount != nil {
		n := h.sessionCount()
		resp.ActiveSessions = &n
	}
	if h.audio != nil {
		files, err := h.audio.GetAllAudioFiles()
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		n := len(files)
		resp.CachedAudio = &n
	}
	respondJSON(w, http.StatusOK, resp)
}
