package handlers

import (
	"net/http"

	"dictee/internal/security"
)

// Routes groups the handlers mounted on the API mux
type Routes struct {
	Middleware   *Middleware
	LoginLimiter *security.RateLimiter
	Auth         *AuthHandler
	Dictations   *DictationHandler
	Imports      *ImportHandler
	Shares       *ShareHandler
	Practice     *PracticeHandler
	Admin        *AdminHandler
}

// Register mounts every API route on mux. Probes are mounted separately so
// they answer while the rest of the server is starting.
func (rt *Routes) Register(mux *http.ServeMux) {
	teacher := rt.Middleware.RequireTeacher

	// Teacher authentication
	mux.HandleFunc("POST /api/auth/login", RateLimit(rt.LoginLimiter, rt.Auth.Login))
	mux.HandleFunc("POST /api/auth/logout", rt.Auth.Logout)
	mux.HandleFunc("GET /api/auth/status", rt.Auth.Status)

	// Dictations
	mux.HandleFunc("GET /api/languages", rt.Dictations.ListLanguages)
	mux.HandleFunc("GET /api/dictations", rt.Dictations.ListDictations)
	mux.HandleFunc("POST /api/dictations", teacher(rt.Dictations.CreateDictation))
	mux.HandleFunc("GET /api/dictations/{id}", rt.Dictations.GetDictation)
	mux.HandleFunc("PUT /api/dictations/{id}", teacher(rt.Dictations.UpdateDictation))
	mux.HandleFunc("DELETE /api/dictations/{id}", teacher(rt.Dictations.DeleteDictation))
	mux.HandleFunc("POST /api/dictations/{id}/duplicate", teacher(rt.Dictations.DuplicateDictation))
	mux.HandleFunc("GET /api/dictations/{id}/markdown", rt.Dictations.DownloadMarkdown)
	mux.HandleFunc("GET /api/dictations/{id}/results", teacher(rt.Dictations.ListResults))

	// Sharing
	mux.HandleFunc("POST /api/dictations/{id}/share", rt.Shares.ShareDictation)
	mux.HandleFunc("POST /api/dictations/{id}/share/email", teacher(rt.Shares.EmailDictation))
	mux.HandleFunc("POST /api/share/cloud", rt.Shares.ShareCloud)

	// Imports
	mux.HandleFunc("POST /api/import/markdown", teacher(rt.Imports.ImportMarkdown))
	mux.HandleFunc("POST /api/import/legacy", teacher(rt.Imports.ImportLegacy))
	mux.HandleFunc("POST /api/import/shared", teacher(rt.Imports.ImportShared))
	mux.HandleFunc("POST /api/import/cloud", teacher(rt.Imports.ImportCloud))

	// Sessions
	mux.HandleFunc("POST /api/sessions", rt.Practice.StartSession)
	mux.HandleFunc("GET /api/sessions/{id}", rt.Practice.GetSession)
	mux.HandleFunc("POST /api/sessions/{id}/answer", rt.Practice.SubmitAnswer)
	mux.HandleFunc("POST /api/sessions/{id}/pass", rt.Practice.PassUnit)
	mux.HandleFunc("POST /api/sessions/{id}/restart", rt.Practice.RestartSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", rt.Practice.AbandonSession)
	mux.HandleFunc("GET /api/sessions/{id}/audio", rt.Practice.GetAudio)

	// Backup
	if rt.Admin != nil {
		mux.HandleFunc("GET /api/admin/stats", teacher(rt.Admin.Stats))
		mux.HandleFunc("GET /api/admin/backup", teacher(rt.Admin.ExportDatabase))
		mux.HandleFunc("POST /api/admin/backup", teacher(rt.Admin.ImportDatabase))
	}
}
