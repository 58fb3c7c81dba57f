package handlers

import (
	"net/http"
	"time"

	"dictee/internal/security"
	"dictee/internal/service"
)

// AuthHandler handles teacher login and logout
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CSRFToken string    `json:"csrf_token"`
}

type authStatusResponse struct {
	AuthRequired  bool `json:"auth_required"`
	Authenticated bool `json:"authenticated"`
}

// Login checks the teacher password, sets the token cookie and returns the
// token for API clients
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	token, expires, err := h.authService.Login(req.Password)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	tokenID, err := h.authService.Authenticate(token)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	csrfToken, err := h.authService.CSRFToken(tokenID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	http.SetCookie(w, security.CreateTokenCookie(r, token, expires))
	respondJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires, CSRFToken: csrfToken})
}

// Logout clears the token cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r))
	w.WriteHeader(http.StatusNoContent)
}

// Status reports whether authoring needs a login and whether the caller
// holds a valid token
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := authStatusResponse{AuthRequired: h.authService.Enabled()}
	if !resp.AuthRequired {
		resp.Authenticated = true
	} else if token, _ := teacherToken(r); token != "" {
		_, err := h.authService.Authenticate(token)
		resp.Authenticated = err == nil
	}
	respondJSON(w, http.StatusOK, resp)
}
