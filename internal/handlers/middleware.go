package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dictee/internal/security"
	"dictee/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// TeacherContextKey holds the ID of the teacher token on authorised requests
const TeacherContextKey ContextKey = "teacher"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService) *Middleware {
	return &Middleware{authService: authService}
}

// RequireTeacher guards authoring routes. A bearer token or the token
// cookie is accepted; cookie-authenticated writes must also carry a CSRF
// token. When no teacher password is configured every request passes.
func (m *Middleware) RequireTeacher(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.authService.Enabled() {
			next(w, r)
			return
		}

		token, fromCookie := teacherToken(r)
		if token == "" {
			respondWithCode(w, r, http.StatusUnauthorized, codeUnauthorized)
			return
		}

		tokenID, err := m.authService.Authenticate(token)
		if err != nil {
			if fromCookie {
				http.SetCookie(w, security.CreateDeleteCookie(r))
			}
			respondWithCode(w, r, http.StatusUnauthorized, codeUnauthorized)
			return
		}

		if fromCookie && !isSafeMethod(r.Method) &&
			!m.authService.ValidCSRF(tokenID, r.Header.Get(security.CSRFHeader)) {
			slog.Warn("csrf check failed", "path", r.URL.Path, "ip", security.GetClientIP(r))
			respondWithCode(w, r, http.StatusForbidden, codeForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), TeacherContextKey, tokenID)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit rejects clients that exceed the limiter's budget
func RateLimit(limiter *security.RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !limiter.Allow(ip) {
			slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondWithCode(w, r, http.StatusTooManyRequests, codeRateLimited)
			return
		}
		next(w, r)
	}
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// teacherToken extracts the token from the Authorization header or, failing
// that, from the token cookie
func teacherToken(r *http.Request) (token string, fromCookie bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		if rest, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(rest), false
		}
		return "", false
	}
	if cookie, err := r.Cookie(security.TokenCookieName); err == nil {
		return cookie.Value, true
	}
	return "", false
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// GetTeacherFromContext returns the teacher token ID, empty in open mode
func GetTeacherFromContext(ctx context.Context) string {
	id, _ := ctx.Value(TeacherContextKey).(string)
	return id
}
