package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"dictee/internal/audio"
	"dictee/internal/cloud"
	"dictee/internal/codec"
	"dictee/internal/i18n"
	"dictee/internal/practice"
	"dictee/internal/security"
	"dictee/internal/service"
	"dictee/internal/validation"
)

// errBadRequest marks malformed requests
var errBadRequest = errors.New("bad request")

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable code and a localised message
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// errorMapping associates sentinel errors with a status and code. The
// first match wins.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{practice.ErrEmptyInput, http.StatusUnprocessableEntity, codeEmptyInput},
	{practice.ErrPassNotAllowed, http.StatusConflict, codePassNotAllowed},
	{practice.ErrAlreadyResolved, http.StatusConflict, codeAlreadyResolved},
	{practice.ErrSessionCompleted, http.StatusConflict, codeSessionCompleted},
	{practice.ErrInvalidDictation, http.StatusBadRequest, codeInvalidDictation},
	{service.ErrSessionNotFound, http.StatusNotFound, codeSessionNotFound},
	{service.ErrSessionConflict, http.StatusConflict, codeSessionConflict},
	{service.ErrNotFound, http.StatusNotFound, codeNotFound},
	{service.ErrQuotaExceeded, http.StatusInsufficientStorage, codeQuotaExceeded},
	{service.ErrEmailDisabled, http.StatusServiceUnavailable, codeEmailDisabled},
	{service.ErrInvalidRecipient, http.StatusBadRequest, codeInvalidRecipient},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, codeInvalidCredentials},
	{service.ErrAuthDisabled, http.StatusBadRequest, codeBadRequest},
	{cloud.ErrInvalidURL, http.StatusBadRequest, codeBadRequest},
	{service.ErrInvalidBackup, http.StatusBadRequest, codeInvalidBackup},
	{service.ErrCloudFetch, http.StatusBadGateway, codeCloudFetchFailed},
	{security.ErrInvalidToken, http.StatusUnauthorized, codeUnauthorized},
	{audio.ErrUnsupported, http.StatusServiceUnavailable, codeSpeechUnavailable},
	{codec.ErrMissingFrontMatter, http.StatusBadRequest, codeInvalidMarkdown},
	{codec.ErrUnclosedFrontMatter, http.StatusBadRequest, codeInvalidMarkdown},
	{codec.ErrMissingTitle, http.StatusBadRequest, codeInvalidMarkdown},
	{codec.ErrMissingLanguage, http.StatusBadRequest, codeInvalidMarkdown},
	{codec.ErrIncompleteDictation, http.StatusBadRequest, codeInvalidDictation},
	{codec.ErrNoUnits, http.StatusBadRequest, codeInvalidDictation},
	{codec.ErrInvalidLegacyURL, http.StatusBadRequest, codeInvalidLegacyURL},
	{codec.ErrInvalidShare, http.StatusBadRequest, codeInvalidShare},
	{codec.ErrTooManyUnits, http.StatusBadRequest, codeTooManyUnits},
	{codec.ErrURLTooLong, http.StatusBadRequest, codeURLTooLong},
	{errBadRequest, http.StatusBadRequest, codeBadRequest},
}

// respondWithError maps err to a status and a localised JSON body.
// Unknown errors are logged and reported as 500.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	locale := i18n.MatchLocale(r.Header.Get("Accept-Language"))

	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, ErrorDetail{
			Code:    codeValidationFailed,
			Message: i18n.Translate(locale, "errors."+codeValidationFailed),
			Fields:  verrs.Messages(locale),
		})
		return
	}

	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			slog.Debug("request rejected", "path", r.URL.Path, "code", m.code, "error", err)
			respondWithCode(w, r, m.status, m.code)
			return
		}
	}

	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	respondWithCode(w, r, http.StatusInternalServerError, codeInternal)
}

// respondWithCode writes an error body for a known code
func respondWithCode(w http.ResponseWriter, r *http.Request, status int, code string) {
	locale := i18n.MatchLocale(r.Header.Get("Accept-Language"))
	writeError(w, status, ErrorDetail{Code: code, Message: i18n.Translate(locale, "errors."+code)})
}

func writeError(w http.ResponseWriter, status int, detail ErrorDetail) {
	respondJSON(w, status, ErrorBody{Error: detail})
}

// respondJSON writes v as JSON with the given status
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
