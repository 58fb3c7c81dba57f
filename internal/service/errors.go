package service

import (
	"errors"

	"dictee/internal/repository"
	"dictee/internal/sessionstore"
)

var (
	// ErrNotFound is returned when a dictation does not exist
	ErrNotFound = errors.New("not found")

	// ErrSessionNotFound is returned for unknown or expired play sessions
	ErrSessionNotFound = sessionstore.ErrNotFound

	// ErrSessionConflict is returned when a session kept changing under
	// concurrent saves
	ErrSessionConflict = sessionstore.ErrConflict

	// ErrQuotaExceeded is returned when the dictation limit is reached
	ErrQuotaExceeded = repository.ErrQuotaExceeded

	// ErrEmailDisabled is returned when no sender address is configured
	ErrEmailDisabled = errors.New("email delivery disabled")

	// ErrInvalidRecipient is returned for a malformed email address
	ErrInvalidRecipient = errors.New("invalid recipient")

	// ErrInvalidCredentials is returned for a wrong teacher password
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAuthDisabled is returned by Login when no password is configured
	ErrAuthDisabled = errors.New("authentication disabled")

	// ErrInvalidBackup is returned when a backup file cannot be decoded
	ErrInvalidBackup = errors.New("invalid backup")

	// ErrCloudFetch wraps failures to download a remote dictation
	ErrCloudFetch = errors.New("cloud fetch failed")
)
