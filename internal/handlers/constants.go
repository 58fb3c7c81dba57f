package handlers

const (
	// maxBodyBytes bounds JSON and Markdown request bodies
	maxBodyBytes = 1 << 20

	// defaultResultsLimit is used when ?limit= is absent
	defaultResultsLimit = 50

	// maxListLimit caps ?limit= on listings
	maxListLimit = 200

	// maxBatchURLs caps a cloud batch import
	maxBatchURLs = 20
)

// Error codes returned in JSON error bodies. Each has a message in the
// i18n catalogues under "errors.<code>".
const (
	codeBadRequest         = "bad_request"
	codeUnauthorized       = "unauthorized"
	codeForbidden          = "forbidden"
	codeInvalidCredentials = "invalid_credentials"
	codeRateLimited        = "rate_limited"
	codeNotFound           = "not_found"
	codeSessionNotFound    = "session_not_found"
	codeSessionConflict    = "session_conflict"
	codeEmptyInput         = "empty_input"
	codeAlreadyResolved    = "already_resolved"
	codePassNotAllowed     = "pass_not_allowed"
	codeSessionCompleted   = "session_completed"
	codeInvalidDictation   = "invalid_dictation"
	codeValidationFailed   = "validation_failed"
	codeQuotaExceeded      = "quota_exceeded"
	codeInvalidMarkdown    = "invalid_markdown"
	codeInvalidLegacyURL   = "invalid_legacy_url"
	codeInvalidShare       = "invalid_share"
	codeTooManyUnits       = "too_many_units"
	codeURLTooLong         = "url_too_long"
	codeCloudFetchFailed   = "cloud_fetch_failed"
	codeSpeechUnavailable  = "speech_unavailable"
	codeEmailDisabled      = "email_disabled"
	codeInvalidRecipient   = "invalid_recipient"
	codeInvalidBackup      = "invalid_backup"
	codeInternal           = "internal"
)
