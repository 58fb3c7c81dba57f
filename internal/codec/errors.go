package codec

import "errors"

var (
	ErrMissingFrontMatter  = errors.New("missing front matter: content must start with ---")
	ErrUnclosedFrontMatter = errors.New("unclosed front matter: closing --- not found")
	ErrMissingTitle        = errors.New("front matter has no title")
	ErrMissingLanguage     = errors.New("front matter has no language")
	ErrNoUnits             = errors.New("no units found")
	ErrIncompleteDictation = errors.New("dictation needs a title, a language and at least one unit")
	ErrInvalidLegacyURL    = errors.New("invalid legacy URL")
	ErrInvalidShare        = errors.New("invalid share payload")
	ErrTooManyUnits        = errors.New("too many units to share by link")
	ErrURLTooLong          = errors.New("share link too long")
)
