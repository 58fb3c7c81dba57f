package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"

	"dictee/internal/models"
)

var langTagRegex = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)

var (
	validate *validator.Validate
	uni      *ut.UniversalTranslator
)

// customMessages are the texts of the tags registered by this package
var customMessages = map[string]map[string]string{
	"fr": {
		"notblank": "{0} ne doit pas être vide",
		"langtag":  "{0} doit être un code de langue comme fr ou fr-FR",
	},
	"en": {
		"notblank": "{0} must not be blank",
		"langtag":  "{0} must be a language code such as fr or fr-FR",
	},
}

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}))
	mustRegister(validate.RegisterValidation("langtag", func(fl validator.FieldLevel) bool {
		return langTagRegex.MatchString(fl.Field().String())
	}))

	french := fr.New()
	uni = ut.New(french, french, en.New())

	frTrans, _ := uni.GetTranslator("fr")
	mustRegister(fr_translations.RegisterDefaultTranslations(validate, frTrans))
	enTrans, _ := uni.GetTranslator("en")
	mustRegister(en_translations.RegisterDefaultTranslations(validate, enTrans))

	for locale, messages := range customMessages {
		trans, _ := uni.GetTranslator(locale)
		for tag, msg := range messages {
			registerTranslation(trans, tag, msg)
		}
	}
}

func mustRegister(err error) {
	if err != nil {
		panic(fmt.Sprintf("validation: %v", err))
	}
}

func registerTranslation(trans ut.Translator, tag, msg string) {
	mustRegister(validate.RegisterTranslation(tag, trans, func(t ut.Translator) error {
		return t.Add(tag, msg, true)
	}, func(t ut.Translator, fe validator.FieldError) string {
		out, err := t.T(tag, fe.Field())
		if err != nil {
			return fe.Error()
		}
		return out
	}))
}

// FieldError describes one invalid field
type FieldError struct {
	Field string
	Tag   string
	Param string

	fe validator.FieldError
}

// Message returns the error text in the given locale, French by default
func (e FieldError) Message(locale string) string {
	if e.fe == nil {
		return fmt.Sprintf("%s: %s", e.Field, e.Tag)
	}
	return e.fe.Translate(translator(locale))
}

// ValidationErrors is returned when a value fails validation
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field, fe.Tag))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Messages returns the localised message for every invalid field
func (e ValidationErrors) Messages(locale string) map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		out[fe.Field] = fe.Message(locale)
	}
	return out
}

// Struct validates any tagged struct, returning ValidationErrors on failure
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param(), fe: fe})
	}
	return out
}

// ValidateDictation checks title, language, content type and units
func ValidateDictation(d *models.Dictation) error {
	if d == nil {
		return ValidationErrors{{Field: "dictation", Tag: "required"}}
	}
	return Struct(d)
}

// IsLanguageTag reports whether code looks like "fr" or "fr-FR"
func IsLanguageTag(code string) bool {
	return langTagRegex.MatchString(code)
}

func translator(locale string) ut.Translator {
	base := strings.ToLower(strings.SplitN(locale, "-", 2)[0])
	if trans, found := uni.GetTranslator(base); found {
		return trans
	}
	trans, _ := uni.GetTranslator("fr")
	return trans
}
