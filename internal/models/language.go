package models

// Language describes a speech language offered to teachers
type Language struct {
	Code     string `json:"code"`
	MainCode string `json:"main_code"`
	Label    string `json:"label"`
	Flag     string `json:"flag"`
}

// DefaultLanguage is used when a dictation has no language yet
const DefaultLanguage = "fr-FR"

// Languages lists the languages offered in the authoring UI
var Languages = []Language{
	{Code: "fr-FR", MainCode: "fr", Label: "Français", Flag: "🇫🇷"},
	{Code: "en-US", MainCode: "en", Label: "Anglais", Flag: "🇬🇧"},
	{Code: "es-ES", MainCode: "es", Label: "Espagnol", Flag: "🇪🇸"},
	{Code: "de-DE", MainCode: "de", Label: "Allemand", Flag: "🇩🇪"},
	{Code: "it-IT", MainCode: "it", Label: "Italien", Flag: "🇮🇹"},
}

// LanguageByCode finds a language by its full code
func LanguageByCode(code string) (Language, bool) {
	for _, lang := range Languages {
		if lang.Code == code {
			return lang, true
		}
	}
	return Language{}, false
}

// LanguageLabel returns "flag label" for known codes and the code itself otherwise
func LanguageLabel(code string) string {
	if lang, ok := LanguageByCode(code); ok {
		return lang.Flag + " " + lang.Label
	}
	return code
}
