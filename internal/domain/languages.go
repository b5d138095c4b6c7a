package domain

import "strings"

// Language is one OCR language code supported by the job boundary.
type Language struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Installed bool   `json:"installed"`
}

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "eng"

// Languages is the closed set of language codes a job may request.
var Languages = []Language{
	{Code: "eng", Name: "English"},
	{Code: "deu", Name: "German"},
	{Code: "fra", Name: "French"},
	{Code: "spa", Name: "Spanish"},
	{Code: "ita", Name: "Italian"},
	{Code: "por", Name: "Portuguese"},
	{Code: "rus", Name: "Russian"},
	{Code: "chi_sim", Name: "Chinese (Simplified)"},
	{Code: "jpn", Name: "Japanese"},
	{Code: "kor", Name: "Korean"},
	{Code: "ara", Name: "Arabic"},
	{Code: "hin", Name: "Hindi"},
}

// LookupLanguage returns the catalog entry for code.
func LookupLanguage(code string) (Language, bool) {
	code = strings.TrimSpace(code)
	for _, lang := range Languages {
		if lang.Code == code {
			return lang, true
		}
	}
	return Language{}, false
}

// IsSupportedLanguage reports whether code belongs to the closed language set.
func IsSupportedLanguage(code string) bool {
	_, ok := LookupLanguage(code)
	return ok
}

// LanguageCodes returns all supported codes in catalog order.
func LanguageCodes() []string {
	codes := make([]string, 0, len(Languages))
	for _, lang := range Languages {
		codes = append(codes, lang.Code)
	}
	return codes
}

// CatalogWithInstalled returns a copy of Languages with Installed set for
// every code present in installed.
func CatalogWithInstalled(installed []string) []Language {
	have := make(map[string]struct{}, len(installed))
	for _, code := range installed {
		have[strings.TrimSpace(code)] = struct{}{}
	}
	langs := make([]Language, len(Languages))
	copy(langs, Languages)
	for i := range langs {
		_, langs[i].Installed = have[langs[i].Code]
	}
	return langs
}
