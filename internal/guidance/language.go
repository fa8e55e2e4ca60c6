// Package guidance produces short, bulleted help text for form fields and
// chat questions in the requested language.
package guidance

import "strings"

// Language is the output language of guidance text.
type Language string

const (
	LanguageEnglish Language = "english"
	LanguageNepali  Language = "nepali"
)

// DefaultLanguage is used when a request names no language.
const DefaultLanguage = LanguageEnglish

// ParseLanguage accepts the language names and common short codes.
func ParseLanguage(s string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "english", "en", "eng":
		return LanguageEnglish, true
	case "nepali", "ne", "np", "nep", "नेपाली":
		return LanguageNepali, true
	default:
		return DefaultLanguage, false
	}
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageNepali
}

func (l Language) orDefault() Language {
	if l.Valid() {
		return l
	}
	return DefaultLanguage
}

// Source records where the delivered text came from.
type Source string

const (
	SourceExternalPrimary Source = "external-primary"
	SourceExternalRetry   Source = "external-retry"
	SourceFallback        Source = "fallback-template"
)
