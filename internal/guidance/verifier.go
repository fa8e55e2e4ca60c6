package guidance

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Compliance thresholds.
const (
	// MinNepaliRunes is the Devanagari rune count Nepali text must reach.
	MinNepaliRunes = 10
	// MinEnglishLength is the rune length English text must exceed.
	MinEnglishLength = 10
)

// Devanagari block bounds.
const (
	devanagariFirst = '\u0900'
	devanagariLast  = '\u097F'
)

var bulletMarkers = []string{"•", "-", "*", "–"}

// ComplianceError explains why a text was rejected for a language.
type ComplianceError struct {
	Language Language
	Reason   string
}

func (e *ComplianceError) Error() string {
	return fmt.Sprintf("text not compliant with %s: %s", e.Language, e.Reason)
}

// Verifier checks that text is bulleted and written in the requested script.
type Verifier struct{}

// Check returns nil when text is acceptable for language.
func (Verifier) Check(text string, language Language) error {
	language = language.orDefault()

	if !HasBullet(text) {
		return &ComplianceError{Language: language, Reason: "no bullet marker at the start of any line"}
	}

	devanagari := CountDevanagari(text)
	switch language {
	case LanguageNepali:
		if devanagari < MinNepaliRunes {
			return &ComplianceError{
				Language: language,
				Reason:   fmt.Sprintf("%d Devanagari characters, need at least %d", devanagari, MinNepaliRunes),
			}
		}
	default:
		if utf8.RuneCountInString(strings.TrimSpace(text)) <= MinEnglishLength {
			return &ComplianceError{Language: language, Reason: "text too short"}
		}
		if devanagari > 0 {
			return &ComplianceError{
				Language: language,
				Reason:   fmt.Sprintf("%d Devanagari characters in English text", devanagari),
			}
		}
	}
	return nil
}

// Compliant is Check without the reason.
func (v Verifier) Compliant(text string, language Language) bool {
	return v.Check(text, language) == nil
}

// CountDevanagari counts runes in the Devanagari block.
func CountDevanagari(text string) int {
	n := 0
	for _, r := range text {
		if r >= devanagariFirst && r <= devanagariLast {
			n++
		}
	}
	return n
}

// HasBullet reports whether any line starts with a bullet marker once
// leading whitespace is trimmed.
func HasBullet(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		for _, m := range bulletMarkers {
			if strings.HasPrefix(line, m) {
				return true
			}
		}
	}
	return false
}
