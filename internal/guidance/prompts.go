package guidance

import (
	"fmt"
	"strings"

	"github.com/a3tai/mcp-form-guide/internal/intelligence"
)

const englishInstruction = `You are a helpful assistant for Nepali government forms.
Respond ONLY in English. Do not use Nepali words or Devanagari script.
Format the answer as bullet points starting with "•".
Keep it to 1-2 short sentences.`

const nepaliInstruction = `You are a helpful assistant for Nepali government forms.
तपाईंले नेपाली भाषामा मात्र जवाफ दिनुपर्छ।
Respond ONLY in Nepali using Devanagari script. Do not answer in English.
Format the answer as bullet points starting with "•".
Keep it to 1-2 short sentences.`

const englishRetryDirective = `IMPORTANT: Your previous answer did not follow the language rules.
Answer in English only. Do not include a single Devanagari character.
Every line must start with "•".`

const nepaliRetryDirective = `IMPORTANT: Your previous answer did not follow the language rules.
जवाफ पूर्ण रूपमा नेपाली भाषा र देवनागरी लिपिमा मात्र लेख्नुहोस्।
Do not use English sentences. Every line must start with "•".`

// SystemInstruction returns the system role text for language. A retry
// appends the reinforced directive.
func SystemInstruction(language Language, retry bool) string {
	base, directive := englishInstruction, englishRetryDirective
	if language.orDefault() == LanguageNepali {
		base, directive = nepaliInstruction, nepaliRetryDirective
	}
	if !retry {
		return base
	}
	return base + "\n\n" + directive
}

// FieldPrompt asks for guidance on one form field.
func FieldPrompt(field string, category intelligence.Category) string {
	return fmt.Sprintf(
		"Give brief guidance for filling in the %q field of the Nepal %s form (%s). "+
			"Say what to enter and the expected format.",
		DisplayName(field), category.DisplayName(), category.NepaliName())
}

// ChatPrompt wraps a user question with optional form reference data.
func ChatPrompt(question, formContext string) string {
	var sb strings.Builder
	if ctx := strings.TrimSpace(formContext); ctx != "" {
		sb.WriteString("Reference information about the form:\n")
		sb.WriteString(ctx)
		sb.WriteString("\n\n")
	}
	sb.WriteString("User question: ")
	sb.WriteString(strings.TrimSpace(question))
	return sb.String()
}
