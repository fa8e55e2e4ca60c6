package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	FormDetectDescription = `Decide whether a web page is a Nepal government form and which one.

**When to use:** You have the HTML of a page (or a saved .html file in the data directory) and need to know if it is a citizenship, passport, driving license, PAN, national ID or Lok Sewa form.

**Why it's useful:** Separates "not a form at all" (none) from "a form of unrecognized type" (unknown), and lists the fillable fields in the same call.

**Examples:**
• Saved page: "Detect the form in passport-apply.html"
• Pasted markup: "Is this HTML a government form?"

**Common workflows:**
1. Guidance: form_detect → form_field_guidance for the fields the user is stuck on
2. Whole form: form_detect → form_guide

**Best practices:** Pass either html or path. Hidden, submit and button inputs are never listed as fields.`

	FormExtractFieldsDescription = `List the fillable fields of a page with their input type and label.

**When to use:** You only need the fields, not the form category.

**Examples:**
• "Which fields does driving-license.html ask for?"

**Best practices:** Field identifiers come from the name attribute, then id, then placeholder.`

	FormFieldGuidanceDescription = `Explain how to fill in one form field, in English or Nepali.

**When to use:** The user asks what to enter in a specific field such as full_name, date_of_birth or citizenship_no.

**Why it's useful:** Answers are short bullet points in exactly one language. When generated text is unavailable or comes back in the wrong language, a fixed template for that kind of field is returned instead.

**Examples:**
• "How do I fill date_of_birth on the passport form, in Nepali?"
• "What goes in father_name for citizenship?"

**Best practices:** Pass form_type from form_detect for category-specific wording. The response source tells you whether the text was generated or templated.`

	FormGuideDescription = `Detect a form and produce guidance for every field in one call.

**When to use:** The user wants a walkthrough of a whole page.

**Examples:**
• "Walk me through citizenship-form.html in Nepali"

**Best practices:** Pages that are not forms return no field guidance.`

	FormInfoDescription = `Get reference information for one form type: required documents, process steps, offices and contact details.

**When to use:** The user asks what they need before applying, or where to go.

**Examples:**
• "What documents does the PAN application need?"

**Best practices:** Accepts citizenship, passport, driving-license, pan, national-id, lok-sewa and the older ids nid and loksewa.`

	FormListDescription = `List every supported form type with its English and Nepali names.`

	FormChatDescription = `Answer a free-form question about Nepal government forms.

**When to use:** Questions that are not about a single field, such as fees, processing time or office locations.

**Examples:**
• "How long does a passport take?"
• "नागरिकताको लागि कुन कागजात चाहिन्छ?" with language nepali

**Best practices:** Pass form_type to ground the answer in that form's reference data.`

	LanguageGetDescription = `Get the stored guidance language (english or nepali).`

	LanguageSetDescription = `Store the guidance language used when a request does not name one.

**Best practices:** Unrecognized values are stored as english.`

	DocumentListDescription = `List the saved HTML pages in the data directory.

**When to use:** To find a path to pass to form_detect or form_guide.`

	ServerStatusDescription = `Report whether generated guidance is available, the model in use, the stored language and the classifier stages.

**When to use:** To explain why answers are templated (mode "fallback") instead of generated.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"form_detect":         FormDetectDescription,
	"form_extract_fields": FormExtractFieldsDescription,
	"form_field_guidance": FormFieldGuidanceDescription,
	"form_guide":          FormGuideDescription,
	"form_info":           FormInfoDescription,
	"form_list":           FormListDescription,
	"form_chat":           FormChatDescription,
	"language_get":        LanguageGetDescription,
	"language_set":        LanguageSetDescription,
	"document_list":       DocumentListDescription,
	"server_status":       ServerStatusDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns all tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
