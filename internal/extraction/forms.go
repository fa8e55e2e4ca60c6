// Package extraction enumerates the fillable fields of a parsed page.
package extraction

import (
	"regexp"
	"strings"

	"github.com/a3tai/mcp-form-guide/internal/markup"
)

// FieldKind is the declared kind of an input-like element.
type FieldKind string

const (
	FieldKindText     FieldKind = "text"
	FieldKindSelect   FieldKind = "select"
	FieldKindTextarea FieldKind = "textarea"
	FieldKindCheckbox FieldKind = "checkbox"
	FieldKindRadio    FieldKind = "radio"
	FieldKindDate     FieldKind = "date"
	FieldKindEmail    FieldKind = "email"
	FieldKindTel      FieldKind = "tel"
	FieldKindNumber   FieldKind = "number"
	FieldKindFile     FieldKind = "file"

	// Control kinds are never retained.
	FieldKindHidden FieldKind = "hidden"
	FieldKindSubmit FieldKind = "submit"
	FieldKindButton FieldKind = "button"
)

// IsControl reports whether k is a control kind rather than a fillable field.
func (k FieldKind) IsControl() bool {
	switch k {
	case FieldKindHidden, FieldKindSubmit, FieldKindButton:
		return true
	default:
		return false
	}
}

// FormField is one fillable field of a page.
type FormField struct {
	Identifier string    `json:"identifier"`
	Kind       FieldKind `json:"type"`
	Label      string    `json:"label"`
}

// Fields maps identifier to field. Later duplicates overwrite earlier ones.
type Fields map[string]FormField

// FieldExtractor extracts fillable fields from parsed markup.
type FieldExtractor struct{}

// NewFieldExtractor creates a field extractor.
func NewFieldExtractor() *FieldExtractor {
	return &FieldExtractor{}
}

// ExtractMarkup parses raw markup and extracts its fields.
func (fe *FieldExtractor) ExtractMarkup(raw string) Fields {
	return fe.Extract(markup.Parse(raw))
}

// Extract returns the fillable fields of doc.
func (fe *FieldExtractor) Extract(doc *markup.Document) Fields {
	fields := make(Fields)
	if doc == nil {
		return fields
	}

	for _, el := range doc.Inputs {
		kind := kindOf(el)
		if kind.IsControl() {
			continue
		}

		name := el.Attr("name")
		id := el.Attr("id")
		identifier := firstNonEmpty(name, id, el.Attr("placeholder"))
		if identifier == "" {
			continue
		}

		fields[identifier] = FormField{
			Identifier: identifier,
			Kind:       kind,
			Label:      findLabel(doc, id, name),
		}
	}

	return fields
}

// kindOf resolves the declared kind: the type attribute for <input>
// (defaulting to text), the tag name otherwise.
func kindOf(el markup.Element) FieldKind {
	if el.Tag != "input" {
		return FieldKind(el.Tag)
	}
	kind := strings.ToLower(el.Attr("type"))
	if kind == "" {
		return FieldKindText
	}
	return FieldKind(kind)
}

// findLabel returns the explicitly bound label, else the first label whose
// text contains the field name, else "".
func findLabel(doc *markup.Document, id, name string) string {
	if text, ok := doc.LabelFor(id); ok {
		return text
	}

	if name == "" {
		return ""
	}
	pattern, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(name))
	if err != nil {
		return ""
	}
	for _, l := range doc.Labels {
		if pattern.MatchString(l.Text) {
			return l.Text
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
