package guidance

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	textlang "golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/a3tai/mcp-form-guide/internal/intelligence"
)

//go:embed templates.yaml
var defaultTemplates []byte

// fieldPlaceholder is replaced by the field display name in generic templates.
const fieldPlaceholder = "{field}"

// TemplatePair holds one template per language.
type TemplatePair struct {
	English string `yaml:"english"`
	Nepali  string `yaml:"nepali"`
}

// For returns the template for language.
func (p TemplatePair) For(language Language) string {
	if language.orDefault() == LanguageNepali {
		return p.Nepali
	}
	return p.English
}

// Archetype is a family of field identifiers sharing one piece of guidance.
type Archetype struct {
	Name      string                  `yaml:"name"`
	Match     []string                `yaml:"match"`
	Templates TemplatePair            `yaml:"templates"`
	Overrides map[string]TemplatePair `yaml:"overrides"`
}

// ChatTopic is a canned chat answer selected by question keywords.
type ChatTopic struct {
	Name      string       `yaml:"name"`
	Keywords  []string     `yaml:"keywords"`
	Responses TemplatePair `yaml:"responses"`
}

type chatFile struct {
	Topics  []ChatTopic  `yaml:"topics"`
	Default TemplatePair `yaml:"default"`
}

type bankFile struct {
	Archetypes []Archetype             `yaml:"archetypes"`
	Categories map[string]TemplatePair `yaml:"categories"`
	Generic    TemplatePair            `yaml:"generic"`
	Chat       chatFile                `yaml:"chat"`
}

// Bank is the deterministic template store used when generated text is
// unavailable or rejected. It is read-only after loading.
type Bank struct {
	archetypes []Archetype
	overrides  []map[intelligence.Category]TemplatePair
	categories map[intelligence.Category]TemplatePair
	generic    TemplatePair
	topics     []ChatTopic
	chat       TemplatePair
}

var (
	defaultBankOnce sync.Once
	defaultBank     *Bank
)

// DefaultBank returns the bank built from the embedded templates.
func DefaultBank() *Bank {
	defaultBankOnce.Do(func() {
		b, err := LoadBank(defaultTemplates)
		if err != nil {
			panic(fmt.Sprintf("embedded guidance templates: %v", err))
		}
		defaultBank = b
	})
	return defaultBank
}

// LoadBank parses YAML templates and checks every template against the
// language rules so that fallback output is always compliant.
func LoadBank(data []byte) (*Bank, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	b := &Bank{
		categories: make(map[intelligence.Category]TemplatePair, len(f.Categories)),
		generic:    f.Generic,
		topics:     f.Chat.Topics,
		chat:       f.Chat.Default,
	}

	check := func(where string, p TemplatePair) error {
		for _, lang := range []Language{LanguageEnglish, LanguageNepali} {
			text := strings.ReplaceAll(p.For(lang), fieldPlaceholder, "Field")
			if err := (Verifier{}).Check(text, lang); err != nil {
				return fmt.Errorf("%s: %w", where, err)
			}
		}
		return nil
	}

	for _, a := range f.Archetypes {
		if a.Name == "" || len(a.Match) == 0 {
			return nil, fmt.Errorf("archetype %q has no match keys", a.Name)
		}
		if err := check("archetype "+a.Name, a.Templates); err != nil {
			return nil, err
		}
		for i, key := range a.Match {
			a.Match[i] = NormalizeIdentifier(key)
		}

		overrides := make(map[intelligence.Category]TemplatePair, len(a.Overrides))
		for slug, p := range a.Overrides {
			c, ok := intelligence.ParseCategory(slug)
			if !ok || !c.Known() {
				return nil, fmt.Errorf("archetype %s: unknown category %q", a.Name, slug)
			}
			if err := check("archetype "+a.Name+"/"+slug, p); err != nil {
				return nil, err
			}
			overrides[c] = p
		}
		b.archetypes = append(b.archetypes, a)
		b.overrides = append(b.overrides, overrides)
	}

	for slug, p := range f.Categories {
		c, ok := intelligence.ParseCategory(slug)
		if !ok || !c.Known() {
			return nil, fmt.Errorf("unknown category %q", slug)
		}
		if err := check("category "+slug, p); err != nil {
			return nil, err
		}
		b.categories[c] = p
	}

	if err := check("generic", f.Generic); err != nil {
		return nil, err
	}
	if err := check("chat default", f.Chat.Default); err != nil {
		return nil, err
	}
	for _, t := range f.Chat.Topics {
		if err := check("chat topic "+t.Name, t.Responses); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Archetype returns the name of the first archetype whose match key occurs in
// the normalized identifier.
func (b *Bank) Archetype(field string) (string, bool) {
	i := b.archetypeIndex(field)
	if i < 0 {
		return "", false
	}
	return b.archetypes[i].Name, true
}

func (b *Bank) archetypeIndex(field string) int {
	id := NormalizeIdentifier(field)
	if id == "" {
		return -1
	}
	for i, a := range b.archetypes {
		for _, key := range a.Match {
			if key != "" && strings.Contains(id, key) {
				return i
			}
		}
	}
	return -1
}

// Fallback returns the template text for a field. The result depends only on
// its arguments.
func (b *Bank) Fallback(field string, category intelligence.Category, language Language) string {
	language = language.orDefault()

	if i := b.archetypeIndex(field); i >= 0 {
		if p, ok := b.overrides[i][category]; ok {
			return p.For(language)
		}
		return b.archetypes[i].Templates.For(language)
	}

	display := DisplayName(field)
	if p, ok := b.categories[category]; ok {
		return strings.ReplaceAll(p.For(language), fieldPlaceholder, display)
	}
	return strings.ReplaceAll(b.generic.For(language), fieldPlaceholder, display)
}

// ChatFallback picks the canned answer for the first topic whose keyword
// occurs in the question.
func (b *Bank) ChatFallback(question string, language Language) string {
	q := strings.ToLower(norm.NFC.String(question))
	for _, t := range b.topics {
		for _, kw := range t.Keywords {
			if kw != "" && strings.Contains(q, strings.ToLower(kw)) {
				return t.Responses.For(language)
			}
		}
	}
	return b.chat.For(language)
}

// NormalizeIdentifier lower-cases an identifier and keeps only letters,
// digits and combining marks, so "Date_of-Birth" and "dateofbirth" match.
func NormalizeIdentifier(field string) string {
	var sb strings.Builder
	for _, r := range norm.NFC.String(strings.ToLower(field)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// DisplayName turns an identifier into words: "date_of_birth" becomes
// "Date Of Birth".
func DisplayName(field string) string {
	words := strings.Fields(strings.ReplaceAll(field, "_", " "))
	return cases.Title(textlang.Und).String(strings.Join(words, " "))
}
