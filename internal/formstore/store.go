// Package formstore serves read-only reference data about each form type:
// required documents, process steps, offices and contact details.
package formstore

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/a3tai/mcp-form-guide/internal/intelligence"
)

//go:embed forms.yaml
var embeddedForms []byte

// Override file names looked up in the data directory, in order. JSON is
// read by the YAML decoder.
var overrideFiles = []string{"forms.yaml", "forms.yml", "forms.json"}

// FormInfo is the reference data for one form type.
type FormInfo struct {
	ID           intelligence.Category `yaml:"id" json:"id"`
	Name         string                `yaml:"name" json:"name"`
	NepaliName   string                `yaml:"nepali_name" json:"nepali_name,omitempty"`
	Requirements []string              `yaml:"requirements" json:"requirements"`
	Process      []string              `yaml:"process" json:"process"`
	Locations    []string              `yaml:"locations" json:"locations"`
	Contact      string                `yaml:"contact" json:"contact"`
}

// ContextText renders the record as plain text for inclusion in prompts.
func (f FormInfo) ContextText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Form: %s\n", f.Name)
	if len(f.Requirements) > 0 {
		fmt.Fprintf(&sb, "Requirements: %s\n", strings.Join(f.Requirements, ", "))
	}
	if len(f.Process) > 0 {
		fmt.Fprintf(&sb, "Process: %s\n", strings.Join(f.Process, ", "))
	}
	if len(f.Locations) > 0 {
		fmt.Fprintf(&sb, "Locations: %s\n", strings.Join(f.Locations, ", "))
	}
	if f.Contact != "" {
		fmt.Fprintf(&sb, "Contact: %s\n", f.Contact)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Store looks up form reference data.
type Store interface {
	Get(category intelligence.Category) (FormInfo, bool)
	List() []FormInfo
}

// Static is an immutable in-memory Store.
type Static struct {
	forms []FormInfo
	index map[intelligence.Category]int
}

// Embedded returns the store built from the bundled reference data.
func Embedded() *Static {
	s, err := Parse(embeddedForms)
	if err != nil {
		panic(fmt.Sprintf("embedded form data: %v", err))
	}
	return s
}

// Load reads the first override file found in dir, or returns the embedded
// data when dir is empty or holds none.
func Load(dir string) (*Static, string, error) {
	if dir == "" {
		return Embedded(), "", nil
	}
	for _, name := range overrideFiles {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to read form data %s: %w", path, err)
		}
		s, err := Parse(data)
		if err != nil {
			return nil, "", fmt.Errorf("invalid form data %s: %w", path, err)
		}
		return s, path, nil
	}
	return Embedded(), "", nil
}

// Parse decodes a list of form records. Legacy ids such as "nid" and
// "loksewa" are mapped onto the canonical categories.
func Parse(data []byte) (*Static, error) {
	var raw []FormInfo
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode form data: %w", err)
	}

	s := &Static{index: make(map[intelligence.Category]int, len(raw))}
	for i, f := range raw {
		c, ok := intelligence.ParseCategory(string(f.ID))
		if !ok || !c.Known() {
			return nil, fmt.Errorf("record %d: unknown form id %q", i, f.ID)
		}
		if _, dup := s.index[c]; dup {
			return nil, fmt.Errorf("record %d: duplicate form id %q", i, c)
		}
		f.ID = c
		if f.Name == "" {
			f.Name = c.DisplayName()
		}
		if f.NepaliName == "" {
			f.NepaliName = c.NepaliName()
		}
		s.index[c] = len(s.forms)
		s.forms = append(s.forms, f)
	}
	return s, nil
}

// Get implements Store.
func (s *Static) Get(category intelligence.Category) (FormInfo, bool) {
	i, ok := s.index[category]
	if !ok {
		return FormInfo{}, false
	}
	return s.forms[i], true
}

// Lookup resolves a slug or alias and returns its record.
func (s *Static) Lookup(id string) (FormInfo, bool) {
	c, ok := intelligence.ParseCategory(id)
	if !ok {
		return FormInfo{}, false
	}
	return s.Get(c)
}

// List implements Store. The returned slice is a copy.
func (s *Static) List() []FormInfo {
	return append([]FormInfo(nil), s.forms...)
}
