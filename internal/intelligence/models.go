package intelligence

import (
	"strings"
	"time"
)

// Category is the government form type a page was classified as.
type Category string

const (
	CategoryCitizenship    Category = "citizenship"
	CategoryPassport       Category = "passport"
	CategoryDrivingLicense Category = "driving-license"
	CategoryPAN            Category = "pan"
	CategoryNationalID     Category = "national-id"
	CategoryLokSewa        Category = "lok-sewa"

	// CategoryUnknown marks a form-like page whose type was not recognized.
	CategoryUnknown Category = "unknown"
	// CategoryNone marks a page without enough form structure to classify.
	CategoryNone Category = "none"
)

// categoryAliases maps slugs used by older clients onto categories.
var categoryAliases = map[string]Category{
	"nid":             CategoryNationalID,
	"national_id":     CategoryNationalID,
	"nationalid":      CategoryNationalID,
	"loksewa":         CategoryLokSewa,
	"lok_sewa":        CategoryLokSewa,
	"driving_license": CategoryDrivingLicense,
	"drivinglicense":  CategoryDrivingLicense,
	"driving-licence": CategoryDrivingLicense,
}

// ParseCategory maps a slug or alias onto a Category. Matching ignores case
// and surrounding whitespace.
func ParseCategory(s string) (Category, bool) {
	slug := strings.ToLower(strings.TrimSpace(s))
	c := Category(slug)
	if c.Valid() {
		return c, true
	}
	if alias, ok := categoryAliases[slug]; ok {
		return alias, true
	}
	return CategoryUnknown, false
}

// Known reports whether c is one of the six supported form types.
func (c Category) Known() bool {
	switch c {
	case CategoryCitizenship, CategoryPassport, CategoryDrivingLicense,
		CategoryPAN, CategoryNationalID, CategoryLokSewa:
		return true
	default:
		return false
	}
}

// Valid reports whether c is a supported type or one of the two sentinels.
func (c Category) Valid() bool {
	return c.Known() || c == CategoryUnknown || c == CategoryNone
}

// DisplayName returns the English name of the category.
func (c Category) DisplayName() string {
	switch c {
	case CategoryCitizenship:
		return "Citizenship Certificate"
	case CategoryPassport:
		return "Passport"
	case CategoryDrivingLicense:
		return "Driving License"
	case CategoryPAN:
		return "PAN (Permanent Account Number)"
	case CategoryNationalID:
		return "National ID Card"
	case CategoryLokSewa:
		return "Lok Sewa (Public Service Commission) Application"
	case CategoryNone:
		return "Not a form"
	default:
		return "Government form"
	}
}

// NepaliName returns the category name in Nepali script.
func (c Category) NepaliName() string {
	switch c {
	case CategoryCitizenship:
		return "नागरिकता प्रमाणपत्र"
	case CategoryPassport:
		return "राहदानी"
	case CategoryDrivingLicense:
		return "सवारी चालक अनुमतिपत्र"
	case CategoryPAN:
		return "स्थायी लेखा नम्बर (पान)"
	case CategoryNationalID:
		return "राष्ट्रिय परिचयपत्र"
	case CategoryLokSewa:
		return "लोक सेवा आयोग आवेदन"
	case CategoryNone:
		return "फारम होइन"
	default:
		return "सरकारी फारम"
	}
}

// KnownCategories returns the six supported types in classification priority order.
func KnownCategories() []Category {
	return []Category{
		CategoryCitizenship,
		CategoryPassport,
		CategoryDrivingLicense,
		CategoryPAN,
		CategoryNationalID,
		CategoryLokSewa,
	}
}

// Evidence is what the classification stages look at.
type Evidence struct {
	FormMarkers  int    `json:"form_markers"`
	InputMarkers int    `json:"input_markers"`
	Text         string `json:"-"`
	TitleText    string `json:"title_text"`
}

// Stage names reported in results.
const (
	StagePrefilter    = "prefilter"
	StageTitlePattern = "title_pattern"
	StageExternal     = "external"
	StageDefault      = "default"
)

// ClassificationResult is the outcome of one classification run.
type ClassificationResult struct {
	Category       Category      `json:"category"`
	Stage          string        `json:"stage"`
	Evidence       Evidence      `json:"evidence"`
	AnalysisID     string        `json:"analysis_id"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// Detected reports whether the page looked like a form at all.
func (r *ClassificationResult) Detected() bool {
	return r.Category != CategoryNone
}
