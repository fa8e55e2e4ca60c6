package intelligence

import "regexp"

// Structural thresholds for the keyword prefilter.
const (
	// MinInputsForEligibility is the input count that makes a page eligible
	// when it has no <form> element.
	MinInputsForEligibility = 3
	// StrongInputSignal is the input count above which a page without any
	// keyword hit still proceeds to title matching.
	StrongInputSignal = 5
)

// formKeywords is the bilingual keyword list scanned by the prefilter.
var formKeywords = []string{
	"citizenship", "नागरिकता",
	"passport", "राहदानी",
	"driving license", "सवारी चालक अनुमतिपत्र",
	"pan", "पान",
	"tax", "कर",
	"voter", "मतदाता",
	"lok sewa", "लोक सेवा",
	"application form", "आवेदन फारम",
	"registration", "दर्ता",
	"national id", "राष्ट्रिय परिचयपत्र",
}

// TitleRule binds a category to the pattern matched against heading text.
type TitleRule struct {
	Category Category
	Pattern  *regexp.Regexp
}

// defaultTitleRules returns the title patterns in priority order. The order
// is a tie-break: the first rule that matches decides.
func defaultTitleRules() []TitleRule {
	return []TitleRule{
		{
			Category: CategoryCitizenship,
			Pattern:  regexp.MustCompile(`(?i)citizenship|नागरिकता`),
		},
		{
			Category: CategoryPassport,
			Pattern:  regexp.MustCompile(`(?i)passport|राहदानी`),
		},
		{
			Category: CategoryDrivingLicense,
			Pattern:  regexp.MustCompile(`(?i)driving|licen[cs]e|सवारी|चालक`),
		},
		{
			Category: CategoryPAN,
			Pattern:  regexp.MustCompile(`(?i)\bpan\b|पान|permanent account`),
		},
		{
			Category: CategoryNationalID,
			Pattern:  regexp.MustCompile(`(?i)national\s+id|राष्ट्रिय\s*परिचयपत्र`),
		},
		{
			Category: CategoryLokSewa,
			Pattern:  regexp.MustCompile(`(?i)lok\s*sewa|लोक\s*सेवा|public service`),
		},
	}
}
