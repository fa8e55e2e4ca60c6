package intelligence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-form-guide/internal/llm"
)

// formPage builds a page with one <form>, the given title and n text inputs.
func formPage(title string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>%s</title></head><body><form>", title)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<input type="text" name="field_%d">`, i)
	}
	b.WriteString("</form></body></html>")
	return b.String()
}

// inputsOnlyPage builds a page without <form> holding n inputs and body text.
func inputsOnlyPage(text string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><body><p>%s</p>", text)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<input name="f%d">`, i)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func TestNewDocumentClassifier(t *testing.T) {
	dc := NewDocumentClassifier()
	assert.False(t, dc.HasExternal())
	assert.Equal(t, []string{StagePrefilter, StageTitlePattern}, dc.StageNames())

	withExternal := NewDocumentClassifier(WithGenerator(llm.NewScripted(llm.Reply{Text: "pan"})))
	assert.True(t, withExternal.HasExternal())
	assert.Equal(t, []string{StagePrefilter, StageTitlePattern, StageExternal}, withExternal.StageNames())
}

func TestClassify_EveryCategoryBothLanguages(t *testing.T) {
	tests := []struct {
		title string
		want  Category
	}{
		{"Nepal Citizenship Application", CategoryCitizenship},
		{"नागरिकता आवेदन", CategoryCitizenship},
		{"Passport Application Form", CategoryPassport},
		{"राहदानी आवेदन", CategoryPassport},
		{"Driving License Registration", CategoryDrivingLicense},
		{"सवारी चालक अनुमतिपत्र", CategoryDrivingLicense},
		{"PAN Registration", CategoryPAN},
		{"पान दर्ता", CategoryPAN},
		{"National ID Enrollment", CategoryNationalID},
		{"राष्ट्रिय परिचयपत्र", CategoryNationalID},
		{"Lok Sewa Application", CategoryLokSewa},
		{"लोक सेवा आयोग", CategoryLokSewa},
	}

	dc := NewDocumentClassifier()
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			result := dc.ClassifyMarkup(context.Background(), formPage(tt.title, 4))
			assert.Equal(t, tt.want, result.Category)
			assert.Equal(t, StageTitlePattern, result.Stage)
			assert.True(t, result.Detected())
			assert.NotEmpty(t, result.AnalysisID)
		})
	}
}

func TestClassify_NoStructureIsNone(t *testing.T) {
	gen := llm.NewScripted(llm.Reply{Text: "citizenship"})
	dc := NewDocumentClassifier(WithGenerator(gen))

	result := dc.ClassifyMarkup(context.Background(), "<html><head><title>Citizenship</title></head><body></body></html>")

	assert.Equal(t, CategoryNone, result.Category)
	assert.Equal(t, StagePrefilter, result.Stage)
	assert.False(t, result.Detected())
	assert.Equal(t, 0, gen.CallCount())
}

func TestClassify_TitleTierSkipsExternal(t *testing.T) {
	gen := llm.NewScripted(llm.Reply{Text: "passport"})
	dc := NewDocumentClassifier(WithGenerator(gen))

	result := dc.ClassifyMarkup(context.Background(), formPage("Nepal Citizenship Application", 4))

	assert.Equal(t, CategoryCitizenship, result.Category)
	assert.Equal(t, 0, gen.CallCount())
}

func TestClassify_PrefilterStructuralSignals(t *testing.T) {
	tests := []struct {
		name string
		page string
		want Category
	}{
		{
			name: "two inputs without form",
			page: inputsOnlyPage("citizenship", 2),
			want: CategoryNone,
		},
		{
			name: "four inputs no keyword",
			page: inputsOnlyPage("weather report", 4),
			want: CategoryNone,
		},
		{
			name: "six inputs no keyword",
			page: inputsOnlyPage("weather report", 6),
			want: CategoryUnknown,
		},
		{
			name: "three inputs with keyword but no title",
			page: inputsOnlyPage("voter registration", 3),
			want: CategoryUnknown,
		},
		{
			name: "form without keyword",
			page: "<form><input name='q'></form>",
			want: CategoryUnknown,
		},
	}

	dc := NewDocumentClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := dc.ClassifyMarkup(context.Background(), tt.page)
			assert.Equal(t, tt.want, result.Category)
		})
	}
}

func TestClassify_ExternalStage(t *testing.T) {
	page := formPage("Online Services Portal", 4)

	tests := []struct {
		name  string
		reply llm.Reply
		want  Category
	}{
		{name: "known slug", reply: llm.Reply{Text: "passport"}, want: CategoryPassport},
		{name: "slug with noise", reply: llm.Reply{Text: "  \"Lok-Sewa\".\n"}, want: CategoryLokSewa},
		{name: "legacy alias", reply: llm.Reply{Text: "nid"}, want: CategoryNationalID},
		{name: "free text guess", reply: llm.Reply{Text: "looks like a bank account opening form"}, want: CategoryUnknown},
		{name: "sentinel reply", reply: llm.Reply{Text: "none"}, want: CategoryUnknown},
		{name: "service error", reply: llm.Reply{Err: errors.New("quota exceeded")}, want: CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := llm.NewScripted(tt.reply)
			dc := NewDocumentClassifier(WithGenerator(gen))

			result := dc.ClassifyMarkup(context.Background(), page)

			assert.Equal(t, tt.want, result.Category)
			assert.Equal(t, StageExternal, result.Stage)
			require.Equal(t, 1, gen.CallCount())
			assert.Contains(t, gen.Calls()[0].Prompt, "Online Services Portal")
		})
	}
}

func TestClassify_ExternalPromptIsTruncated(t *testing.T) {
	long := strings.Repeat("क", 1500)
	gen := llm.NewScripted(llm.Reply{Text: "unknown"})
	dc := NewDocumentClassifier(WithGenerator(gen))

	dc.ClassifyMarkup(context.Background(), formPage(long, 1))

	require.Equal(t, 1, gen.CallCount())
	prompt := gen.Calls()[0].Prompt
	assert.Contains(t, prompt, strings.Repeat("क", MaxExternalTitleRunes))
	assert.NotContains(t, prompt, strings.Repeat("क", MaxExternalTitleRunes+1))
}

func TestClassify_WithoutExternalDefaultsToUnknown(t *testing.T) {
	dc := NewDocumentClassifier()
	result := dc.ClassifyMarkup(context.Background(), formPage("Online Services Portal", 4))

	assert.Equal(t, CategoryUnknown, result.Category)
	assert.Equal(t, StageDefault, result.Stage)
}

func TestTitlePatternStage_PriorityOrder(t *testing.T) {
	stage := NewTitlePatternStage()

	category, ok := stage.Attempt(context.Background(), Evidence{TitleText: "Passport for Citizenship holders"})
	require.True(t, ok)
	assert.Equal(t, CategoryCitizenship, category)

	_, ok = stage.Attempt(context.Background(), Evidence{TitleText: "Company Japan Expo"})
	assert.False(t, ok)
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in     string
		want   Category
		wantOK bool
	}{
		{"citizenship", CategoryCitizenship, true},
		{" PASSPORT ", CategoryPassport, true},
		{"driving-license", CategoryDrivingLicense, true},
		{"nid", CategoryNationalID, true},
		{"loksewa", CategoryLokSewa, true},
		{"none", CategoryNone, true},
		{"unknown", CategoryUnknown, true},
		{"visa", CategoryUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCategory(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestCategoryNames(t *testing.T) {
	for _, c := range KnownCategories() {
		assert.True(t, c.Known())
		assert.NotEmpty(t, c.DisplayName())
		assert.NotEmpty(t, c.NepaliName())
	}
	assert.False(t, CategoryUnknown.Known())
	assert.True(t, CategoryUnknown.Valid())
	assert.False(t, Category("visa").Valid())
}
