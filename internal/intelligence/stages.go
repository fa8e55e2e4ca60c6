package intelligence

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-guide/internal/llm"
)

// Stage is one tier of the classification pipeline. Attempt returns ok=false
// to hand the evidence to the next stage.
type Stage interface {
	Name() string
	Attempt(ctx context.Context, ev Evidence) (Category, bool)
}

// KeywordPrefilter rejects pages without structural form evidence and pages
// that carry neither a form keyword nor a strong structural signal.
type KeywordPrefilter struct {
	keywords []string
}

// NewKeywordPrefilter creates the prefilter with the default bilingual keywords.
func NewKeywordPrefilter() *KeywordPrefilter {
	kw := make([]string, len(formKeywords))
	for i, k := range formKeywords {
		kw[i] = strings.ToLower(k)
	}
	return &KeywordPrefilter{keywords: kw}
}

// Name implements Stage.
func (p *KeywordPrefilter) Name() string { return StagePrefilter }

// Attempt returns (CategoryNone, true) when the page is rejected.
func (p *KeywordPrefilter) Attempt(_ context.Context, ev Evidence) (Category, bool) {
	if !Eligible(ev) {
		return CategoryNone, true
	}
	if p.MatchKeyword(ev.Text) != "" {
		return "", false
	}
	if ev.FormMarkers >= 1 || ev.InputMarkers > StrongInputSignal {
		return "", false
	}
	return CategoryNone, true
}

// MatchKeyword returns the first keyword found in text, or "".
func (p *KeywordPrefilter) MatchKeyword(text string) string {
	lower := strings.ToLower(text)
	for _, kw := range p.keywords {
		if strings.Contains(lower, kw) {
			return kw
		}
	}
	return ""
}

// Eligible reports whether the page has enough structure to be a form.
func Eligible(ev Evidence) bool {
	return ev.FormMarkers >= 1 || ev.InputMarkers >= MinInputsForEligibility
}

// TitlePatternStage matches heading text against ordered bilingual patterns.
type TitlePatternStage struct {
	rules []TitleRule
}

// NewTitlePatternStage creates the stage with the default rules.
func NewTitlePatternStage() *TitlePatternStage {
	return &TitlePatternStage{rules: defaultTitleRules()}
}

// Name implements Stage.
func (s *TitlePatternStage) Name() string { return StageTitlePattern }

// Attempt returns the category of the first matching rule.
func (s *TitlePatternStage) Attempt(_ context.Context, ev Evidence) (Category, bool) {
	if ev.TitleText == "" {
		return "", false
	}
	for _, rule := range s.rules {
		if rule.Pattern.MatchString(ev.TitleText) {
			return rule.Category, true
		}
	}
	return "", false
}

// MaxExternalTitleRunes caps how much title text is sent to the service.
const MaxExternalTitleRunes = 1000

const externalClassifyInstruction = `The following text is from a webpage that might contain a Nepali government form.
Identify which of these form types it is:
- citizenship (नागरिकता)
- passport (राहदानी)
- driving-license (सवारी चालक अनुमतिपत्र)
- pan (Permanent Account Number)
- national-id (राष्ट्रिय परिचयपत्र)
- lok-sewa (Public Service Commission application)

If it is one of these, respond with just the slug above in lowercase.
Otherwise respond with a brief guess of what the form is.`

// ExternalStage asks the generative service to name the form type. It always
// decides: any failure or unrecognized reply becomes CategoryUnknown.
type ExternalStage struct {
	generator llm.Generator
	logger    *zap.Logger
}

// NewExternalStage creates the stage. generator must already have passed llm.Probe.
func NewExternalStage(generator llm.Generator, logger *zap.Logger) *ExternalStage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExternalStage{generator: generator, logger: logger}
}

// Name implements Stage.
func (s *ExternalStage) Name() string { return StageExternal }

// Attempt implements Stage.
func (s *ExternalStage) Attempt(ctx context.Context, ev Evidence) (Category, bool) {
	if s.generator == nil {
		return CategoryUnknown, true
	}

	prompt := fmt.Sprintf("%s\n\nText: %s", externalClassifyInstruction, truncateRunes(ev.TitleText, MaxExternalTitleRunes))
	reply, err := s.generator.Generate(ctx, prompt, "")
	if err != nil {
		s.logger.Warn("external classification failed", zap.Error(err))
		return CategoryUnknown, true
	}

	category := parseExternalReply(reply)
	s.logger.Debug("external classification",
		zap.String("reply", truncateRunes(reply, 80)),
		zap.String("category", string(category)))
	return category, true
}

// parseExternalReply accepts only a known category slug; free-text guesses
// map to CategoryUnknown.
func parseExternalReply(reply string) Category {
	line := strings.TrimSpace(reply)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.Trim(strings.ToLower(line), " \t\"'`.*:")
	if c, ok := ParseCategory(line); ok && c.Known() {
		return c
	}
	return CategoryUnknown
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
