// Package intelligence classifies page markup into government form categories
// through an ordered list of independent stages.
package intelligence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-guide/internal/llm"
	"github.com/a3tai/mcp-form-guide/internal/markup"
)

// DocumentClassifier runs the classification stages in order. The first
// stage that decides wins; if none does the page is CategoryUnknown.
type DocumentClassifier struct {
	stages      []Stage
	generator   llm.Generator
	hasExternal bool
	logger      *zap.Logger
}

// Option configures a DocumentClassifier.
type Option func(*DocumentClassifier)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(dc *DocumentClassifier) {
		if logger != nil {
			dc.logger = logger
		}
	}
}

// WithGenerator appends the external stage. Pass a generator only when it
// passed the startup probe; nil leaves the classifier deterministic.
func WithGenerator(generator llm.Generator) Option {
	return func(dc *DocumentClassifier) {
		dc.generator = generator
	}
}

// WithStages replaces the default prefilter and title stages.
func WithStages(stages ...Stage) Option {
	return func(dc *DocumentClassifier) {
		dc.stages = append([]Stage(nil), stages...)
	}
}

// NewDocumentClassifier creates a classifier with the prefilter and title
// stages, plus the external stage when WithGenerator is given.
func NewDocumentClassifier(opts ...Option) *DocumentClassifier {
	dc := &DocumentClassifier{
		stages: []Stage{NewKeywordPrefilter(), NewTitlePatternStage()},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(dc)
	}
	if dc.generator != nil {
		dc.stages = append(dc.stages, NewExternalStage(dc.generator, dc.logger))
	}
	for _, s := range dc.stages {
		if s.Name() == StageExternal {
			dc.hasExternal = true
		}
	}
	return dc
}

// HasExternal reports whether the external stage is wired in.
func (dc *DocumentClassifier) HasExternal() bool {
	return dc.hasExternal
}

// StageNames returns the stage names in evaluation order.
func (dc *DocumentClassifier) StageNames() []string {
	names := make([]string, len(dc.stages))
	for i, s := range dc.stages {
		names[i] = s.Name()
	}
	return names
}

// Classify runs the stages over a parsed document.
func (dc *DocumentClassifier) Classify(ctx context.Context, doc *markup.Document) *ClassificationResult {
	startTime := time.Now()
	ev := EvidenceFrom(doc)

	result := &ClassificationResult{
		Category:   CategoryUnknown,
		Stage:      StageDefault,
		Evidence:   ev,
		AnalysisID: uuid.NewString(),
	}

	for _, stage := range dc.stages {
		category, ok := stage.Attempt(ctx, ev)
		if !ok {
			continue
		}
		if !category.Valid() {
			category = CategoryUnknown
		}
		result.Category = category
		result.Stage = stage.Name()
		break
	}

	result.ProcessingTime = time.Since(startTime)
	dc.logger.Debug("document classified",
		zap.String("analysis_id", result.AnalysisID),
		zap.String("category", string(result.Category)),
		zap.String("stage", result.Stage),
		zap.Int("form_markers", ev.FormMarkers),
		zap.Int("input_markers", ev.InputMarkers),
		zap.Duration("elapsed", result.ProcessingTime))

	return result
}

// ClassifyMarkup parses raw markup and classifies it.
func (dc *DocumentClassifier) ClassifyMarkup(ctx context.Context, raw string) *ClassificationResult {
	return dc.Classify(ctx, markup.Parse(raw))
}

// EvidenceFrom gathers the classification inputs from a parsed document.
func EvidenceFrom(doc *markup.Document) Evidence {
	if doc == nil {
		return Evidence{}
	}
	return Evidence{
		FormMarkers:  doc.Forms,
		InputMarkers: doc.InputCount(),
		Text:         doc.Text,
		TitleText:    doc.TitleText(),
	}
}
