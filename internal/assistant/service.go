// Package assistant is the entry point used by the MCP server and the CLI:
// it classifies pages, extracts their fields and resolves guidance.
package assistant

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-form-guide/internal/extraction"
	"github.com/a3tai/mcp-form-guide/internal/formstore"
	"github.com/a3tai/mcp-form-guide/internal/guidance"
	"github.com/a3tai/mcp-form-guide/internal/intelligence"
	"github.com/a3tai/mcp-form-guide/internal/llm"
	"github.com/a3tai/mcp-form-guide/internal/markup"
	"github.com/a3tai/mcp-form-guide/internal/preference"
	"github.com/a3tai/mcp-form-guide/internal/security"
)

// DefaultConcurrency bounds parallel field resolutions in GuideForm.
const DefaultConcurrency = 4

// Service wires the classifier, extractor and resolver together. It holds no
// mutable state of its own.
type Service struct {
	classifier  *intelligence.DocumentClassifier
	extractor   *extraction.FieldExtractor
	resolver    *guidance.Resolver
	forms       formstore.Store
	prefs       preference.Store
	documents   *security.DocumentRoot
	generator   llm.Generator
	model       string
	concurrency int
	version     string
	startedAt   time.Time
	logger      *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithGenerator enables the external classification stage and generated
// guidance. Pass only a generator that passed llm.Probe.
func WithGenerator(generator llm.Generator, model string) Option {
	return func(s *Service) {
		s.generator = generator
		s.model = model
	}
}

// WithFormStore replaces the embedded reference data.
func WithFormStore(store formstore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.forms = store
		}
	}
}

// WithPreferences sets where the language preference is kept.
func WithPreferences(store preference.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.prefs = store
		}
	}
}

// WithDocuments enables reading documents by path.
func WithDocuments(root *security.DocumentRoot) Option {
	return func(s *Service) {
		s.documents = root
	}
}

// WithConcurrency sets how many fields GuideForm resolves at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithVersion sets the version reported by Status.
func WithVersion(version string) Option {
	return func(s *Service) {
		s.version = version
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a Service. Without WithGenerator every result is
// deterministic.
func NewService(opts ...Option) *Service {
	s := &Service{
		extractor:   extraction.NewFieldExtractor(),
		forms:       formstore.Embedded(),
		prefs:       preference.NewMemory(guidance.DefaultLanguage),
		concurrency: DefaultConcurrency,
		version:     "dev",
		startedAt:   time.Now(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	classifierOpts := []intelligence.Option{intelligence.WithLogger(s.logger.Named("classifier"))}
	resolverOpts := []guidance.Option{guidance.WithLogger(s.logger.Named("guidance"))}
	if s.generator != nil {
		classifierOpts = append(classifierOpts, intelligence.WithGenerator(s.generator))
		resolverOpts = append(resolverOpts, guidance.WithGenerator(s.generator))
	}
	s.classifier = intelligence.NewDocumentClassifier(classifierOpts...)
	s.resolver = guidance.NewResolver(resolverOpts...)

	return s
}

// Detection is the result of looking at one page.
type Detection struct {
	Detected    bool                  `json:"detected"`
	Category    intelligence.Category `json:"form_type"`
	DisplayName string                `json:"display_name"`
	NepaliName  string                `json:"nepali_name"`
	Stage       string                `json:"stage"`
	AnalysisID  string                `json:"analysis_id"`
	Fields      extraction.Fields     `json:"fields"`
	FieldCount  int                   `json:"field_count"`
}

// FieldGuidance pairs one field with its guidance.
type FieldGuidance struct {
	Field    extraction.FormField `json:"field"`
	Guidance guidance.Response    `json:"guidance"`
}

// FormGuide is a detected page with guidance for every field.
type FormGuide struct {
	Detection Detection           `json:"detection"`
	Language  guidance.Language   `json:"language"`
	Fields    []FieldGuidance     `json:"fields"`
	Form      *formstore.FormInfo `json:"form_info,omitempty"`
}

// Status reports how the service is running.
type Status struct {
	Status             string            `json:"status"`
	GeneratorAvailable bool              `json:"generator_available"`
	Mode               string            `json:"mode"`
	Model              string            `json:"model,omitempty"`
	Language           guidance.Language `json:"language"`
	Stages             []string          `json:"classifier_stages"`
	Version            string            `json:"version"`
	Uptime             string            `json:"uptime"`
}

// ClassifyDocument returns the category of a page.
func (s *Service) ClassifyDocument(ctx context.Context, raw string) intelligence.Category {
	return s.classifier.ClassifyMarkup(ctx, raw).Category
}

// ExtractFields returns the fillable fields of a page.
func (s *Service) ExtractFields(raw string) extraction.Fields {
	return s.extractor.ExtractMarkup(raw)
}

// ResolveGuidance explains one field. An invalid language means the stored
// preference.
func (s *Service) ResolveGuidance(ctx context.Context, field string, category intelligence.Category, language guidance.Language) guidance.Response {
	return s.resolver.Resolve(ctx, guidance.Request{
		Field:    field,
		Category: category,
		Language: s.languageOrPreference(language),
	})
}

// DetectForm classifies a page and extracts its fields from one parse.
func (s *Service) DetectForm(ctx context.Context, raw string) Detection {
	doc := markup.Parse(raw)
	result := s.classifier.Classify(ctx, doc)
	fields := s.extractor.Extract(doc)

	return Detection{
		Detected:    result.Detected(),
		Category:    result.Category,
		DisplayName: result.Category.DisplayName(),
		NepaliName:  result.Category.NepaliName(),
		Stage:       result.Stage,
		AnalysisID:  result.AnalysisID,
		Fields:      fields,
		FieldCount:  len(fields),
	}
}

// GuideForm detects a page and resolves guidance for each of its fields.
// Pages that are not forms come back with no field guidance.
func (s *Service) GuideForm(ctx context.Context, raw string, language guidance.Language) (FormGuide, error) {
	language = s.languageOrPreference(language)
	detection := s.DetectForm(ctx, raw)

	guide := FormGuide{Detection: detection, Language: language}
	if info, ok := s.forms.Get(detection.Category); ok {
		guide.Form = &info
	}
	if !detection.Detected || len(detection.Fields) == 0 {
		return guide, nil
	}

	ids := make([]string, 0, len(detection.Fields))
	for id := range detection.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]FieldGuidance, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = FieldGuidance{
				Field:    detection.Fields[id],
				Guidance: s.resolver.Resolve(gctx, guidance.Request{Field: id, Category: detection.Category, Language: language}),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return FormGuide{}, fmt.Errorf("form guidance interrupted: %w", err)
	}

	guide.Fields = results
	s.logger.Info("form guided",
		zap.String("analysis_id", detection.AnalysisID),
		zap.String("category", string(detection.Category)),
		zap.String("language", string(language)),
		zap.Int("fields", len(results)))
	return guide, nil
}

// Chat answers a question, optionally about one form type.
func (s *Service) Chat(ctx context.Context, message, formContext string, language guidance.Language) guidance.Response {
	return s.resolver.Answer(ctx, guidance.ChatRequest{
		Question:    message,
		FormContext: s.formContextText(formContext),
		Language:    s.languageOrPreference(language),
	})
}

func (s *Service) formContextText(formContext string) string {
	if formContext == "" {
		return ""
	}
	if c, ok := intelligence.ParseCategory(formContext); ok {
		if info, found := s.forms.Get(c); found {
			return fmt.Sprintf("The user is filling a %s form.\n%s", info.Name, info.ContextText())
		}
	}
	return fmt.Sprintf("The user is filling a %s form.", formContext)
}

// FormInfo returns the reference data for a form type.
func (s *Service) FormInfo(category intelligence.Category) (formstore.FormInfo, bool) {
	return s.forms.Get(category)
}

// Forms lists the reference data for every form type.
func (s *Service) Forms() []formstore.FormInfo {
	return s.forms.List()
}

// Language returns the stored language preference.
func (s *Service) Language() guidance.Language {
	return s.prefs.Get()
}

// SetLanguage stores the language preference and returns the stored value.
func (s *Service) SetLanguage(language guidance.Language) (guidance.Language, error) {
	return s.prefs.Set(language)
}

func (s *Service) languageOrPreference(language guidance.Language) guidance.Language {
	if language.Valid() {
		return language
	}
	return s.prefs.Get()
}

// ReadDocument loads a page from the data directory.
func (s *Service) ReadDocument(path string) (string, error) {
	if s.documents == nil {
		return "", fmt.Errorf("document access is not configured")
	}
	return s.documents.Read(path)
}

// Documents lists the pages in the data directory.
func (s *Service) Documents() ([]security.DocumentInfo, error) {
	if s.documents == nil {
		return nil, fmt.Errorf("document access is not configured")
	}
	return s.documents.List()
}

// Status reports generator availability and runtime details.
func (s *Service) Status() Status {
	st := Status{
		Status:             "running",
		GeneratorAvailable: s.generator != nil,
		Mode:               "fallback",
		Language:           s.prefs.Get(),
		Stages:             s.classifier.StageNames(),
		Version:            s.version,
		Uptime:             time.Since(s.startedAt).Round(time.Second).String(),
	}
	if st.GeneratorAvailable {
		st.Mode = "ai-assisted"
		st.Model = s.model
	}
	return st
}
