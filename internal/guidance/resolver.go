package guidance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-guide/internal/intelligence"
	"github.com/a3tai/mcp-form-guide/internal/llm"
)

// MaxAttempts is the number of generator calls one resolution may make:
// the primary request and a single reinforced retry.
const MaxAttempts = 2

// Request names the field to explain.
type Request struct {
	Field    string                `json:"field"`
	Category intelligence.Category `json:"category"`
	Language Language              `json:"language"`
}

// ChatRequest is a free-form question, optionally about a specific form.
type ChatRequest struct {
	Question    string   `json:"question"`
	FormContext string   `json:"form_context,omitempty"`
	Language    Language `json:"language"`
}

// AttemptOutcome classifies one generator call.
type AttemptOutcome string

const (
	OutcomeAccepted       AttemptOutcome = "accepted"
	OutcomeTransportError AttemptOutcome = "transport_error"
	OutcomeNonCompliant   AttemptOutcome = "non_compliant"
)

// Attempt records one generator call made during a resolution.
type Attempt struct {
	Number   int            `json:"number"`
	Outcome  AttemptOutcome `json:"outcome"`
	Reason   string         `json:"reason,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// Response is the delivered guidance. Text is never empty.
type Response struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Language Language  `json:"language"`
	Source   Source    `json:"source"`
	Attempts []Attempt `json:"attempts,omitempty"`
}

// Resolver produces guidance through the generator when one is configured,
// verifying the language of every reply, and falls back to the template bank.
type Resolver struct {
	generator llm.Generator
	bank      *Bank
	verifier  Verifier
	logger    *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGenerator enables generated guidance. Pass only a generator that
// passed llm.Probe.
func WithGenerator(generator llm.Generator) Option {
	return func(r *Resolver) {
		r.generator = generator
	}
}

// WithBank replaces the embedded template bank.
func WithBank(bank *Bank) Option {
	return func(r *Resolver) {
		if bank != nil {
			r.bank = bank
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		bank:   DefaultBank(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HasExternal reports whether generated guidance is enabled.
func (r *Resolver) HasExternal() bool {
	return r.generator != nil
}

// Bank returns the template bank in use.
func (r *Resolver) Bank() *Bank {
	return r.bank
}

// Resolve returns guidance for one field.
func (r *Resolver) Resolve(ctx context.Context, req Request) Response {
	language := req.Language.orDefault()
	category := req.Category
	if !category.Valid() {
		category = intelligence.CategoryUnknown
	}

	return r.run(ctx, job{
		kind:     "field",
		subject:  req.Field,
		language: language,
		prompt:   FieldPrompt(req.Field, category),
		fallback: func() string {
			return r.bank.Fallback(req.Field, category, language)
		},
	})
}

// Answer responds to a chat question under the same language rules.
func (r *Resolver) Answer(ctx context.Context, req ChatRequest) Response {
	language := req.Language.orDefault()

	return r.run(ctx, job{
		kind:     "chat",
		subject:  req.Question,
		language: language,
		prompt:   ChatPrompt(req.Question, req.FormContext),
		fallback: func() string {
			return r.bank.ChatFallback(req.Question, language)
		},
	})
}

type job struct {
	kind     string
	subject  string
	language Language
	prompt   string
	fallback func() string
}

type state int

const (
	stateRequestExternal state = iota
	stateRetry
	stateVerify
	stateAccept
	stateFallback
	stateDone
)

// run drives the resolution states. Each call state is entered at most once,
// so a resolution makes at most MaxAttempts generator calls.
func (r *Resolver) run(ctx context.Context, j job) Response {
	resp := Response{
		ID:       uuid.NewString(),
		Language: j.language,
	}

	var (
		text    string
		callErr error
		started time.Time
	)

	call := func(retry bool) {
		started = time.Now()
		text, callErr = r.generate(ctx, j.prompt, SystemInstruction(j.language, retry))
	}

	st := stateFallback
	if r.generator != nil {
		st = stateRequestExternal
	}

	for st != stateDone {
		switch st {
		case stateRequestExternal:
			call(false)
			st = stateVerify

		case stateRetry:
			call(true)
			st = stateVerify

		case stateVerify:
			attempt := Attempt{Number: len(resp.Attempts) + 1, Duration: time.Since(started)}
			var compErr *ComplianceError
			switch err := r.verify(text, callErr, j.language); {
			case err == nil:
				attempt.Outcome = OutcomeAccepted
			case errors.As(err, &compErr):
				attempt.Outcome = OutcomeNonCompliant
				attempt.Reason = compErr.Reason
			default:
				attempt.Outcome = OutcomeTransportError
				attempt.Reason = err.Error()
			}
			resp.Attempts = append(resp.Attempts, attempt)
			r.logAttempt(j, attempt)

			switch {
			case attempt.Outcome == OutcomeAccepted:
				st = stateAccept
			case attempt.Number < MaxAttempts:
				st = stateRetry
			default:
				st = stateFallback
			}

		case stateAccept:
			resp.Text = text
			resp.Source = SourceExternalPrimary
			if len(resp.Attempts) > 1 {
				resp.Source = SourceExternalRetry
			}
			st = stateDone

		case stateFallback:
			resp.Text = j.fallback()
			resp.Source = SourceFallback
			st = stateDone
		}
	}

	r.logger.Debug("guidance resolved",
		zap.String("id", resp.ID),
		zap.String("kind", j.kind),
		zap.String("language", string(resp.Language)),
		zap.String("source", string(resp.Source)),
		zap.Int("attempts", len(resp.Attempts)))

	return resp
}

func (r *Resolver) generate(ctx context.Context, prompt, system string) (string, error) {
	reply, err := r.generator.Generate(ctx, prompt, system)
	if err != nil {
		return "", err
	}
	text := llm.Sanitize(reply)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

func (r *Resolver) verify(text string, callErr error, language Language) error {
	if callErr != nil {
		return callErr
	}
	return r.verifier.Check(text, language)
}

func (r *Resolver) logAttempt(j job, a Attempt) {
	fields := []zap.Field{
		zap.String("kind", j.kind),
		zap.String("subject", j.subject),
		zap.String("language", string(j.language)),
		zap.Int("attempt", a.Number),
		zap.Duration("elapsed", a.Duration),
	}
	switch a.Outcome {
	case OutcomeTransportError:
		r.logger.Warn("generator call failed", append(fields, zap.String("transport_error", a.Reason))...)
	case OutcomeNonCompliant:
		r.logger.Info("generated text rejected", append(fields, zap.String("compliance_failure", a.Reason))...)
	default:
		r.logger.Debug("generated text accepted", fields...)
	}
}
