// Package llm wraps the optional generative text service used for
// classification hints and field guidance.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrUnavailable is returned when no generative service is configured.
	ErrUnavailable = errors.New("generative text service unavailable")

	// ErrEmptyResponse is returned when the service answered with no text.
	ErrEmptyResponse = errors.New("generative text service returned an empty response")
)

// DefaultProbeTimeout bounds the startup capability probe.
const DefaultProbeTimeout = 15 * time.Second

// Generator produces text for a prompt under a system instruction. Calls are
// blocking round trips; output is non-deterministic.
type Generator interface {
	Generate(ctx context.Context, prompt, systemInstruction string) (string, error)
}

// Probe performs one small generation to decide whether the service is usable.
// It is meant to run once at startup; the answer is not re-checked per call.
func Probe(ctx context.Context, g Generator) error {
	if g == nil {
		return ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultProbeTimeout)
	defer cancel()

	reply, err := g.Generate(ctx, "Reply with the single word OK.", "")
	if err != nil {
		return err
	}
	if strings.TrimSpace(reply) == "" {
		return ErrEmptyResponse
	}
	return nil
}
