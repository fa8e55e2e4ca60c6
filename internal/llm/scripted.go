package llm

import (
	"context"
	"sync"
)

// Reply is one scripted answer: text or an error.
type Reply struct {
	Text string
	Err  error
}

// Call records one request made to a ScriptedGenerator.
type Call struct {
	Prompt            string
	SystemInstruction string
}

// ScriptedGenerator replays fixed replies in order and repeats the last one
// once the script runs out. It stands in for the real service in tests and
// in offline demos.
type ScriptedGenerator struct {
	mu      sync.Mutex
	replies []Reply
	calls   []Call
}

// NewScripted creates a generator that answers with replies in order.
func NewScripted(replies ...Reply) *ScriptedGenerator {
	return &ScriptedGenerator{replies: replies}
}

// Generate returns the next scripted reply.
func (s *ScriptedGenerator) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Prompt: prompt, SystemInstruction: systemInstruction})

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.replies) == 0 {
		return "", ErrEmptyResponse
	}

	idx := len(s.calls) - 1
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	r := s.replies[idx]
	return r.Text, r.Err
}

// Calls returns a copy of the recorded calls.
func (s *ScriptedGenerator) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many times Generate was invoked.
func (s *ScriptedGenerator) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
