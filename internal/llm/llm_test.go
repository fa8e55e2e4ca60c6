package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe(t *testing.T) {
	ctx := context.Background()

	assert.ErrorIs(t, Probe(ctx, nil), ErrUnavailable)
	assert.NoError(t, Probe(ctx, NewScripted(Reply{Text: "OK"})))
	assert.ErrorIs(t, Probe(ctx, NewScripted(Reply{Text: "   "})), ErrEmptyResponse)

	boom := errors.New("boom")
	assert.ErrorIs(t, Probe(ctx, NewScripted(Reply{Err: boom})), boom)
}

func TestScriptedGenerator_RepeatsLastReply(t *testing.T) {
	g := NewScripted(Reply{Text: "first"}, Reply{Text: "second"})
	ctx := context.Background()

	for _, want := range []string{"first", "second", "second"} {
		got, err := g.Generate(ctx, "p", "s")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	assert.Equal(t, 3, g.CallCount())
	calls := g.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "p", calls[0].Prompt)
	assert.Equal(t, "s", calls[0].SystemInstruction)
}

func TestScriptedGenerator_CancelledContext(t *testing.T) {
	g := NewScripted(Reply{Text: "never"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, "p", "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, g.CallCount())
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "  ", want: ""},
		{name: "strips tags", in: "<b>• Enter</b> your <i>name</i>", want: "• Enter your name"},
		{name: "keeps apostrophes", in: "• Enter your father's name", want: "• Enter your father's name"},
		{name: "drops code fences", in: "```\n• Write your address\n```", want: "• Write your address"},
		{name: "drops script bodies", in: "<script>alert(1)</script>• Text", want: "• Text"},
		{name: "keeps devanagari", in: "• तपाईंको नाम लेख्नुहोस्", want: "• तपाईंको नाम लेख्नुहोस्"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestNewGeminiGenerator_RequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrUnavailable)
}
