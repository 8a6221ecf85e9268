package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"proposal-intake-be/internal/pkg/logger"
	"proposal-intake-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	reply   string
	err     error
	panics  bool
	calls   int
	prompt  string
	options llm.Options
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return f.Generate(ctx, history[len(history)-1].Content, opts...)
}

func (f *fakeProvider) Generate(_ context.Context, prompt string, opts ...llm.Option) (string, error) {
	f.calls++
	f.prompt = prompt
	f.options = llm.ApplyOptions(opts...)
	if f.panics {
		panic("connection reset")
	}
	return f.reply, f.err
}

var transcript = []Turn{
	{Role: "system", Text: "hidden system prompt"},
	{Role: "assistant", Text: "What is your company name?"},
	{Role: "user", Text: "Acme Dairy"},
	{Role: "user", Text: "   "},
	{Role: "assistant", Text: "How much milk do you process per day?"},
	{Role: "user", Text: "50,000 liters"},
}

func newTestSynthesizer(p llm.LLMProvider) *Synthesizer {
	return NewSynthesizer(p, logger.NewNopLogger(), WithBranding(Branding{
		CompanyName: "Acme Water Group",
		ContactLine: "Contact: info@acme.example",
	}))
}

func TestSynthesize_Success(t *testing.T) {
	p := &fakeProvider{reply: "```markdown\n# Proposal\nBody\n```\n[PROPOSAL_COMPLETE: ready]"}
	s := newTestSynthesizer(p)

	draft := s.Synthesize(context.Background(), transcript)

	assert.False(t, draft.Emergency)
	assert.Equal(t, "# Proposal\nBody", draft.Text)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, 7000, p.options.MaxTokens)
	assert.InDelta(t, 0.7, p.options.Temperature, 1e-9)
}

func TestSynthesize_PromptEmbedsTranscriptAndTemplate(t *testing.T) {
	p := &fakeProvider{reply: "ok"}
	s := newTestSynthesizer(p)

	s.Synthesize(context.Background(), transcript)

	assert.Contains(t, p.prompt, "ASSISTANT: What is your company name?\n\nUSER: Acme Dairy\n\n")
	assert.Contains(t, p.prompt, "USER: 50,000 liters")
	assert.NotContains(t, p.prompt, "hidden system prompt")
	assert.Contains(t, p.prompt, "**Acme Water Group -- AI-Generated Wastewater Treatment Proposal**")
	assert.Contains(t, p.prompt, "Contact: info@acme.example")

	sections := []string{
		"**Important Disclaimer**",
		"**1. Introduction",
		"**2. Project Background**",
		"**3. Objective of the Project**",
		"**4. Key Design Parameters**",
		"**5. Recommended Treatment Process**",
		"**6. Equipment Specifications**",
		"**7. Financial Summary**",
		"**8. Return on Investment Analysis**",
		"**9. Next Steps**",
	}
	last := -1
	for _, section := range sections {
		idx := strings.Index(p.prompt, section)
		require.GreaterOrEqual(t, idx, 0, section)
		assert.Greater(t, idx, last, "section order: %s", section)
		last = idx
	}
}

func TestSynthesize_FallsBackToEmergencyText(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.LLMProvider
	}{
		{"provider error", &fakeProvider{err: errors.New("status 503")}},
		{"empty completion", &fakeProvider{reply: "  \n "}},
		{"only markers", &fakeProvider{reply: "```\n```"}},
		{"provider panic", &fakeProvider{panics: true}},
		{"no provider", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSynthesizer(tt.provider)

			draft := s.Synthesize(context.Background(), transcript)

			assert.True(t, draft.Emergency)
			assert.Equal(t, s.EmergencyText(), draft.Text)
			assert.Contains(t, draft.Text, "Acme Water Group")
			assert.Contains(t, draft.Text, "50% of the treated flow")
		})
	}
}

func TestSynthesize_RespectsOptions(t *testing.T) {
	p := &fakeProvider{reply: "text"}
	s := NewSynthesizer(p, logger.NewNopLogger(), WithGenerationParams(2000, 0.3))

	s.Synthesize(context.Background(), nil)

	assert.Equal(t, 2000, p.options.MaxTokens)
	assert.InDelta(t, 0.3, p.options.Temperature, 1e-9)
}

func TestSynthesisError(t *testing.T) {
	cause := errors.New("timeout")
	err := &SynthesisError{Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "synthesis: timeout", err.Error())
}
