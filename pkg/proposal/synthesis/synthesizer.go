package synthesis

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"proposal-intake-be/internal/constant"
	"proposal-intake-be/internal/pkg/logger"
	"proposal-intake-be/pkg/llm"
)

// Turn is one transcript entry. Only user and assistant turns reach the prompt.
type Turn struct {
	Role      string
	Text      string
	CreatedAt time.Time
}

// Draft is the synthesized markup. Emergency marks the canned fallback text.
type Draft struct {
	Text      string
	Emergency bool
}

// SynthesisError wraps a failed generation call. It is logged, never returned.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

type Branding struct {
	CompanyName string
	ContactLine string
}

type Option func(*Synthesizer)

func WithBranding(b Branding) Option {
	return func(s *Synthesizer) {
		if b.CompanyName != "" {
			s.branding.CompanyName = b.CompanyName
		}
		if b.ContactLine != "" {
			s.branding.ContactLine = b.ContactLine
		}
	}
}

func WithGenerationParams(maxTokens int, temperature float64) Option {
	return func(s *Synthesizer) {
		if maxTokens > 0 {
			s.maxTokens = maxTokens
		}
		if temperature > 0 {
			s.temperature = temperature
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) {
		s.timeout = d
	}
}

// WithCallLog records prompts and raw completions to a dedicated logger.
func WithCallLog(l logger.ILogger) Option {
	return func(s *Synthesizer) {
		s.callLog = l
	}
}

type Synthesizer struct {
	provider    llm.LLMProvider
	logger      logger.ILogger
	callLog     logger.ILogger
	branding    Branding
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

func NewSynthesizer(provider llm.LLMProvider, logger logger.ILogger, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		provider: provider,
		logger:   logger,
		branding: Branding{
			CompanyName: "Water Treatment Solutions",
			ContactLine: "Contact our engineering team for details.",
		},
		maxTokens:   constant.ProposalMaxTokens,
		temperature: constant.ProposalTemperature,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize always returns usable markup. When the generation call fails the
// canned emergency proposal is returned instead.
func (s *Synthesizer) Synthesize(ctx context.Context, transcript []Turn) Draft {
	prompt := s.BuildPrompt(transcript)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.generate(ctx, prompt)
	if s.callLog != nil {
		s.callLog.Debug("SYNTHESIS", "Proposal generation call", map[string]interface{}{
			"prompt":      prompt,
			"completion":  raw,
			"duration_ms": time.Since(start).Milliseconds(),
			"failed":      err != nil,
		})
	}
	if err != nil {
		s.logger.Error("SYNTHESIS", "Proposal generation failed, using emergency text", map[string]interface{}{
			"error": (&SynthesisError{Err: err}).Error(),
		})
		return Draft{Text: s.EmergencyText(), Emergency: true}
	}

	text := Clean(raw)
	if text == "" {
		s.logger.Warn("SYNTHESIS", "Proposal generation returned no usable text, using emergency text", nil)
		return Draft{Text: s.EmergencyText(), Emergency: true}
	}

	s.logger.Info("SYNTHESIS", "Proposal text generated", map[string]interface{}{
		"chars":       len(text),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return Draft{Text: text}
}

func (s *Synthesizer) generate(ctx context.Context, prompt string) (out string, err error) {
	if s.provider == nil {
		return "", fmt.Errorf("no text generation provider configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("provider panic: %v", rec)
		}
	}()
	return s.provider.Generate(ctx, prompt,
		llm.WithMaxTokens(s.maxTokens),
		llm.WithTemperature(s.temperature),
	)
}

// BuildPrompt embeds the user/assistant transcript in the fixed proposal template.
func (s *Synthesizer) BuildPrompt(transcript []Turn) string {
	return fmt.Sprintf(constant.ProposalPromptTemplate,
		s.branding.CompanyName,
		FormatTranscript(transcript),
		s.branding.ContactLine,
	)
}

func (s *Synthesizer) EmergencyText() string {
	return fmt.Sprintf(constant.EmergencyProposalTemplate, s.branding.CompanyName, s.branding.ContactLine)
}

// FormatTranscript renders turns as "USER: ..." / "ASSISTANT: ..." paragraphs.
func FormatTranscript(transcript []Turn) string {
	var sb strings.Builder
	for _, t := range transcript {
		role := strings.ToLower(strings.TrimSpace(t.Role))
		if role != llm.RoleUser && role != llm.RoleAssistant {
			continue
		}
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(role))
		sb.WriteString(": ")
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

var (
	fencePattern    = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*$")
	completePattern = regexp.MustCompile(`\[PROPOSAL_COMPLETE:[^\]]*\]`)
)

// Clean drops code fences and completion markers that models sometimes add.
func Clean(raw string) string {
	text := fencePattern.ReplaceAllString(raw, "")
	text = completePattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
