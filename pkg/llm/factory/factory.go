package factory

import (
	"fmt"
	"strings"
	"time"

	"proposal-intake-be/pkg/llm"
	"proposal-intake-be/pkg/llm/anthropic"
	"proposal-intake-be/pkg/llm/ollama"
	"proposal-intake-be/pkg/llm/openai"
)

const groqBaseURL = "https://api.groq.com/openai/v1/"

type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "ollama", "":
		return ollama.NewOllamaProvider(cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return openai.NewProvider(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case "groq":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("groq provider requires an API key")
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = groqBaseURL
		}
		return openai.NewProvider(cfg.APIKey, cfg.Model, baseURL), nil
	case "anthropic", "claude":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return anthropic.NewProvider(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
