package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// Generator submits a prompt and returns the generated text in one blocking
// round trip.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider Provider `json:"provider"`
	Model    string   `json:"model"`
	BaseURL  string   `json:"baseUrl,omitempty"`
	APIKey   string   `json:"-"`
}

func NewGenerator(ctx context.Context, cfg Config) (Generator, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGemini(ctx, cfg.Model, keyOrEnv(cfg.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY"))
	case ProviderOpenAI:
		return NewOpenAI(cfg.Model, cfg.BaseURL, keyOrEnv(cfg.APIKey, "OPENAI_API_KEY"))
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

func keyOrEnv(key string, envs ...string) string {
	if strings.TrimSpace(key) != "" {
		return key
	}
	for _, e := range envs {
		if v := os.Getenv(e); v != "" {
			return v
		}
	}
	return ""
}
