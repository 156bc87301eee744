package llm

import (
	"errors"
	"fmt"
	"time"
)

type Provider string

const (
	ProviderNone      Provider = "none"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Config is resolved once at startup and injected into the Improver.
type Config struct {
	Provider    Provider
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

func (c Config) Enabled() bool {
	return c.Provider != "" && c.Provider != ProviderNone
}

func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported llm provider %q", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("api key for llm provider %q is required", c.Provider)
	}
	if c.Model == "" {
		return errors.New("llm model is required")
	}
	if c.MaxTokens <= 0 {
		return errors.New("llm max tokens must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("llm temperature must be between 0 and 2")
	}
	return nil
}

func (c Config) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.Provider == ProviderAnthropic {
		return "https://api.anthropic.com"
	}
	return "https://api.openai.com"
}
