package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var ErrDisabled = errors.New("text improvement is not configured")

const systemPrompt = "You are an assistant helping managers write performance review comments. " +
	"Rewrite the text to be clear, specific, constructive and professional. " +
	"Keep the original meaning and language. Reply with the rewritten text only."

type Improver interface {
	Improve(ctx context.Context, text, fieldContext string) (string, error)
}

type improver struct {
	cfg    Config
	client *resty.Client
	logger *zap.Logger
}

func NewImprover(cfg Config, logger ...*zap.Logger) Improver {
	l := zap.L().Named("llm.improver")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("llm.improver")
	}
	client := resty.New().
		SetBaseURL(cfg.baseURL()).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	return &improver{cfg: cfg, client: client, logger: l}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	System      string        `json:"system"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (i *improver) Improve(ctx context.Context, text, fieldContext string) (string, error) {
	if !i.cfg.Enabled() {
		return "", ErrDisabled
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("text is required")
	}

	prompt := text
	if fieldContext != "" {
		prompt = fmt.Sprintf("Field: %s\n\n%s", fieldContext, text)
	}

	var (
		out string
		err error
	)
	switch i.cfg.Provider {
	case ProviderOpenAI:
		out, err = i.improveOpenAI(ctx, prompt)
	case ProviderAnthropic:
		out, err = i.improveAnthropic(ctx, prompt)
	default:
		return "", fmt.Errorf("unsupported llm provider %q", i.cfg.Provider)
	}
	if err != nil {
		i.logger.Error("improve text failed",
			zap.String("provider", string(i.cfg.Provider)),
			zap.String("model", i.cfg.Model),
			zap.Error(err),
		)
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (i *improver) improveOpenAI(ctx context.Context, prompt string) (string, error) {
	var result openAIResponse
	resp, err := i.client.R().
		SetContext(ctx).
		SetAuthToken(i.cfg.APIKey).
		SetBody(openAIRequest{
			Model: i.cfg.Model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: prompt},
			},
			MaxTokens:   i.cfg.MaxTokens,
			Temperature: i.cfg.Temperature,
		}).
		SetResult(&result).
		Post("/v1/chat/completions")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("openai returned status %d", resp.StatusCode())
	}
	if len(result.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

func (i *improver) improveAnthropic(ctx context.Context, prompt string) (string, error) {
	var result anthropicResponse
	resp, err := i.client.R().
		SetContext(ctx).
		SetHeader("x-api-key", i.cfg.APIKey).
		SetHeader("anthropic-version", "2023-06-01").
		SetBody(anthropicRequest{
			Model:       i.cfg.Model,
			System:      systemPrompt,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			MaxTokens:   i.cfg.MaxTokens,
			Temperature: i.cfg.Temperature,
		}).
		SetResult(&result).
		Post("/v1/messages")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("anthropic returned status %d", resp.StatusCode())
	}
	var b strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("anthropic returned no text")
	}
	return b.String(), nil
}
