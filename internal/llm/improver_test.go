package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"performa/internal/llm"

	"github.com/stretchr/testify/assert"
)

func TestImprover_Disabled(t *testing.T) {
	imp := llm.NewImprover(llm.Config{Provider: llm.ProviderNone})
	_, err := imp.Improve(context.Background(), "text", "")
	assert.ErrorIs(t, err, llm.ErrDisabled)
}

func TestImprover_OpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body["model"])
		assert.EqualValues(t, 64, body["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Better text.  "}}]}`))
	}))
	defer srv.Close()

	imp := llm.NewImprover(llm.Config{
		Provider:    llm.ProviderOpenAI,
		Model:       "gpt-test",
		APIKey:      "k",
		BaseURL:     srv.URL,
		MaxTokens:   64,
		Temperature: 0.2,
		Timeout:     5 * time.Second,
	})

	out, err := imp.Improve(context.Background(), "good job", "overall comment")
	assert.NoError(t, err)
	assert.Equal(t, "Better text.", out)
}

func TestImprover_Anthropic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Improved."}]}`))
	}))
	defer srv.Close()

	imp := llm.NewImprover(llm.Config{
		Provider:  llm.ProviderAnthropic,
		Model:     "claude-test",
		APIKey:    "k",
		BaseURL:   srv.URL,
		MaxTokens: 64,
		Timeout:   5 * time.Second,
	})

	out, err := imp.Improve(context.Background(), "ok", "")
	assert.NoError(t, err)
	assert.Equal(t, "Improved.", out)
}

func TestImprover_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	imp := llm.NewImprover(llm.Config{
		Provider:  llm.ProviderOpenAI,
		Model:     "m",
		APIKey:    "k",
		BaseURL:   srv.URL,
		MaxTokens: 10,
		Timeout:   5 * time.Second,
	})
	_, err := imp.Improve(context.Background(), "ok", "")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, llm.Config{Provider: llm.ProviderNone}.Validate())
	assert.Error(t, llm.Config{Provider: llm.ProviderOpenAI, Model: "m", MaxTokens: 1}.Validate())
	assert.Error(t, llm.Config{Provider: llm.ProviderOpenAI, APIKey: "k", Model: "m", MaxTokens: 1, Temperature: 3}.Validate())
	assert.NoError(t, llm.Config{Provider: llm.ProviderAnthropic, APIKey: "k", Model: "m", MaxTokens: 1}.Validate())
}
