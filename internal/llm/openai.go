package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"insider-radar/internal/logger"
	"insider-radar/internal/store"
)

const (
	openAIEndpoint     = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel = "gpt-4o-mini"
)

// OpenAICompleter calls the OpenAI chat completions API.
type OpenAICompleter struct {
	cfg *store.Config
}

// NewOpenAICompleter creates an OpenAI-backed completer
func NewOpenAICompleter(cfg *store.Config) *OpenAICompleter {
	return &OpenAICompleter{cfg: cfg}
}

// Provider identifies this completer in logs and config.
func (o *OpenAICompleter) Provider() string {
	return "openai"
}

// Complete sends the prompt and returns the model's text response.
func (o *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := logger.StartSpan(ctx, "openai-complete")
	defer span.End()

	keyEnv := o.cfg.LLM.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "OPENAI_API_KEY"
	}
	apiKey := os.Getenv(keyEnv)
	if apiKey == "" {
		err := fmt.Errorf("%s missing", keyEnv)
		logger.ErrorWithErr(ctx, "OpenAI API key not configured", err)
		return "", err
	}

	model := o.cfg.LLM.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	body := map[string]any{
		"model":      model,
		"messages":   []map[string]string{{"role": "user", "content": prompt}},
		"max_tokens": o.cfg.LLM.MaxTokens,
	}
	bb, _ := json.Marshal(body)

	logger.Debug(ctx, "Sending request to OpenAI", "model", model)

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, "POST", openAIEndpoint, bytes.NewReader(bb))
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	latency := time.Since(start)

	if err != nil {
		logger.ErrorWithErr(ctx, "OpenAI API request failed", err, "latency_ms", latency.Milliseconds())
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}

	if len(r.Choices) == 0 {
		return "", errors.New("no choices")
	}

	logger.Debug(ctx, "Received response from OpenAI",
		"status_code", resp.StatusCode,
		"latency_ms", latency.Milliseconds(),
	)

	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}
