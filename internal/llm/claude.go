package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"insider-radar/internal/logger"
	"insider-radar/internal/store"
)

const (
	defaultClaudeEndpoint = "https://api.anthropic.com/v1/messages"
	defaultClaudeModel    = "claude-3-5-sonnet-20241022"
	anthropicVersion      = "2023-06-01"
)

// ClaudeCompleter calls the Anthropic Claude Messages API.
type ClaudeCompleter struct {
	cfg      *store.Config
	endpoint string
}

// NewClaudeCompleter creates a Claude-backed completer. If you use a proxy,
// set the endpoint via the CLAUDE_API_ENDPOINT env var.
func NewClaudeCompleter(cfg *store.Config) *ClaudeCompleter {
	endpoint := defaultClaudeEndpoint
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &ClaudeCompleter{cfg: cfg, endpoint: endpoint}
}

// Provider identifies this completer in logs and config.
func (c *ClaudeCompleter) Provider() string {
	return "claude"
}

// Complete sends the prompt and returns the model's text response.
func (c *ClaudeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := logger.StartSpan(ctx, "claude-complete")
	defer span.End()

	keyEnv := c.cfg.LLM.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "CLAUDE_API_KEY"
	}
	apiKey := os.Getenv(keyEnv)
	if apiKey == "" {
		err := fmt.Errorf("%s missing", keyEnv)
		logger.ErrorWithErr(ctx, "Claude API key not configured", err)
		return "", err
	}

	model := c.cfg.LLM.Model
	if model == "" {
		model = defaultClaudeModel
	}

	reqBody := map[string]any{
		"model":      model,
		"max_tokens": c.cfg.LLM.MaxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	bb, _ := json.Marshal(reqBody)
	logger.Debug(ctx, "Sending request to Claude", "model", model, "endpoint", c.endpoint)

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(bb))
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	latency := time.Since(start)

	if err != nil {
		logger.ErrorWithErr(ctx, "Claude API request failed", err, "latency_ms", latency.Milliseconds())
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("claude http %d: %s", resp.StatusCode, string(body))
		logger.ErrorWithErr(ctx, "Claude API returned error status", err, "status_code", resp.StatusCode)
		return "", err
	}

	respBytes, _ := io.ReadAll(resp.Body)
	logger.Debug(ctx, "Received response from Claude",
		"status_code", resp.StatusCode,
		"latency_ms", latency.Milliseconds(),
		"response_length", len(respBytes),
	)

	text, err := extractClaudeText(respBytes)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(text), nil
}

// extractClaudeText drills the Messages API response for the first text
// block, with fallbacks for older response shapes.
func extractClaudeText(data []byte) (string, error) {
	var anyResp any
	if err := json.Unmarshal(data, &anyResp); err != nil {
		return "", fmt.Errorf("claude response is not JSON: %w", err)
	}

	m, ok := anyResp.(map[string]any)
	if !ok {
		return "", errors.New("unexpected claude response shape")
	}

	if content, found := m["content"]; found {
		if arr, ok := content.([]any); ok && len(arr) > 0 {
			if block, ok := arr[0].(map[string]any); ok {
				if text, ok := block["text"].(string); ok && strings.TrimSpace(text) != "" {
					return text, nil
				}
			}
		}
	}

	for _, k := range []string{"completion", "output", "output_text"} {
		if v, exists := m[k]; exists {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s, nil
			}
		}
	}

	return "", errors.New("no text content in claude response")
}
