package llm

import (
	"context"
	"strings"
	"testing"

	"insider-radar/internal/store"
)

func TestExtractClaudeText(t *testing.T) {
	body := `{"id":"msg_01","type":"message","role":"assistant","content":[{"type":"text","text":"Buying clusters at AAPL stand out."}],"stop_reason":"end_turn"}`

	text, err := extractClaudeText([]byte(body))
	if err != nil {
		t.Fatalf("extractClaudeText failed: %v", err)
	}
	if text != "Buying clusters at AAPL stand out." {
		t.Errorf("Expected content text, got %q", text)
	}
}

func TestExtractClaudeTextLegacyShape(t *testing.T) {
	body := `{"completion":"Legacy completion text"}`

	text, err := extractClaudeText([]byte(body))
	if err != nil {
		t.Fatalf("extractClaudeText failed: %v", err)
	}
	if text != "Legacy completion text" {
		t.Errorf("Expected legacy completion, got %q", text)
	}
}

func TestExtractClaudeTextEmpty(t *testing.T) {
	if _, err := extractClaudeText([]byte(`{"content":[]}`)); err == nil {
		t.Error("Expected an error for a response with no text")
	}
	if _, err := extractClaudeText([]byte(`not json`)); err == nil {
		t.Error("Expected an error for a non-JSON response")
	}
}

func TestNoopCompleter(t *testing.T) {
	completer := NewNoopCompleter()

	text, err := completer.Complete(context.Background(), "summarize this")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "" {
		t.Errorf("Expected empty narrative, got %q", text)
	}
	if completer.Provider() != "none" {
		t.Errorf("Expected provider none, got %s", completer.Provider())
	}
}

func TestNewCompleterSelection(t *testing.T) {
	tests := []struct {
		provider string
		expected string
	}{
		{"claude", "claude"},
		{"CLAUDE", "claude"},
		{"openai", "openai"},
		{"none", "none"},
		{"", "none"},
		{"mystery", "none"},
	}

	for _, tt := range tests {
		cfg := store.DefaultConfig()
		cfg.LLM.Provider = tt.provider

		completer := NewCompleter(context.Background(), cfg)
		if completer.Provider() != tt.expected {
			t.Errorf("Provider %q: expected %s, got %s", tt.provider, tt.expected, completer.Provider())
		}
	}
}

func TestClaudeCompleterRequiresKey(t *testing.T) {
	t.Setenv("CLAUDE_API_KEY", "")

	cfg := store.DefaultConfig()
	completer := NewClaudeCompleter(cfg)

	_, err := completer.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatal("Expected an error without an API key")
	}
	if !strings.Contains(err.Error(), "CLAUDE_API_KEY") {
		t.Errorf("Expected error to name the env var, got %v", err)
	}
}

func TestOpenAICompleterRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg := store.DefaultConfig()
	completer := NewOpenAICompleter(cfg)

	if _, err := completer.Complete(context.Background(), "prompt"); err == nil {
		t.Fatal("Expected an error without an API key")
	}
}
