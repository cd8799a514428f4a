package llm

import (
	"context"

	"insider-radar/internal/logger"
)

// NoopCompleter is the fallback when no LLM provider is configured. It
// returns an empty narrative so reports keep their deterministic sections.
type NoopCompleter struct{}

// NewNoopCompleter returns a completer that never generates text
func NewNoopCompleter() *NoopCompleter {
	return &NoopCompleter{}
}

// Complete implements the Completer interface. It always returns an empty
// narrative.
func (n *NoopCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	logger.Debug(ctx, "Noop completer called - returning empty narrative")
	return "", nil
}

// Provider identifies this completer in logs and config.
func (n *NoopCompleter) Provider() string {
	return "none"
}
