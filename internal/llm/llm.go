// Package llm generates report narratives through pluggable completion
// providers. Providers are optional: without one, reports fall back to
// their deterministic sections.
package llm

import (
	"context"
	"strings"

	"insider-radar/internal/interfaces"
	"insider-radar/internal/logger"
	"insider-radar/internal/store"
)

// NewCompleter returns the completion provider selected by configuration,
// wrapped with observability middleware. Unknown providers fall back to the
// no-op completer.
func NewCompleter(ctx context.Context, cfg *store.Config) interfaces.Completer {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "claude":
		return Wrap(NewClaudeCompleter(cfg))
	case "openai":
		return Wrap(NewOpenAICompleter(cfg))
	case "none", "":
		return Wrap(NewNoopCompleter())
	default:
		logger.Warn(ctx, "Unknown LLM provider - narrative generation disabled", "provider", cfg.LLM.Provider)
		return Wrap(NewNoopCompleter())
	}
}
