package llm

import (
	"context"
	"time"

	"insider-radar/internal/interfaces"
	"insider-radar/internal/logger"
	"insider-radar/internal/trace"
)

// observableCompleter wraps a Completer with observability (logging & tracing)
type observableCompleter struct {
	completer interfaces.Completer
}

// Compile-time interface check
var _ interfaces.Completer = (*observableCompleter)(nil)

// Wrap wraps a completer with observability middleware
func Wrap(completer interfaces.Completer) interfaces.Completer {
	return &observableCompleter{
		completer: completer,
	}
}

// Complete generates a narrative with observability
func (oc *observableCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Complete")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting narrative completion",
		"provider", oc.completer.Provider(),
		"prompt_length", len(prompt),
	)

	start := time.Now()
	text, err := oc.completer.Complete(ctx, prompt)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Narrative completion failed", err,
			"provider", oc.completer.Provider(),
		)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Narrative completion received",
		"provider", oc.completer.Provider(),
		"response_length", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return text, nil
}

// Provider reports the wrapped completer's provider name
func (oc *observableCompleter) Provider() string {
	return oc.completer.Provider()
}
