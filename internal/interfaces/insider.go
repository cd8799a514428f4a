package interfaces

import (
	"context"
	"time"

	"insider-radar/internal/insider"
)

// FilingSource retrieves raw insider filings for a time window. Implementations
// own all network, caching, and throttling concerns; the analysis core only
// ever sees the returned batch.
type FilingSource interface {
	// FetchFilings retrieves raw filings disclosed between from and to
	FetchFilings(ctx context.Context, from, to time.Time) ([]insider.RawFiling, error)

	// Name identifies the source for provenance fields and logs
	Name() string
}

// Completer produces free text from a prompt. Backed by an LLM provider or a
// noop that keeps report generation fully deterministic.
type Completer interface {
	// Complete returns the completion for prompt
	Complete(ctx context.Context, prompt string) (string, error)

	// Provider identifies the backing provider for logs
	Provider() string
}
