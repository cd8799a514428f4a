package datasource

import (
	"fmt"
	"os"
	"time"

	"insider-radar/internal/interfaces"
	"insider-radar/internal/store"
)

// CreateSource builds the filing source selected by configuration. MOCK
// returns the fixture source; LIVE wires the configured provider behind the
// cache and rate limiter, with the other provider as fallback when its
// credentials allow.
func CreateSource(cfg *store.Config) (interfaces.FilingSource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	sourceType := cfg.DataSource
	if sourceType == "" {
		sourceType = "MOCK"
	}

	switch sourceType {
	case "MOCK":
		return NewMockSource(), nil

	case "LIVE":
		timeout := time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second
		cacheTTL := time.Duration(cfg.Fetch.CacheTTLMinutes) * time.Minute
		if cacheTTL == 0 {
			cacheTTL = 1 * time.Hour
		}

		apiKey := os.Getenv(cfg.Fetch.APIKeyEnv)

		var primary, fallback interfaces.FilingSource
		switch cfg.Fetch.Provider {
		case "openinsider":
			primary = NewOpenInsiderClient(cfg.Fetch.BaseURL, timeout)
			if apiKey != "" {
				fallback = NewSECAPIClient("", apiKey, timeout)
			}

		case "secapi":
			if apiKey == "" {
				return nil, fmt.Errorf("fetch.provider is 'secapi' but %s is not set", cfg.Fetch.APIKeyEnv)
			}
			primary = NewSECAPIClient(cfg.Fetch.BaseURL, apiKey, timeout)
			fallback = NewOpenInsiderClient("", timeout)

		default:
			return nil, fmt.Errorf("unknown fetch.provider: %s (valid options: openinsider, secapi)", cfg.Fetch.Provider)
		}

		liveConfig := &LiveSourceConfig{
			CacheDir:       cfg.Fetch.CacheDir,
			CacheTTL:       cacheTTL,
			RequestsPerMin: cfg.Fetch.RequestsPerMin,
		}

		return NewLiveSource(primary, fallback, liveConfig), nil

	default:
		return nil, fmt.Errorf("unknown data source type: %s (valid options: MOCK, LIVE)", sourceType)
	}
}
