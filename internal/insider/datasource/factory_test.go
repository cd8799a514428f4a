package datasource

import (
	"testing"

	"insider-radar/internal/store"
)

func TestCreateSourceMock(t *testing.T) {
	cfg := store.DefaultConfig()

	source, err := CreateSource(cfg)
	if err != nil {
		t.Fatalf("CreateSource failed: %v", err)
	}
	if source.Name() != "mock" {
		t.Errorf("Expected mock source, got %s", source.Name())
	}
}

func TestCreateSourceLive(t *testing.T) {
	cfg := store.DefaultConfig()
	cfg.DataSource = "LIVE"
	cfg.Fetch.CacheDir = t.TempDir()
	t.Setenv("SEC_API_KEY", "")

	source, err := CreateSource(cfg)
	if err != nil {
		t.Fatalf("CreateSource failed: %v", err)
	}
	if source.Name() != "openinsider" {
		t.Errorf("Expected openinsider primary, got %s", source.Name())
	}
}

func TestCreateSourceSECAPIRequiresKey(t *testing.T) {
	cfg := store.DefaultConfig()
	cfg.DataSource = "LIVE"
	cfg.Fetch.Provider = "secapi"
	cfg.Fetch.CacheDir = t.TempDir()
	t.Setenv("SEC_API_KEY", "")

	if _, err := CreateSource(cfg); err == nil {
		t.Error("Expected an error when the sec-api key is missing")
	}
}

func TestCreateSourceSECAPIPrimary(t *testing.T) {
	cfg := store.DefaultConfig()
	cfg.DataSource = "LIVE"
	cfg.Fetch.Provider = "secapi"
	cfg.Fetch.CacheDir = t.TempDir()
	t.Setenv("SEC_API_KEY", "test-key")

	source, err := CreateSource(cfg)
	if err != nil {
		t.Fatalf("CreateSource failed: %v", err)
	}
	if source.Name() != "sec-api" {
		t.Errorf("Expected sec-api primary, got %s", source.Name())
	}
}

func TestCreateSourceUnknownType(t *testing.T) {
	cfg := store.DefaultConfig()
	cfg.DataSource = "SHADOW"

	if _, err := CreateSource(cfg); err == nil {
		t.Error("Expected an error for an unknown data source type")
	}
}
