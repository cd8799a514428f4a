package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DataSource string `yaml:"data_source"`
	Windows    struct {
		CurrentHours int `yaml:"current_hours"`
		BaselineDays int `yaml:"baseline_days"`
	} `yaml:"windows"`
	Analysis struct {
		GroupBy          string  `yaml:"group_by"`
		Metric           string  `yaml:"metric"`
		AnomalyThreshold float64 `yaml:"anomaly_threshold"`
		MinActivityFloor float64 `yaml:"min_activity_floor"`
		RankBy           string  `yaml:"rank_by"`
		TopN             int     `yaml:"top_n"`
	} `yaml:"analysis"`
	Fetch struct {
		Provider        string `yaml:"provider"`
		BaseURL         string `yaml:"base_url"`
		APIKeyEnv       string `yaml:"api_key_env"`
		TimeoutSeconds  int    `yaml:"timeout_seconds"`
		CacheDir        string `yaml:"cache_dir"`
		CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`
		RequestsPerMin  int    `yaml:"requests_per_min"`
	} `yaml:"fetch"`
	Archive struct {
		Enabled bool   `yaml:"enabled"`
		DBPath  string `yaml:"db_path"`
	} `yaml:"archive"`
	Sentiment struct {
		Enabled      bool `yaml:"enabled"`
		MaxArticles  int  `yaml:"max_articles"`
		MaxCompanies int  `yaml:"max_companies"`
		CacheMinutes int  `yaml:"cache_minutes"`
	} `yaml:"sentiment"`
	LLM struct {
		Provider  string `yaml:"provider"`
		Model     string `yaml:"model"`
		MaxTokens int    `yaml:"max_tokens"`
		APIKeyEnv string `yaml:"api_key_env"`
	} `yaml:"llm"`
	Report struct {
		Formats   []string `yaml:"formats"`
		OutputDir string   `yaml:"output_dir"`
	} `yaml:"report"`
	Watch struct {
		PollMinutes      int `yaml:"poll_minutes"`
		LogRetentionDays int `yaml:"log_retention_days"`
	} `yaml:"watch"`
}

func (c *Config) Validate() error {
	if c.DataSource != "MOCK" && c.DataSource != "LIVE" {
		return fmt.Errorf("invalid data_source '%s': must be 'MOCK' or 'LIVE'", c.DataSource)
	}
	if c.Windows.CurrentHours <= 0 {
		return fmt.Errorf("windows.current_hours must be positive, got %d", c.Windows.CurrentHours)
	}
	if c.Windows.BaselineDays <= 0 {
		return fmt.Errorf("windows.baseline_days must be positive, got %d", c.Windows.BaselineDays)
	}
	if c.Analysis.GroupBy != "COMPANY" && c.Analysis.GroupBy != "COMPANY_INSIDER" {
		return fmt.Errorf("analysis.group_by must be 'COMPANY' or 'COMPANY_INSIDER', got '%s'", c.Analysis.GroupBy)
	}
	if c.Analysis.Metric != "SHARES" && c.Analysis.Metric != "VALUE" {
		return fmt.Errorf("analysis.metric must be 'SHARES' or 'VALUE', got '%s'", c.Analysis.Metric)
	}
	if c.Analysis.AnomalyThreshold <= 0 {
		return fmt.Errorf("analysis.anomaly_threshold must be positive, got %.2f", c.Analysis.AnomalyThreshold)
	}
	if c.Analysis.MinActivityFloor < 0 {
		return fmt.Errorf("analysis.min_activity_floor cannot be negative, got %.2f", c.Analysis.MinActivityFloor)
	}
	switch c.Analysis.RankBy {
	case "ABSOLUTE_DELTA", "PERCENT_DELTA", "CURRENT_TOTAL":
	default:
		return fmt.Errorf("analysis.rank_by must be 'ABSOLUTE_DELTA', 'PERCENT_DELTA', or 'CURRENT_TOTAL', got '%s'", c.Analysis.RankBy)
	}
	if c.Fetch.Provider != "openinsider" && c.Fetch.Provider != "secapi" {
		return fmt.Errorf("fetch.provider must be 'openinsider' or 'secapi', got '%s'", c.Fetch.Provider)
	}
	if c.Fetch.RequestsPerMin < 0 {
		return fmt.Errorf("fetch.requests_per_min cannot be negative, got %d", c.Fetch.RequestsPerMin)
	}
	return nil
}

// DefaultConfig returns a runnable configuration without reading any file.
// Used by commands when no config path is given.
func DefaultConfig() *Config {
	var c Config
	c.DataSource = "MOCK"
	applyDefaults(&c)
	return &c
}

func applyDefaults(c *Config) {
	if c.Windows.CurrentHours == 0 {
		c.Windows.CurrentHours = 24
	}
	if c.Windows.BaselineDays == 0 {
		c.Windows.BaselineDays = 7
	}
	if c.Analysis.GroupBy == "" {
		c.Analysis.GroupBy = "COMPANY"
	}
	if c.Analysis.Metric == "" {
		c.Analysis.Metric = "VALUE"
	}
	if c.Analysis.AnomalyThreshold == 0 {
		c.Analysis.AnomalyThreshold = 2.0
	}
	if c.Analysis.MinActivityFloor == 0 {
		c.Analysis.MinActivityFloor = 10000
	}
	if c.Analysis.RankBy == "" {
		c.Analysis.RankBy = "ABSOLUTE_DELTA"
	}
	if c.Fetch.Provider == "" {
		c.Fetch.Provider = "openinsider"
	}
	if c.Fetch.APIKeyEnv == "" {
		c.Fetch.APIKeyEnv = "SEC_API_KEY"
	}
	if c.Fetch.TimeoutSeconds == 0 {
		c.Fetch.TimeoutSeconds = 30
	}
	if c.Fetch.CacheDir == "" {
		c.Fetch.CacheDir = ".cache/filings"
	}
	if c.Fetch.CacheTTLMinutes == 0 {
		c.Fetch.CacheTTLMinutes = 60
	}
	if c.Fetch.RequestsPerMin == 0 {
		c.Fetch.RequestsPerMin = 10
	}
	if c.Archive.DBPath == "" {
		c.Archive.DBPath = "data/insider.db"
	}
	if c.Sentiment.MaxArticles == 0 {
		c.Sentiment.MaxArticles = 10
	}
	if c.Sentiment.MaxCompanies == 0 {
		c.Sentiment.MaxCompanies = 5
	}
	if c.Sentiment.CacheMinutes == 0 {
		c.Sentiment.CacheMinutes = 30
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "none"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}
	if len(c.Report.Formats) == 0 {
		c.Report.Formats = []string{"text"}
	}
	if c.Report.OutputDir == "" {
		c.Report.OutputDir = "reports"
	}
	if c.Watch.PollMinutes == 0 {
		c.Watch.PollMinutes = 60
	}
	if c.Watch.LogRetentionDays == 0 {
		c.Watch.LogRetentionDays = 14
	}
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.DataSource == "" {
		c.DataSource = "MOCK"
	}
	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
