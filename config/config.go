package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tourist-untrap-backend/internal/crowd"
	"tourist-untrap-backend/internal/logging"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Feed       FeedConfig       `yaml:"feed"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Crowd      CrowdConfig      `yaml:"crowd"`
	Log        LogConfig        `yaml:"log"`
}

// WorkerPoolConfig holds the configuration for the batch prediction worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// FeedConfig holds the upstream crowd feed configuration.
type FeedConfig struct {
	Enabled         bool              `yaml:"enabled"`
	IntervalSeconds int               `yaml:"interval_seconds"`
	Interval        time.Duration     `yaml:"-"` // Ignored by YAML parser
	URL             string            `yaml:"url"`
	Headers         map[string]string `yaml:"headers"`
	Payload         map[string]any    `yaml:"payload"`
	HTTPProxy       string            `yaml:"http_proxy"`
	PageSize        int               `yaml:"page_size"`
	Timezone        string            `yaml:"timezone"`
	Source          string            `yaml:"source"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	EnableTimescale        bool   `yaml:"enable_timescale"`
	Debug                  bool   `yaml:"debug"`
}

// CrowdConfig tunes the crowd estimator. Zero values keep the built-in defaults.
type CrowdConfig struct {
	LowThreshold         float64 `yaml:"low_threshold"`
	HighThreshold        float64 `yaml:"high_threshold"`
	PredictionWindowDays int     `yaml:"prediction_window_days"`
	StatsWindowDays      int     `yaml:"stats_window_days"`
	FixedConfidence      float64 `yaml:"fixed_confidence"`
	AccuracyTolerance    float64 `yaml:"accuracy_tolerance"`
}

// LogConfig holds the logger configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Feed.IntervalSeconds <= 0 {
		cfg.Feed.IntervalSeconds = 300
	}
	cfg.Feed.Interval = time.Duration(cfg.Feed.IntervalSeconds) * time.Second

	if cfg.Feed.PageSize <= 0 {
		cfg.Feed.PageSize = 100
	}
	if cfg.Feed.Timezone == "" {
		cfg.Feed.Timezone = "UTC"
	}
	if cfg.Feed.Source == "" {
		cfg.Feed.Source = string(crowd.SourceAPI)
	}

	if cfg.WorkerPool.Size <= 0 {
		logging.Warn().Msg("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}

// CrowdParams converts the crowd section into estimator parameters.
func (cfg *Config) CrowdParams() crowd.Params {
	p := crowd.DefaultParams()
	c := cfg.Crowd
	if c.LowThreshold > 0 {
		p.LowThreshold = c.LowThreshold
	}
	if c.HighThreshold > 0 {
		p.HighThreshold = c.HighThreshold
	}
	if c.PredictionWindowDays > 0 {
		p.PredictionWindow = time.Duration(c.PredictionWindowDays) * 24 * time.Hour
	}
	if c.StatsWindowDays > 0 {
		p.StatsWindowDays = c.StatsWindowDays
	}
	if c.FixedConfidence > 0 {
		p.FixedConfidence = c.FixedConfidence
	}
	if c.AccuracyTolerance > 0 {
		p.AccuracyTolerance = c.AccuracyTolerance
	}
	return p
}
