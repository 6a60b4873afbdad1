package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	API      APIConfig      `yaml:"api"`
	Feed     FeedConfig     `yaml:"feed"`
	Recorder RecorderConfig `yaml:"recorder"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type APIConfig struct {
	Environment string `yaml:"environment"`
	// BaseURL overrides the environment-derived REST endpoint when set.
	BaseURL         string               `yaml:"base_url"`
	Timeout         time.Duration        `yaml:"timeout"`
	CredentialsFile string               `yaml:"credentials_file"`
	RateLimit       RateLimitConfig      `yaml:"rate_limit"`
	ConnectionPool  ConnectionPoolConfig `yaml:"connection_pool"`
}

// RateLimitConfig mirrors Coinbase's documented REST limits: 10
// requests per second on public endpoints and 15 on private ones,
// with short bursts above that tolerated.
type RateLimitConfig struct {
	PublicRequestsPerSecond  int `yaml:"public_requests_per_second"`
	PublicBurst              int `yaml:"public_burst"`
	PrivateRequestsPerSecond int `yaml:"private_requests_per_second"`
	PrivateBurst             int `yaml:"private_burst"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnsPerHost int           `yaml:"max_conns_per_host"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

type FeedConfig struct {
	// URL overrides the environment-derived feed endpoint when set.
	URL          string        `yaml:"url"`
	Products     []string      `yaml:"products"`
	Channels     []string      `yaml:"channels"`
	MaxMemory    int           `yaml:"max_memory"`
	PingInterval time.Duration `yaml:"ping_interval"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
}

type RecorderConfig struct {
	Enabled       bool          `yaml:"enabled"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	S3            S3Config      `yaml:"s3"`
}

type S3Config struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// LoadConfig reads and validates the application configuration from a
// YAML file. AWS settings may be overridden through the environment.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override S3 settings from environment variables if available
	if config.Recorder.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Recorder.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Recorder.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Recorder.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Recorder.S3.Bucket = strings.TrimSpace(v)
		}
	}
	config.Recorder.S3.Bucket = strings.TrimSpace(config.Recorder.S3.Bucket)

	if config.API.Environment == "" {
		config.API.Environment = AppEnvironment()
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func applyDefaults(cfg *Config) {
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = 10 * time.Second
	}
	rl := &cfg.API.RateLimit
	if rl.PublicRequestsPerSecond <= 0 {
		rl.PublicRequestsPerSecond = 10
	}
	if rl.PublicBurst <= 0 {
		rl.PublicBurst = 15
	}
	if rl.PrivateRequestsPerSecond <= 0 {
		rl.PrivateRequestsPerSecond = 15
	}
	if rl.PrivateBurst <= 0 {
		rl.PrivateBurst = 30
	}
	cp := &cfg.API.ConnectionPool
	if cp.MaxIdleConns <= 0 {
		cp.MaxIdleConns = 16
	}
	if cp.MaxConnsPerHost <= 0 {
		cp.MaxConnsPerHost = 16
	}
	if cp.IdleConnTimeout <= 0 {
		cp.IdleConnTimeout = 90 * time.Second
	}
	if cfg.Feed.MaxMemory <= 0 {
		cfg.Feed.MaxMemory = 1000
	}
	if cfg.Feed.PingInterval <= 0 {
		cfg.Feed.PingInterval = 30 * time.Second
	}
	if cfg.Feed.ReadTimeout <= 0 {
		cfg.Feed.ReadTimeout = 5 * time.Second
	}
	if cfg.Recorder.FlushInterval <= 0 {
		cfg.Recorder.FlushInterval = time.Minute
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.API.Environment {
	case environmentSandbox, environmentProduction:
	default:
		return fmt.Errorf("unknown environment '%s'", cfg.API.Environment)
	}

	if cfg.Recorder.Enabled {
		if cfg.Recorder.S3.Bucket == "" {
			return fmt.Errorf("recorder is enabled but no s3 bucket is configured")
		}
		if !isValidS3Bucket(cfg.Recorder.S3.Bucket) {
			return fmt.Errorf("invalid s3 bucket name '%s'", cfg.Recorder.S3.Bucket)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	return s3BucketRegexp.MatchString(name)
}
