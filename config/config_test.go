package config

import (
	"os"
	"testing"
	"time"
)

// writeTempConfig creates a minimal configuration file required for
// LoadConfig and returns its path.
func writeTempConfig(t *testing.T) string {
	t.Helper()
	content := `app:
  name: "TestApp"
  version: "1.0"
api:
  environment: sandbox
  timeout: 5s
feed:
  products: ["BTC-USD"]
  channels: ["ticker"]
  max_memory: 250
recorder:
  enabled: false
`
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.App.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.App.Name)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("unexpected timeout: %v", cfg.API.Timeout)
	}
	if cfg.Feed.MaxMemory != 250 {
		t.Errorf("unexpected max memory: %d", cfg.Feed.MaxMemory)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeTempConfig(t)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Feed.PingInterval != 30*time.Second {
		t.Errorf("ping interval default not applied: %v", cfg.Feed.PingInterval)
	}
	if cfg.API.RateLimit.PublicRequestsPerSecond != 10 {
		t.Errorf("public rate limit default not applied: %d", cfg.API.RateLimit.PublicRequestsPerSecond)
	}
	if cfg.API.RateLimit.PrivateBurst != 30 {
		t.Errorf("private burst default not applied: %d", cfg.API.RateLimit.PrivateBurst)
	}
}

func TestLoadConfigRejectsUnknownEnvironment(t *testing.T) {
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString("api:\n  environment: moon\n"); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	f.Close()

	if _, err := LoadConfig(f.Name()); err == nil {
		t.Fatalf("expected validation error for unknown environment")
	}
}

func TestLoadConfigRecorderNeedsBucket(t *testing.T) {
	t.Setenv("S3_BUCKET", "")
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString("api:\n  environment: sandbox\nrecorder:\n  enabled: true\n"); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	f.Close()

	if _, err := LoadConfig(f.Name()); err == nil {
		t.Fatalf("expected validation error for missing bucket")
	}
}

func TestEnvironmentURLs(t *testing.T) {
	if APIBaseURL(EnvironmentProduction) != "https://api.pro.coinbase.com" {
		t.Errorf("unexpected production api url")
	}
	if APIBaseURL(EnvironmentSandbox) != "https://api-public.sandbox.pro.coinbase.com" {
		t.Errorf("unexpected sandbox api url")
	}
	if FeedURL(EnvironmentProduction) != "wss://ws-feed.pro.coinbase.com" {
		t.Errorf("unexpected production feed url")
	}
	if FeedURL(EnvironmentSandbox) != "wss://ws-feed-public.sandbox.exchange.coinbase.com" {
		t.Errorf("unexpected sandbox feed url")
	}
}

func TestAppEnvironmentAliases(t *testing.T) {
	t.Setenv(appEnvVar, "prod")
	if AppEnvironment() != EnvironmentProduction {
		t.Errorf("alias 'prod' not normalised")
	}
	t.Setenv(appEnvVar, "")
	if AppEnvironment() != EnvironmentSandbox {
		t.Errorf("empty APP_ENV should default to sandbox")
	}
}
