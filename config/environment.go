package config

import (
	"os"
	"strings"
)

const (
	appEnvVar             = "APP_ENV"
	environmentSandbox    = "sandbox"
	environmentProduction = "production"
)

const (
	// EnvironmentSandbox exposes the canonical sandbox environment
	// identifier. Sandbox points every client at Coinbase's public
	// sandbox deployment.
	EnvironmentSandbox = environmentSandbox
	// EnvironmentProduction exposes the canonical production
	// environment identifier.
	EnvironmentProduction = environmentProduction
)

var environmentAliases = map[string]string{
	"prod":        environmentProduction,
	"live":        environmentProduction,
	"dev":         environmentSandbox,
	"development": environmentSandbox,
	"test":        environmentSandbox,
}

const (
	productionAPIURL = "https://api.pro.coinbase.com"
	sandboxAPIURL    = "https://api-public.sandbox.pro.coinbase.com"

	productionFeedURL = "wss://ws-feed.pro.coinbase.com"
	sandboxFeedURL    = "wss://ws-feed-public.sandbox.exchange.coinbase.com"
)

// AppEnvironment reads the application environment from APP_ENV and
// defaults to sandbox when no value is provided. Values are normalised
// through the alias table so callers can rely on a consistent
// identifier.
func AppEnvironment() string {
	env := strings.ToLower(strings.TrimSpace(os.Getenv(appEnvVar)))
	if env == "" {
		return environmentSandbox
	}
	if canonical, ok := environmentAliases[env]; ok {
		return canonical
	}
	return env
}

// IsProduction reports whether the provided environment identifier
// selects the live exchange rather than the sandbox.
func IsProduction(env string) bool {
	return env == environmentProduction
}

// APIBaseURL returns the REST base URL for the given environment.
func APIBaseURL(env string) string {
	if IsProduction(env) {
		return productionAPIURL
	}
	return sandboxAPIURL
}

// FeedURL returns the websocket feed URL for the given environment.
func FeedURL(env string) string {
	if IsProduction(env) {
		return productionFeedURL
	}
	return sandboxFeedURL
}
