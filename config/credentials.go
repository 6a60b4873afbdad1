package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Credentials holds the API key material issued by Coinbase when an
// API key is generated. The secret key is kept in its base64 form and
// only decoded at signing time. Credentials are immutable once loaded
// and must never appear in log output.
type Credentials struct {
	B64SecretKey string `json:"b64_secret_key"`
	APIKey       string `json:"api_key"`
	Passphrase   string `json:"passphrase"`
}

// String implements fmt.Stringer with all key material redacted, so an
// accidental log of the struct does not leak secrets.
func (c Credentials) String() string {
	return "Credentials{b64_secret_key:<redacted>, api_key:<redacted>, passphrase:<redacted>}"
}

// Complete reports whether every credential field is populated.
func (c Credentials) Complete() bool {
	return c.B64SecretKey != "" && c.APIKey != "" && c.Passphrase != ""
}

// LoadCredentials reads API credentials from a JSON file of the form
// {"b64_secret_key": ..., "api_key": ..., "passphrase": ...}.
func LoadCredentials(path string) (Credentials, error) {
	var creds Credentials

	data, err := os.ReadFile(path)
	if err != nil {
		return creds, fmt.Errorf("failed to read credentials file: %w", err)
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return creds, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if !creds.Complete() {
		return creds, fmt.Errorf("credentials file %s is missing required fields", path)
	}
	return creds, nil
}

// CredentialsFromEnv assembles credentials from the COINBASE_SECRET_KEY,
// COINBASE_API_KEY and COINBASE_PASSPHRASE environment variables.
// Callers typically load a .env file first via godotenv.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		B64SecretKey: strings.TrimSpace(os.Getenv("COINBASE_SECRET_KEY")),
		APIKey:       strings.TrimSpace(os.Getenv("COINBASE_API_KEY")),
		Passphrase:   strings.TrimSpace(os.Getenv("COINBASE_PASSPHRASE")),
	}
	if !creds.Complete() {
		return creds, fmt.Errorf("missing one or more of COINBASE_SECRET_KEY, COINBASE_API_KEY, COINBASE_PASSPHRASE")
	}
	return creds, nil
}
