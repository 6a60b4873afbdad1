// Package auth implements Coinbase's request signing scheme. A
// signature is an HMAC-SHA256 over the canonical message
// timestamp + METHOD + path + body, keyed with the base64-decoded
// secret and encoded back to base64.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"coinbasepro/config"
	"coinbasepro/errs"
)

// Sign computes the base64 HMAC-SHA256 signature of message using the
// base64-encoded secret key. The same primitive backs both REST
// requests and the websocket subscribe handshake.
func Sign(message, b64SecretKey string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(b64SecretKey)
	if err != nil {
		return "", &errs.DecodingError{Cause: err}
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Timestamp returns the current time as stringified decimal seconds
// since the epoch. The exchange rejects stale timestamps, so a fresh
// value is required for every signed operation.
func Timestamp() string {
	return formatTimestamp(time.Now())
}

func formatTimestamp(t time.Time) string {
	secs := float64(t.UnixNano()) / 1e9
	return strconv.FormatFloat(secs, 'f', 6, 64)
}

// Authenticator produces the authentication headers required on every
// private REST request. It is stateless apart from the immutable
// credentials and safe for concurrent use.
type Authenticator struct {
	creds config.Credentials
}

// NewAuthenticator wraps the provided credentials.
func NewAuthenticator(creds config.Credentials) Authenticator {
	return Authenticator{creds: creds}
}

// Headers signs one outgoing request and returns the full header set.
// The canonical message is the exact concatenation, without
// delimiters, of the fresh timestamp, the uppercased method, the
// request path including any query string, and the body.
func (a Authenticator) Headers(method, requestPath, body string) (map[string]string, error) {
	timestamp := Timestamp()
	message := timestamp + strings.ToUpper(method) + requestPath + body

	signature, err := Sign(message, a.creds.B64SecretKey)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"Content-Type":         "application/json",
		"CB-ACCESS-SIGN":       signature,
		"CB-ACCESS-TIMESTAMP":  timestamp,
		"CB-ACCESS-KEY":        a.creds.APIKey,
		"CB-ACCESS-PASSPHRASE": a.creds.Passphrase,
	}, nil
}
