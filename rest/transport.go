// Package rest implements the Coinbase Pro REST clients: a public
// market-data client and an authenticated private client for account
// and order management. Responses are passed through as raw JSON;
// the exchange's error bodies are returned verbatim on HTTP error
// statuses.
package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"coinbasepro/auth"
	"coinbasepro/config"
	"coinbasepro/errs"
	"coinbasepro/logger"
)

const userAgent = "coinbasepro/1.0"

// transport is the shared HTTP plumbing beneath both clients: a
// pooled http.Client, a request rate limiter, and optional request
// signing for the private surface.
type transport struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	authn   *auth.Authenticator
	log     *logger.Log
}

func newTransport(cfg *config.Config, authn *auth.Authenticator, rps, burst int) *transport {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = rps
	}
	pool := cfg.API.ConnectionPool
	httpTransport := &http.Transport{
		MaxIdleConns:       pool.MaxIdleConns,
		MaxConnsPerHost:    pool.MaxConnsPerHost,
		IdleConnTimeout:    pool.IdleConnTimeout,
		DisableCompression: false,
	}

	baseURL := cfg.API.BaseURL
	if baseURL == "" {
		baseURL = config.APIBaseURL(cfg.API.Environment)
	}

	return &transport{
		baseURL: baseURL,
		client: &http.Client{
			Transport: httpTransport,
			Timeout:   cfg.API.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		authn:   authn,
		log:     logger.GetLogger(),
	}
}

// do issues one request and returns the response body verbatim. The
// path passed to the signer includes the query string, matching what
// the exchange verifies against.
func (t *transport) do(ctx context.Context, method, endpoint string, query url.Values, body string) (json.RawMessage, error) {
	requestPath := endpoint
	if len(query) > 0 {
		requestPath += "?" + query.Encode()
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, &errs.TransportError{Op: method + " " + endpoint, Cause: err}
	}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+requestPath, reader)
	if err != nil {
		return nil, &errs.TransportError{Op: method + " " + endpoint, Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	if t.authn != nil {
		headers, err := t.authn.Headers(method, requestPath, body)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &errs.TransportError{Op: method + " " + endpoint, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.TransportError{Op: method + " " + endpoint, Cause: err}
	}

	if resp.StatusCode >= 400 {
		t.log.WithComponent("rest").WithFields(logger.Fields{
			"method": method,
			"path":   endpoint,
			"status": resp.StatusCode,
		}).Debug("exchange returned error status")
	}

	// Error bodies are returned to the caller unmodified; the
	// exchange reports failures as a JSON object with a message field.
	return data, nil
}
