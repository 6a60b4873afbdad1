package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coinbasepro/config"
	"coinbasepro/errs"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		API: config.APIConfig{
			Environment: config.EnvironmentSandbox,
			BaseURL:     baseURL,
			Timeout:     5 * time.Second,
		},
	}
}

func TestPublicEndpointPaths(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewPublicClient(testConfig(server.URL))
	ctx := context.Background()

	cases := []struct {
		name string
		call func() (json.RawMessage, error)
		want string
	}{
		{"products", func() (json.RawMessage, error) { return client.GetProducts(ctx) }, "/products"},
		{"product", func() (json.RawMessage, error) { return client.GetProduct(ctx, "BTC-USD") }, "/products/BTC-USD"},
		{"ticker", func() (json.RawMessage, error) { return client.GetTicker(ctx, "BTC-USD") }, "/products/BTC-USD/ticker"},
		{"stats", func() (json.RawMessage, error) { return client.GetStats(ctx, "BTC-USD") }, "/products/BTC-USD/stats"},
		{"book", func() (json.RawMessage, error) { return client.GetBook(ctx, "BTC-USD", 2) }, "/products/BTC-USD/book?level=2"},
		{"time", func() (json.RawMessage, error) { return client.GetServerTime(ctx) }, "/time"},
	}
	for _, tc := range cases {
		if _, err := tc.call(); err != nil {
			t.Fatalf("%s failed: %v", tc.name, err)
		}
		if gotPath != tc.want {
			t.Errorf("%s: got path %s want %s", tc.name, gotPath, tc.want)
		}
	}
}

func TestGetBookRejectsBadLevel(t *testing.T) {
	client := NewPublicClient(testConfig("http://127.0.0.1:1"))
	for _, level := range []int{0, 4, -1} {
		_, err := client.GetBook(context.Background(), "BTC-USD", level)
		if !errs.IsInvalidArgument(err) {
			t.Errorf("level %d: expected InvalidArgumentError, got %v", level, err)
		}
	}
}

func TestGetCandlesGranularity(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		w.Write([]byte(`[]`))
	}))
	defer server.Close()
	client := NewPublicClient(testConfig(server.URL))

	_, err := client.GetCandles(context.Background(), "BTC-USD", CandleParams{Granularity: 42})
	if !errs.IsInvalidArgument(err) {
		t.Fatalf("expected InvalidArgumentError for granularity 42, got %v", err)
	}

	_, err = client.GetCandles(context.Background(), "BTC-USD", CandleParams{
		Start:       "2022-03-01T00:00:00Z",
		End:         "2022-03-02T00:00:00Z",
		Granularity: 3600,
	})
	if err != nil {
		t.Fatalf("valid candle query failed: %v", err)
	}
	want := "/products/BTC-USD/candles?end=2022-03-02T00%3A00%3A00Z&granularity=3600&start=2022-03-01T00%3A00%3A00Z"
	if gotPath != want {
		t.Errorf("got path %s want %s", gotPath, want)
	}
}

func TestErrorBodyPassedThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"NotFound"}`))
	}))
	defer server.Close()
	client := NewPublicClient(testConfig(server.URL))

	data, err := client.GetProduct(context.Background(), "NOPE-USD")
	if err != nil {
		t.Fatalf("error status must not produce a client error: %v", err)
	}
	if string(data) != `{"message":"NotFound"}` {
		t.Errorf("error body altered: %s", string(data))
	}
}

func TestTransportErrorOnDialFailure(t *testing.T) {
	client := NewPublicClient(testConfig("http://127.0.0.1:1"))
	_, err := client.GetProducts(context.Background())
	if err == nil {
		t.Fatalf("expected transport error")
	}
	var transportErr *errs.TransportError
	if !asTransport(err, &transportErr) {
		t.Fatalf("expected *errs.TransportError, got %T", err)
	}
}

func asTransport(err error, target **errs.TransportError) bool {
	e, ok := err.(*errs.TransportError)
	if ok {
		*target = e
	}
	return ok
}
