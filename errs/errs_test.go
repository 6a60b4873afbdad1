package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestInvalidOrderErrorNamesRule(t *testing.T) {
	err := &InvalidOrderError{Rule: "market_size_funds_xor", Message: "either size or funds"}
	if !strings.Contains(err.Error(), "market_size_funds_xor") {
		t.Fatalf("rule missing from message: %s", err.Error())
	}
	if !IsInvalidOrder(err) {
		t.Fatalf("IsInvalidOrder returned false")
	}
	if IsInvalidArgument(err) {
		t.Fatalf("IsInvalidArgument matched an order error")
	}
}

func TestTransportErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &TransportError{Op: "GET /products", Cause: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("expected unwrap to reach cause")
	}
}

func TestWrappedErrorsMatch(t *testing.T) {
	err := fmt.Errorf("create order: %w", &InvalidOrderError{Rule: "limit_requires_price_size"})
	if !IsInvalidOrder(err) {
		t.Fatalf("wrapped InvalidOrderError not detected")
	}
	conn := fmt.Errorf("start: %w", &ConnectionError{URL: "wss://example"})
	if !IsConnection(conn) {
		t.Fatalf("wrapped ConnectionError not detected")
	}
}
