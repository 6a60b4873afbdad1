// Package errs defines the error types surfaced by the coinbasepro
// client packages. Validation errors are raised before any network
// call; transport failures wrap the underlying cause.
package errs

import (
	"errors"
	"fmt"
)

// DecodingError reports a secret key that could not be base64 decoded.
type DecodingError struct {
	Cause error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("secret key is not valid base64: %v", e.Cause)
}

func (e *DecodingError) Unwrap() error {
	return e.Cause
}

// InvalidOrderError reports a violated order precondition. Rule names
// the specific constraint so callers can surface it directly.
type InvalidOrderError struct {
	Rule    string
	Message string
}

func (e *InvalidOrderError) Error() string {
	return fmt.Sprintf("invalid order (%s): %s", e.Rule, e.Message)
}

// InvalidArgumentError reports a bad argument value (filter, status,
// book level, candle granularity) detected before any request is sent.
type InvalidArgumentError struct {
	Argument string
	Message  string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Argument, e.Message)
}

// ConnectionError reports a streaming handshake that failed to
// establish a usable connection.
type ConnectionError struct {
	URL   string
	Cause error
}

func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("websocket connection to %s failed: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("websocket connection to %s failed", e.URL)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// TransportError reports an HTTP or socket failure that is not
// otherwise classified. The cause is preserved verbatim.
type TransportError struct {
	Op    string
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// IsInvalidOrder reports whether err is an InvalidOrderError.
func IsInvalidOrder(err error) bool {
	var target *InvalidOrderError
	return errors.As(err, &target)
}

// IsInvalidArgument reports whether err is an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var target *InvalidArgumentError
	return errors.As(err, &target)
}

// IsConnection reports whether err is a ConnectionError.
func IsConnection(err error) bool {
	var target *ConnectionError
	return errors.As(err, &target)
}
