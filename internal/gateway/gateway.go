// Package gateway holds the clients for the external collaborators: the
// Free Fire player lookup, QR image generation and the payment status
// oracle. Each has an HTTP adapter and, where the workflow needs one, a
// deterministic in-process adapter. Calls are never retried.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

var (
	// ErrTimeout is returned when the collaborator did not answer in time.
	ErrTimeout = errors.New("upstream timeout")
	// ErrUnavailable covers transport failures and unexpected responses.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrPlayerNotFound is returned when the lookup knows no such UID.
	ErrPlayerNotFound = errors.New("player not found")
)

// NewHTTPClient returns the client shared by the HTTP adapters.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// classify maps a transport error onto ErrTimeout or ErrUnavailable.
func classify(op string, err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// readBody reads at most 1 MiB of a response body.
func readBody(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}
