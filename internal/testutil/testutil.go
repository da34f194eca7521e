// Package testutil starts quiz servers for tests and routes their logs to the test runner.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"testing"
	"time"
)

const (
	readyTimeout  = 10 * time.Second
	probeTimeout  = time.Second
	probeInterval = 100 * time.Millisecond
)

// TestWriter is an io.Writer that logs every write through tb.Logf. It is safe for concurrent use.
type TestWriter struct {
	tb testing.TB
	mu sync.Mutex
}

// NewTestWriter returns a TestWriter logging to tb.
func NewTestWriter(tb testing.TB) *TestWriter {
	tb.Helper()

	return &TestWriter{tb: tb}
}

// Write logs p without its trailing newline.
func (w *TestWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.tb.Logf("%s", strings.TrimRight(string(p), "\n"))

	return len(p), nil
}

// StartServer runs run in the background on a free localhost port and waits until its /healthz answers 200.
// It returns the base URL of the server and a function that stops it and returns the error run returned.
// An interrupt, such as the stop button of an IDE, also stops the server.
func StartServer(
	t *testing.T,
	run func(ctx context.Context, ln net.Listener) error,
) (string, func() error) {
	t.Helper()

	ctx, stop := signal.NotifyContext(t.Context(), os.Interrupt)
	t.Cleanup(stop)

	ln := listen(t)
	baseURL := "http://" + ln.Addr().String()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, ln)
	}()

	if err := waitForReady(ctx, baseURL+"/healthz"); err != nil {
		stop()
		t.Fatalf("server at %s never became ready: %v", baseURL, err)
	}

	return baseURL, func() error {
		stop()
		select {
		case err := <-errCh:
			return err
		case <-time.After(readyTimeout):
			return fmt.Errorf("server did not stop within %s", readyTimeout)
		}
	}
}

// listen opens a TCP listener on a free localhost port, closed when the test ends unless run closed it first.
func listen(tb testing.TB) net.Listener {
	tb.Helper()

	lc := &net.ListenConfig{}
	ln, err := lc.Listen(tb.Context(), "tcp", net.JoinHostPort("localhost", "0"))
	if err != nil {
		tb.Fatalf("failed to listen: %v", err)
	}
	tb.Cleanup(func() { _ = ln.Close() })

	return ln
}

// waitForReady polls endpoint until it answers 200 or readyTimeout passes.
func waitForReady(ctx context.Context, endpoint string) error {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	client := &http.Client{Timeout: probeTimeout}
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	for {
		status, err := probe(ctx, client, endpoint)
		if err == nil && status == http.StatusOK {
			return nil
		}

		select {
		case <-ctx.Done():
			return errors.Join(ctx.Err(), err)
		case <-ticker.C:
		}
	}
}

func probe(ctx context.Context, client *http.Client, endpoint string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	_ = resp.Body.Close()

	return resp.StatusCode, nil
}
