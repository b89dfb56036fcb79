package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	healthEndpoint       = "/healthz"
	expectedHealthStatus = "ok"
	healthRequestTimeout = 1 * time.Second

	// exit codes, stable for container HEALTHCHECK scripts
	codeRequestFailed     = 2
	codeBadHTTPStatus     = 3
	codeDecodeError       = 4
	codeReportedUnhealthy = 5
)

// healthError carries the exit code for a failed check.
type healthError struct {
	code int
	err  error
}

func (e *healthError) Error() string { return e.err.Error() }

func (e *healthError) Unwrap() error { return e.err }

// healthResp mirrors the optional body {"status": "ok"}; a down gateway adds "error".
type healthResp struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// checkHealth calls baseURL's health endpoint and reports success on w.
// Failures are *healthError.
func checkHealth(ctx context.Context, baseURL string, w io.Writer) error {
	url := strings.TrimRight(baseURL, "/") + healthEndpoint

	ctx, cancel := context.WithTimeout(ctx, healthRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &healthError{code: codeRequestFailed, err: fmt.Errorf("request failed: %w", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return &healthError{code: codeRequestFailed, err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	var h healthResp
	decodeErr := json.NewDecoder(resp.Body).Decode(&h)

	if resp.StatusCode != http.StatusOK {
		if h.Error != "" {
			return &healthError{code: codeBadHTTPStatus, err: fmt.Errorf("unexpected HTTP status %d: %s", resp.StatusCode, h.Error)}
		}
		return &healthError{code: codeBadHTTPStatus, err: fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)}
	}
	if decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		return &healthError{code: codeDecodeError, err: fmt.Errorf("decode error: %w", decodeErr)}
	}
	if h.Status != "" && h.Status != expectedHealthStatus {
		return &healthError{code: codeReportedUnhealthy, err: fmt.Errorf("service reported unhealthy: %q", h.Status)}
	}

	_, err = fmt.Fprintf(w, "service healthy at %s\n", url)
	return err
}
