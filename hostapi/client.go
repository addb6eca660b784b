// Package hostapi is the client for the host flow engine's admin surface.
// It fetches the flow configuration, diagnostics, and settings documents
// the loaders and the translator consume, and implements the bounded
// readiness wait used before the environment graph is written.
package hostapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/c360/urdf/errors"
)

// Client talks to the host admin API.
type Client struct {
	base   string
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a client for an admin base URL.
func NewClient(base string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Flows fetches the current flow configuration: the ordered node list the
// translator consumes. Both the bare-array export shape and wrapper
// objects carrying the list under a common key are accepted.
func (c *Client) Flows(ctx context.Context) ([]RawNode, error) {
	var doc any
	if err := c.getJSON(ctx, "/flows", &doc); err != nil {
		return nil, err
	}
	nodes, ok := ExtractNodes(doc)
	if !ok {
		return nil, errors.WrapContract(
			fmt.Errorf("unsupported /flows document shape"),
			"hostapi", "Flows", "extract node list")
	}
	return nodes, nil
}

// Diagnostics fetches the host diagnostics document.
func (c *Client) Diagnostics(ctx context.Context) (map[string]any, error) {
	var doc map[string]any
	if err := c.getJSON(ctx, "/diagnostics", &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Settings fetches the host settings document.
func (c *Client) Settings(ctx context.Context) (map[string]any, error) {
	var doc map[string]any
	if err := c.getJSON(ctx, "/settings", &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// WaitReady polls the admin surface until it answers, the attempt budget
// is exhausted, or the context is cancelled. The environment loader runs
// with 30 attempts at 1-second cadence.
func (c *Client) WaitReady(ctx context.Context, attempts int, interval time.Duration) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return errors.WrapTransient(ctx.Err(), "hostapi", "WaitReady", "wait")
			case <-time.After(interval):
			}
		}
		var doc map[string]any
		err := c.getJSON(ctx, "/settings", &doc)
		if err == nil {
			return nil
		}
		lastErr = err
		c.logger.Debug("host admin API not ready", "attempt", i+1, "of", attempts)
	}
	return errors.WrapTransient(
		fmt.Errorf("%w after %d attempts: %v", errors.ErrAdminUnreachable, attempts, lastErr),
		"hostapi", "WaitReady", "wait")
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return errors.WrapTransient(err, "hostapi", "getJSON", "build request")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.WrapTransient(err, "hostapi", "getJSON", "GET "+path)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return errors.WrapTransient(err, "hostapi", "getJSON", "read body")
	}
	if resp.StatusCode != http.StatusOK {
		return errors.WrapTransient(
			fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode),
			"hostapi", "getJSON", "check status")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.WrapTransient(err, "hostapi", "getJSON", "decode body")
	}
	return nil
}
