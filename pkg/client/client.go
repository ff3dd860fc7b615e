// Package client talks to the admin endpoints of a running memogate server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pario-ai/memogate/pkg/models"
)

// Client is an HTTP client for the memogate admin endpoints.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// New creates a Client for the server at base. A non-empty token is sent as
// a bearer token on every request.
func New(base, token string) *Client {
	return &Client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

// BaseURL resolves the server URL from an explicit address or, when addr is
// empty, from the configured listen address. Wildcard hosts map to localhost.
func BaseURL(addr, listen string) string {
	if addr == "" {
		addr = listen
	}
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// CacheStats fetches the server's cache statistics.
func (c *Client) CacheStats(ctx context.Context) (models.CacheStats, error) {
	var stats models.CacheStats
	err := c.do(ctx, http.MethodGet, "/cache/stats", &stats)
	return stats, err
}

// ClearCache empties the server's cache.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cache", nil)
}

// LimitStatus fetches window usage for clientID without consuming quota.
func (c *Client) LimitStatus(ctx context.Context, clientID string) (models.LimitStatus, error) {
	var st models.LimitStatus
	err := c.do(ctx, http.MethodGet, "/limit/stats?client="+url.QueryEscape(clientID), &st)
	return st, err
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contact server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
