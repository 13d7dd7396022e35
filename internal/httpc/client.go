// Package httpc provides the HTTP client used to query a running
// diagnostics server. Use it instead of http.DefaultClient so timeouts
// are always set.
package httpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Default timeouts for HTTP operations.
const (
	DefaultTimeout        = 5 * time.Second
	DefaultConnectTimeout = 2 * time.Second
	DefaultKeepAlive      = 30 * time.Second
)

// Client is a shared HTTP client with short local-network timeouts.
var Client = NewClient(DefaultTimeout)

// NewClient creates an HTTP client with the specified overall timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DefaultConnectTimeout,
				KeepAlive: DefaultKeepAlive,
			}).DialContext,
			MaxIdleConns:        4,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: DefaultConnectTimeout,
		},
	}
}

// GetJSON fetches url with the shared client and decodes a 200 response
// into v.
func GetJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpc: GET %s: %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("httpc: decode %s: %w", url, err)
	}
	return nil
}
