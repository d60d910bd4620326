package smoke

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const maxResponseBytes = 1 << 20

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type lookupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Region   string `json:"region"`
}

type envelope struct {
	Success bool                `json:"success"`
	Message jsoniter.RawMessage `json:"message"`
}

// client wraps http.Client for the two routes a smoke run needs.
type client struct {
	hc      *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{hc: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

func (c *client) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// lookup posts one lookup as clientAddr and returns the decoded envelope.
func (c *client) lookup(ctx context.Context, body lookupRequest, clientAddr string) (envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return envelope{}, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/matches", bytes.NewReader(payload))
	if err != nil {
		return envelope{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if clientAddr != "" {
		req.Header.Set("X-Forwarded-For", clientAddr)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return envelope{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return envelope{}, fmt.Errorf("%w: status %d", ErrBadResponse, resp.StatusCode)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	return env, nil
}

func (e envelope) text() string {
	var s string
	_ = json.Unmarshal(e.Message, &s)
	return s
}
