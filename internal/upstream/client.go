package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Streaming responses can stay open for minutes; idle pooling keeps the
// buffered path cheap.
var transport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     120 * time.Second,
}

// APIError is an upstream non-2xx, replayed to the client with the same
// status code.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Message)
}

// ErrInvalidResponse means the upstream body did not carry a non-empty
// choices array. Always surfaced as an internal error, whatever status
// the upstream used.
var ErrInvalidResponse = errors.New("invalid response from upstream API")

// Client issues the single outbound call per request. No retries, no
// timeouts beyond the request context.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Transport: transport},
	}
}

// ChatCompletions posts the outbound body and buffers the whole response.
// A 2xx returns the raw body bytes; anything else maps to the error
// taxonomy.
func (c *Client) ChatCompletions(ctx context.Context, body []byte) ([]byte, error) {
	resp, err := c.post(ctx, body, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp.StatusCode, raw)
	}
	return raw, nil
}

// StreamChatCompletions opens the outbound call and hands the response
// back for relaying. A non-2xx is consumed, closed and mapped exactly
// like the buffered path; on success the caller owns the body.
func (c *Client) StreamChatCompletions(ctx context.Context, body []byte) (*http.Response, error) {
	resp, err := c.post(ctx, body, true)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, apiError(resp.StatusCode, raw)
	}
	return resp, nil
}

// ListModels forwards the upstream model listing as-is: status, body and
// content type are the caller's to replay.
func (c *Client) ListModels(ctx context.Context) (status int, contentType string, body []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return 0, "", nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", nil, fmt.Errorf("call upstream: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", nil, fmt.Errorf("read upstream body: %w", err)
	}
	return resp.StatusCode, resp.Header.Get("Content-Type"), raw, nil
}

func (c *Client) post(ctx context.Context, body []byte, stream bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call upstream: %w", err)
	}
	return resp, nil
}

// apiError lifts the message out of an OpenAI-style error envelope when
// the body carries one, and falls back to the raw body.
func apiError(status int, body []byte) *APIError {
	e := &APIError{Status: status, Message: strings.TrimSpace(string(body))}
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		e.Message = msg.String()
	}
	if code := gjson.GetBytes(body, "error.code"); code.Exists() {
		e.Code = code.String()
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
