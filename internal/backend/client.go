package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dotrip/internal/domain"
	"dotrip/internal/metrics"
	"dotrip/internal/utils"

	"go.uber.org/zap"
)

// TokenSource yields the current access token. It is read right before each
// authenticated request and never cached by the client.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource holding one value.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client talks JSON to the booking API.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
}

// NewClient builds a client for baseURL. timeout 0 leaves requests unbounded.
func NewClient(baseURL string, timeout time.Duration, m *metrics.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		metrics: m,
	}
}

// Response is a raw reply that was received, whatever its status.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Text is the trimmed body as a string.
func (r *Response) Text() string {
	return strings.TrimSpace(string(r.Body))
}

// do sends one request. Only failures to get any reply are returned as an
// error (domain.TransportError); non-2xx replies come back as a Response.
func (c *Client) do(ctx context.Context, method, path, endpoint string, body any, tokens TokenSource) (*Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", endpoint, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tokens != nil {
		if tok := strings.TrimSpace(tokens.Token()); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveBackend(endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		utils.GetLogger().Warn("backend call failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, domain.TransportError{Op: endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	c.metrics.ObserveBackend(endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.TransportError{Op: endpoint, Err: err}
	}
	utils.GetLogger().Debug("backend call",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

// getJSON fetches path and decodes a 2xx body into dst. Non-2xx becomes a
// domain.BackendError carrying the raw body.
func (c *Client) getJSON(ctx context.Context, path, endpoint string, tokens TokenSource, dst any) error {
	resp, err := c.do(ctx, http.MethodGet, path, endpoint, nil, tokens)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return domain.BackendError{
			Status: resp.Status,
			Msg:    fmt.Sprintf("%s failed (%d)", endpoint, resp.Status),
			Body:   resp.Text(),
		}
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return domain.EmptyResponseError{Msg: endpoint + " returned no body"}
	}
	if err := json.Unmarshal(resp.Body, dst); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}
