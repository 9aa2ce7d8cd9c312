// Package apiclient talks to the marketplace REST API. Every response is an
// envelope carrying a "success" flag, an optional "message" and the payload
// under a resource-specific key.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marketadmin/internal/domain"
)

// Client is safe for concurrent use.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Envelope is a decoded API response.
type Envelope struct {
	Success bool
	Message string
	Fields  map[string]json.RawMessage
}

// Field returns the first present payload under one of keys.
func (e Envelope) Field(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if raw, ok := e.Fields[k]; ok && len(raw) > 0 && string(raw) != "null" {
			return raw, true
		}
	}
	return nil, false
}

// Has reports whether any of keys is present, even as null.
func (e Envelope) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := e.Fields[k]; ok && k != "" {
			return true
		}
	}
	return false
}

// Call performs one request. resource and op only label errors. A network
// failure or an unreadable body is a TransportError; success=false is an
// ApplicationError carrying the server's message.
func (c *Client) Call(ctx context.Context, op, resource, method, path string, query url.Values, body any) (Envelope, error) {
	var env Envelope

	target := c.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return env, domain.InternalError{Msg: "cannot encode request body", Err: err}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return env, domain.InternalError{Msg: "cannot build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return env, domain.TransportError{Op: op, Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return env, domain.TransportError{Op: op, Resource: resource, Err: err}
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return env, domain.TransportError{
			Op:       op,
			Resource: resource,
			Err:      fmt.Errorf("status %d: unreadable body: %w", resp.StatusCode, err),
		}
	}
	env.Fields = fields
	if m, ok := fields["message"]; ok {
		_ = json.Unmarshal(m, &env.Message)
	}
	if s, ok := fields["success"]; ok {
		_ = json.Unmarshal(s, &env.Success)
	} else {
		env.Success = resp.StatusCode < 300
	}

	if !env.Success {
		if env.Message == "" && resp.StatusCode >= 500 {
			return env, domain.TransportError{Op: op, Resource: resource, Err: fmt.Errorf("status %d", resp.StatusCode)}
		}
		return env, domain.ApplicationError{Resource: resource, Message: env.Message}
	}
	return env, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}
