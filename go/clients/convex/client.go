// Package convex is a minimal client for a Convex deployment's public
// function API. Queries and mutations are plain JSON over POST; the
// deployment URL comes from the same environment variables the web
// frontend uses.
package convex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// Endpoints on the deployment base URL.
	QueryEndpoint    = "/api/query"
	MutationEndpoint = "/api/mutation"

	// Environment variables that select the deployment, checked in order.
	EnvViteConvexURL = "VITE_CONVEX_URL"
	EnvConvexURL     = "CONVEX_URL"

	defaultTimeout = 30 * time.Second
)

// Client calls Convex functions on a single deployment.
type Client struct {
	deploymentURL string
	httpClient    *http.Client
	headers       map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default 30s request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// NewClient creates a client for the given deployment URL.
func NewClient(deploymentURL string, opts ...Option) *Client {
	c := &Client{
		deploymentURL: strings.TrimRight(deploymentURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveDeploymentURL reads the deployment URL from the environment,
// preferring the frontend's VITE_CONVEX_URL over CONVEX_URL.
func ResolveDeploymentURL() (string, error) {
	for _, key := range []string{EnvViteConvexURL, EnvConvexURL} {
		if url := strings.TrimSpace(os.Getenv(key)); url != "" {
			return url, nil
		}
	}
	return "", ErrNoDeploymentURL
}

// functionRequest is the wire format for /api/query and /api/mutation.
type functionRequest struct {
	Path   string `json:"path"`
	Args   any    `json:"args"`
	Format string `json:"format"`
}

// functionResponse is the envelope Convex wraps every result in.
type functionResponse struct {
	Status       string          `json:"status"`
	Value        json.RawMessage `json:"value"`
	ErrorMessage string          `json:"errorMessage"`
	ErrorData    json.RawMessage `json:"errorData"`
}

// Query runs a Convex query function and unmarshals its value into out.
// A nil args sends an empty argument object; a nil out discards the value.
func (c *Client) Query(ctx context.Context, path string, args, out any) error {
	return c.call(ctx, QueryEndpoint, path, args, out)
}

// Mutation runs a Convex mutation function.
func (c *Client) Mutation(ctx context.Context, path string, args, out any) error {
	return c.call(ctx, MutationEndpoint, path, args, out)
}

func (c *Client) call(ctx context.Context, endpoint, path string, args, out any) error {
	if args == nil {
		args = map[string]any{}
	}
	body, err := json.Marshal(functionRequest{Path: path, Args: args, Format: "json"})
	if err != nil {
		return fmt.Errorf("marshal %s args: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.deploymentURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("call %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var envelope functionResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("decode %s envelope: %w", path, err)
	}
	if envelope.Status != "success" {
		return &FunctionError{
			Path:    path,
			Message: envelope.ErrorMessage,
			Data:    envelope.ErrorData,
		}
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Value, out); err != nil {
			return fmt.Errorf("decode %s value: %w", path, err)
		}
	}
	return nil
}
