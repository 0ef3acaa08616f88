// Package productmcp is a small client for the ProductMaster MCP server.
package productmcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

const defaultTimeout = 120 * time.Second

// Client talks the MCP protocol to a running server.
type Client struct {
	baseURL string
	http    *http.Client
	nextID  atomic.Int64
}

// Option customizes the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Initialize performs the protocol handshake and returns the server info.
func (c *Client) Initialize(ctx context.Context) (ServerInfo, error) {
	resp, err := c.call(ctx, "initialize", nil)
	if err != nil {
		return ServerInfo{}, err
	}

	var result struct {
		ServerInfo ServerInfo `json:"serverInfo"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return ServerInfo{}, fmt.Errorf("productmcp: decode initialize result: %w", err)
	}
	return result.ServerInfo, nil
}

// ListTools returns the tool catalog.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	resp, err := c.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Tools []Tool `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("productmcp: decode tools/list result: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes one tool with the given free-text input. A degraded call
// still returns the readable Result; Err wraps ErrTool with the server's
// category and message.
func (c *Client) CallTool(ctx context.Context, name, textInput string) (ToolResult, error) {
	params := map[string]any{
		"name":      name,
		"arguments": map[string]any{"text_input": textInput},
	}

	resp, err := c.call(ctx, "tools/call", params)
	if err != nil {
		return ToolResult{}, err
	}

	out := ToolResult{Err: resp.Error, Debug: resp.Debug}
	// result is a JSON string for tool calls
	if err := json.Unmarshal(resp.Result, &out.Result); err != nil {
		out.Result = string(resp.Result)
	}

	if resp.Error != "" {
		return out, fmt.Errorf("%w: %s", ErrTool, resp.Error)
	}
	return out, nil
}

// Health reports whether the server considers itself healthy.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("productmcp: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("productmcp: health request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}

// call posts one protocol request and decodes the envelope.
func (c *Client) call(ctx context.Context, method string, params any) (*response, error) {
	body, err := json.Marshal(request{
		Jsonrpc: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("productmcp: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mcp", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("productmcp: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("productmcp: %s request: %w", method, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return nil, &StatusError{Code: httpResp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var resp response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("productmcp: decode %s response: %w", method, err)
	}
	return &resp, nil
}
