// Package promptstore is a client for the prompt management service.
// Prompt templates live outside the repo and are fetched by key at call time;
// the service is treated as potentially absent.
package promptstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wealthai/productmaster-mcp/internal/domain"
)

// Client fetches named prompt templates over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a prompt store client.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Get fetches a prompt template by key. It tries the newer
// /api/prompts/{key} endpoint first and falls back to the legacy
// /api/system-prompts/{key} form. All failures wrap domain.ErrPromptStore;
// the client never fabricates prompt text.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	type endpoint struct {
		path  string
		field string
	}
	endpoints := []endpoint{
		{path: "/api/prompts/", field: "content"},
		{path: "/api/system-prompts/", field: "prompt_text"},
	}

	var lastErr error
	for _, ep := range endpoints {
		text, err := c.fetch(ctx, ep.path+url.PathEscape(key), ep.field)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}

	return "", fmt.Errorf("prompt %q: %w: %w", key, domain.ErrPromptStore, lastErr)
}

func (c *Client) fetch(ctx context.Context, path, field string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch prompt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	var payload map[string]string
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}

	text, ok := payload[field]
	if !ok || text == "" {
		return "", fmt.Errorf("response has no %q field", field)
	}
	return text, nil
}
