package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// WebhookClient posts generation requests to an external workflow endpoint
// (an n8n webhook or the companion Python service). Wire shape:
// request {agent, messages: [{role, content}, ...]}, response {reply}.
type WebhookClient struct {
	url        string
	httpClient *http.Client
}

type webhookResponse struct {
	Reply string `json:"reply"`
}

// NewWebhookClient creates a client for the given endpoint URL.
func NewWebhookClient(url string) (*WebhookClient, error) {
	if url == "" {
		return nil, errors.New("webhook URL is required")
	}

	return &WebhookClient{
		url:        url,
		httpClient: &http.Client{},
	}, nil
}

// Name returns the provider name.
func (c *WebhookClient) Name() string {
	return string(ProviderWebhook)
}

// Generate posts the request and extracts the reply text. A non-2xx status
// or a body without a reply field is an error.
func (c *WebhookClient) Generate(ctx context.Context, req *Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	var out webhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode webhook response: %w", err)
	}

	return strings.TrimSpace(out.Reply), nil
}
