// Package ai provides the AI collaborator interface and its provider
// implementations. Providers are interchangeable: prompt in, text out,
// bounded by the caller's context deadline.
package ai

import (
	"context"
	"fmt"
)

// Message is a single chat turn sent to the collaborator.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a generation request for a selected agent persona.
type Request struct {
	Agent    string    `json:"agent"`
	Messages []Message `json:"messages"`
}

// Client is the interface every AI provider implements. Generate returns
// the reply text; any timeout, transport failure or malformed response is
// an error the orchestrator converts to a fallback message.
type Client interface {
	Generate(ctx context.Context, req *Request) (string, error)
	Name() string
}

// Provider identifies an AI backend.
type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderAnthropic  Provider = "anthropic"
	ProviderWebhook    Provider = "webhook"
)

// Config holds provider credentials and endpoints.
type Config struct {
	OpenRouterAPIKey string
	OpenRouterModel  string
	AnthropicAPIKey  string
	AnthropicModel   string
	WebhookURL       string
}

// NewClient creates a client for the requested provider.
func NewClient(provider Provider, cfg Config) (Client, error) {
	switch provider {
	case ProviderOpenRouter:
		return NewOpenRouterClient(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	case ProviderWebhook:
		return NewWebhookClient(cfg.WebhookURL)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", provider)
	}
}
