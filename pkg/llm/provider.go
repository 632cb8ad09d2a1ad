package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Provider is a swappable model backend. Implementations own their wire format
// and message composition quirks; callers depend only on this contract.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// Complete sends role-tagged messages to the given model and returns the
	// assistant's text. Errors carry provider detail and must never reach an
	// end user unfiltered.
	Complete(ctx context.Context, model string, messages []Message) (string, error)
}

// ProviderConfig carries the connection settings shared by all adapters.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
}

// NewProvider constructs the adapter selected by name: "openai", "gemini" or
// "ollama". Model selection stays with the Gateway; adapters are stateless.
func NewProvider(name string, cfg ProviderConfig) (Provider, error) {
	// Completions can be slow; per-request deadlines come from the Gateway,
	// this is the hard transport ceiling.
	client := &http.Client{Timeout: 5 * time.Minute}

	switch name {
	case "openai":
		return &OpenAIProvider{baseURL: cfg.BaseURL, apiKey: cfg.APIKey, httpClient: client}, nil
	case "gemini":
		return &GeminiProvider{baseURL: cfg.BaseURL, apiKey: cfg.APIKey, httpClient: client}, nil
	case "ollama":
		return &OllamaProvider{baseURL: cfg.BaseURL, httpClient: client}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
