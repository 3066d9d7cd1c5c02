// Package llm abstracts heterogeneous chat/completion vendors behind one
// capability-described Provider contract. A static capability table drives
// the factory, which validates the requested mode, enforces credentials for
// remote providers, and merges per-provider default configuration.
package llm

import (
	"context"
	"fmt"
	"sort"

	"finguide/internal/models"
)

// Mode selects which provider capability a caller intends to use
type Mode string

const (
	ModeInsights Mode = "insights"
	ModeChat     Mode = "chat"
)

// Capabilities describes what one vendor supports
type Capabilities struct {
	SupportsChat            bool
	SupportsInsights        bool
	SupportsFunctionCalling bool
	SupportsStreaming       bool
	MaxTokens               int

	// RequiresAPIKey is false for self-hosted providers
	RequiresAPIKey bool

	DefaultModel   string
	DefaultBaseURL string
}

// capabilityTable is the static provider matrix keyed by provider name
var capabilityTable = map[string]Capabilities{
	"openai": {
		SupportsChat:            true,
		SupportsInsights:        true,
		SupportsFunctionCalling: true,
		SupportsStreaming:       true,
		MaxTokens:               128000,
		RequiresAPIKey:          true,
		DefaultModel:            "gpt-4o-mini",
	},
	"anthropic": {
		SupportsChat:            true,
		SupportsInsights:        true,
		SupportsFunctionCalling: true,
		SupportsStreaming:       true,
		MaxTokens:               200000,
		RequiresAPIKey:          true,
		DefaultModel:            "claude-3-5-haiku-latest",
		DefaultBaseURL:          "https://api.anthropic.com",
	},
	"gemini": {
		SupportsChat:            true,
		SupportsInsights:        true,
		SupportsFunctionCalling: true,
		SupportsStreaming:       true,
		MaxTokens:               1000000,
		RequiresAPIKey:          true,
		DefaultModel:            "gemini-1.5-flash",
		DefaultBaseURL:          "https://generativelanguage.googleapis.com",
	},
	"groq": {
		SupportsChat:      true,
		SupportsInsights:  true,
		SupportsStreaming: true,
		MaxTokens:         32768,
		RequiresAPIKey:    true,
		DefaultModel:      "llama-3.1-70b-versatile",
		DefaultBaseURL:    "https://api.groq.com/openai/v1",
	},
	"deepseek": {
		SupportsChat:     true,
		SupportsInsights: true,
		MaxTokens:        64000,
		RequiresAPIKey:   true,
		DefaultModel:     "deepseek-chat",
		DefaultBaseURL:   "https://api.deepseek.com/v1",
	},
	"ollama": {
		SupportsChat:     true,
		SupportsInsights: true,
		MaxTokens:        8192,
		RequiresAPIKey:   false,
		DefaultModel:     "llama3",
		DefaultBaseURL:   "http://localhost:11434",
	},
	// Plain text-completion endpoint, no chat turns
	"huggingface": {
		SupportsChat:     false,
		SupportsInsights: true,
		MaxTokens:        4096,
		RequiresAPIKey:   true,
		DefaultModel:     "mistralai/Mistral-7B-Instruct-v0.3",
		DefaultBaseURL:   "https://api-inference.huggingface.co",
	},
}

// Providers returns the sorted names of all known providers
func Providers() []string {
	names := make([]string, 0, len(capabilityTable))
	for name := range capabilityTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the capability entry for a provider name
func Lookup(name string) (Capabilities, bool) {
	caps, ok := capabilityTable[name]
	return caps, ok
}

// Config holds per-request provider configuration; zero fields fall back to
// the provider's defaults.
type Config struct {
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	BaseURL     string  `json:"base_url"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Message is one turn of a chat conversation
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// ChatResponse is the normalized result of a chat call
type ChatResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

// Provider is the uniform vendor contract. Implementations are stateless:
// they hold only configuration and are constructed fresh per request.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, data models.TransactionData) (models.InsightCommentary, error)
	Chat(ctx context.Context, messages []Message) (ChatResponse, error)
}

// New validates the requested mode against the capability table, checks
// credentials, merges defaults into cfg, and builds the concrete provider.
// Capability and credential failures happen before any network activity.
func New(name string, mode Mode, cfg Config, audit CallRecorder) (Provider, error) {
	caps, ok := capabilityTable[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}

	switch mode {
	case ModeChat:
		if !caps.SupportsChat {
			return nil, &CapabilityError{Provider: name, Mode: mode}
		}
	case ModeInsights:
		if !caps.SupportsInsights {
			return nil, &CapabilityError{Provider: name, Mode: mode}
		}
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	if caps.RequiresAPIKey && cfg.APIKey == "" {
		return nil, &CredentialError{Provider: name}
	}

	// Caller overrides win field by field
	if cfg.Model == "" {
		cfg.Model = caps.DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = caps.DefaultBaseURL
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	switch name {
	case "openai", "groq", "deepseek":
		return newOpenAIProvider(name, cfg, audit), nil
	case "anthropic":
		return newAnthropicProvider(cfg, audit), nil
	case "gemini":
		return newGeminiProvider(cfg, audit), nil
	case "ollama":
		return newOllamaProvider(cfg, audit), nil
	case "huggingface":
		return newHuggingFaceProvider(cfg, audit), nil
	}

	return nil, fmt.Errorf("provider %q has no adapter", name)
}
