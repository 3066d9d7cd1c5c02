package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"finguide/internal/models"
)

// ollamaProvider talks to a self-hosted Ollama instance. No API key is
// required; an unreachable host surfaces as a connection-refused transport
// error so callers can tell "not running" apart from a remote API failure.
type ollamaProvider struct {
	cfg        Config
	httpClient *http.Client
	audit      CallRecorder
}

func newOllamaProvider(cfg Config, audit CallRecorder) *ollamaProvider {
	return &ollamaProvider{
		cfg:        cfg,
		httpClient: &http.Client{},
		audit:      audit,
	}
}

func (p *ollamaProvider) Name() string { return "ollama" }

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (p *ollamaProvider) Analyze(ctx context.Context, data models.TransactionData) (models.InsightCommentary, error) {
	start := time.Now()

	raw, err := p.generate(ctx, ollamaRequest{
		Model:  p.cfg.Model,
		Prompt: insightsSystemPrompt + "\n\n" + insightsPrompt(data),
		Stream: false,
		Format: "json",
		Options: &ollamaOptions{
			Temperature: p.cfg.Temperature,
			NumPredict:  p.cfg.MaxTokens,
		},
	})
	if err != nil {
		record(p.audit, "ollama", ModeInsights, p.cfg.Model, start, "", err)
		return models.InsightCommentary{}, err
	}

	commentary, tips, err := NormalizeInsightJSON("ollama", raw)
	record(p.audit, "ollama", ModeInsights, p.cfg.Model, start, raw, err)
	if err != nil {
		return models.InsightCommentary{}, err
	}

	return models.InsightCommentary{Commentary: commentary, Tips: tips}, nil
}

func (p *ollamaProvider) Chat(ctx context.Context, messages []Message) (ChatResponse, error) {
	start := time.Now()

	raw, err := p.generate(ctx, ollamaRequest{
		Model:  p.cfg.Model,
		Prompt: flattenMessages(messages),
		Stream: false,
		Options: &ollamaOptions{
			Temperature: p.cfg.Temperature,
			NumPredict:  p.cfg.MaxTokens,
		},
	})
	record(p.audit, "ollama", ModeChat, p.cfg.Model, start, raw, err)
	if err != nil {
		return ChatResponse{}, err
	}

	return ChatResponse{Content: raw, Model: p.cfg.Model}, nil
}

func (p *ollamaProvider) generate(ctx context.Context, payload ollamaRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := p.cfg.BaseURL + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", transportError("ollama", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return "", transportError("ollama", resp.StatusCode,
			fmt.Errorf("api error: %s", string(detail)))
	}

	var decoded ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", transportError("ollama", 0, err)
	}
	if decoded.Response == "" {
		return "", transportError("ollama", 0, fmt.Errorf("empty response"))
	}
	return decoded.Response, nil
}
