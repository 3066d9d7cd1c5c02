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

const anthropicVersion = "2023-06-01"

// anthropicProvider speaks the Anthropic messages API directly
type anthropicProvider struct {
	cfg        Config
	httpClient *http.Client
	audit      CallRecorder
}

func newAnthropicProvider(cfg Config, audit CallRecorder) *anthropicProvider {
	return &anthropicProvider{
		cfg:        cfg,
		httpClient: &http.Client{},
		audit:      audit,
	}
}

func (p *anthropicProvider) Name() string { return "anthropic" }

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *anthropicProvider) Analyze(ctx context.Context, data models.TransactionData) (models.InsightCommentary, error) {
	start := time.Now()

	raw, err := p.send(ctx, anthropicRequest{
		Model:       p.cfg.Model,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
		System:      insightsSystemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: insightsPrompt(data)}},
	})
	if err != nil {
		record(p.audit, "anthropic", ModeInsights, p.cfg.Model, start, "", err)
		return models.InsightCommentary{}, err
	}

	commentary, tips, err := NormalizeInsightJSON("anthropic", raw)
	record(p.audit, "anthropic", ModeInsights, p.cfg.Model, start, raw, err)
	if err != nil {
		return models.InsightCommentary{}, err
	}

	return models.InsightCommentary{Commentary: commentary, Tips: tips}, nil
}

func (p *anthropicProvider) Chat(ctx context.Context, messages []Message) (ChatResponse, error) {
	start := time.Now()

	req := anthropicRequest{
		Model:       p.cfg.Model,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	}
	// The messages API takes the system turn out of band
	for _, m := range messages {
		if m.Role == "system" {
			req.System = m.Content
			continue
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	raw, err := p.send(ctx, req)
	record(p.audit, "anthropic", ModeChat, p.cfg.Model, start, raw, err)
	if err != nil {
		return ChatResponse{}, err
	}

	return ChatResponse{Content: raw, Model: p.cfg.Model}, nil
}

func (p *anthropicProvider) send(ctx context.Context, payload anthropicRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := p.cfg.BaseURL + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", transportError("anthropic", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return "", transportError("anthropic", resp.StatusCode,
			fmt.Errorf("api error: %s", string(detail)))
	}

	var decoded anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", transportError("anthropic", 0, err)
	}
	for _, block := range decoded.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", transportError("anthropic", 0, fmt.Errorf("response contained no text block"))
}
