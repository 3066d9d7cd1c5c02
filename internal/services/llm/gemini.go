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

// geminiProvider speaks the Google generateContent API directly
type geminiProvider struct {
	cfg        Config
	httpClient *http.Client
	audit      CallRecorder
}

func newGeminiProvider(cfg Config, audit CallRecorder) *geminiProvider {
	return &geminiProvider{
		cfg:        cfg,
		httpClient: &http.Client{},
		audit:      audit,
	}
}

func (p *geminiProvider) Name() string { return "gemini" }

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (p *geminiProvider) Analyze(ctx context.Context, data models.TransactionData) (models.InsightCommentary, error) {
	start := time.Now()

	raw, err := p.send(ctx, geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: insightsSystemPrompt}}},
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: insightsPrompt(data)}}},
		},
		GenerationConfig: geminiGenConfig{
			Temperature:     p.cfg.Temperature,
			MaxOutputTokens: p.cfg.MaxTokens,
		},
	})
	if err != nil {
		record(p.audit, "gemini", ModeInsights, p.cfg.Model, start, "", err)
		return models.InsightCommentary{}, err
	}

	commentary, tips, err := NormalizeInsightJSON("gemini", raw)
	record(p.audit, "gemini", ModeInsights, p.cfg.Model, start, raw, err)
	if err != nil {
		return models.InsightCommentary{}, err
	}

	return models.InsightCommentary{Commentary: commentary, Tips: tips}, nil
}

func (p *geminiProvider) Chat(ctx context.Context, messages []Message) (ChatResponse, error) {
	start := time.Now()

	req := geminiRequest{
		GenerationConfig: geminiGenConfig{
			Temperature:     p.cfg.Temperature,
			MaxOutputTokens: p.cfg.MaxTokens,
		},
	}
	for _, m := range messages {
		switch m.Role {
		case "system":
			req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
		case "assistant":
			req.Contents = append(req.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}

	raw, err := p.send(ctx, req)
	record(p.audit, "gemini", ModeChat, p.cfg.Model, start, raw, err)
	if err != nil {
		return ChatResponse{}, err
	}

	return ChatResponse{Content: raw, Model: p.cfg.Model}, nil
}

func (p *geminiProvider) send(ctx context.Context, payload geminiRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		p.cfg.BaseURL, p.cfg.Model, p.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", transportError("gemini", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return "", transportError("gemini", resp.StatusCode,
			fmt.Errorf("api error: %s", string(detail)))
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", transportError("gemini", 0, err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", transportError("gemini", 0, fmt.Errorf("response contained no candidates"))
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}
