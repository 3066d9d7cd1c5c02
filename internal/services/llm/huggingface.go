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

// huggingFaceProvider calls the HuggingFace inference API. It is a plain
// text-completion endpoint, so only insights mode is supported; the factory
// rejects chat mode before this adapter is ever constructed.
type huggingFaceProvider struct {
	cfg        Config
	httpClient *http.Client
	audit      CallRecorder
}

func newHuggingFaceProvider(cfg Config, audit CallRecorder) *huggingFaceProvider {
	return &huggingFaceProvider{
		cfg:        cfg,
		httpClient: &http.Client{},
		audit:      audit,
	}
}

func (p *huggingFaceProvider) Name() string { return "huggingface" }

type huggingFaceRequest struct {
	Inputs     string                `json:"inputs"`
	Parameters huggingFaceParameters `json:"parameters"`
}

type huggingFaceParameters struct {
	Temperature    float64 `json:"temperature,omitempty"`
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	ReturnFullText bool    `json:"return_full_text"`
}

type huggingFaceResponse []struct {
	GeneratedText string `json:"generated_text"`
}

func (p *huggingFaceProvider) Analyze(ctx context.Context, data models.TransactionData) (models.InsightCommentary, error) {
	start := time.Now()

	raw, err := p.send(ctx, huggingFaceRequest{
		Inputs: insightsSystemPrompt + "\n\n" + insightsPrompt(data),
		Parameters: huggingFaceParameters{
			Temperature:    p.cfg.Temperature,
			MaxNewTokens:   p.cfg.MaxTokens,
			ReturnFullText: false,
		},
	})
	if err != nil {
		record(p.audit, "huggingface", ModeInsights, p.cfg.Model, start, "", err)
		return models.InsightCommentary{}, err
	}

	commentary, tips, err := NormalizeInsightJSON("huggingface", raw)
	record(p.audit, "huggingface", ModeInsights, p.cfg.Model, start, raw, err)
	if err != nil {
		return models.InsightCommentary{}, err
	}

	return models.InsightCommentary{Commentary: commentary, Tips: tips}, nil
}

// Chat is unreachable through the factory; it still guards itself for
// callers holding the concrete type.
func (p *huggingFaceProvider) Chat(ctx context.Context, messages []Message) (ChatResponse, error) {
	return ChatResponse{}, &CapabilityError{Provider: "huggingface", Mode: ModeChat}
}

func (p *huggingFaceProvider) send(ctx context.Context, payload huggingFaceRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", p.cfg.BaseURL, p.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", transportError("huggingface", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return "", transportError("huggingface", resp.StatusCode,
			fmt.Errorf("api error: %s", string(detail)))
	}

	var decoded huggingFaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", transportError("huggingface", 0, err)
	}
	if len(decoded) == 0 {
		return "", transportError("huggingface", 0, fmt.Errorf("empty response"))
	}
	return decoded[0].GeneratedText, nil
}
