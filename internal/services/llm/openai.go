package llm

import (
	"context"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"finguide/internal/models"
)

// openAIProvider speaks the OpenAI chat-completion protocol. It also backs
// the OpenAI-compatible vendors (groq, deepseek), which differ only in base
// URL and default model.
type openAIProvider struct {
	name   string
	cfg    Config
	client *openai.Client
	audit  CallRecorder
}

func newOpenAIProvider(name string, cfg Config, audit CallRecorder) *openAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &openAIProvider{
		name:   name,
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
		audit:  audit,
	}
}

func (p *openAIProvider) Name() string { return p.name }

func (p *openAIProvider) Analyze(ctx context.Context, data models.TransactionData) (models.InsightCommentary, error) {
	start := time.Now()

	raw, err := p.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: insightsSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: insightsPrompt(data)},
	})
	if err != nil {
		record(p.audit, p.name, ModeInsights, p.cfg.Model, start, "", err)
		return models.InsightCommentary{}, err
	}

	commentary, tips, err := NormalizeInsightJSON(p.name, raw)
	record(p.audit, p.name, ModeInsights, p.cfg.Model, start, raw, err)
	if err != nil {
		return models.InsightCommentary{}, err
	}

	return models.InsightCommentary{Commentary: commentary, Tips: tips}, nil
}

func (p *openAIProvider) Chat(ctx context.Context, messages []Message) (ChatResponse, error) {
	start := time.Now()

	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	raw, err := p.complete(ctx, converted)
	record(p.audit, p.name, ModeChat, p.cfg.Model, start, raw, err)
	if err != nil {
		return ChatResponse{}, err
	}

	return ChatResponse{Content: raw, Model: p.cfg.Model}, nil
}

func (p *openAIProvider) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		Temperature: float32(p.cfg.Temperature),
		MaxTokens:   p.cfg.MaxTokens,
		Messages:    messages,
	})
	if err != nil {
		status := 0
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			status = apiErr.HTTPStatusCode
		}
		return "", transportError(p.name, status, err)
	}
	if len(resp.Choices) == 0 {
		return "", transportError(p.name, 0, errors.New("empty completion response"))
	}
	return resp.Choices[0].Message.Content, nil
}
