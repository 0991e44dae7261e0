package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"healthsync.ai/companion/internal/config"
	"healthsync.ai/companion/internal/logger"
)

type OpenAIConfig struct {
	APIKey  string
	BaseURL string // defaults to OpenRouter
	Model   string
	Timeout time.Duration
}

// OpenAIGateway works with any OpenAI-compatible chat completions endpoint.
type OpenAIGateway struct {
	client openai.Client
	model  string
}

func NewOpenAIGateway(cfg OpenAIConfig) *OpenAIGateway {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultChatBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = config.DefaultChatModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAIGateway{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (g *OpenAIGateway) Model() string {
	return g.model
}

func (g *OpenAIGateway) Close() error {
	return nil
}

func (g *OpenAIGateway) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Turns))
	for _, turn := range req.Turns {
		switch turn.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Content))
		case RoleUser:
			messages = append(messages, openai.UserMessage(turn.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			logger.Warn("Skipping chat turn with unknown role", "role", turn.Role)
		}
	}

	logger.Debug("Sending chat completion", "model", model, "message_count", len(messages))
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			body := apiErr.RawJSON()
			if body == "" {
				body = apiErr.Error()
			}
			return nil, &RemoteError{StatusCode: apiErr.StatusCode, Body: body}
		}
		return nil, fmt.Errorf("chat completion request failed: %w", err)
	}

	resp := &Response{ID: completion.ID}
	for _, choice := range completion.Choices {
		resp.Candidates = append(resp.Candidates, Candidate{
			Turn: ChatTurn{Role: RoleAssistant, Content: choice.Message.Content},
		})
	}
	logger.Debug("Chat completion received", "id", resp.ID, "candidates", len(resp.Candidates))
	return resp, nil
}
