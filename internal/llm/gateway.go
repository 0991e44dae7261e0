// Package llm talks to remote chat-completion APIs.
package llm

import (
	"context"
	"fmt"

	"healthsync.ai/companion/internal/config"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is one message in a conversation. Treat it as immutable.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Model  string     `json:"model"`
	Turns  []ChatTurn `json:"messages"`
	Stream bool       `json:"stream"`
}

type Candidate struct {
	Turn ChatTurn `json:"message"`
}

type Response struct {
	ID         string      `json:"id"`
	Candidates []Candidate `json:"choices"`
}

// Gateway completes a chat request. A non-success HTTP status is reported as
// *RemoteError; every other error is a transport failure.
type Gateway interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Model() string
	Close() error
}

// RemoteError is returned when the API answered with a non-success status.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// NewGateway builds the gateway selected by cfg.ChatProvider.
func NewGateway(ctx context.Context, cfg *config.Config) (Gateway, error) {
	switch cfg.ChatProvider {
	case config.ProviderOpenAI, "":
		return NewOpenAIGateway(OpenAIConfig{
			APIKey:  cfg.ChatAPIKey,
			BaseURL: cfg.ChatBaseURL,
			Model:   cfg.ChatModel,
			Timeout: cfg.ChatTimeout,
		}), nil
	case config.ProviderGemini:
		return NewGeminiGateway(ctx, cfg.ChatAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown chat provider %q", cfg.ChatProvider)
	}
}
