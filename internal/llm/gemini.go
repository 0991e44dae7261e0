package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"healthsync.ai/companion/internal/logger"
)

// GeminiGateway adapts the Gemini chat API to Gateway. System turns become the
// model's system instruction and assistant turns use Gemini's "model" role.
type GeminiGateway struct {
	client *genai.Client
	model  string
}

func NewGeminiGateway(ctx context.Context, apiKey, model string) (*GeminiGateway, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiGateway{client: client, model: model}, nil
}

func (g *GeminiGateway) Model() string {
	return g.model
}

func (g *GeminiGateway) Close() error {
	if g.client == nil {
		return nil
	}
	if err := g.client.Close(); err != nil {
		return fmt.Errorf("error closing GenAI client: %w", err)
	}
	logger.Debug("GenAI client closed")
	return nil
}

func (g *GeminiGateway) Complete(ctx context.Context, req Request) (*Response, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = g.model
	}
	model := g.client.GenerativeModel(modelName)

	system, history, last, err := splitForGemini(req.Turns)
	if err != nil {
		return nil, err
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	chatSession := model.StartChat()
	chatSession.History = history

	resp, err := chatSession.SendMessage(ctx, last.Parts...)
	if err != nil {
		var gErr *googleapi.Error
		if errors.As(err, &gErr) {
			body := gErr.Body
			if body == "" {
				body = gErr.Message
			}
			return nil, &RemoteError{StatusCode: gErr.Code, Body: body}
		}
		return nil, fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}

	return fromGeminiResponse(resp), nil
}

// splitForGemini separates system text, prior history and the final user
// message that is sent.
func splitForGemini(turns []ChatTurn) (string, []*genai.Content, *genai.Content, error) {
	var system []string
	var contents []*genai.Content
	for _, turn := range turns {
		switch turn.Role {
		case RoleSystem:
			system = append(system, turn.Content)
		case RoleUser:
			contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(turn.Content)}})
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(turn.Content)}})
		}
	}

	if len(contents) == 0 {
		return "", nil, nil, fmt.Errorf("prompt history is empty for chat completion")
	}
	last := contents[len(contents)-1]
	if last.Role != "user" {
		return "", nil, nil, fmt.Errorf("last message in history is not from 'user', cannot proceed with chat completion")
	}
	return strings.Join(system, "\n\n"), contents[:len(contents)-1], last, nil
}

func fromGeminiResponse(resp *genai.GenerateContentResponse) *Response {
	out := &Response{}
	if resp == nil {
		return out
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var text strings.Builder
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				text.WriteString(string(txt))
			} else {
				logger.Debug("Gemini response part was not text", "type", fmt.Sprintf("%T", part))
			}
		}
		if text.Len() == 0 {
			continue
		}
		out.Candidates = append(out.Candidates, Candidate{
			Turn: ChatTurn{Role: RoleAssistant, Content: text.String()},
		})
	}
	return out
}
