package core

import (
	"context"
	"errors"
	"strings"
	"sync"

	"healthsync.ai/companion/internal/llm"
	"healthsync.ai/companion/internal/logger"
	"healthsync.ai/companion/internal/observe"
)

const (
	// HistoryLimit is the number of most recent turns kept for context.
	HistoryLimit = 3

	SystemPrompt = "You're HealthWise – a friendly AI health advisor and virtual doctor. " +
		"Talk like a caring, knowledgeable doctor who explains things clearly and kindly. " +
		"Keep responses short, simple, and practical. " +
		"Share useful health tips and advice on prevention, healthy habits, and basic symptoms. " +
		"Stay supportive but professional. " +
		"Use occasional emojis (🩺💊) when they help."

	emptyResponseReply = "Error in response"
)

// ChatState is the observable snapshot of a ChatSession.
type ChatState struct {
	History   []llm.ChatTurn `json:"history"`
	LastReply string         `json:"last_reply,omitempty"`
	Pending   int            `json:"pending"`
}

// ChatSession keeps a short rolling conversation and exchanges it with a
// Gateway. Failures never surface as errors: they are delivered as the reply
// text, and the user's turn stays in history.
type ChatSession struct {
	gateway llm.Gateway
	model   string

	mu         sync.Mutex
	history    []llm.ChatTurn
	generation uint64

	state    *observe.Value[ChatState]
	inflight sync.WaitGroup
}

func NewChatSession(gateway llm.Gateway) *ChatSession {
	return &ChatSession{
		gateway: gateway,
		model:   gateway.Model(),
		state:   observe.NewValue(ChatState{History: []llm.ChatTurn{}}),
	}
}

func (s *ChatSession) State() *observe.Value[ChatState] {
	return s.state
}

// History returns a copy of the stored turns, oldest first.
func (s *ChatSession) History() []llm.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTurns(s.history)
}

// BuildRequest returns the fixed system turn followed by the current history.
func (s *ChatSession) BuildRequest() llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildRequestLocked()
}

func (s *ChatSession) buildRequestLocked() llm.Request {
	turns := make([]llm.ChatTurn, 0, len(s.history)+1)
	turns = append(turns, llm.ChatTurn{Role: llm.RoleSystem, Content: SystemPrompt})
	turns = append(turns, s.history...)
	return llm.Request{Model: s.model, Turns: turns, Stream: false}
}

// SendMessage records text and completes it on a background goroutine,
// delivering the reply (or an error description) to onResponse. It returns
// false without doing anything when text is blank.
func (s *ChatSession) SendMessage(ctx context.Context, text string, onResponse func(string)) bool {
	req, gen, ok := s.begin(text)
	if !ok {
		return false
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		reply := s.complete(ctx, req, gen)
		if onResponse != nil {
			onResponse(reply)
		}
	}()
	return true
}

// Exchange is the synchronous form of SendMessage.
func (s *ChatSession) Exchange(ctx context.Context, text string) (string, bool) {
	req, gen, ok := s.begin(text)
	if !ok {
		return "", false
	}
	return s.complete(ctx, req, gen), true
}

// Wait blocks until every send started with SendMessage has delivered.
func (s *ChatSession) Wait() {
	s.inflight.Wait()
}

func (s *ChatSession) begin(text string) (llm.Request, uint64, bool) {
	if strings.TrimSpace(text) == "" {
		return llm.Request{}, 0, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = appendCapped(s.history, llm.ChatTurn{Role: llm.RoleUser, Content: text})
	s.generation++
	gen := s.generation
	req := s.buildRequestLocked()

	history := cloneTurns(s.history)
	s.state.Update(func(st ChatState) ChatState {
		st.History = history
		st.Pending++
		return st
	})
	return req, gen, true
}

func (s *ChatSession) complete(ctx context.Context, req llm.Request, gen uint64) string {
	resp, err := s.gateway.Complete(ctx, req)

	var reply string
	var ok bool
	switch {
	case err != nil:
		var remote *llm.RemoteError
		if errors.As(err, &remote) {
			logger.Warn("Chat completion rejected", "status", remote.StatusCode)
			reply = "Error: " + remote.Body
		} else {
			logger.Error("Chat completion failed", "error", err)
			reply = "Error: " + err.Error()
		}
	case resp == nil || len(resp.Candidates) == 0:
		logger.Warn("Chat completion returned no candidates")
		reply = emptyResponseReply
	default:
		reply = resp.Candidates[0].Turn.Content
		ok = true
	}

	s.finish(gen, reply, ok)
	return reply
}

// finish records the reply. A reply from a send that has since been
// superseded is not recorded; only its own caller sees it.
func (s *ChatSession) finish(gen uint64, reply string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := gen == s.generation
	if current && ok {
		s.history = appendCapped(s.history, llm.ChatTurn{Role: llm.RoleAssistant, Content: reply})
	} else if !current {
		logger.Debug("Discarding stale chat reply", "generation", gen, "current", s.generation)
	}

	history := cloneTurns(s.history)
	s.state.Update(func(st ChatState) ChatState {
		st.History = history
		st.Pending--
		if current {
			st.LastReply = reply
		}
		return st
	})
}

func appendCapped(turns []llm.ChatTurn, turn llm.ChatTurn) []llm.ChatTurn {
	turns = append(turns, turn)
	if len(turns) > HistoryLimit {
		turns = append([]llm.ChatTurn(nil), turns[len(turns)-HistoryLimit:]...)
	}
	return turns
}

func cloneTurns(turns []llm.ChatTurn) []llm.ChatTurn {
	out := make([]llm.ChatTurn, len(turns))
	copy(out, turns)
	return out
}
