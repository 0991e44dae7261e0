package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"healthsync.ai/companion/internal/llm"
	"healthsync.ai/companion/internal/logger"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrBlankMessage = errors.New("message content cannot be empty")
)

type Chat struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatDetails is a chat plus its current session snapshot.
type ChatDetails struct {
	Chat
	ChatState
}

// ChatService owns one ChatSession per chat id, all sharing a gateway.
type ChatService struct {
	gateway llm.Gateway

	mu    sync.RWMutex
	chats map[string]*chatEntry
}

type chatEntry struct {
	chat    Chat
	session *ChatSession
}

func NewChatService(gateway llm.Gateway) *ChatService {
	return &ChatService{
		gateway: gateway,
		chats:   make(map[string]*chatEntry),
	}
}

func (s *ChatService) CreateChat() Chat {
	chat := Chat{ID: uuid.NewString(), CreatedAt: time.Now()}
	s.mu.Lock()
	s.chats[chat.ID] = &chatEntry{chat: chat, session: NewChatSession(s.gateway)}
	s.mu.Unlock()
	logger.Debug("Chat created", "chat_id", chat.ID)
	return chat
}

func (s *ChatService) Session(chatID string) (*ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.chats[chatID]
	if !ok {
		return nil, ErrChatNotFound
	}
	return entry.session, nil
}

func (s *ChatService) GetChatDetails(chatID string) (*ChatDetails, error) {
	s.mu.RLock()
	entry, ok := s.chats[chatID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrChatNotFound
	}
	return &ChatDetails{Chat: entry.chat, ChatState: entry.session.State().Get()}, nil
}

// PostMessage sends content in the given chat and waits for the reply.
func (s *ChatService) PostMessage(ctx context.Context, chatID, content string) (string, error) {
	session, err := s.Session(chatID)
	if err != nil {
		return "", err
	}
	reply, sent := session.Exchange(ctx, content)
	if !sent {
		return "", ErrBlankMessage
	}
	return reply, nil
}

func (s *ChatService) DeleteChat(chatID string) error {
	s.mu.Lock()
	entry, ok := s.chats[chatID]
	delete(s.chats, chatID)
	s.mu.Unlock()
	if !ok {
		return ErrChatNotFound
	}
	entry.session.Wait()
	return nil
}
