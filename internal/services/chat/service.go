package chat

import (
	"encoding/json"
	"fmt"

	"veritas-desktop/internal/api"
)

// Conversation is one chat thread in the sidebar.
type Conversation struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Answer is the backend's reply to a question.
type Answer struct {
	ChatID int64  `json:"chatId"`
	Answer string `json:"answer"`
}

// Service is the client of the conversational endpoints.
type Service struct {
	client *api.Client
}

// NewService creates a new chat service
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// ListConversations returns the user's chat threads.
func (s *Service) ListConversations() ([]Conversation, error) {
	resp, err := s.client.Get("/v1/chat", nil)
	if err != nil {
		return nil, err
	}
	var conversations []Conversation
	if err := json.Unmarshal(resp.Body(), &conversations); err != nil {
		return nil, fmt.Errorf("chat: failed to parse conversations: %w", err)
	}
	return conversations, nil
}

// History returns the messages of one conversation.
func (s *Service) History(chatID int64) ([]Message, error) {
	resp, err := s.client.Get(fmt.Sprintf("/v1/chat/%d", chatID), nil)
	if err != nil {
		return nil, err
	}
	var messages []Message
	if err := json.Unmarshal(resp.Body(), &messages); err != nil {
		return nil, fmt.Errorf("chat: failed to parse history: %w", err)
	}
	return messages, nil
}

// Ask sends a question. A zero chatID starts a new conversation; the
// returned ChatID identifies it for follow-ups.
func (s *Service) Ask(question string, chatID int64) (*Answer, error) {
	payload := map[string]interface{}{"question": question}
	if chatID != 0 {
		payload["chatId"] = chatID
	}

	resp, err := s.client.Post("/v1/chat", payload)
	if err != nil {
		return nil, err
	}
	var answer Answer
	if err := json.Unmarshal(resp.Body(), &answer); err != nil {
		return nil, fmt.Errorf("chat: failed to parse answer: %w", err)
	}
	return &answer, nil
}
