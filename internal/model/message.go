package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ValidRole reports whether r is one of the enumerated roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// MessageMetadata carries optional model information attached to a message.
type MessageMetadata struct {
	Model       string   `json:"model,omitempty"`
	TokensOut   int      `json:"tokens_out,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Message is a single entry in a conversation. Identity is immutable once
// created: no role or conversation reassignment.
type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`

	// SenderID is empty for assistant and system messages.
	SenderID string `json:"sender_id,omitempty"`

	Role    Role   `json:"role"`
	Content string `json:"content"`

	Metadata *MessageMetadata `json:"metadata,omitempty"`

	// CreatedAt orders messages within a conversation.
	CreatedAt time.Time `json:"created_at"`
}

// SendMessageRequest is the body for POST /messages.
type SendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id,omitempty"`
	Role           Role   `json:"role,omitempty"`
	Content        string `json:"content"`
}

// SendMessageResponse carries the persisted user message and, when the
// caller's message triggered the assistant, the reply.
type SendMessageResponse struct {
	Message *Message `json:"message"`
	Reply   *Message `json:"reply,omitempty"`
}

// ListMessagesResponse is the response for listing conversation messages.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}
