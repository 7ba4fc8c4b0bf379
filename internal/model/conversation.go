// Package model defines data structures for the Marketa backend.
package model

import (
	"time"
)

// ConversationStatus is the lifecycle state of a conversation.
type ConversationStatus string

const (
	StatusActive   ConversationStatus = "active"
	StatusArchived ConversationStatus = "archived"
	StatusDeleted  ConversationStatus = "deleted"
)

// ValidConversationStatus reports whether s is one of the enumerated states.
func ValidConversationStatus(s ConversationStatus) bool {
	switch s {
	case StatusActive, StatusArchived, StatusDeleted:
		return true
	}
	return false
}

// LastMessage is the denormalized summary of the newest message on a
// conversation or campaign, kept to avoid recomputation on every read.
type LastMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationContext is the free-form business context a conversation
// carries into AI prompts.
type ConversationContext struct {
	BusinessType        string   `json:"business_type,omitempty"`
	Industry            string   `json:"industry,omitempty"`
	TargetAudience      []string `json:"target_audience,omitempty"`
	MarketingGoal       string   `json:"marketing_goal,omitempty"`
	Tone                string   `json:"tone,omitempty"`
	Competitors         []string `json:"competitors,omitempty"`
	UniqueSellingPoints []string `json:"unique_selling_points,omitempty"`
}

// AIPreferences captures how the user wants the assistant to write.
type AIPreferences struct {
	MarketingStyle     string   `json:"marketing_style,omitempty"`
	Tone               string   `json:"tone,omitempty"`
	FavoriteFrameworks []string `json:"favorite_frameworks,omitempty"`
}

// Conversation is a chat thread owned by a user, optionally scoped to a
// campaign. MessageCount tracks the number of non-deleted messages and is
// maintained incrementally on every message create/delete.
type Conversation struct {
	ID         string             `json:"id"`
	UserID     string             `json:"user_id"`
	CampaignID string             `json:"campaign_id,omitempty"`
	Title      string             `json:"title"`
	Status     ConversationStatus `json:"status"`

	Context       *ConversationContext `json:"context,omitempty"`
	AIPreferences *AIPreferences       `json:"ai_preferences,omitempty"`

	LastMessage  *LastMessage `json:"last_message,omitempty"`
	MessageCount int          `json:"message_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateConversationRequest is the body for POST /conversations.
type CreateConversationRequest struct {
	Title         string               `json:"title"`
	CampaignID    string               `json:"campaign_id,omitempty"`
	Context       *ConversationContext `json:"context,omitempty"`
	AIPreferences *AIPreferences       `json:"ai_preferences,omitempty"`
}

// UpdateConversationRequest is the body for PUT /conversations/:id.
// Ownership is immutable and cannot be changed here.
type UpdateConversationRequest struct {
	Title         string               `json:"title,omitempty"`
	Status        ConversationStatus   `json:"status,omitempty"`
	Context       *ConversationContext `json:"context,omitempty"`
	AIPreferences *AIPreferences       `json:"ai_preferences,omitempty"`
}

// ConversationWithMessages is a conversation plus its ordered messages.
type ConversationWithMessages struct {
	Conversation
	Messages []Message `json:"messages"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
}
