// Package store provides persistence for users, brands, campaigns,
// conversations and messages.
package store

import (
	"context"
	"errors"

	"github.com/arunshreyas/Marketa-server/internal/model"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence contract. Two implementations exist: an
// in-memory store used for tests and local development, and a Postgres
// store for deployments.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)

	// Brands
	CreateBrand(ctx context.Context, brand *model.Brand) error
	GetBrand(ctx context.Context, id string) (*model.Brand, error)
	GetBrandByUser(ctx context.Context, userID string) (*model.Brand, error)
	UpdateBrand(ctx context.Context, brand *model.Brand) error
	DeleteBrand(ctx context.Context, id string) error

	// Campaigns
	CreateCampaign(ctx context.Context, campaign *model.Campaign) error
	GetCampaign(ctx context.Context, id string) (*model.Campaign, error)
	ListCampaignsByUser(ctx context.Context, userID string) ([]model.Campaign, error)
	UpdateCampaign(ctx context.Context, campaign *model.Campaign) error
	DeleteCampaign(ctx context.Context, id string) error
	UpdateCampaignAggregates(ctx context.Context, id string, last *model.LastMessage, delta int) error

	// Conversations
	CreateConversation(ctx context.Context, conv *model.Conversation) error
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	ListConversationsByUser(ctx context.Context, userID string) ([]model.Conversation, error)
	UpdateConversation(ctx context.Context, conv *model.Conversation) error
	DeleteConversation(ctx context.Context, id string) error
	// UpdateConversationAggregates applies an incremental aggregate change:
	// last_message is replaced and message_count moves by delta, floored at
	// zero.
	UpdateConversationAggregates(ctx context.Context, id string, last *model.LastMessage, delta int) error
	// SetConversationAggregates overwrites the aggregates with recomputed
	// values (lazy reconciliation path).
	SetConversationAggregates(ctx context.Context, id string, last *model.LastMessage, count int) error

	// Messages
	CreateMessage(ctx context.Context, msg *model.Message) error
	GetMessage(ctx context.Context, id string) (*model.Message, error)
	// ListMessagesByConversation returns messages ordered by creation
	// timestamp ascending.
	ListMessagesByConversation(ctx context.Context, conversationID string) ([]model.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	DeleteMessagesByConversation(ctx context.Context, conversationID string) error

	Ping(ctx context.Context) error
	Close() error
}
