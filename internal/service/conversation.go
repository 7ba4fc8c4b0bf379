package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arunshreyas/Marketa-server/internal/model"
	"github.com/arunshreyas/Marketa-server/internal/store"
	"github.com/arunshreyas/Marketa-server/pkg/logger"
)

// ConversationService handles conversation operations.
type ConversationService struct {
	store  store.Store
	logger *logger.Logger
}

// NewConversationService creates a new conversation service.
func NewConversationService(st store.Store, log *logger.Logger) *ConversationService {
	return &ConversationService{store: st, logger: log}
}

// Create creates a conversation owned by the caller. When a campaign is
// referenced it must exist and belong to the caller.
func (s *ConversationService) Create(ctx context.Context, callerID string, req *model.CreateConversationRequest) (*model.Conversation, error) {
	if req.Title == "" {
		return nil, validationErr("title is required")
	}

	if req.CampaignID != "" {
		campaign, err := s.store.GetCampaign(ctx, req.CampaignID)
		if err != nil {
			return nil, err
		}
		if err := Authorize(callerID, campaign.UserID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:            uuid.New().String(),
		UserID:        callerID,
		CampaignID:    req.CampaignID,
		Title:         req.Title,
		Status:        model.StatusActive,
		Context:       req.Context,
		AIPreferences: req.AIPreferences,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}

	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("user_id", callerID),
	)
	return conv, nil
}

// Get retrieves a non-deleted conversation, enforcing ownership.
func (s *ConversationService) Get(ctx context.Context, callerID, conversationID string) (*model.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Status == model.StatusDeleted {
		return nil, store.ErrNotFound
	}
	if err := Authorize(callerID, conv.UserID); err != nil {
		return nil, err
	}
	return conv, nil
}

// GetWithMessages retrieves a conversation and its messages in creation
// order. When the stored aggregates disagree with the loaded messages the
// aggregates are repaired in place: an incremental update that failed
// earlier left them stale, and this read path is where they reconcile.
func (s *ConversationService) GetWithMessages(ctx context.Context, callerID, conversationID string) (*model.ConversationWithMessages, error) {
	conv, err := s.Get(ctx, callerID, conversationID)
	if err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessagesByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if conv.MessageCount != len(messages) {
		var last *model.LastMessage
		if len(messages) > 0 {
			newest := messages[len(messages)-1]
			last = &model.LastMessage{
				Role:      newest.Role,
				Content:   newest.Content,
				Timestamp: newest.CreatedAt,
			}
		}
		if err := s.store.SetConversationAggregates(ctx, conversationID, last, len(messages)); err != nil {
			s.logger.Warn("failed to reconcile conversation aggregates",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
		} else {
			conv.MessageCount = len(messages)
			conv.LastMessage = last
		}
	}

	return &model.ConversationWithMessages{Conversation: *conv, Messages: messages}, nil
}

// ListByUser lists the caller's non-deleted conversations.
func (s *ConversationService) ListByUser(ctx context.Context, callerID, userID string) (*model.ListConversationsResponse, error) {
	if err := Authorize(callerID, userID); err != nil {
		return nil, err
	}

	conversations, err := s.store.ListConversationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.ListConversationsResponse{Conversations: conversations, Total: len(conversations)}, nil
}

// Update updates a conversation. Ownership is immutable.
func (s *ConversationService) Update(ctx context.Context, callerID, conversationID string, req *model.UpdateConversationRequest) (*model.Conversation, error) {
	conv, err := s.Get(ctx, callerID, conversationID)
	if err != nil {
		return nil, err
	}

	if req.Status != "" && !model.ValidConversationStatus(req.Status) {
		return nil, validationErr("invalid conversation status")
	}

	if req.Title != "" {
		conv.Title = req.Title
	}
	if req.Status != "" {
		conv.Status = req.Status
	}
	if req.Context != nil {
		conv.Context = req.Context
	}
	if req.AIPreferences != nil {
		conv.AIPreferences = req.AIPreferences
	}
	conv.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateConversation(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Delete removes a conversation, cascading to its messages first so the
// conversation is never gone while messages still reference it.
func (s *ConversationService) Delete(ctx context.Context, callerID, conversationID string) error {
	if _, err := s.Get(ctx, callerID, conversationID); err != nil {
		return err
	}

	if err := s.store.DeleteMessagesByConversation(ctx, conversationID); err != nil {
		return err
	}
	if err := s.store.DeleteConversation(ctx, conversationID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}
