package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arunshreyas/Marketa-server/internal/ai"
	"github.com/arunshreyas/Marketa-server/internal/broadcast"
	"github.com/arunshreyas/Marketa-server/internal/model"
	"github.com/arunshreyas/Marketa-server/internal/store"
	"github.com/arunshreyas/Marketa-server/pkg/logger"
	"github.com/arunshreyas/Marketa-server/pkg/metrics"
)

// Fallback assistant content. EmptyReplyFallback is substituted when the
// collaborator returns an empty reply; UnavailableFallback when the call
// fails or times out.
const (
	EmptyReplyFallback  = "The AI did not return any text."
	UnavailableFallback = "The AI service is temporarily unavailable. Please try again later."
)

// Archiver records persisted messages in a durable log. Best-effort; a nil
// Archiver disables archiving.
type Archiver interface {
	Archive(ctx context.Context, msg *model.Message) error
}

// MessageService handles message ingestion and AI reply orchestration.
type MessageService struct {
	store     store.Store
	hub       *broadcast.Hub
	aiClient  ai.Client
	archiver  Archiver
	aiTimeout time.Duration
	logger    *logger.Logger
}

// NewMessageService creates a new message service. aiClient and archiver
// may be nil: without a client the orchestrator answers with the
// unavailability fallback, without an archiver messages are not mirrored
// to the durable log.
func NewMessageService(
	st store.Store,
	hub *broadcast.Hub,
	aiClient ai.Client,
	archiver Archiver,
	aiTimeout time.Duration,
	log *logger.Logger,
) *MessageService {
	if aiTimeout <= 0 {
		aiTimeout = 60 * time.Second
	}
	return &MessageService{
		store:     st,
		hub:       hub,
		aiClient:  aiClient,
		archiver:  archiver,
		aiTimeout: aiTimeout,
		logger:    log,
	}
}

// IngestInput is the input to Ingest.
type IngestInput struct {
	ConversationID string
	SenderID       string
	Role           model.Role
	Content        string
	Metadata       *model.MessageMetadata
}

// Ingest validates and persists a message, then updates the owning
// conversation's (and campaign's) denormalized aggregates and notifies
// live stream subscribers. The aggregate updates are not transactional
// with the message write: a failure there leaves the aggregates
// transiently stale and is repaired by the conversation read path.
func (s *MessageService) Ingest(ctx context.Context, in IngestInput) (*model.Message, error) {
	if !model.ValidRole(in.Role) {
		return nil, validationErr("role must be one of user, assistant, system")
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, validationErr("content is required")
	}

	conv, err := s.store.GetConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if conv.Status == model.StatusDeleted {
		return nil, store.ErrNotFound
	}

	if in.SenderID != "" {
		if _, err := s.store.GetUser(ctx, in.SenderID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("sender: %w", store.ErrNotFound)
			}
			return nil, err
		}
	}

	msg := &model.Message{
		ID:             uuid.New().String(),
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		Role:           in.Role,
		Content:        content,
		Metadata:       in.Metadata,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.updateAggregates(ctx, conv, msg)
	s.archive(ctx, msg)

	metrics.MessagesTotal.WithLabelValues(string(msg.Role)).Inc()
	s.hub.Publish(msg.ConversationID, model.EventMessageNew, msg)

	return msg, nil
}

// updateAggregates applies the incremental aggregate changes after a
// message write. Failures are logged, never propagated: the message is
// already durable and the read path reconciles.
func (s *MessageService) updateAggregates(ctx context.Context, conv *model.Conversation, msg *model.Message) {
	last := &model.LastMessage{
		Role:      msg.Role,
		Content:   msg.Content,
		Timestamp: msg.CreatedAt,
	}

	if err := s.store.UpdateConversationAggregates(ctx, conv.ID, last, 1); err != nil {
		s.logger.Error("failed to update conversation aggregates",
			zap.String("conversation_id", conv.ID),
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	}

	if conv.CampaignID != "" {
		if err := s.store.UpdateCampaignAggregates(ctx, conv.CampaignID, last, 1); err != nil {
			s.logger.Error("failed to update campaign aggregates",
				zap.String("campaign_id", conv.CampaignID),
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}
}

func (s *MessageService) archive(ctx context.Context, msg *model.Message) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.Archive(ctx, msg); err != nil {
		s.logger.Warn("failed to archive message",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	}
}

// Send persists the caller's message and, for user-role messages, produces
// the assistant reply in the same request. The user message is durable
// before the AI call starts, so a collaborator failure never loses input.
func (s *MessageService) Send(ctx context.Context, callerID string, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	role := req.Role
	if role == "" {
		role = model.RoleUser
	}

	conv, err := s.store.GetConversation(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	if conv.Status == model.StatusDeleted {
		return nil, store.ErrNotFound
	}
	if err := Authorize(callerID, conv.UserID); err != nil {
		return nil, err
	}

	msg, err := s.Ingest(ctx, IngestInput{
		ConversationID: req.ConversationID,
		SenderID:       req.SenderID,
		Role:           role,
		Content:        req.Content,
	})
	if err != nil {
		return nil, err
	}

	resp := &model.SendMessageResponse{Message: msg}
	if role == model.RoleUser {
		reply, err := s.ProduceReply(ctx, conv, msg)
		if err != nil {
			return nil, err
		}
		resp.Reply = reply
	}
	return resp, nil
}

// ProduceReply invokes the AI collaborator for a freshly stored user
// message and always persists a terminal assistant message: the reply
// text on success, a fallback string on empty reply, timeout or failure.
// Collaborator errors never reach the caller; the only error returned is
// a persistence failure for the assistant message itself.
func (s *MessageService) ProduceReply(ctx context.Context, conv *model.Conversation, userMsg *model.Message) (*model.Message, error) {
	agent := ai.DefaultAgent
	var campaignContext string
	if conv.CampaignID != "" {
		campaign, err := s.store.GetCampaign(ctx, conv.CampaignID)
		if err != nil {
			s.logger.Warn("campaign lookup failed for reply, using default agent",
				zap.String("campaign_id", conv.CampaignID),
				zap.Error(err),
			)
		} else {
			agent = ai.SelectAgent(campaign.Type)
			campaignContext = campaign.Goals
			if campaignContext == "" {
				campaignContext = campaign.Content
			}
		}
	}

	text, meta := s.generate(ctx, agent, campaignContext, conv, userMsg)

	reply, err := s.Ingest(ctx, IngestInput{
		ConversationID: conv.ID,
		Role:           model.RoleAssistant,
		Content:        text,
		Metadata:       meta,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist assistant reply: %w", err)
	}
	return reply, nil
}

// generate calls the collaborator with a hard timeout and maps every
// failure mode to fallback text.
func (s *MessageService) generate(ctx context.Context, agent, campaignContext string, conv *model.Conversation, userMsg *model.Message) (string, *model.MessageMetadata) {
	if s.aiClient == nil {
		return UnavailableFallback, nil
	}

	var messages []ai.Message
	if campaignContext != "" {
		messages = append(messages, ai.Message{
			Role:    string(model.RoleSystem),
			Content: "Campaign context: " + campaignContext,
		})
	}
	if conv.AIPreferences != nil && conv.AIPreferences.Tone != "" {
		messages = append(messages, ai.Message{
			Role:    string(model.RoleSystem),
			Content: "Preferred tone: " + conv.AIPreferences.Tone,
		})
	}
	messages = append(messages, ai.Message{
		Role:    string(model.RoleUser),
		Content: userMsg.Content,
	})

	callCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	start := time.Now()
	text, err := s.aiClient.Generate(callCtx, &ai.Request{Agent: agent, Messages: messages})
	duration := time.Since(start).Seconds()

	if err != nil {
		metrics.RecordAICall(s.aiClient.Name(), "error", duration)
		s.logger.Warn("AI generation failed, using fallback",
			zap.String("conversation_id", conv.ID),
			zap.String("agent", agent),
			zap.Error(err),
		)
		return UnavailableFallback, nil
	}

	metrics.RecordAICall(s.aiClient.Name(), "success", duration)
	if strings.TrimSpace(text) == "" {
		return EmptyReplyFallback, nil
	}
	return text, &model.MessageMetadata{Model: s.aiClient.Name()}
}

// ListByConversation returns a conversation's messages in creation order,
// enforcing ownership through the owning conversation.
func (s *MessageService) ListByConversation(ctx context.Context, callerID, conversationID string) (*model.ListMessagesResponse, error) {
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

	messages, err := s.store.ListMessagesByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return &model.ListMessagesResponse{Messages: messages, Total: len(messages)}, nil
}

// Get retrieves a single message, enforcing ownership through the owning
// conversation.
func (s *MessageService) Get(ctx context.Context, callerID, messageID string) (*model.Message, error) {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	conv, err := s.store.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(callerID, conv.UserID); err != nil {
		return nil, err
	}
	return msg, nil
}

// Delete removes a message and recomputes the conversation aggregates so
// message_count keeps matching the non-deleted messages.
func (s *MessageService) Delete(ctx context.Context, callerID, messageID string) error {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	conv, err := s.store.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		return err
	}
	if err := Authorize(callerID, conv.UserID); err != nil {
		return err
	}

	if err := s.store.DeleteMessage(ctx, messageID); err != nil {
		return err
	}

	remaining, err := s.store.ListMessagesByConversation(ctx, msg.ConversationID)
	if err != nil {
		s.logger.Error("failed to recompute aggregates after delete",
			zap.String("conversation_id", msg.ConversationID),
			zap.Error(err),
		)
		return nil
	}
	var last *model.LastMessage
	if len(remaining) > 0 {
		newest := remaining[len(remaining)-1]
		last = &model.LastMessage{Role: newest.Role, Content: newest.Content, Timestamp: newest.CreatedAt}
	}
	if err := s.store.SetConversationAggregates(ctx, msg.ConversationID, last, len(remaining)); err != nil {
		s.logger.Error("failed to update aggregates after delete",
			zap.String("conversation_id", msg.ConversationID),
			zap.Error(err),
		)
	}
	if conv.CampaignID != "" {
		if err := s.store.UpdateCampaignAggregates(ctx, conv.CampaignID, nil, -1); err != nil {
			s.logger.Error("failed to update campaign aggregates after delete",
				zap.String("campaign_id", conv.CampaignID),
				zap.Error(err),
			)
		}
	}
	return nil
}
