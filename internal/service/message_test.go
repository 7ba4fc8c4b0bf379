package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arunshreyas/Marketa-server/internal/ai"
	"github.com/arunshreyas/Marketa-server/internal/broadcast"
	"github.com/arunshreyas/Marketa-server/internal/model"
	"github.com/arunshreyas/Marketa-server/internal/store"
	"github.com/arunshreyas/Marketa-server/pkg/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

// stubAI is a scripted AI client. It records the last request it saw and
// honors context cancellation when a delay is configured.
type stubAI struct {
	reply string
	err   error
	delay time.Duration

	lastReq *ai.Request
}

func (s *stubAI) Generate(ctx context.Context, req *ai.Request) (string, error) {
	s.lastReq = req
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.reply, s.err
}

func (s *stubAI) Name() string { return "stub" }

type fixture struct {
	store *store.MemoryStore
	hub   *broadcast.Hub
	ai    *stubAI
	svc   *MessageService

	user         *model.User
	campaign     *model.Campaign
	conversation *model.Conversation
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	st := store.NewMemoryStore()
	hub := broadcast.NewHub(0, testLogger())
	aiClient := &stubAI{reply: "drafted copy"}

	f := &fixture{
		store: st,
		hub:   hub,
		ai:    aiClient,
		svc:   NewMessageService(st, hub, aiClient, nil, time.Second, testLogger()),
		user:  &model.User{ID: "u1", Username: "maya", Email: "maya@example.com"},
		campaign: &model.Campaign{
			ID:     "camp1",
			UserID: "u1",
			Name:   "Spring Launch",
			Type:   model.CampaignAds,
			Goals:  "Drive signups for the spring launch",
		},
		conversation: &model.Conversation{
			ID:         "conv1",
			UserID:     "u1",
			CampaignID: "camp1",
			Title:      "Ad drafts",
			Status:     model.StatusActive,
		},
	}

	require.NoError(t, st.CreateUser(ctx, f.user))
	require.NoError(t, st.CreateCampaign(ctx, f.campaign))
	require.NoError(t, st.CreateConversation(ctx, f.conversation))
	return f
}

func TestIngestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		in         IngestInput
		wantErr    error
		validation bool
	}{
		{
			name:       "invalid role",
			in:         IngestInput{ConversationID: "conv1", Role: "bot", Content: "hi"},
			validation: true,
		},
		{
			name:       "empty content",
			in:         IngestInput{ConversationID: "conv1", Role: model.RoleUser, Content: "   "},
			validation: true,
		},
		{
			name:    "unknown conversation",
			in:      IngestInput{ConversationID: "nope", Role: model.RoleUser, Content: "hi"},
			wantErr: store.ErrNotFound,
		},
		{
			name:    "unknown sender",
			in:      IngestInput{ConversationID: "conv1", SenderID: "ghost", Role: model.RoleUser, Content: "hi"},
			wantErr: store.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Ingest(ctx, tt.in)
			require.Error(t, err)
			if tt.validation {
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestIngestDeletedConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.conversation.Status = model.StatusDeleted
	require.NoError(t, f.store.UpdateConversation(ctx, f.conversation))

	_, err := f.svc.Ingest(ctx, IngestInput{
		ConversationID: "conv1",
		Role:           model.RoleUser,
		Content:        "hello?",
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestIngestUpdatesAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	contents := []string{"first", "second", "third"}
	for _, c := range contents {
		_, err := f.svc.Ingest(ctx, IngestInput{
			ConversationID: "conv1",
			SenderID:       "u1",
			Role:           model.RoleUser,
			Content:        c,
		})
		require.NoError(t, err)
	}

	conv, err := f.store.GetConversation(ctx, "conv1")
	require.NoError(t, err)
	assert.Equal(t, 3, conv.MessageCount)
	require.NotNil(t, conv.LastMessage)
	assert.Equal(t, "third", conv.LastMessage.Content)
	assert.Equal(t, model.RoleUser, conv.LastMessage.Role)

	campaign, err := f.store.GetCampaign(ctx, "camp1")
	require.NoError(t, err)
	assert.Equal(t, 3, campaign.MessageCount)
	require.NotNil(t, campaign.LastMessage)
	assert.Equal(t, "third", campaign.LastMessage.Content)
}

func TestIngestPublishesToStream(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.hub.Subscribe("conv1")
	require.NoError(t, err)

	msg, err := f.svc.Ingest(ctx, IngestInput{
		ConversationID: "conv1",
		SenderID:       "u1",
		Role:           model.RoleUser,
		Content:        "hello",
	})
	require.NoError(t, err)

	ev := <-sub
	assert.Equal(t, model.EventMessageNew, ev.Name)

	var got model.Message
	require.NoError(t, json.Unmarshal(ev.Data, &got))
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, "hello", got.Content)
}

func TestSendForbiddenForNonOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	intruder := &model.User{ID: "u2", Username: "rival", Email: "rival@example.com"}
	require.NoError(t, f.store.CreateUser(ctx, intruder))

	_, err := f.svc.Send(ctx, "u2", &model.SendMessageRequest{
		ConversationID: "conv1",
		Content:        "let me in",
	})
	assert.ErrorIs(t, err, ErrForbidden)

	// Nothing was persisted.
	msgs, err := f.store.ListMessagesByConversation(ctx, "conv1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSendProducesAssistantReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ai.reply = "Fresh ideas, fresh you."

	sub, err := f.hub.Subscribe("conv1")
	require.NoError(t, err)

	resp, err := f.svc.Send(ctx, "u1", &model.SendMessageRequest{
		ConversationID: "conv1",
		SenderID:       "u1",
		Content:        "Give me a tagline for a skincare brand",
	})
	require.NoError(t, err)

	assert.Equal(t, model.RoleUser, resp.Message.Role)
	require.NotNil(t, resp.Reply)
	assert.Equal(t, model.RoleAssistant, resp.Reply.Role)
	assert.Equal(t, "Fresh ideas, fresh you.", resp.Reply.Content)
	require.NotNil(t, resp.Reply.Metadata)
	assert.Equal(t, "stub", resp.Reply.Metadata.Model)

	// One Send is two durable messages and two aggregate increments.
	conv, err := f.store.GetConversation(ctx, "conv1")
	require.NoError(t, err)
	assert.Equal(t, 2, conv.MessageCount)
	require.NotNil(t, conv.LastMessage)
	assert.Equal(t, model.RoleAssistant, conv.LastMessage.Role)
	assert.Equal(t, "Fresh ideas, fresh you.", conv.LastMessage.Content)

	// Both records reach stream subscribers in order.
	first := <-sub
	second := <-sub
	var userMsg, reply model.Message
	require.NoError(t, json.Unmarshal(first.Data, &userMsg))
	require.NoError(t, json.Unmarshal(second.Data, &reply))
	assert.Equal(t, model.RoleUser, userMsg.Role)
	assert.Equal(t, model.RoleAssistant, reply.Role)
}

func TestSendAssistantRoleSkipsReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Send(ctx, "u1", &model.SendMessageRequest{
		ConversationID: "conv1",
		Role:           model.RoleAssistant,
		Content:        "imported historical reply",
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Reply)
	assert.Nil(t, f.ai.lastReq)
}

func TestSendAgentSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, "u1", &model.SendMessageRequest{
		ConversationID: "conv1",
		Content:        "plan the ad set",
	})
	require.NoError(t, err)

	require.NotNil(t, f.ai.lastReq)
	assert.Equal(t, "ads", f.ai.lastReq.Agent)

	// Campaign goals ride along as a system turn.
	require.NotEmpty(t, f.ai.lastReq.Messages)
	assert.Equal(t, "system", f.ai.lastReq.Messages[0].Role)
	assert.Contains(t, f.ai.lastReq.Messages[0].Content, "Drive signups")
}

func TestSendDefaultAgentWithoutCampaign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	loose := &model.Conversation{
		ID:     "conv2",
		UserID: "u1",
		Title:  "Scratchpad",
		Status: model.StatusActive,
	}
	require.NoError(t, f.store.CreateConversation(ctx, loose))

	_, err := f.svc.Send(ctx, "u1", &model.SendMessageRequest{
		ConversationID: "conv2",
		Content:        "brainstorm with me",
	})
	require.NoError(t, err)

	require.NotNil(t, f.ai.lastReq)
	assert.Equal(t, ai.DefaultAgent, f.ai.lastReq.Agent)
}

func TestProduceReplyEmptyFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ai.reply = "   "

	resp, err := f.svc.Send(ctx, "u1", &model.SendMessageRequest{
		ConversationID: "conv1",
		Content:        "hello",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Reply)
	assert.Equal(t, EmptyReplyFallback, resp.Reply.Content)
	assert.Nil(t, resp.Reply.Metadata)
}

func TestProduceReplyErrorFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ai.err = errors.New("upstream exploded")

	resp, err := f.svc.Send(ctx, "u1", &model.SendMessageRequest{
		ConversationID: "conv1",
		Content:        "hello",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Reply)
	assert.Equal(t, UnavailableFallback, resp.Reply.Content)

	// The fallback is durable like any other assistant message.
	msgs, err := f.store.ListMessagesByConversation(ctx, "conv1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, UnavailableFallback, msgs[1].Content)
}

func TestProduceReplyTimeoutFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ai.delay = 500 * time.Millisecond
	f.svc = NewMessageService(f.store, f.hub, f.ai, nil, 20*time.Millisecond, testLogger())

	resp, err := f.svc.Send(ctx, "u1", &model.SendMessageRequest{
		ConversationID: "conv1",
		Content:        "hello",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Reply)
	assert.Equal(t, UnavailableFallback, resp.Reply.Content)
}

func TestProduceReplyNilClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc = NewMessageService(f.store, f.hub, nil, nil, time.Second, testLogger())

	resp, err := f.svc.Send(ctx, "u1", &model.SendMessageRequest{
		ConversationID: "conv1",
		Content:        "anyone there?",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Reply)
	assert.Equal(t, UnavailableFallback, resp.Reply.Content)
}

func TestListByConversationOrderAndAuthz(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, c := range []string{"a", "b", "c"} {
		_, err := f.svc.Ingest(ctx, IngestInput{
			ConversationID: "conv1",
			Role:           model.RoleUser,
			Content:        c,
		})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	resp, err := f.svc.ListByConversation(ctx, "u1", "conv1")
	require.NoError(t, err)
	require.Equal(t, 3, resp.Total)
	assert.Equal(t, "a", resp.Messages[0].Content)
	assert.Equal(t, "c", resp.Messages[2].Content)

	_, err = f.svc.ListByConversation(ctx, "u2", "conv1")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteMessageRecomputesAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for _, c := range []string{"keep", "drop"} {
		msg, err := f.svc.Ingest(ctx, IngestInput{
			ConversationID: "conv1",
			Role:           model.RoleUser,
			Content:        c,
		})
		require.NoError(t, err)
		ids = append(ids, msg.ID)
		time.Sleep(time.Millisecond)
	}

	require.NoError(t, f.svc.Delete(ctx, "u1", ids[1]))

	conv, err := f.store.GetConversation(ctx, "conv1")
	require.NoError(t, err)
	assert.Equal(t, 1, conv.MessageCount)
	require.NotNil(t, conv.LastMessage)
	assert.Equal(t, "keep", conv.LastMessage.Content)

	campaign, err := f.store.GetCampaign(ctx, "camp1")
	require.NoError(t, err)
	assert.Equal(t, 1, campaign.MessageCount)

	// Deleting a stranger's message is forbidden.
	err = f.svc.Delete(ctx, "u2", ids[0])
	assert.ErrorIs(t, err, ErrForbidden)
}
