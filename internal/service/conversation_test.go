package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arunshreyas/Marketa-server/internal/model"
	"github.com/arunshreyas/Marketa-server/internal/store"
)

func TestConversationCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewConversationService(f.store, testLogger())

	t.Run("missing title", func(t *testing.T) {
		_, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{})
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("unknown campaign", func(t *testing.T) {
		_, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{
			Title:      "orphan",
			CampaignID: "nope",
		})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("foreign campaign", func(t *testing.T) {
		_, err := svc.Create(ctx, "u2", &model.CreateConversationRequest{
			Title:      "hijack",
			CampaignID: "camp1",
		})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("success", func(t *testing.T) {
		conv, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{
			Title:      "Q4 planning",
			CampaignID: "camp1",
			AIPreferences: &model.AIPreferences{
				Tone: "playful",
			},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, conv.ID)
		assert.Equal(t, "u1", conv.UserID)
		assert.Equal(t, model.StatusActive, conv.Status)
		assert.Equal(t, 0, conv.MessageCount)
	})
}

func TestConversationGetOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewConversationService(f.store, testLogger())

	// Owner reads fine.
	conv, err := svc.Get(ctx, "u1", "conv1")
	require.NoError(t, err)
	assert.Equal(t, "conv1", conv.ID)

	// A different caller gets forbidden, never the resource.
	_, err = svc.Get(ctx, "u2", "conv1")
	assert.ErrorIs(t, err, ErrForbidden)

	// Missing ids are not found, regardless of caller.
	_, err = svc.Get(ctx, "u1", "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConversationGetDeletedHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewConversationService(f.store, testLogger())

	f.conversation.Status = model.StatusDeleted
	require.NoError(t, f.store.UpdateConversation(ctx, f.conversation))

	// A soft-deleted conversation is indistinguishable from a missing one,
	// even for its owner.
	_, err := svc.Get(ctx, "u1", "conv1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetWithMessagesReconcilesAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewConversationService(f.store, testLogger())

	for _, c := range []string{"one", "two"} {
		_, err := f.svc.Ingest(ctx, IngestInput{
			ConversationID: "conv1",
			Role:           model.RoleUser,
			Content:        c,
		})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	// Simulate a lost incremental update.
	require.NoError(t, f.store.SetConversationAggregates(ctx, "conv1", nil, 0))

	got, err := svc.GetWithMessages(ctx, "u1", "conv1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, 2, got.MessageCount)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, "two", got.LastMessage.Content)

	// The repair is durable, not just in the response.
	stored, err := f.store.GetConversation(ctx, "conv1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.MessageCount)
}

func TestConversationUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewConversationService(f.store, testLogger())

	_, err := svc.Update(ctx, "u1", "conv1", &model.UpdateConversationRequest{
		Status: "bogus",
	})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	conv, err := svc.Update(ctx, "u1", "conv1", &model.UpdateConversationRequest{
		Title:  "Renamed",
		Status: model.StatusArchived,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", conv.Title)
	assert.Equal(t, model.StatusArchived, conv.Status)

	_, err = svc.Update(ctx, "u2", "conv1", &model.UpdateConversationRequest{Title: "steal"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestConversationDeleteCascadesMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewConversationService(f.store, testLogger())

	for _, c := range []string{"one", "two"} {
		_, err := f.svc.Ingest(ctx, IngestInput{
			ConversationID: "conv1",
			Role:           model.RoleUser,
			Content:        c,
		})
		require.NoError(t, err)
	}

	require.NoError(t, svc.Delete(ctx, "u1", "conv1"))

	_, err := f.store.GetConversation(ctx, "conv1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	msgs, err := f.store.ListMessagesByConversation(ctx, "conv1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
