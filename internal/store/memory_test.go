package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arunshreyas/Marketa-server/internal/model"
)

func TestMemoryStoreCopySemantics(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	conv := &model.Conversation{ID: "c1", UserID: "u1", Title: "original", Status: model.StatusActive}
	require.NoError(t, st.CreateConversation(ctx, conv))

	// Mutating the caller's struct after the write must not leak into the
	// store, and reads hand out independent copies.
	conv.Title = "mutated"

	got, err := st.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "original", got.Title)

	got.Title = "changed on the copy"
	again, err := st.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Title)
}

func TestMemoryStoreAggregates(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.CreateConversation(ctx, &model.Conversation{
		ID: "c1", UserID: "u1", Title: "t", Status: model.StatusActive,
	}))

	last := &model.LastMessage{Role: model.RoleUser, Content: "hi", Timestamp: time.Now().UTC()}
	require.NoError(t, st.UpdateConversationAggregates(ctx, "c1", last, 1))
	require.NoError(t, st.UpdateConversationAggregates(ctx, "c1", last, 1))

	got, err := st.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.MessageCount)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, "hi", got.LastMessage.Content)

	// Counts floor at zero even if decrements outrun increments.
	require.NoError(t, st.UpdateConversationAggregates(ctx, "c1", nil, -5))
	got, err = st.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.MessageCount)

	// Set overwrites, including clearing the last message.
	require.NoError(t, st.SetConversationAggregates(ctx, "c1", nil, 7))
	got, err = st.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.MessageCount)
	assert.Nil(t, got.LastMessage)

	assert.ErrorIs(t, st.UpdateConversationAggregates(ctx, "missing", last, 1), ErrNotFound)
}

func TestMemoryStoreMessageOrdering(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	base := time.Now().UTC()
	offsets := map[string]time.Duration{"m1": 0, "m2": time.Second, "m3": 2 * time.Second}
	for _, id := range []string{"m3", "m1", "m2"} {
		require.NoError(t, st.CreateMessage(ctx, &model.Message{
			ID:             id,
			ConversationID: "c1",
			Role:           model.RoleUser,
			Content:        id,
			CreatedAt:      base.Add(offsets[id]),
		}))
	}

	msgs, err := st.ListMessagesByConversation(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "m2", msgs[1].ID)
	assert.Equal(t, "m3", msgs[2].ID)
}

func TestMemoryStoreDeleteMessagesByConversation(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"m1", "m2"} {
		require.NoError(t, st.CreateMessage(ctx, &model.Message{
			ID: id, ConversationID: "c1", Role: model.RoleUser, Content: id, CreatedAt: time.Now(),
		}))
	}
	require.NoError(t, st.CreateMessage(ctx, &model.Message{
		ID: "other", ConversationID: "c2", Role: model.RoleUser, Content: "keep", CreatedAt: time.Now(),
	}))

	require.NoError(t, st.DeleteMessagesByConversation(ctx, "c1"))

	msgs, err := st.ListMessagesByConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	// Other conversations are untouched.
	msgs, err = st.ListMessagesByConversation(ctx, "c2")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestMemoryStoreBrandPerUser(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.CreateBrand(ctx, &model.Brand{ID: "b1", UserID: "u1", Name: "Acme"}))

	got, err := st.GetBrandByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "b1", got.ID)

	_, err = st.GetBrandByUser(ctx, "u2")
	assert.ErrorIs(t, err, ErrNotFound)
}
