package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arunshreyas/Marketa-server/internal/model"
)

const (
	// StreamName is the name of the message archive stream.
	StreamName = "MARKETA_MESSAGES"

	// SubjectPrefix is the prefix for all archive subjects.
	SubjectPrefix = "marketa.messages"
)

// Archive mirrors every persisted chat message to a JetStream stream so
// downstream consumers can process the full message log. Delivery is
// best-effort from the server's perspective; the primary store stays the
// source of truth.
type Archive struct {
	client *Client
}

// NewArchive creates a message archive on the given client.
func NewArchive(client *Client) *Archive {
	return &Archive{client: client}
}

// EnsureStream ensures the archive stream exists with proper configuration.
func (a *Archive) EnsureStream(ctx context.Context) error {
	js := a.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil // Stream already exists
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024, // 10GB
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Archive of all conversation messages",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// MessageSubject returns the subject for a message.
func MessageSubject(conversationID string, role model.Role) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, conversationID, role)
}

// Archive publishes a message to the archive stream.
func (a *Archive) Archive(ctx context.Context, msg *model.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if _, err := a.client.JetStream().Publish(ctx, MessageSubject(msg.ConversationID, msg.Role), data); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}
