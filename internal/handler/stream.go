package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/arunshreyas/Marketa-server/internal/broadcast"
	"github.com/arunshreyas/Marketa-server/internal/middleware"
	"github.com/arunshreyas/Marketa-server/internal/model"
	"github.com/arunshreyas/Marketa-server/internal/service"
	"github.com/arunshreyas/Marketa-server/pkg/logger"
)

// StreamHandler serves the live message stream over server-sent events.
type StreamHandler struct {
	hub           *broadcast.Hub
	conversations *service.ConversationService
	heartbeat     time.Duration
	logger        *logger.Logger
}

// NewStreamHandler creates a new stream handler. heartbeat is the interval
// between keep-alive frames.
func NewStreamHandler(hub *broadcast.Hub, conversations *service.ConversationService, heartbeat time.Duration, log *logger.Logger) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &StreamHandler{
		hub:           hub,
		conversations: conversations,
		heartbeat:     heartbeat,
		logger:        log,
	}
}

// Stream handles GET /messages/stream/:channelID
//
// The channel id is a conversation id; the caller must own the
// conversation. The connection stays open until the client disconnects
// or a write fails, and the subscriber is always unregistered on the
// way out.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channelID := chi.URLParam(r, "channelID")

	if err := middleware.ValidateID(channelID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Ownership is checked before any stream state is allocated.
	if _, err := h.conversations.Get(ctx, middleware.GetUserID(ctx), channelID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// The server-wide write timeout would otherwise sever the stream
	// mid-connection; a stream ends only on client disconnect or a failed
	// write. Recorders in tests do not support deadlines, hence best effort.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	sub, err := h.hub.Subscribe(channelID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	defer h.hub.Unsubscribe(channelID, sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Comment frame so proxies and clients see bytes immediately.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	h.logger.Info("stream subscriber connected",
		zap.String("channel_id", channelID),
		zap.String("user_id", middleware.GetUserID(ctx)),
	)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("stream subscriber disconnected",
				zap.String("channel_id", channelID),
			)
			return

		case ev, open := <-sub:
			// A closed handle means the hub dropped us, typically for
			// falling behind.
			if !open {
				return
			}
			if err := writeFrame(w, flusher, ev.Name, ev.Data); err != nil {
				return
			}

		case t := <-ticker.C:
			data, err := json.Marshal(model.HeartbeatEvent{Timestamp: t.UTC()})
			if err != nil {
				continue
			}
			if err := writeFrame(w, flusher, model.EventHeartbeat, data); err != nil {
				return
			}
		}
	}
}

func writeFrame(w http.ResponseWriter, flusher http.Flusher, event string, data []byte) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
