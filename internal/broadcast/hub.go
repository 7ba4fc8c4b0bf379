// Package broadcast implements the in-process subscriber registry that
// fans out live message events to stream connections. It is process-local
// by design; scaling across instances needs an external pub/sub layer.
package broadcast

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/arunshreyas/Marketa-server/pkg/logger"
	"github.com/arunshreyas/Marketa-server/pkg/metrics"
)

// ErrChannelFull is returned by Subscribe when a channel is at its
// subscriber cap.
var ErrChannelFull = errors.New("channel subscriber limit reached")

// subscriberBuffer is the per-subscriber event queue depth. A subscriber
// that falls this far behind is treated as disconnected.
const subscriberBuffer = 16

// Event is a framed server-sent event ready for delivery.
type Event struct {
	Name string
	Data []byte
}

// Subscriber is a live output handle for one stream connection. The hub
// closes it when the subscriber is removed.
type Subscriber chan Event

// Hub maps channel ids to their live subscribers. All methods are safe for
// concurrent use; publishes on one channel are delivered to each subscriber
// in invocation order.
type Hub struct {
	mu sync.Mutex
	// subs holds the live handles per channel. Empty sets are pruned so
	// the map does not grow over the process lifetime.
	subs map[string]map[Subscriber]struct{}

	// maxPerChannel bounds subscribers per channel; zero means unlimited.
	maxPerChannel int
	logger        *logger.Logger
}

// NewHub creates an empty hub. maxPerChannel of zero disables the cap.
func NewHub(maxPerChannel int, log *logger.Logger) *Hub {
	return &Hub{
		subs:          make(map[string]map[Subscriber]struct{}),
		maxPerChannel: maxPerChannel,
		logger:        log,
	}
}

// Subscribe registers a new subscriber on a channel and returns its handle.
func (h *Hub) Subscribe(channelID string) (Subscriber, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.subs[channelID]
	if set == nil {
		set = make(map[Subscriber]struct{})
		h.subs[channelID] = set
	}
	if h.maxPerChannel > 0 && len(set) >= h.maxPerChannel {
		return nil, ErrChannelFull
	}

	sub := make(Subscriber, subscriberBuffer)
	set[sub] = struct{}{}
	metrics.IncrementStreamConnections()
	return sub, nil
}

// Unsubscribe removes a subscriber from a channel and closes its handle.
// Safe to call redundantly: a handle is closed at most once, and the
// channel entry is pruned when its set empties.
func (h *Hub) Unsubscribe(channelID string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(channelID, sub)
}

func (h *Hub) removeLocked(channelID string, sub Subscriber) {
	set, ok := h.subs[channelID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	close(sub)
	metrics.DecrementStreamConnections()
	if len(set) == 0 {
		delete(h.subs, channelID)
	}
}

// Publish serializes payload once and delivers it to every live subscriber
// of the channel. A subscriber that cannot accept the event is removed as
// if it had disconnected; delivery to the remaining subscribers continues.
// Publish never fails from the caller's perspective.
func (h *Hub) Publish(channelID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal event payload",
			zap.String("channel_id", channelID),
			zap.String("event", event),
			zap.Error(err),
		)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[channelID]
	if !ok {
		return
	}

	ev := Event{Name: event, Data: data}
	var stalled []Subscriber
	for sub := range set {
		select {
		case sub <- ev:
		default:
			stalled = append(stalled, sub)
		}
	}
	for _, sub := range stalled {
		h.logger.Warn("dropping stalled stream subscriber",
			zap.String("channel_id", channelID),
			zap.String("event", event),
		)
		h.removeLocked(channelID, sub)
	}
}

// Subscribers returns the current subscriber count for a channel.
func (h *Hub) Subscribers(channelID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[channelID])
}
