package model

import (
	"time"
)

// SSE event names pushed to stream subscribers.
const (
	EventMessageNew = "message:new"
	EventHeartbeat  = "heartbeat"
)

// HeartbeatEvent is the payload of a heartbeat frame.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}
