package model

import (
	"time"
)

// User is the owner identity referenced by brands, campaigns and
// conversations. Sign-up and credential handling live upstream; this server
// only resolves ids established by the auth token.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
