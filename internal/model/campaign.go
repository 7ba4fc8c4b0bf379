package model

import (
	"time"
)

// CampaignType selects which marketing agent persona drafts AI replies for
// conversations attached to the campaign.
type CampaignType string

const (
	CampaignFunnel   CampaignType = "funnel"
	CampaignAds      CampaignType = "ads"
	CampaignResearch CampaignType = "research"
	CampaignContent  CampaignType = "content"
)

// Campaign is a marketing campaign owned by a user.
type Campaign struct {
	ID     string       `json:"id"`
	UserID string       `json:"user_id"`
	Name   string       `json:"campaign_name"`
	Type   CampaignType `json:"type,omitempty"`
	Status string       `json:"status"`

	Goals     string    `json:"goals,omitempty"`
	Channels  string    `json:"channels,omitempty"`
	Budget    float64   `json:"budget,omitempty"`
	StartDate time.Time `json:"start_date,omitempty"`
	EndDate   time.Time `json:"end_date,omitempty"`
	Audience  string    `json:"audience,omitempty"`
	Content   string    `json:"content,omitempty"`

	LastMessage  *LastMessage `json:"last_message,omitempty"`
	MessageCount int          `json:"message_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateCampaignRequest is the body for POST /campaigns.
type CreateCampaignRequest struct {
	Name      string       `json:"campaign_name"`
	Type      CampaignType `json:"type,omitempty"`
	Status    string       `json:"status,omitempty"`
	Goals     string       `json:"goals,omitempty"`
	Channels  string       `json:"channels,omitempty"`
	Budget    float64      `json:"budget,omitempty"`
	StartDate time.Time    `json:"start_date,omitempty"`
	EndDate   time.Time    `json:"end_date,omitempty"`
	Audience  string       `json:"audience,omitempty"`
	Content   string       `json:"content,omitempty"`
}

// UpdateCampaignRequest is the body for PUT /campaigns/:id. Ownership is
// immutable.
type UpdateCampaignRequest struct {
	Name     string       `json:"campaign_name,omitempty"`
	Type     CampaignType `json:"type,omitempty"`
	Status   string       `json:"status,omitempty"`
	Goals    string       `json:"goals,omitempty"`
	Channels string       `json:"channels,omitempty"`
	Budget   float64      `json:"budget,omitempty"`
	Audience string       `json:"audience,omitempty"`
	Content  string       `json:"content,omitempty"`
}

// ListCampaignsResponse is the response for listing campaigns.
type ListCampaignsResponse struct {
	Campaigns []Campaign `json:"campaigns"`
	Total     int        `json:"total"`
}
