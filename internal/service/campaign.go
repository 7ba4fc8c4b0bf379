package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arunshreyas/Marketa-server/internal/model"
	"github.com/arunshreyas/Marketa-server/internal/store"
	"github.com/arunshreyas/Marketa-server/pkg/logger"
	"github.com/arunshreyas/Marketa-server/pkg/metrics"
)

// CampaignService handles campaign operations.
type CampaignService struct {
	store  store.Store
	logger *logger.Logger
}

// NewCampaignService creates a new campaign service.
func NewCampaignService(st store.Store, log *logger.Logger) *CampaignService {
	return &CampaignService{store: st, logger: log}
}

// Create creates a campaign owned by the caller.
func (s *CampaignService) Create(ctx context.Context, callerID string, req *model.CreateCampaignRequest) (*model.Campaign, error) {
	if req.Name == "" {
		return nil, validationErr("campaign_name is required")
	}

	status := req.Status
	if status == "" {
		status = "active"
	}

	now := time.Now().UTC()
	campaign := &model.Campaign{
		ID:        uuid.New().String(),
		UserID:    callerID,
		Name:      req.Name,
		Type:      req.Type,
		Status:    status,
		Goals:     req.Goals,
		Channels:  req.Channels,
		Budget:    req.Budget,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Audience:  req.Audience,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateCampaign(ctx, campaign); err != nil {
		return nil, err
	}

	metrics.CampaignsTotal.Inc()
	s.logger.Info("campaign created",
		zap.String("campaign_id", campaign.ID),
		zap.String("user_id", callerID),
	)
	return campaign, nil
}

// Get retrieves a campaign, enforcing ownership.
func (s *CampaignService) Get(ctx context.Context, callerID, campaignID string) (*model.Campaign, error) {
	campaign, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(callerID, campaign.UserID); err != nil {
		return nil, err
	}
	return campaign, nil
}

// ListByUser lists campaigns owned by userID. Only the owner may list them.
func (s *CampaignService) ListByUser(ctx context.Context, callerID, userID string) (*model.ListCampaignsResponse, error) {
	if err := Authorize(callerID, userID); err != nil {
		return nil, err
	}

	campaigns, err := s.store.ListCampaignsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.ListCampaignsResponse{Campaigns: campaigns, Total: len(campaigns)}, nil
}

// Update updates a campaign. Ownership is immutable.
func (s *CampaignService) Update(ctx context.Context, callerID, campaignID string, req *model.UpdateCampaignRequest) (*model.Campaign, error) {
	campaign, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(callerID, campaign.UserID); err != nil {
		return nil, err
	}

	if req.Name != "" {
		campaign.Name = req.Name
	}
	if req.Type != "" {
		campaign.Type = req.Type
	}
	if req.Status != "" {
		campaign.Status = req.Status
	}
	if req.Goals != "" {
		campaign.Goals = req.Goals
	}
	if req.Channels != "" {
		campaign.Channels = req.Channels
	}
	if req.Budget != 0 {
		campaign.Budget = req.Budget
	}
	if req.Audience != "" {
		campaign.Audience = req.Audience
	}
	if req.Content != "" {
		campaign.Content = req.Content
	}
	campaign.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateCampaign(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// Delete removes a campaign.
func (s *CampaignService) Delete(ctx context.Context, callerID, campaignID string) error {
	campaign, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	if err := Authorize(callerID, campaign.UserID); err != nil {
		return err
	}
	return s.store.DeleteCampaign(ctx, campaignID)
}
