package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arunshreyas/Marketa-server/internal/model"
	"github.com/arunshreyas/Marketa-server/internal/store"
	"github.com/arunshreyas/Marketa-server/pkg/logger"
)

// BrandService handles brand operations.
type BrandService struct {
	store  store.Store
	logger *logger.Logger
}

// NewBrandService creates a new brand service.
func NewBrandService(st store.Store, log *logger.Logger) *BrandService {
	return &BrandService{store: st, logger: log}
}

// Create creates a brand owned by the caller.
func (s *BrandService) Create(ctx context.Context, callerID string, req *model.CreateBrandRequest) (*model.Brand, error) {
	if req.Name == "" || req.ProductDescription == "" || req.TargetAudience == "" {
		return nil, validationErr("brand_name, product_description and target_audience are required")
	}

	now := time.Now().UTC()
	brand := &model.Brand{
		ID:                 uuid.New().String(),
		UserID:             callerID,
		Name:               req.Name,
		ProductDescription: req.ProductDescription,
		TargetAudience:     req.TargetAudience,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.store.CreateBrand(ctx, brand); err != nil {
		return nil, err
	}

	s.logger.Info("brand created",
		zap.String("brand_id", brand.ID),
		zap.String("user_id", callerID),
	)
	return brand, nil
}

// Get retrieves a brand, enforcing ownership.
func (s *BrandService) Get(ctx context.Context, callerID, brandID string) (*model.Brand, error) {
	brand, err := s.store.GetBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(callerID, brand.UserID); err != nil {
		return nil, err
	}
	return brand, nil
}

// GetByUser retrieves the brand owned by userID. Only the owner may read it.
func (s *BrandService) GetByUser(ctx context.Context, callerID, userID string) (*model.Brand, error) {
	if err := Authorize(callerID, userID); err != nil {
		return nil, err
	}
	return s.store.GetBrandByUser(ctx, userID)
}

// Update updates a brand. Ownership is immutable.
func (s *BrandService) Update(ctx context.Context, callerID, brandID string, req *model.UpdateBrandRequest) (*model.Brand, error) {
	brand, err := s.store.GetBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(callerID, brand.UserID); err != nil {
		return nil, err
	}

	if req.Name != "" {
		brand.Name = req.Name
	}
	if req.ProductDescription != "" {
		brand.ProductDescription = req.ProductDescription
	}
	if req.TargetAudience != "" {
		brand.TargetAudience = req.TargetAudience
	}
	brand.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateBrand(ctx, brand); err != nil {
		return nil, err
	}
	return brand, nil
}

// Delete removes a brand.
func (s *BrandService) Delete(ctx context.Context, callerID, brandID string) error {
	brand, err := s.store.GetBrand(ctx, brandID)
	if err != nil {
		return err
	}
	if err := Authorize(callerID, brand.UserID); err != nil {
		return err
	}
	return s.store.DeleteBrand(ctx, brandID)
}
