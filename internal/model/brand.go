package model

import (
	"time"
)

// Brand describes the product a user is marketing.
type Brand struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Name               string    `json:"brand_name"`
	ProductDescription string    `json:"product_description"`
	TargetAudience     string    `json:"target_audience"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CreateBrandRequest is the body for POST /brands.
type CreateBrandRequest struct {
	Name               string `json:"brand_name"`
	ProductDescription string `json:"product_description"`
	TargetAudience     string `json:"target_audience"`
}

// UpdateBrandRequest is the body for PUT /brands/:id. Ownership is immutable.
type UpdateBrandRequest struct {
	Name               string `json:"brand_name,omitempty"`
	ProductDescription string `json:"product_description,omitempty"`
	TargetAudience     string `json:"target_audience,omitempty"`
}
