package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arunshreyas/Marketa-server/internal/middleware"
	"github.com/arunshreyas/Marketa-server/internal/model"
	"github.com/arunshreyas/Marketa-server/internal/service"
	"github.com/arunshreyas/Marketa-server/pkg/logger"
)

// CampaignHandler handles campaign endpoints.
type CampaignHandler struct {
	service *service.CampaignService
	logger  *logger.Logger
}

// NewCampaignHandler creates a new campaign handler.
func NewCampaignHandler(svc *service.CampaignService, log *logger.Logger) *CampaignHandler {
	return &CampaignHandler{service: svc, logger: log}
}

// Create handles POST /campaigns
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateTitle(req.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	campaign, err := h.service.Create(ctx, middleware.GetUserID(ctx), &req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

// Get handles GET /campaigns/:id
func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	campaignID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(campaignID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	campaign, err := h.service.Get(ctx, middleware.GetUserID(ctx), campaignID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

// ListByUser handles GET /campaigns/user/:userID
func (h *CampaignHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")

	resp, err := h.service.ListByUser(ctx, middleware.GetUserID(ctx), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Update handles PUT /campaigns/:id
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	campaignID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(campaignID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.UpdateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	campaign, err := h.service.Update(ctx, middleware.GetUserID(ctx), campaignID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

// Delete handles DELETE /campaigns/:id
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	campaignID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(campaignID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Delete(ctx, middleware.GetUserID(ctx), campaignID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
