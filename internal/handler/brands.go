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

// BrandHandler handles brand endpoints.
type BrandHandler struct {
	service *service.BrandService
	logger  *logger.Logger
}

// NewBrandHandler creates a new brand handler.
func NewBrandHandler(svc *service.BrandService, log *logger.Logger) *BrandHandler {
	return &BrandHandler{service: svc, logger: log}
}

// Create handles POST /brands
func (h *BrandHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := middleware.GetUserID(ctx)

	var req model.CreateBrandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	brand, err := h.service.Create(ctx, callerID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, brand)
}

// Get handles GET /brands/:id
func (h *BrandHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	brandID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(brandID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	brand, err := h.service.Get(ctx, middleware.GetUserID(ctx), brandID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, brand)
}

// GetByUser handles GET /brands/user/:userID
func (h *BrandHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")

	brand, err := h.service.GetByUser(ctx, middleware.GetUserID(ctx), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, brand)
}

// Update handles PUT /brands/:id
func (h *BrandHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	brandID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(brandID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.UpdateBrandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	brand, err := h.service.Update(ctx, middleware.GetUserID(ctx), brandID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, brand)
}

// Delete handles DELETE /brands/:id
func (h *BrandHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	brandID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(brandID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Delete(ctx, middleware.GetUserID(ctx), brandID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
