package adaptor

import (
	"encoding/json"
	"net/http"

	"parking-reservation/internal/dto/request"
	"parking-reservation/internal/usecase"
	"parking-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type FacilityHandler struct {
	service usecase.FacilityService
	log     *zap.Logger
}

func NewFacilityHandler(service usecase.FacilityService, log *zap.Logger) *FacilityHandler {
	return &FacilityHandler{
		service: service,
		log:     log.With(zap.String("handler", "facility")),
	}
}

// CreateFacility handles POST /api/admin/facilities (admin only)
func (h *FacilityHandler) CreateFacility(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateFacilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	facility, err := h.service.Create(r.Context(), userID.String(), &req)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	utils.ResponseCreated(w, "success", facility)
}

// ListFacilities handles GET /api/facilities (public)
func (h *FacilityHandler) ListFacilities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	facilities, err := h.service.List(r.Context(), req)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	utils.ResponseSuccess(w, "success", facilities)
}

// GetFacility handles GET /api/facilities/{id} (public)
func (h *FacilityHandler) GetFacility(w http.ResponseWriter, r *http.Request) {
	facilityID := chi.URLParam(r, "id")
	if facilityID == "" {
		utils.ResponseBadRequest(w, "Facility ID is required", nil)
		return
	}

	facility, err := h.service.GetByID(r.Context(), facilityID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	utils.ResponseSuccess(w, "success", facility)
}

// ReconcileAvailability handles POST /api/admin/facilities/{id}/reconcile (admin only)
func (h *FacilityHandler) ReconcileAvailability(w http.ResponseWriter, r *http.Request) {
	facilityID := chi.URLParam(r, "id")
	if facilityID == "" {
		utils.ResponseBadRequest(w, "Facility ID is required", nil)
		return
	}

	facility, err := h.service.ReconcileAvailability(r.Context(), facilityID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	utils.ResponseSuccess(w, "success", facility)
}
