package usecase

import (
	"context"
	"fmt"
	"time"

	"parking-reservation/internal/data/entity"
	"parking-reservation/internal/data/repository"
	"parking-reservation/internal/dto/request"
	"parking-reservation/internal/dto/response"
	"parking-reservation/pkg/apperrors"
	"parking-reservation/pkg/database"
	"parking-reservation/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FacilityService interface {
	Create(ctx context.Context, ownerID string, req *request.CreateFacilityRequest) (*response.FacilityResponse, error)
	GetByID(ctx context.Context, facilityID string) (*response.FacilityResponse, error)
	List(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.FacilityResponse], error)

	// ReconcileAvailability menghitung ulang counter dari booking aktif.
	// Dipanggil admin ketika counter diduga drift.
	ReconcileAvailability(ctx context.Context, facilityID string) (*response.FacilityResponse, error)
}

type facilityService struct {
	repo *repository.Repository
	db   database.PgxIface
	log  *zap.Logger
}

func NewFacilityService(repo *repository.Repository, db database.PgxIface, log *zap.Logger) FacilityService {
	return &facilityService{
		repo: repo,
		db:   db,
		log:  log.With(zap.String("service", "facility")),
	}
}

func (s *facilityService) Create(ctx context.Context, ownerID string, req *request.CreateFacilityRequest) (*response.FacilityResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create facility validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, utils.FormatValidationErrors(errs))
	}

	ownerUUID, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", apperrors.ErrValidation, ownerID)
	}

	seen := map[string]bool{}
	for _, slot := range req.Slots {
		if seen[slot.VehicleClass] {
			return nil, fmt.Errorf("%w: duplicate vehicle class %s", apperrors.ErrValidation, slot.VehicleClass)
		}
		seen[slot.VehicleClass] = true
	}

	now := time.Now()
	facility := &entity.Facility{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OwnerID: ownerUUID,
		Name:    req.Name,
		Address: req.Address,
	}

	slots := make([]*entity.FacilitySlot, len(req.Slots))
	for i, slot := range req.Slots {
		slots[i] = &entity.FacilitySlot{
			FacilityID:   facility.ID,
			VehicleClass: entity.VehicleClass(slot.VehicleClass),
			Capacity:     slot.Capacity,
			Available:    slot.Capacity,
			HourlyRate:   slot.HourlyRate,
			UpdatedAt:    now,
		}
	}

	err = s.db.WithTx(ctx, func(q database.Querier) error {
		return s.repo.Facility.Create(ctx, q, facility, slots)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Facility created",
		zap.String("facility_id", facility.ID.String()),
		zap.String("owner_id", ownerID),
		zap.String("name", facility.Name),
	)

	resp := response.FacilityToResponse(facility, slots)
	return &resp, nil
}

func (s *facilityService) GetByID(ctx context.Context, facilityID string) (*response.FacilityResponse, error) {
	id, err := uuid.Parse(facilityID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid facility ID %s", apperrors.ErrValidation, facilityID)
	}

	facility, err := s.repo.Facility.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if facility == nil {
		return nil, fmt.Errorf("facility %s: %w", facilityID, apperrors.ErrNotFound)
	}

	slots, err := s.repo.Facility.SlotsByFacility(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := response.FacilityToResponse(facility, slots)
	return &resp, nil
}

func (s *facilityService) List(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.FacilityResponse], error) {
	facilities, err := s.repo.Facility.List(ctx, req.Limit(), req.Offset())
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Facility.Count(ctx)
	if err != nil {
		return nil, err
	}

	facilityResponses := make([]response.FacilityResponse, len(facilities))
	for i, facility := range facilities {
		slots, err := s.repo.Facility.SlotsByFacility(ctx, facility.ID)
		if err != nil {
			return nil, err
		}
		facilityResponses[i] = response.FacilityToResponse(facility, slots)
	}

	return response.NewPaginatedResponse(facilityResponses, req.Page, req.PerPage, total), nil
}

func (s *facilityService) ReconcileAvailability(ctx context.Context, facilityID string) (*response.FacilityResponse, error) {
	id, err := uuid.Parse(facilityID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid facility ID %s", apperrors.ErrValidation, facilityID)
	}

	if err := s.repo.Facility.ReconcileAvailability(ctx, id); err != nil {
		return nil, err
	}

	s.log.Info("Facility availability reconciled", zap.String("facility_id", facilityID))

	return s.GetByID(ctx, facilityID)
}
