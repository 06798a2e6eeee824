package repository

import (
	"context"
	"fmt"

	"parking-reservation/internal/data/entity"
	"parking-reservation/pkg/apperrors"
	"parking-reservation/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type FacilityRepository interface {
	Create(ctx context.Context, q database.Querier, facility *entity.Facility, slots []*entity.FacilitySlot) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Facility, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Facility, error)
	Count(ctx context.Context) (int64, error)

	FindSlot(ctx context.Context, facilityID uuid.UUID, class entity.VehicleClass) (*entity.FacilitySlot, error)
	SlotsByFacility(ctx context.Context, facilityID uuid.UUID) ([]*entity.FacilitySlot, error)

	// Guarded counter mutations. Kondisi availability ada di WHERE clause
	// sehingga dua Confirm yang balapan memperebutkan slot terakhir hanya
	// bisa menang satu. Release di-cap di capacity: kalau counter sudah
	// penuh karena drift, release jadi no-op yang dicatat di log.
	ReserveSlot(ctx context.Context, q database.Querier, facilityID uuid.UUID, class entity.VehicleClass) error
	ReleaseSlot(ctx context.Context, q database.Querier, facilityID uuid.UUID, class entity.VehicleClass) error

	// ReconcileAvailability menghitung ulang available dari jumlah booking
	// confirmed/active. Dipakai untuk memperbaiki drift akibat partial failure.
	ReconcileAvailability(ctx context.Context, facilityID uuid.UUID) error
}

type facilityRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewFacilityRepository(db database.PgxIface, log *zap.Logger) FacilityRepository {
	return &facilityRepository{
		db:  db,
		log: log.With(zap.String("repository", "facility")),
	}
}

func (r *facilityRepository) Create(ctx context.Context, q database.Querier, facility *entity.Facility, slots []*entity.FacilitySlot) error {
	query := `
		INSERT INTO facilities (id, owner_id, name, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.Exec(ctx, query,
		facility.ID,
		facility.OwnerID,
		facility.Name,
		facility.Address,
		facility.CreatedAt,
		facility.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create facility",
			zap.Error(err),
			zap.String("name", facility.Name),
		)
		return fmt.Errorf("create facility %s: %w", facility.Name, err)
	}

	slotQuery := `
		INSERT INTO facility_slots (facility_id, vehicle_class, capacity, available, hourly_rate, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, slot := range slots {
		_, err := q.Exec(ctx, slotQuery,
			slot.FacilityID,
			slot.VehicleClass,
			slot.Capacity,
			slot.Available,
			slot.HourlyRate,
			slot.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to create facility slot",
				zap.Error(err),
				zap.String("facility_id", facility.ID.String()),
				zap.String("vehicle_class", string(slot.VehicleClass)),
			)
			return fmt.Errorf("create slot %s for facility %s: %w", slot.VehicleClass, facility.ID.String(), err)
		}
	}

	return nil
}

func (r *facilityRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Facility, error) {
	query := `
		SELECT id, owner_id, name, address, created_at, updated_at
		FROM facilities
		WHERE id = $1
	`

	var facility entity.Facility
	err := r.db.QueryRow(ctx, query, id).Scan(
		&facility.ID,
		&facility.OwnerID,
		&facility.Name,
		&facility.Address,
		&facility.CreatedAt,
		&facility.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find facility by ID",
			zap.Error(err),
			zap.String("facility_id", id.String()),
		)
		return nil, fmt.Errorf("find facility by ID %s: %w", id.String(), err)
	}

	return &facility, nil
}

func (r *facilityRepository) List(ctx context.Context, limit, offset int) ([]*entity.Facility, error) {
	query := `
		SELECT id, owner_id, name, address, created_at, updated_at
		FROM facilities
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to list facilities", zap.Error(err))
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	defer rows.Close()

	var facilities []*entity.Facility
	for rows.Next() {
		var facility entity.Facility
		err := rows.Scan(
			&facility.ID,
			&facility.OwnerID,
			&facility.Name,
			&facility.Address,
			&facility.CreatedAt,
			&facility.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan facility row", zap.Error(err))
			return nil, fmt.Errorf("scan facility row: %w", err)
		}
		facilities = append(facilities, &facility)
	}

	return facilities, nil
}

func (r *facilityRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM facilities`).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count facilities", zap.Error(err))
		return 0, fmt.Errorf("count facilities: %w", err)
	}
	return count, nil
}

func (r *facilityRepository) FindSlot(ctx context.Context, facilityID uuid.UUID, class entity.VehicleClass) (*entity.FacilitySlot, error) {
	query := `
		SELECT facility_id, vehicle_class, capacity, available, hourly_rate, updated_at
		FROM facility_slots
		WHERE facility_id = $1 AND vehicle_class = $2
	`

	var slot entity.FacilitySlot
	err := r.db.QueryRow(ctx, query, facilityID, class).Scan(
		&slot.FacilityID,
		&slot.VehicleClass,
		&slot.Capacity,
		&slot.Available,
		&slot.HourlyRate,
		&slot.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find facility slot",
			zap.Error(err),
			zap.String("facility_id", facilityID.String()),
			zap.String("vehicle_class", string(class)),
		)
		return nil, fmt.Errorf("find slot %s of facility %s: %w", class, facilityID.String(), err)
	}

	return &slot, nil
}

func (r *facilityRepository) SlotsByFacility(ctx context.Context, facilityID uuid.UUID) ([]*entity.FacilitySlot, error) {
	query := `
		SELECT facility_id, vehicle_class, capacity, available, hourly_rate, updated_at
		FROM facility_slots
		WHERE facility_id = $1
		ORDER BY vehicle_class
	`

	rows, err := r.db.Query(ctx, query, facilityID)
	if err != nil {
		r.log.Error("Failed to list facility slots",
			zap.Error(err),
			zap.String("facility_id", facilityID.String()),
		)
		return nil, fmt.Errorf("list slots of facility %s: %w", facilityID.String(), err)
	}
	defer rows.Close()

	var slots []*entity.FacilitySlot
	for rows.Next() {
		var slot entity.FacilitySlot
		err := rows.Scan(
			&slot.FacilityID,
			&slot.VehicleClass,
			&slot.Capacity,
			&slot.Available,
			&slot.HourlyRate,
			&slot.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan facility slot row", zap.Error(err))
			return nil, fmt.Errorf("scan facility slot row: %w", err)
		}
		slots = append(slots, &slot)
	}

	return slots, nil
}

func (r *facilityRepository) ReserveSlot(ctx context.Context, q database.Querier, facilityID uuid.UUID, class entity.VehicleClass) error {
	query := `
		UPDATE facility_slots
		SET available = available - 1, updated_at = NOW()
		WHERE facility_id = $1 AND vehicle_class = $2 AND available > 0
	`

	result, err := q.Exec(ctx, query, facilityID, class)
	if err != nil {
		r.log.Error("Failed to reserve slot",
			zap.Error(err),
			zap.String("facility_id", facilityID.String()),
			zap.String("vehicle_class", string(class)),
		)
		return fmt.Errorf("reserve %s slot of facility %s: %w", class, facilityID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reserve %s slot of facility %s: %w", class, facilityID.String(), apperrors.ErrInsufficientCapacity)
	}

	return nil
}

func (r *facilityRepository) ReleaseSlot(ctx context.Context, q database.Querier, facilityID uuid.UUID, class entity.VehicleClass) error {
	query := `
		UPDATE facility_slots
		SET available = available + 1, updated_at = NOW()
		WHERE facility_id = $1 AND vehicle_class = $2 AND available < capacity
	`

	result, err := q.Exec(ctx, query, facilityID, class)
	if err != nil {
		r.log.Error("Failed to release slot",
			zap.Error(err),
			zap.String("facility_id", facilityID.String()),
			zap.String("vehicle_class", string(class)),
		)
		return fmt.Errorf("release %s slot of facility %s: %w", class, facilityID.String(), err)
	}

	if result.RowsAffected() == 0 {
		// available sudah di capacity (counter drift). Release di-cap,
		// bukan digagalkan: exit tidak boleh terblokir gara-gara drift.
		r.log.Warn("Release skipped, counter already at capacity",
			zap.String("facility_id", facilityID.String()),
			zap.String("vehicle_class", string(class)),
		)
	}

	return nil
}

func (r *facilityRepository) ReconcileAvailability(ctx context.Context, facilityID uuid.UUID) error {
	query := `
		UPDATE facility_slots fs
		SET available = GREATEST(0, fs.capacity - (
			SELECT COUNT(*)
			FROM bookings b
			WHERE b.facility_id = fs.facility_id
			  AND b.vehicle_class = fs.vehicle_class
			  AND b.status IN ('confirmed', 'active')
		)), updated_at = NOW()
		WHERE fs.facility_id = $1
	`

	result, err := r.db.Exec(ctx, query, facilityID)
	if err != nil {
		r.log.Error("Failed to reconcile availability",
			zap.Error(err),
			zap.String("facility_id", facilityID.String()),
		)
		return fmt.Errorf("reconcile availability of facility %s: %w", facilityID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reconcile availability of facility %s: %w", facilityID.String(), apperrors.ErrNotFound)
	}

	r.log.Info("Availability reconciled",
		zap.String("facility_id", facilityID.String()),
		zap.Int64("slots", result.RowsAffected()),
	)

	return nil
}
