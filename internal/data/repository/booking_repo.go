package repository

import (
	"context"
	"fmt"
	"time"

	"parking-reservation/internal/data/entity"
	"parking-reservation/pkg/apperrors"
	"parking-reservation/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const bookingColumns = `id, user_id, facility_id, vehicle_class, start_time, duration_hours, cost, status,
	entry_token, exit_token, actual_entry_time, actual_exit_time, elapsed_hours, overtime_charge,
	created_at, updated_at`

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// CountConfirmedActive menghitung booking yang sedang memegang slot
	// (confirmed atau active) untuk satu facility/class.
	CountConfirmedActive(ctx context.Context, facilityID uuid.UUID, class entity.VehicleClass) (int, error)

	// UpdateStatusFrom adalah transisi status guarded: hanya berhasil
	// kalau status sekarang masih `from`. 0 rows berarti ada request lain
	// yang sudah memindahkan status lebih dulu.
	UpdateStatusFrom(ctx context.Context, q database.Querier, id uuid.UUID, from, to entity.BookingStatus) error

	SetEntryToken(ctx context.Context, id uuid.UUID, token string) error
	MarkEntered(ctx context.Context, q database.Querier, id uuid.UUID, entryTime time.Time, exitToken string) error
	MarkCompleted(ctx context.Context, q database.Querier, id uuid.UUID, exitTime time.Time, elapsedHours int, overtimeCharge int64) error
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, user_id, facility_id, vehicle_class, start_time, duration_hours,
		                      cost, status, overtime_charge, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.UserID,
		booking.FacilityID,
		booking.VehicleClass,
		booking.StartTime,
		booking.DurationHours,
		booking.Cost,
		booking.Status,
		booking.OvertimeCharge,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("user_id", booking.UserID.String()),
			zap.String("facility_id", booking.FacilityID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.ID.String(), err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var booking entity.Booking
	err := r.db.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.FacilityID,
		&booking.VehicleClass,
		&booking.StartTime,
		&booking.DurationHours,
		&booking.Cost,
		&booking.Status,
		&booking.EntryToken,
		&booking.ExitToken,
		&booking.ActualEntryTime,
		&booking.ActualExitTime,
		&booking.ElapsedHours,
		&booking.OvertimeCharge,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return &booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find bookings by user ID %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		var booking entity.Booking
		err := rows.Scan(
			&booking.ID,
			&booking.UserID,
			&booking.FacilityID,
			&booking.VehicleClass,
			&booking.StartTime,
			&booking.DurationHours,
			&booking.Cost,
			&booking.Status,
			&booking.EntryToken,
			&booking.ExitToken,
			&booking.ActualEntryTime,
			&booking.ActualExitTime,
			&booking.ElapsedHours,
			&booking.OvertimeCharge,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, &booking)
	}

	return bookings, nil
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE user_id = $1`

	var count int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings by user ID %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) CountConfirmedActive(ctx context.Context, facilityID uuid.UUID, class entity.VehicleClass) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE facility_id = $1 AND vehicle_class = $2 AND status IN ('confirmed', 'active')
	`

	var count int
	err := r.db.QueryRow(ctx, query, facilityID, class).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count confirmed/active bookings",
			zap.Error(err),
			zap.String("facility_id", facilityID.String()),
			zap.String("vehicle_class", string(class)),
		)
		return 0, fmt.Errorf("count confirmed bookings of facility %s: %w", facilityID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) UpdateStatusFrom(ctx context.Context, q database.Querier, id uuid.UUID, from, to entity.BookingStatus) error {
	query := `UPDATE bookings SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`

	result, err := q.Exec(ctx, query, id, from, to)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return fmt.Errorf("update booking %s status %s -> %s: %w", id.String(), from, to, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s is no longer %s: %w", id.String(), from, apperrors.ErrInvalidState)
	}

	return nil
}

func (r *bookingRepository) SetEntryToken(ctx context.Context, id uuid.UUID, token string) error {
	query := `UPDATE bookings SET entry_token = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, token)
	if err != nil {
		r.log.Error("Failed to set entry token",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return fmt.Errorf("set entry token of booking %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", id.String(), apperrors.ErrNotFound)
	}

	return nil
}

func (r *bookingRepository) MarkEntered(ctx context.Context, q database.Querier, id uuid.UUID, entryTime time.Time, exitToken string) error {
	query := `
		UPDATE bookings
		SET status = 'active', actual_entry_time = $2, exit_token = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'confirmed'
	`

	result, err := q.Exec(ctx, query, id, entryTime, exitToken)
	if err != nil {
		r.log.Error("Failed to mark booking entered",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return fmt.Errorf("mark booking %s entered: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s is not confirmed: %w", id.String(), apperrors.ErrInvalidState)
	}

	return nil
}

func (r *bookingRepository) MarkCompleted(ctx context.Context, q database.Querier, id uuid.UUID, exitTime time.Time, elapsedHours int, overtimeCharge int64) error {
	query := `
		UPDATE bookings
		SET status = 'completed', actual_exit_time = $2, elapsed_hours = $3, overtime_charge = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`

	result, err := q.Exec(ctx, query, id, exitTime, elapsedHours, overtimeCharge)
	if err != nil {
		r.log.Error("Failed to mark booking completed",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return fmt.Errorf("mark booking %s completed: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s is not active: %w", id.String(), apperrors.ErrInvalidState)
	}

	return nil
}
