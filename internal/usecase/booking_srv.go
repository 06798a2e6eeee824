package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"parking-reservation/internal/data/entity"
	"parking-reservation/internal/data/repository"
	"parking-reservation/internal/dto/request"
	"parking-reservation/internal/dto/response"
	"parking-reservation/internal/token"
	"parking-reservation/pkg/apperrors"
	"parking-reservation/pkg/database"
	"parking-reservation/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	entryTokenTTL = 24 * time.Hour
	exitTokenTTL  = 2 * time.Hour
)

type BookingService interface {
	// Create mengembalikan booking pending: quote harga, belum pegang
	// slot dan belum ada uang bergerak.
	Create(ctx context.Context, userID string, req *request.CreateBookingRequest) (*response.BookingResponse, error)

	// Confirm membayar booking dari saldo dan meng-claim slot dalam satu
	// unit atomic.
	Confirm(ctx context.Context, bookingID, userID string) (*response.BookingResponse, error)

	GenerateEntryToken(ctx context.Context, bookingID, userID string) (*response.EntryTokenResponse, error)
	ScanEntry(ctx context.Context, tokenStr, callerID string) (*response.ScanEntryResponse, error)
	ScanExit(ctx context.Context, tokenStr, callerID string) (*response.ScanExitResponse, error)

	Cancel(ctx context.Context, bookingID, callerID string) error
	CancelAdmin(ctx context.Context, bookingID string) error

	GetUserBookings(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetByID(ctx context.Context, bookingID string) (*response.BookingResponse, error)
}

type bookingService struct {
	repo   *repository.Repository
	db     database.PgxIface
	tokens *token.Service
	log    *zap.Logger
}

func NewBookingService(repo *repository.Repository, db database.PgxIface, tokens *token.Service, log *zap.Logger) BookingService {
	return &bookingService{
		repo:   repo,
		db:     db,
		tokens: tokens,
		log:    log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) Create(ctx context.Context, userID string, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, utils.FormatValidationErrors(errs))
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", apperrors.ErrValidation, userID)
	}

	facilityID, err := uuid.Parse(req.FacilityID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid facility ID %s", apperrors.ErrValidation, req.FacilityID)
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: start_time must be RFC3339", apperrors.ErrValidation)
	}
	if startTime.Before(time.Now().Add(-time.Hour)) {
		return nil, fmt.Errorf("%w: cannot book in the past", apperrors.ErrValidation)
	}

	class := entity.VehicleClass(req.VehicleClass)

	facility, err := s.repo.Facility.FindByID(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	if facility == nil {
		return nil, fmt.Errorf("facility %s: %w", req.FacilityID, apperrors.ErrNotFound)
	}

	slot, err := s.repo.Facility.FindSlot(ctx, facilityID, class)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, fmt.Errorf("facility %s has no %s slots: %w", req.FacilityID, class, apperrors.ErrNotFound)
	}

	// Advisory check saja: keputusan final ada di Confirm, yang
	// decrement counter secara guarded.
	occupied, err := s.repo.Booking.CountConfirmedActive(ctx, facilityID, class)
	if err != nil {
		return nil, err
	}
	if occupied >= slot.Capacity {
		return nil, fmt.Errorf("no %s slot available at facility %s: %w", class, req.FacilityID, apperrors.ErrInsufficientCapacity)
	}

	now := time.Now()
	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:        userUUID,
		FacilityID:    facilityID,
		VehicleClass:  class,
		StartTime:     startTime,
		DurationHours: req.DurationHours,
		Cost:          slot.HourlyRate * int64(req.DurationHours),
		Status:        entity.BookingStatusPending,
	}

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("user_id", userID),
		zap.String("facility_id", req.FacilityID),
		zap.String("vehicle_class", string(class)),
		zap.Int64("cost", booking.Cost),
	)

	resp := response.BookingToResponse(booking, facility.Name)
	return &resp, nil
}

func (s *bookingService) Confirm(ctx context.Context, bookingID, userID string) (*response.BookingResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID %s", apperrors.ErrValidation, bookingID)
	}
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", apperrors.ErrValidation, userID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, apperrors.ErrNotFound)
	}
	if booking.UserID != userUUID {
		return nil, fmt.Errorf("booking %s does not belong to caller: %w", bookingID, apperrors.ErrForbidden)
	}
	if booking.Status != entity.BookingStatusPending {
		return nil, fmt.Errorf("booking %s is %s: %w", bookingID, booking.Status, apperrors.ErrInvalidState)
	}

	confirm := func() error {
		return s.db.WithTx(ctx, func(q database.Querier) error {
			// Slot dulu, lalu saldo, lalu status: semua guarded, semua
			// batal bersama kalau salah satu gagal.
			if err := s.repo.Facility.ReserveSlot(ctx, q, booking.FacilityID, booking.VehicleClass); err != nil {
				return err
			}
			if err := s.repo.User.DebitBalance(ctx, q, booking.UserID, booking.Cost); err != nil {
				return err
			}
			if err := s.repo.Booking.UpdateStatusFrom(ctx, q, booking.ID, entity.BookingStatusPending, entity.BookingStatusConfirmed); err != nil {
				return err
			}

			now := time.Now()
			payment := &entity.Transaction{
				Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
				OrderID:       utils.GenerateOrderID(),
				UserID:        booking.UserID,
				BookingID:     &booking.ID,
				Type:          entity.TransactionTypePayment,
				Amount:        booking.Cost,
				PaymentMethod: entity.PaymentMethodSaldo,
				Status:        entity.TransactionStatusSuccess,
				Description:   fmt.Sprintf("Payment for booking %s", booking.ID.String()),
			}
			if err := s.repo.Transaction.Create(ctx, q, payment); err != nil {
				return err
			}

			debit := &entity.Transaction{
				Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
				OrderID:       utils.GenerateOrderID(),
				UserID:        booking.UserID,
				BookingID:     &booking.ID,
				Type:          entity.TransactionTypeSaldoDebit,
				Amount:        booking.Cost,
				PaymentMethod: entity.PaymentMethodSaldo,
				Status:        entity.TransactionStatusSuccess,
				Description:   fmt.Sprintf("Saldo debit for booking %s", booking.ID.String()),
			}
			return s.repo.Transaction.Create(ctx, q, debit)
		})
	}

	if err := confirm(); err != nil {
		// Satu kali retry untuk konflik transient; domain error langsung
		// diteruskan apa adanya.
		if apperrors.IsDomain(err) {
			return nil, err
		}
		s.log.Warn("Confirm transaction conflict, retrying once",
			zap.Error(err),
			zap.String("booking_id", bookingID),
		)
		if err := confirm(); err != nil {
			return nil, err
		}
	}

	booking.Status = entity.BookingStatusConfirmed

	s.log.Info("Booking confirmed",
		zap.String("booking_id", bookingID),
		zap.String("user_id", userID),
		zap.Int64("cost", booking.Cost),
	)

	resp := response.BookingToResponse(booking, "")
	return &resp, nil
}

func (s *bookingService) GenerateEntryToken(ctx context.Context, bookingID, userID string) (*response.EntryTokenResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID %s", apperrors.ErrValidation, bookingID)
	}
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", apperrors.ErrValidation, userID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, apperrors.ErrNotFound)
	}
	if booking.UserID != userUUID {
		return nil, fmt.Errorf("booking %s does not belong to caller: %w", bookingID, apperrors.ErrForbidden)
	}
	if booking.Status != entity.BookingStatusConfirmed {
		return nil, fmt.Errorf("booking %s is %s: %w", bookingID, booking.Status, apperrors.ErrInvalidState)
	}

	// Idempotent: token lama dipakai lagi selama masih valid.
	if booking.EntryToken != nil && s.tokens.Valid(*booking.EntryToken, token.TypeEntry) {
		return &response.EntryTokenResponse{
			BookingID:  bookingID,
			EntryToken: *booking.EntryToken,
		}, nil
	}

	entryToken, err := s.tokens.Issue(token.TypeEntry, booking.ID, booking.FacilityID, booking.VehicleClass, entryTokenTTL)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Booking.SetEntryToken(ctx, booking.ID, entryToken); err != nil {
		return nil, err
	}

	s.log.Info("Entry token issued", zap.String("booking_id", bookingID))

	return &response.EntryTokenResponse{
		BookingID:  bookingID,
		EntryToken: entryToken,
	}, nil
}

func (s *bookingService) ScanEntry(ctx context.Context, tokenStr, callerID string) (*response.ScanEntryResponse, error) {
	claims, err := s.tokens.Verify(tokenStr, token.TypeEntry)
	if err != nil {
		return nil, err
	}

	booking, err := s.findBookingForScan(ctx, claims.BookingID, callerID)
	if err != nil {
		return nil, err
	}
	if booking.Status != entity.BookingStatusConfirmed {
		return nil, fmt.Errorf("booking %s is %s: %w", booking.ID.String(), booking.Status, apperrors.ErrInvalidState)
	}

	// Exit token diterbitkan sekarang, sebelum kendaraan masuk, supaya
	// sudah siap saat kendaraan mau keluar.
	exitToken, err := s.tokens.Issue(token.TypeExit, booking.ID, booking.FacilityID, booking.VehicleClass, exitTokenTTL)
	if err != nil {
		return nil, err
	}

	entryTime := time.Now()
	if err := s.repo.Booking.MarkEntered(ctx, s.db, booking.ID, entryTime, exitToken); err != nil {
		return nil, err
	}

	booking.Status = entity.BookingStatusActive
	booking.ActualEntryTime = &entryTime
	booking.ExitToken = &exitToken

	s.log.Info("Entry scanned",
		zap.String("booking_id", booking.ID.String()),
		zap.String("caller_id", callerID),
		zap.Time("entry_time", entryTime),
	)

	return &response.ScanEntryResponse{
		Booking:   response.BookingToResponse(booking, ""),
		ExitToken: exitToken,
	}, nil
}

func (s *bookingService) ScanExit(ctx context.Context, tokenStr, callerID string) (*response.ScanExitResponse, error) {
	claims, err := s.tokens.Verify(tokenStr, token.TypeExit)
	if err != nil {
		return nil, err
	}

	booking, err := s.findBookingForScan(ctx, claims.BookingID, callerID)
	if err != nil {
		return nil, err
	}
	if booking.Status != entity.BookingStatusActive {
		return nil, fmt.Errorf("booking %s is %s: %w", booking.ID.String(), booking.Status, apperrors.ErrInvalidState)
	}
	if booking.ActualEntryTime == nil {
		return nil, fmt.Errorf("booking %s has no entry time: %w", booking.ID.String(), apperrors.ErrInvalidState)
	}

	now := time.Now()
	elapsed := int(math.Ceil(now.Sub(*booking.ActualEntryTime).Hours()))
	if elapsed < 0 {
		elapsed = 0
	}

	var overtimeCharge int64
	if elapsed > booking.DurationHours {
		slot, err := s.repo.Facility.FindSlot(ctx, booking.FacilityID, booking.VehicleClass)
		if err != nil {
			return nil, err
		}
		if slot != nil {
			overtimeCharge = int64(elapsed-booking.DurationHours) * slot.HourlyRate
		}
	}

	err = s.db.WithTx(ctx, func(q database.Querier) error {
		if err := s.repo.Booking.MarkCompleted(ctx, q, booking.ID, now, elapsed, overtimeCharge); err != nil {
			return err
		}
		return s.repo.Facility.ReleaseSlot(ctx, q, booking.FacilityID, booking.VehicleClass)
	})
	if err != nil {
		return nil, err
	}

	booking.Status = entity.BookingStatusCompleted
	booking.ActualExitTime = &now
	booking.ElapsedHours = &elapsed
	booking.OvertimeCharge = overtimeCharge

	// Overtime dibebankan best-effort: kendaraan harus tetap bisa keluar
	// walau saldo tidak cukup. Tagihan yang gagal jadi urusan collections.
	if overtimeCharge > 0 {
		if err := s.chargeOvertime(ctx, booking, overtimeCharge); err != nil {
			s.log.Warn("Overtime charge failed, booking completed anyway",
				zap.Error(err),
				zap.String("booking_id", booking.ID.String()),
				zap.Int64("overtime_charge", overtimeCharge),
			)
		}
	}

	s.log.Info("Exit scanned",
		zap.String("booking_id", booking.ID.String()),
		zap.Int("elapsed_hours", elapsed),
		zap.Int64("overtime_charge", overtimeCharge),
	)

	return &response.ScanExitResponse{
		Booking:        response.BookingToResponse(booking, ""),
		ElapsedHours:   elapsed,
		OvertimeCharge: overtimeCharge,
	}, nil
}

func (s *bookingService) chargeOvertime(ctx context.Context, booking *entity.Booking, amount int64) error {
	return s.db.WithTx(ctx, func(q database.Querier) error {
		if err := s.repo.User.DebitBalance(ctx, q, booking.UserID, amount); err != nil {
			return err
		}

		now := time.Now()
		overtime := &entity.Transaction{
			Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			OrderID:       utils.GenerateOrderID(),
			UserID:        booking.UserID,
			BookingID:     &booking.ID,
			Type:          entity.TransactionTypeOvertimePayment,
			Amount:        amount,
			PaymentMethod: entity.PaymentMethodSaldo,
			Status:        entity.TransactionStatusSuccess,
			Description:   fmt.Sprintf("Overtime payment for booking %s", booking.ID.String()),
		}
		return s.repo.Transaction.Create(ctx, q, overtime)
	})
}

func (s *bookingService) Cancel(ctx context.Context, bookingID, callerID string) error {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return fmt.Errorf("%w: invalid booking ID %s", apperrors.ErrValidation, bookingID)
	}
	callerUUID, err := uuid.Parse(callerID)
	if err != nil {
		return fmt.Errorf("%w: invalid user ID %s", apperrors.ErrValidation, callerID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if booking == nil {
		return fmt.Errorf("booking %s: %w", bookingID, apperrors.ErrNotFound)
	}
	if booking.UserID != callerUUID {
		return fmt.Errorf("booking %s does not belong to caller: %w", bookingID, apperrors.ErrForbidden)
	}
	if booking.Status != entity.BookingStatusPending {
		return fmt.Errorf("booking %s is %s: %w", bookingID, booking.Status, apperrors.ErrInvalidState)
	}

	// Pending booking tidak pernah pegang slot atau saldo, jadi cukup
	// pindah status.
	if err := s.repo.Booking.UpdateStatusFrom(ctx, s.db, booking.ID, entity.BookingStatusPending, entity.BookingStatusCancelled); err != nil {
		return err
	}

	s.log.Info("Booking cancelled",
		zap.String("booking_id", bookingID),
		zap.String("user_id", callerID),
	)

	return nil
}

func (s *bookingService) CancelAdmin(ctx context.Context, bookingID string) error {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return fmt.Errorf("%w: invalid booking ID %s", apperrors.ErrValidation, bookingID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if booking == nil {
		return fmt.Errorf("booking %s: %w", bookingID, apperrors.ErrNotFound)
	}

	switch booking.Status {
	case entity.BookingStatusPending:
		return s.repo.Booking.UpdateStatusFrom(ctx, s.db, booking.ID, entity.BookingStatusPending, entity.BookingStatusCancelled)

	case entity.BookingStatusConfirmed, entity.BookingStatusActive:
		// Slot dikembalikan, saldo tidak: pembayaran yang sudah terjadi
		// tidak di-refund oleh pembatalan administratif.
		err := s.db.WithTx(ctx, func(q database.Querier) error {
			if err := s.repo.Booking.UpdateStatusFrom(ctx, q, booking.ID, booking.Status, entity.BookingStatusCancelled); err != nil {
				return err
			}
			if err := s.repo.Facility.ReleaseSlot(ctx, q, booking.FacilityID, booking.VehicleClass); err != nil {
				return err
			}

			now := time.Now()
			cancellation := &entity.Transaction{
				Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
				OrderID:       utils.GenerateOrderID(),
				UserID:        booking.UserID,
				BookingID:     &booking.ID,
				Type:          entity.TransactionTypeCancellation,
				Amount:        booking.Cost,
				PaymentMethod: entity.PaymentMethodSaldo,
				Status:        entity.TransactionStatusSuccess,
				Description:   fmt.Sprintf("Administrative cancellation of booking %s", booking.ID.String()),
			}
			return s.repo.Transaction.Create(ctx, q, cancellation)
		})
		if err != nil {
			return err
		}

		s.log.Info("Booking cancelled by admin",
			zap.String("booking_id", bookingID),
			zap.String("previous_status", string(booking.Status)),
		)
		return nil

	default:
		return fmt.Errorf("booking %s is %s: %w", bookingID, booking.Status, apperrors.ErrInvalidState)
	}
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", apperrors.ErrValidation, userID)
	}

	bookings, err := s.repo.Booking.FindByUserID(ctx, userUUID, req.Limit(), req.Offset())
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Booking.CountByUserID(ctx, userUUID)
	if err != nil {
		return nil, err
	}

	bookingResponses := make([]response.BookingResponse, len(bookings))
	for i, booking := range bookings {
		var facilityName string
		facility, _ := s.repo.Facility.FindByID(ctx, booking.FacilityID)
		if facility != nil {
			facilityName = facility.Name
		}
		bookingResponses[i] = response.BookingToResponse(booking, facilityName)
	}

	return response.NewPaginatedResponse(bookingResponses, req.Page, req.PerPage, total), nil
}

func (s *bookingService) GetByID(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID %s", apperrors.ErrValidation, bookingID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, apperrors.ErrNotFound)
	}

	var facilityName string
	facility, _ := s.repo.Facility.FindByID(ctx, booking.FacilityID)
	if facility != nil {
		facilityName = facility.Name
	}

	resp := response.BookingToResponse(booking, facilityName)
	return &resp, nil
}

// findBookingForScan memuat booking dari claims token dan menerapkan
// aturan kepemilikan scan: pemilik booking atau pemilik facility.
func (s *bookingService) findBookingForScan(ctx context.Context, bookingID, callerID string) (*entity.Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad booking reference", apperrors.ErrInvalidToken)
	}
	callerUUID, err := uuid.Parse(callerID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", apperrors.ErrValidation, callerID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, apperrors.ErrNotFound)
	}

	if booking.UserID == callerUUID {
		return booking, nil
	}

	facility, err := s.repo.Facility.FindByID(ctx, booking.FacilityID)
	if err != nil {
		return nil, err
	}
	if facility != nil && facility.OwnerID == callerUUID {
		return booking, nil
	}

	return nil, fmt.Errorf("caller is neither booking owner nor facility owner: %w", apperrors.ErrForbidden)
}
