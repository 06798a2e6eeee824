package repository

import (
	"parking-reservation/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User        UserRepository
	Session     SessionRepository
	Facility    FacilityRepository
	Booking     BookingRepository
	Transaction TransactionRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:        NewUserRepository(db, log),
		Session:     NewSessionRepository(db, log),
		Facility:    NewFacilityRepository(db, log),
		Booking:     NewBookingRepository(db, log),
		Transaction: NewTransactionRepository(db, log),
	}
}
