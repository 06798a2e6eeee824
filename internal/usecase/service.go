package usecase

import (
	"context"

	"parking-reservation/internal/data/repository"
	"parking-reservation/internal/gateway"
	"parking-reservation/internal/token"
	"parking-reservation/pkg/database"
	"parking-reservation/pkg/utils"

	"go.uber.org/zap"
)

// PaymentGateway adalah kontrak adapter ke payment gateway eksternal.
// Implementasi production ada di internal/gateway.
type PaymentGateway interface {
	CreateCharge(ctx context.Context, req gateway.ChargeRequest) (*gateway.ChargeResult, error)
	QueryStatus(ctx context.Context, orderID string) (string, error)
	VerifySignature(orderID, statusCode, grossAmount, signature string) bool
}

type Service struct {
	Auth        AuthService
	User        UserService
	Facility    FacilityService
	Booking     BookingService
	Transaction TransactionService
}

func NewService(
	repo *repository.Repository,
	db database.PgxIface,
	tokens *token.Service,
	gw PaymentGateway,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth:        NewAuthService(repo, config, log),
		User:        NewUserService(repo, log),
		Facility:    NewFacilityService(repo, db, log),
		Booking:     NewBookingService(repo, db, tokens, log),
		Transaction: NewTransactionService(repo, db, gw, log),
	}
}
