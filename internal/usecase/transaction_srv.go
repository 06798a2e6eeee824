package usecase

import (
	"context"
	"fmt"
	"time"

	"parking-reservation/internal/data/entity"
	"parking-reservation/internal/data/repository"
	"parking-reservation/internal/dto/request"
	"parking-reservation/internal/dto/response"
	"parking-reservation/internal/gateway"
	"parking-reservation/pkg/apperrors"
	"parking-reservation/pkg/database"
	"parking-reservation/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TransactionService interface {
	// CreateTopUp membuat charge di gateway dan mencatat transaksi pending.
	// Saldo baru bertambah saat reconciliation menyatakan success.
	CreateTopUp(ctx context.Context, userID string, req *request.TopUpRequest) (*response.TransactionResponse, error)

	// CheckStatus menarik status dari gateway (pull) lalu reconcile.
	CheckStatus(ctx context.Context, orderID, userID string) (*response.TransactionResponse, error)

	// HandleWebhook menerima push notification gateway lalu reconcile.
	HandleWebhook(ctx context.Context, req *request.WebhookRequest) error

	// SimulateSuccess menandai transaksi sukses tanpa menyentuh gateway.
	// Hanya untuk lingkungan development.
	SimulateSuccess(ctx context.Context, orderID string) (*response.TransactionResponse, error)

	GetUserTransactions(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.TransactionResponse], error)
	GetByOrderID(ctx context.Context, orderID, userID string) (*response.TransactionResponse, error)
}

type transactionService struct {
	repo *repository.Repository
	db   database.PgxIface
	gw   PaymentGateway
	log  *zap.Logger
}

func NewTransactionService(repo *repository.Repository, db database.PgxIface, gw PaymentGateway, log *zap.Logger) TransactionService {
	return &transactionService{
		repo: repo,
		db:   db,
		gw:   gw,
		log:  log.With(zap.String("service", "transaction")),
	}
}

func (s *transactionService) CreateTopUp(ctx context.Context, userID string, req *request.TopUpRequest) (*response.TransactionResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Top-up validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, utils.FormatValidationErrors(errs))
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", apperrors.ErrValidation, userID)
	}

	user, err := s.repo.User.FindByID(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
	}

	orderID := utils.GenerateOrderID()
	method := entity.PaymentMethod(req.PaymentMethod)

	charge, err := s.gw.CreateCharge(ctx, gateway.ChargeRequest{
		OrderID:       orderID,
		Amount:        req.Amount,
		Method:        method,
		CustomerName:  user.Username,
		CustomerEmail: user.Email,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	transaction := &entity.Transaction{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		OrderID:       orderID,
		UserID:        userUUID,
		Type:          entity.TransactionTypeTopUp,
		Amount:        req.Amount,
		PaymentMethod: method,
		Status:        entity.TransactionStatusPending,
		VANumber:      charge.VANumber,
		Bank:          charge.Bank,
		RedirectURL:   charge.RedirectURL,
		QRString:      charge.QRString,
		Description:   fmt.Sprintf("Top up saldo via %s", method),
	}

	if err := s.repo.Transaction.Create(ctx, s.db, transaction); err != nil {
		return nil, err
	}

	s.log.Info("Top-up created",
		zap.String("order_id", orderID),
		zap.String("user_id", userID),
		zap.Int64("amount", req.Amount),
		zap.String("payment_method", req.PaymentMethod),
	)

	resp := response.TransactionToResponse(transaction)
	return &resp, nil
}

func (s *transactionService) CheckStatus(ctx context.Context, orderID, userID string) (*response.TransactionResponse, error) {
	transaction, err := s.findOwnedTransaction(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	// Transaksi terminal tidak perlu lagi ditanyakan ke gateway.
	if !transaction.Status.Terminal() {
		gatewayStatus, err := s.gw.QueryStatus(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if transaction, err = s.reconcile(ctx, orderID, gatewayStatus); err != nil {
			return nil, err
		}
	}

	resp := response.TransactionToResponse(transaction)
	return &resp, nil
}

func (s *transactionService) HandleWebhook(ctx context.Context, req *request.WebhookRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, utils.FormatValidationErrors(errs))
	}

	if !s.gw.VerifySignature(req.OrderID, req.StatusCode, req.GrossAmount, req.SignatureKey) {
		s.log.Warn("Webhook signature mismatch", zap.String("order_id", req.OrderID))
		return fmt.Errorf("webhook for %s: %w", req.OrderID, apperrors.ErrUnauthorized)
	}

	gatewayStatus := req.TransactionStatus
	// Capture dengan fraud deny diperlakukan sebagai gagal.
	if gatewayStatus == gateway.StatusCapture && req.FraudStatus == "deny" {
		gatewayStatus = gateway.StatusDeny
	}

	if _, err := s.reconcile(ctx, req.OrderID, gatewayStatus); err != nil {
		return err
	}
	return nil
}

func (s *transactionService) SimulateSuccess(ctx context.Context, orderID string) (*response.TransactionResponse, error) {
	transaction, err := s.reconcile(ctx, orderID, gateway.StatusSettlement)
	if err != nil {
		return nil, err
	}

	s.log.Info("Transaction success simulated", zap.String("order_id", orderID))

	resp := response.TransactionToResponse(transaction)
	return &resp, nil
}

// reconcile adalah satu-satunya jalur transisi status transaksi. Semua
// trigger (webhook, poll, simulate) lewat sini, jadi efeknya idempotent:
// row di-lock FOR UPDATE, transaksi terminal jadi no-op, dan kredit saldo
// top-up hanya terjadi pada transisi pending -> success yang menang.
func (s *transactionService) reconcile(ctx context.Context, orderID, gatewayStatus string) (*entity.Transaction, error) {
	var result *entity.Transaction

	err := s.db.WithTx(ctx, func(q database.Querier) error {
		transaction, err := s.repo.Transaction.FindByOrderIDForUpdate(ctx, q, orderID)
		if err != nil {
			return err
		}
		if transaction == nil {
			return fmt.Errorf("order %s: %w", orderID, apperrors.ErrNotFound)
		}

		if transaction.Status.Terminal() {
			result = transaction
			return nil
		}

		newStatus := gateway.MapStatus(gatewayStatus)
		if newStatus == entity.TransactionStatusPending {
			result = transaction
			return nil
		}

		if err := s.repo.Transaction.UpdateStatusFrom(ctx, q, transaction.ID, entity.TransactionStatusPending, newStatus); err != nil {
			return err
		}

		if newStatus == entity.TransactionStatusSuccess && transaction.Type == entity.TransactionTypeTopUp {
			if err := s.repo.User.CreditBalance(ctx, q, transaction.UserID, transaction.Amount); err != nil {
				return err
			}

			now := time.Now()
			credit := &entity.Transaction{
				Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
				OrderID:       utils.GenerateOrderID(),
				UserID:        transaction.UserID,
				Type:          entity.TransactionTypeSaldoCredit,
				Amount:        transaction.Amount,
				PaymentMethod: entity.PaymentMethodSaldo,
				Status:        entity.TransactionStatusSuccess,
				Description:   fmt.Sprintf("Saldo credit from top up %s", orderID),
			}
			if err := s.repo.Transaction.Create(ctx, q, credit); err != nil {
				return err
			}
		}

		transaction.Status = newStatus
		result = transaction

		s.log.Info("Transaction reconciled",
			zap.String("order_id", orderID),
			zap.String("gateway_status", gatewayStatus),
			zap.String("new_status", string(newStatus)),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *transactionService) GetUserTransactions(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.TransactionResponse], error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", apperrors.ErrValidation, userID)
	}

	transactions, err := s.repo.Transaction.FindByUserID(ctx, userUUID, req.Limit(), req.Offset())
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Transaction.CountByUserID(ctx, userUUID)
	if err != nil {
		return nil, err
	}

	transactionResponses := make([]response.TransactionResponse, len(transactions))
	for i, transaction := range transactions {
		transactionResponses[i] = response.TransactionToResponse(transaction)
	}

	return response.NewPaginatedResponse(transactionResponses, req.Page, req.PerPage, total), nil
}

func (s *transactionService) GetByOrderID(ctx context.Context, orderID, userID string) (*response.TransactionResponse, error) {
	transaction, err := s.findOwnedTransaction(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	resp := response.TransactionToResponse(transaction)
	return &resp, nil
}

func (s *transactionService) findOwnedTransaction(ctx context.Context, orderID, userID string) (*entity.Transaction, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", apperrors.ErrValidation, userID)
	}

	transaction, err := s.repo.Transaction.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, apperrors.ErrNotFound)
	}
	if transaction.UserID != userUUID {
		return nil, fmt.Errorf("order %s does not belong to caller: %w", orderID, apperrors.ErrForbidden)
	}

	return transaction, nil
}
