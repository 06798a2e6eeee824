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

const transactionColumns = `id, order_id, user_id, booking_id, type, amount, payment_method, status,
	va_number, bank, redirect_url, qr_string, description, created_at, updated_at`

type TransactionRepository interface {
	// Create menerima Querier supaya ledger entry bisa di-append di dalam
	// unit atomic yang sama dengan mutasi balance/slot yang dicatatnya.
	Create(ctx context.Context, q database.Querier, transaction *entity.Transaction) error

	FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error)
	FindByOrderID(ctx context.Context, orderID string) (*entity.Transaction, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Transaction, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// FindByOrderIDForUpdate mengunci row transaksi selama reconciliation
	// berjalan, supaya webhook/poll/simulate yang balapan diserialisasi.
	FindByOrderIDForUpdate(ctx context.Context, q database.Querier, orderID string) (*entity.Transaction, error)

	// UpdateStatusFrom hanya memindahkan status maju dari `from`.
	UpdateStatusFrom(ctx context.Context, q database.Querier, id uuid.UUID, from, to entity.TransactionStatus) error
}

type transactionRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTransactionRepository(db database.PgxIface, log *zap.Logger) TransactionRepository {
	return &transactionRepository{
		db:  db,
		log: log.With(zap.String("repository", "transaction")),
	}
}

func (r *transactionRepository) Create(ctx context.Context, q database.Querier, transaction *entity.Transaction) error {
	query := `
		INSERT INTO transactions (id, order_id, user_id, booking_id, type, amount, payment_method, status,
		                          va_number, bank, redirect_url, qr_string, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := q.Exec(ctx, query,
		transaction.ID,
		transaction.OrderID,
		transaction.UserID,
		transaction.BookingID,
		transaction.Type,
		transaction.Amount,
		transaction.PaymentMethod,
		transaction.Status,
		transaction.VANumber,
		transaction.Bank,
		transaction.RedirectURL,
		transaction.QRString,
		transaction.Description,
		transaction.CreatedAt,
		transaction.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create transaction",
			zap.Error(err),
			zap.String("order_id", transaction.OrderID),
			zap.String("type", string(transaction.Type)),
		)
		return fmt.Errorf("create transaction %s: %w", transaction.OrderID, err)
	}

	return nil
}

func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *transactionRepository) FindByOrderID(ctx context.Context, orderID string) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE order_id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, orderID))
}

func (r *transactionRepository) FindByOrderIDForUpdate(ctx context.Context, q database.Querier, orderID string) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE order_id = $1 FOR UPDATE`
	return r.scanOne(q.QueryRow(ctx, query, orderID))
}

func (r *transactionRepository) scanOne(row pgx.Row) (*entity.Transaction, error) {
	var transaction entity.Transaction
	err := row.Scan(
		&transaction.ID,
		&transaction.OrderID,
		&transaction.UserID,
		&transaction.BookingID,
		&transaction.Type,
		&transaction.Amount,
		&transaction.PaymentMethod,
		&transaction.Status,
		&transaction.VANumber,
		&transaction.Bank,
		&transaction.RedirectURL,
		&transaction.QRString,
		&transaction.Description,
		&transaction.CreatedAt,
		&transaction.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find transaction", zap.Error(err))
		return nil, fmt.Errorf("find transaction: %w", err)
	}

	return &transaction, nil
}

func (r *transactionRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find transactions by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find transactions by user ID %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var transactions []*entity.Transaction
	for rows.Next() {
		var transaction entity.Transaction
		err := rows.Scan(
			&transaction.ID,
			&transaction.OrderID,
			&transaction.UserID,
			&transaction.BookingID,
			&transaction.Type,
			&transaction.Amount,
			&transaction.PaymentMethod,
			&transaction.Status,
			&transaction.VANumber,
			&transaction.Bank,
			&transaction.RedirectURL,
			&transaction.QRString,
			&transaction.Description,
			&transaction.CreatedAt,
			&transaction.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan transaction row", zap.Error(err))
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		transactions = append(transactions, &transaction)
	}

	return transactions, nil
}

func (r *transactionRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE user_id = $1`

	var count int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count transactions by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count transactions by user ID %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *transactionRepository) UpdateStatusFrom(ctx context.Context, q database.Querier, id uuid.UUID, from, to entity.TransactionStatus) error {
	query := `UPDATE transactions SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`

	result, err := q.Exec(ctx, query, id, from, to)
	if err != nil {
		r.log.Error("Failed to update transaction status",
			zap.Error(err),
			zap.String("transaction_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return fmt.Errorf("update transaction %s status %s -> %s: %w", id.String(), from, to, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s is no longer %s: %w", id.String(), from, apperrors.ErrInvalidState)
	}

	return nil
}
