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

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// Balance mutations. Guarded di level SQL: debit gagal kalau saldo
	// tidak cukup, supaya balance tidak pernah negatif walau ada request
	// concurrent di process lain.
	DebitBalance(ctx context.Context, q database.Querier, userID uuid.UUID, amount int64) error
	CreditBalance(ctx context.Context, q database.Querier, userID uuid.UUID, amount int64) error
}

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, username, email, password, phone, role, balance, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Phone,
		user.Role,
		user.Balance,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("email", user.Email),
		)
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}

	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `
		SELECT id, username, email, password, phone, role, balance, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT id, username, email, password, phone, role, balance, is_active, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.scanOne(ctx, query, email)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	query := `
		SELECT id, username, email, password, phone, role, balance, is_active, created_at, updated_at
		FROM users
		WHERE username = $1
	`
	return r.scanOne(ctx, query, username)
}

func (r *userRepository) scanOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	var user entity.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Phone,
		&user.Role,
		&user.Balance,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find user", zap.Error(err))
		return nil, fmt.Errorf("find user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) DebitBalance(ctx context.Context, q database.Querier, userID uuid.UUID, amount int64) error {
	query := `
		UPDATE users
		SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1 AND balance >= $2
	`

	result, err := q.Exec(ctx, query, userID, amount)
	if err != nil {
		r.log.Error("Failed to debit balance",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int64("amount", amount),
		)
		return fmt.Errorf("debit balance of user %s: %w", userID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("debit %d from user %s: %w", amount, userID.String(), apperrors.ErrInsufficientBalance)
	}

	return nil
}

func (r *userRepository) CreditBalance(ctx context.Context, q database.Querier, userID uuid.UUID, amount int64) error {
	query := `
		UPDATE users
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query, userID, amount)
	if err != nil {
		r.log.Error("Failed to credit balance",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int64("amount", amount),
		)
		return fmt.Errorf("credit balance of user %s: %w", userID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("credit user %s: %w", userID.String(), apperrors.ErrNotFound)
	}

	return nil
}
