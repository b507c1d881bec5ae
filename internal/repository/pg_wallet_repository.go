package repository

import (
	"context"
	"errors"
	"fmt"

	"ghostwriter-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	pgxV5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	getWalletQuery = `SELECT user_id, balance, updated_at FROM wallets WHERE user_id = $1`

	createWalletQuery = `
        INSERT INTO wallets (user_id, balance)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO NOTHING
    `

	// Условное списание: выполняется только при достаточном балансе,
	// иначе не затрагивает ни одной строки.
	debitWalletQuery = `
        UPDATE wallets
        SET balance = balance - $2, updated_at = now()
        WHERE user_id = $1 AND balance >= $2
    `

	creditWalletQuery = `
        UPDATE wallets
        SET balance = balance + $2, updated_at = now()
        WHERE user_id = $1
    `
)

type pgWalletRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgWalletRepository создает новый экземпляр репозитория кошельков.
func NewPgWalletRepository(db *pgxpool.Pool, logger *zap.Logger) WalletRepository {
	return &pgWalletRepository{
		db:     db,
		logger: logger.Named("WalletRepo"),
	}
}

// Get возвращает кошелек пользователя.
func (r *pgWalletRepository) Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := pgxscan.Get(ctx, r.db, &wallet, getWalletQuery, userID)
	if err != nil {
		if errors.Is(err, pgxV5.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Error getting wallet", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get wallet for user %s: %w", userID, err)
	}
	return &wallet, nil
}

// CreateIfAbsent создает кошелек с начальным балансом, если его еще нет.
func (r *pgWalletRepository) CreateIfAbsent(ctx context.Context, userID uuid.UUID, initialBalance int) error {
	_, err := r.db.Exec(ctx, createWalletQuery, userID, initialBalance)
	if err != nil {
		r.logger.Error("Error creating wallet", zap.String("userID", userID.String()), zap.Error(err))
		return fmt.Errorf("failed to create wallet for user %s: %w", userID, err)
	}
	return nil
}

// DebitIfSufficient атомарно списывает cost токенов.
// Отсутствующий кошелек эквивалентен нулевому балансу.
func (r *pgWalletRepository) DebitIfSufficient(ctx context.Context, userID uuid.UUID, cost int) error {
	if cost < 0 {
		return fmt.Errorf("negative debit amount %d: %w", cost, models.ErrBadRequest)
	}

	commandTag, err := r.db.Exec(ctx, debitWalletQuery, userID, cost)
	if err != nil {
		r.logger.Error("Error debiting wallet", zap.String("userID", userID.String()), zap.Int("cost", cost), zap.Error(err))
		return fmt.Errorf("failed to debit wallet for user %s: %w", userID, err)
	}

	if commandTag.RowsAffected() == 0 {
		r.logger.Warn("Debit rejected, insufficient balance", zap.String("userID", userID.String()), zap.Int("cost", cost))
		return models.ErrInsufficientBalance
	}
	return nil
}

// Credit пополняет баланс пользователя.
func (r *pgWalletRepository) Credit(ctx context.Context, userID uuid.UUID, amount int) error {
	commandTag, err := r.db.Exec(ctx, creditWalletQuery, userID, amount)
	if err != nil {
		r.logger.Error("Error crediting wallet", zap.String("userID", userID.String()), zap.Error(err))
		return fmt.Errorf("failed to credit wallet for user %s: %w", userID, err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
