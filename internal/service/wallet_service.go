package service

import (
	"context"
	"fmt"

	"ghostwriter-server/internal/models"
	"ghostwriter-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WalletService обслуживает кошельки токенов.
type WalletService struct {
	walletRepo repository.WalletRepository
	logger     *zap.Logger
}

func NewWalletService(walletRepo repository.WalletRepository, logger *zap.Logger) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
		logger:     logger.Named("WalletService"),
	}
}

// GetWallet возвращает кошелек пользователя, создавая пустой при первом
// обращении.
func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	if err := s.walletRepo.CreateIfAbsent(ctx, userID, 0); err != nil {
		return nil, err
	}
	return s.walletRepo.Get(ctx, userID)
}

// TopUp пополняет баланс пользователя на amount токенов.
func (s *WalletService) TopUp(ctx context.Context, userID uuid.UUID, amount int) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: top-up amount must be positive", models.ErrBadRequest)
	}
	if err := s.walletRepo.CreateIfAbsent(ctx, userID, 0); err != nil {
		return nil, err
	}
	if err := s.walletRepo.Credit(ctx, userID, amount); err != nil {
		return nil, err
	}
	s.logger.Info("Wallet credited", zap.String("userID", userID.String()), zap.Int("amount", amount))
	return s.walletRepo.Get(ctx, userID)
}
