package repository

import (
	"context"
	"fmt"
	"time"

	"ghostwriter-server/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const generationLockKeyPrefix = "generation_lock:"

type redisGenerationGuard struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisGenerationGuard создает блокировку генерации на Redis. TTL страхует
// от вечного зависания замка после падения процесса.
func NewRedisGenerationGuard(client *redis.Client, ttl time.Duration, logger *zap.Logger) GenerationGuard {
	return &redisGenerationGuard{
		client: client,
		ttl:    ttl,
		logger: logger.Named("GenerationGuard"),
	}
}

// Acquire захватывает блокировку генерации для пользователя. Если другая
// генерация уже идет, возвращается models.ErrUserHasActiveGeneration.
func (g *redisGenerationGuard) Acquire(ctx context.Context, userID uuid.UUID) (func(), error) {
	key := generationLockKeyPrefix + userID.String()

	acquired, err := g.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		g.logger.Error("Error acquiring generation lock", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to acquire generation lock: %w", err)
	}
	if !acquired {
		return nil, models.ErrUserHasActiveGeneration
	}

	release := func() {
		// Снимаем замок в фоне от исходного контекста: он мог быть уже отменен
		delCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.client.Del(delCtx, key).Err(); err != nil {
			g.logger.Warn("Error releasing generation lock", zap.String("userID", userID.String()), zap.Error(err))
		}
	}
	return release, nil
}
