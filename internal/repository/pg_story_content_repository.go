package repository

import (
	"context"
	"errors"
	"fmt"

	"ghostwriter-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	insertStoryContentQuery = `
        INSERT INTO story_contents (story_id, order_index, content)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `

	updateStoryContentAtQuery = `
        UPDATE story_contents
        SET content = $3
        WHERE story_id = $1 AND order_index = $2
    `

	listStoryContentsQuery = `
        SELECT id, story_id, order_index, content, created_at
        FROM story_contents
        WHERE story_id = $1
        ORDER BY order_index ASC
    `

	latestStoryContentIndexQuery = `
        SELECT COALESCE(MAX(order_index), 0)
        FROM story_contents
        WHERE story_id = $1
    `
)

// Код ошибки PostgreSQL unique_violation
const pgUniqueViolationCode = "23505"

type pgStoryContentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgStoryContentRepository создает новый экземпляр репозитория эпизодов.
func NewPgStoryContentRepository(db *pgxpool.Pool, logger *zap.Logger) StoryContentRepository {
	return &pgStoryContentRepository{
		db:     db,
		logger: logger.Named("StoryContentRepo"),
	}
}

// Insert вставляет эпизод по свободному order_index. Если другой запрос успел
// занять тот же индекс, возвращается models.ErrEpisodeConflict.
func (r *pgStoryContentRepository) Insert(ctx context.Context, content *models.StoryContent) error {
	err := r.db.QueryRow(ctx, insertStoryContentQuery,
		content.StoryID, content.OrderIndex, content.Content,
	).Scan(&content.ID, &content.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			r.logger.Warn("Episode index already taken",
				zap.String("storyID", content.StoryID.String()),
				zap.Int("orderIndex", content.OrderIndex))
			return models.ErrEpisodeConflict
		}
		r.logger.Error("Error inserting episode",
			zap.String("storyID", content.StoryID.String()),
			zap.Int("orderIndex", content.OrderIndex),
			zap.Error(err))
		return fmt.Errorf("failed to insert episode: %w", err)
	}
	return nil
}

// UpdateAt заменяет текст эпизода на указанной позиции.
func (r *pgStoryContentRepository) UpdateAt(ctx context.Context, storyID uuid.UUID, orderIndex int, content string) error {
	commandTag, err := r.db.Exec(ctx, updateStoryContentAtQuery, storyID, orderIndex, content)
	if err != nil {
		r.logger.Error("Error updating episode",
			zap.String("storyID", storyID.String()),
			zap.Int("orderIndex", orderIndex),
			zap.Error(err))
		return fmt.Errorf("failed to update episode: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListByStory возвращает эпизоды истории в порядке повествования.
func (r *pgStoryContentRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.StoryContent, error) {
	var contents []models.StoryContent
	err := pgxscan.Select(ctx, r.db, &contents, listStoryContentsQuery, storyID)
	if err != nil {
		r.logger.Error("Error listing episodes", zap.String("storyID", storyID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	if contents == nil {
		contents = []models.StoryContent{}
	}
	return contents, nil
}

// LatestIndex возвращает номер последнего эпизода истории, 0 если эпизодов нет.
func (r *pgStoryContentRepository) LatestIndex(ctx context.Context, storyID uuid.UUID) (int, error) {
	var latest int
	err := r.db.QueryRow(ctx, latestStoryContentIndexQuery, storyID).Scan(&latest)
	if err != nil {
		r.logger.Error("Error getting latest episode index", zap.String("storyID", storyID.String()), zap.Error(err))
		return 0, fmt.Errorf("failed to get latest episode index: %w", err)
	}
	return latest, nil
}
