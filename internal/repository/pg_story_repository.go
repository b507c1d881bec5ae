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
	createStoryQuery = `
        INSERT INTO stories (user_id, title, summary, plot_notes, genre_desc, total_episodes, next_options, is_finished)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at
    `

	getStoryByIDQuery = `
        SELECT id, user_id, title, summary, plot_notes, genre_desc, total_episodes,
               next_options, is_public, is_finished, created_at, updated_at
        FROM stories
        WHERE id = $1
    `

	listStoriesByUserQuery = `
        SELECT id, user_id, title, summary, plot_notes, genre_desc, total_episodes,
               next_options, is_public, is_finished, created_at, updated_at
        FROM stories
        WHERE user_id = $1
        ORDER BY created_at DESC
    `

	// Резюме и варианты продолжения перезаписываются целиком, не дописываются
	updateStoryAfterEpisodeQuery = `
        UPDATE stories
        SET summary = $2, next_options = $3, plot_notes = $4, is_finished = $5, updated_at = now()
        WHERE id = $1
    `

	setStoryPublicQuery = `
        UPDATE stories
        SET is_public = $3, updated_at = now()
        WHERE id = $1 AND user_id = $2
    `

	// Эпизоды удаляются каскадом (FK story_contents.story_id)
	deleteStoryQuery = `DELETE FROM stories WHERE id = $1 AND user_id = $2`
)

type pgStoryRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgStoryRepository создает новый экземпляр репозитория историй.
func NewPgStoryRepository(db *pgxpool.Pool, logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{
		db:     db,
		logger: logger.Named("StoryRepo"),
	}
}

// Create сохраняет новую историю и заполняет ID/CreatedAt/UpdatedAt.
func (r *pgStoryRepository) Create(ctx context.Context, story *models.Story) error {
	if story.NextOptions == nil {
		story.NextOptions = []string{}
	}
	err := r.db.QueryRow(ctx, createStoryQuery,
		story.UserID, story.Title, story.Summary, story.PlotNotes,
		story.GenreDesc, story.TotalEpisodes, story.NextOptions, story.IsFinished,
	).Scan(&story.ID, &story.CreatedAt, &story.UpdatedAt)
	if err != nil {
		r.logger.Error("Error creating story", zap.String("userID", story.UserID.String()), zap.Error(err))
		return fmt.Errorf("failed to create story: %w", err)
	}
	return nil
}

// GetByID возвращает историю по идентификатору.
func (r *pgStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	var story models.Story
	err := pgxscan.Get(ctx, r.db, &story, getStoryByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgxV5.ErrNoRows) {
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Error getting story", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get story %s: %w", id, err)
	}
	return &story, nil
}

// ListByUser возвращает истории пользователя, новые первыми.
func (r *pgStoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Story, error) {
	var stories []models.Story
	err := pgxscan.Select(ctx, r.db, &stories, listStoriesByUserQuery, userID)
	if err != nil {
		r.logger.Error("Error listing stories", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	if stories == nil {
		stories = []models.Story{}
	}
	return stories, nil
}

// UpdateAfterEpisode перезаписывает накопительное состояние истории.
func (r *pgStoryRepository) UpdateAfterEpisode(ctx context.Context, id uuid.UUID, summary string, nextOptions []string, plotNotes string, isFinished bool) error {
	if nextOptions == nil {
		nextOptions = []string{}
	}
	commandTag, err := r.db.Exec(ctx, updateStoryAfterEpisodeQuery, id, summary, nextOptions, plotNotes, isFinished)
	if err != nil {
		r.logger.Error("Error updating story after episode", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to update story %s: %w", id, err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	return nil
}

// SetPublic переключает видимость истории.
func (r *pgStoryRepository) SetPublic(ctx context.Context, id, userID uuid.UUID, isPublic bool) error {
	commandTag, err := r.db.Exec(ctx, setStoryPublicQuery, id, userID, isPublic)
	if err != nil {
		r.logger.Error("Error setting story visibility", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to set story visibility %s: %w", id, err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	return nil
}

// Delete удаляет историю вместе с эпизодами.
func (r *pgStoryRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	commandTag, err := r.db.Exec(ctx, deleteStoryQuery, id, userID)
	if err != nil {
		r.logger.Error("Error deleting story", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete story %s: %w", id, err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	return nil
}
