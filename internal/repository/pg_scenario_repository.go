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
	createScenarioQuery = `
        INSERT INTO scenarios (user_id, title, setting_text)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `

	getScenarioByIDQuery = `
        SELECT id, user_id, title, setting_text, created_at
        FROM scenarios
        WHERE id = $1
    `

	listScenariosByUserQuery = `
        SELECT id, user_id, title, setting_text, created_at
        FROM scenarios
        WHERE user_id = $1
        ORDER BY created_at DESC
    `

	deleteScenarioQuery = `DELETE FROM scenarios WHERE id = $1 AND user_id = $2`
)

type pgScenarioRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgScenarioRepository создает новый экземпляр репозитория сценариев.
func NewPgScenarioRepository(db *pgxpool.Pool, logger *zap.Logger) ScenarioRepository {
	return &pgScenarioRepository{
		db:     db,
		logger: logger.Named("ScenarioRepo"),
	}
}

// Create сохраняет новый пресет сценария и заполняет ID/CreatedAt.
func (r *pgScenarioRepository) Create(ctx context.Context, scenario *models.Scenario) error {
	err := r.db.QueryRow(ctx, createScenarioQuery,
		scenario.UserID, scenario.Title, scenario.SettingText,
	).Scan(&scenario.ID, &scenario.CreatedAt)
	if err != nil {
		r.logger.Error("Error creating scenario", zap.String("userID", scenario.UserID.String()), zap.Error(err))
		return fmt.Errorf("failed to create scenario: %w", err)
	}
	return nil
}

// GetByID возвращает сценарий по идентификатору.
func (r *pgScenarioRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Scenario, error) {
	var scenario models.Scenario
	err := pgxscan.Get(ctx, r.db, &scenario, getScenarioByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgxV5.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Error getting scenario", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get scenario %s: %w", id, err)
	}
	return &scenario, nil
}

// ListByUser возвращает все пресеты сценариев пользователя.
func (r *pgScenarioRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Scenario, error) {
	var scenarios []models.Scenario
	err := pgxscan.Select(ctx, r.db, &scenarios, listScenariosByUserQuery, userID)
	if err != nil {
		r.logger.Error("Error listing scenarios", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	if scenarios == nil {
		scenarios = []models.Scenario{}
	}
	return scenarios, nil
}

// Delete удаляет пресет сценария, принадлежащий пользователю.
func (r *pgScenarioRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	commandTag, err := r.db.Exec(ctx, deleteScenarioQuery, id, userID)
	if err != nil {
		r.logger.Error("Error deleting scenario", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete scenario %s: %w", id, err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
