package repository

import (
	"context"
	"fmt"

	"ghostwriter-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	createCharacterQuery = `
        INSERT INTO characters (user_id, name, description, personality_tags, dialogue_style)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `

	getCharactersByIDsQuery = `
        SELECT id, user_id, name, description, personality_tags, dialogue_style, created_at
        FROM characters
        WHERE id = ANY($1)
    `

	listCharactersByUserQuery = `
        SELECT id, user_id, name, description, personality_tags, dialogue_style, created_at
        FROM characters
        WHERE user_id = $1
        ORDER BY created_at DESC
    `

	deleteCharacterQuery = `DELETE FROM characters WHERE id = $1 AND user_id = $2`
)

type pgCharacterRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgCharacterRepository создает новый экземпляр репозитория персонажей.
func NewPgCharacterRepository(db *pgxpool.Pool, logger *zap.Logger) CharacterRepository {
	return &pgCharacterRepository{
		db:     db,
		logger: logger.Named("CharacterRepo"),
	}
}

// Create сохраняет новый пресет персонажа и заполняет ID/CreatedAt.
func (r *pgCharacterRepository) Create(ctx context.Context, character *models.Character) error {
	err := r.db.QueryRow(ctx, createCharacterQuery,
		character.UserID, character.Name, character.Description,
		character.PersonalityTags, character.DialogueStyle,
	).Scan(&character.ID, &character.CreatedAt)
	if err != nil {
		r.logger.Error("Error creating character", zap.String("userID", character.UserID.String()), zap.Error(err))
		return fmt.Errorf("failed to create character: %w", err)
	}
	return nil
}

// GetByIDs возвращает персонажей по списку идентификаторов.
// Отсутствующие идентификаторы просто не попадают в результат.
func (r *pgCharacterRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Character, error) {
	if len(ids) == 0 {
		return []models.Character{}, nil
	}

	var characters []models.Character
	err := pgxscan.Select(ctx, r.db, &characters, getCharactersByIDsQuery, ids)
	if err != nil {
		r.logger.Error("Error getting characters by ids", zap.Error(err))
		return nil, fmt.Errorf("failed to get characters: %w", err)
	}
	if characters == nil {
		characters = []models.Character{}
	}
	return characters, nil
}

// ListByUser возвращает все пресеты персонажей пользователя.
func (r *pgCharacterRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Character, error) {
	var characters []models.Character
	err := pgxscan.Select(ctx, r.db, &characters, listCharactersByUserQuery, userID)
	if err != nil {
		r.logger.Error("Error listing characters", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	if characters == nil {
		characters = []models.Character{}
	}
	return characters, nil
}

// Delete удаляет пресет персонажа, принадлежащий пользователю.
func (r *pgCharacterRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	commandTag, err := r.db.Exec(ctx, deleteCharacterQuery, id, userID)
	if err != nil {
		r.logger.Error("Error deleting character", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete character %s: %w", id, err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
