package repository

import (
	"context"

	"ghostwriter-server/internal/models"

	"github.com/google/uuid"
)

// WalletRepository — доступ к балансам токенов.
type WalletRepository interface {
	// Get возвращает кошелек пользователя или models.ErrNotFound.
	Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	// CreateIfAbsent создает кошелек с начальным балансом, если его еще нет.
	CreateIfAbsent(ctx context.Context, userID uuid.UUID, initialBalance int) error
	// DebitIfSufficient атомарно списывает cost токенов, только если баланс достаточен.
	// Возвращает models.ErrInsufficientBalance, если списание невозможно.
	DebitIfSufficient(ctx context.Context, userID uuid.UUID, cost int) error
	// Credit пополняет баланс пользователя.
	Credit(ctx context.Context, userID uuid.UUID, amount int) error
}

// CharacterRepository — пресеты персонажей.
type CharacterRepository interface {
	Create(ctx context.Context, character *models.Character) error
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Character, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Character, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// ScenarioRepository — пресеты сеттингов.
type ScenarioRepository interface {
	Create(ctx context.Context, scenario *models.Scenario) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Scenario, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Scenario, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// StoryRepository — истории.
type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Story, error)
	// UpdateAfterEpisode перезаписывает резюме, варианты продолжения,
	// заметки по сюжету и флаг завершения после успешной генерации.
	UpdateAfterEpisode(ctx context.Context, id uuid.UUID, summary string, nextOptions []string, plotNotes string, isFinished bool) error
	SetPublic(ctx context.Context, id, userID uuid.UUID, isPublic bool) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// StoryContentRepository — эпизоды историй.
type StoryContentRepository interface {
	// Insert вставляет эпизод с заданным order_index.
	// Нарушение уникальности (story_id, order_index) означает гонку
	// параллельных продолжений и возвращается как models.ErrEpisodeConflict.
	Insert(ctx context.Context, content *models.StoryContent) error
	// UpdateAt перезаписывает текст эпизода по (story_id, order_index).
	UpdateAt(ctx context.Context, storyID uuid.UUID, orderIndex int, content string) error
	ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.StoryContent, error)
	// LatestIndex возвращает максимальный order_index истории, 0 если эпизодов нет.
	LatestIndex(ctx context.Context, storyID uuid.UUID) (int, error)
}

// GenerationGuard — блокировка параллельных генераций одного пользователя.
type GenerationGuard interface {
	// Acquire захватывает блокировку и возвращает функцию освобождения.
	// Возвращает models.ErrUserHasActiveGeneration, если блокировка уже занята.
	Acquire(ctx context.Context, userID uuid.UUID) (release func(), err error)
}
