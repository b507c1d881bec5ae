package models

import (
	"time"

	"github.com/google/uuid"
)

// GenerationMode определяет режим генерации эпизода.
type GenerationMode string

const (
	ModeGenerate   GenerationMode = "generate"   // Новая история, первый эпизод
	ModeContinue   GenerationMode = "continue"   // Следующий эпизод существующей истории
	ModeRewrite    GenerationMode = "rewrite"    // Переписать последний эпизод на месте
	ModeRegenerate GenerationMode = "regenerate" // Синоним rewrite, оставлен для совместимости клиентов
)

// DefaultTotalEpisodes — целевое количество эпизодов, если клиент его не указал.
const DefaultTotalEpisodes = 20

// Wallet представляет баланс токенов пользователя.
type Wallet struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Balance   int       `json:"balance" db:"balance"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Character представляет пресет персонажа, созданный пользователем.
type Character struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	PersonalityTags []string  `json:"personality_tags" db:"personality_tags"`
	DialogueStyle   string    `json:"dialogue_style" db:"dialogue_style"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Scenario представляет пресет сеттинга (фон и стартовая ситуация).
type Scenario struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	SettingText string    `json:"setting_text" db:"setting_text"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Story представляет сериализованную историю.
// Summary хранит накопительное резюме "всего до текущего момента" и
// перезаписывается целиком после каждого успешно сгенерированного эпизода.
type Story struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	Title         string    `json:"title" db:"title"`
	Summary       string    `json:"summary" db:"summary"`
	PlotNotes     string    `json:"plot_notes" db:"plot_notes"`
	GenreDesc     string    `json:"genre_desc" db:"genre_desc"`
	TotalEpisodes int       `json:"total_episodes" db:"total_episodes"`
	NextOptions   []string  `json:"next_options" db:"next_options"`
	IsPublic      bool      `json:"is_public" db:"is_public"`
	IsFinished    bool      `json:"is_finished" db:"is_finished"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// StoryContent представляет один эпизод истории.
// OrderIndex начинается с 1 и растет строго на единицу без пропусков.
type StoryContent struct {
	ID         uuid.UUID `json:"id" db:"id"`
	StoryID    uuid.UUID `json:"story_id" db:"story_id"`
	OrderIndex int       `json:"order_index" db:"order_index"`
	Content    string    `json:"content" db:"content"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// GeneratedEpisode — распарсенный результат одного вызова генерации.
type GeneratedEpisode struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary"`
	NextOptions []string `json:"next_options"`
	IsFinished  bool     `json:"is_finished"`
}

// EpisodePlanItem — один пункт плана ретривера: какой прошлый эпизод
// стоит проверить на наличие релевантных фактов и почему.
type EpisodePlanItem struct {
	Index  int    `json:"idx"`
	Reason string `json:"reason"`
}
