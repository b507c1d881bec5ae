package handler

import (
	"ghostwriter-server/internal/models"

	"github.com/google/uuid"
)

// generateEpisodeRequest — тело POST /api/generate. Режим определяет набор
// обязательных полей: generate не требует story_id, остальные требуют.
type generateEpisodeRequest struct {
	Mode             models.GenerationMode `json:"mode"`
	StoryID          *uuid.UUID            `json:"story_id"`
	CharacterIDs     []uuid.UUID           `json:"character_ids"`
	ScenarioID       *uuid.UUID            `json:"scenario_id"`
	CustomCharacters string                `json:"custom_characters"`
	CustomScenario   string                `json:"custom_scenario"`
	RelationshipDesc string                `json:"relationship_desc"`
	Genre            string                `json:"genre"`
	PlotNotes        string                `json:"plot_notes"`
	NextDirection    string                `json:"next_direction"`
	UserTitle        string                `json:"user_title"`
	TotalEpisodes    int                   `json:"total_episodes"`
	EpisodeIndex     int                   `json:"episode_index"`
}

// rlmGenerateRequest — тело POST /api/rlm-generate.
type rlmGenerateRequest struct {
	StoryID          *uuid.UUID `json:"story_id"`
	NextDirection    string     `json:"next_direction"`
	GenreDesc        string     `json:"genre_desc"`
	UserTitle        string     `json:"user_title"`
	ManualCharacters []string   `json:"manual_characters"`
}

// setVisibilityRequest — тело PATCH /api/stories/:id/visibility.
type setVisibilityRequest struct {
	IsPublic *bool `json:"is_public" binding:"required"`
}

// createCharacterRequest — тело POST /api/characters.
type createCharacterRequest struct {
	Name            string   `json:"name" binding:"required"`
	Description     string   `json:"description"`
	PersonalityTags []string `json:"personality_tags"`
	DialogueStyle   string   `json:"dialogue_style"`
}

// createScenarioRequest — тело POST /api/scenarios.
type createScenarioRequest struct {
	Title       string `json:"title" binding:"required"`
	SettingText string `json:"setting_text" binding:"required"`
}

// topUpRequest — тело POST /api/wallet/topup.
type topUpRequest struct {
	Amount int `json:"amount" binding:"required"`
}
