package service

import (
	"context"
	"fmt"
	"strings"

	"ghostwriter-server/internal/models"
	"ghostwriter-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PresetService обслуживает пресеты персонажей и сеттингов.
type PresetService struct {
	charRepo repository.CharacterRepository
	scenRepo repository.ScenarioRepository
	logger   *zap.Logger
}

func NewPresetService(charRepo repository.CharacterRepository, scenRepo repository.ScenarioRepository, logger *zap.Logger) *PresetService {
	return &PresetService{
		charRepo: charRepo,
		scenRepo: scenRepo,
		logger:   logger.Named("PresetService"),
	}
}

// CreateCharacter сохраняет новый пресет персонажа.
func (s *PresetService) CreateCharacter(ctx context.Context, character *models.Character) error {
	if strings.TrimSpace(character.Name) == "" {
		return fmt.Errorf("%w: character name is required", models.ErrBadRequest)
	}
	if character.PersonalityTags == nil {
		character.PersonalityTags = []string{}
	}
	return s.charRepo.Create(ctx, character)
}

// ListCharacters возвращает пресеты персонажей пользователя.
func (s *PresetService) ListCharacters(ctx context.Context, userID uuid.UUID) ([]models.Character, error) {
	return s.charRepo.ListByUser(ctx, userID)
}

// DeleteCharacter удаляет пресет персонажа владельца.
func (s *PresetService) DeleteCharacter(ctx context.Context, id, userID uuid.UUID) error {
	return s.charRepo.Delete(ctx, id, userID)
}

// CreateScenario сохраняет новый пресет сеттинга.
func (s *PresetService) CreateScenario(ctx context.Context, scenario *models.Scenario) error {
	if strings.TrimSpace(scenario.Title) == "" {
		return fmt.Errorf("%w: scenario title is required", models.ErrBadRequest)
	}
	if strings.TrimSpace(scenario.SettingText) == "" {
		return fmt.Errorf("%w: scenario setting text is required", models.ErrBadRequest)
	}
	return s.scenRepo.Create(ctx, scenario)
}

// ListScenarios возвращает пресеты сеттингов пользователя.
func (s *PresetService) ListScenarios(ctx context.Context, userID uuid.UUID) ([]models.Scenario, error) {
	return s.scenRepo.ListByUser(ctx, userID)
}

// DeleteScenario удаляет пресет сеттинга владельца.
func (s *PresetService) DeleteScenario(ctx context.Context, id, userID uuid.UUID) error {
	return s.scenRepo.Delete(ctx, id, userID)
}
