package service

import (
	"context"
	"errors"
	"fmt"

	"ghostwriter-server/internal/ai"
	"ghostwriter-server/internal/models"
	"ghostwriter-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Стоимость одного эпизода в токенах для обычного пути генерации.
const episodeTokenCost = 1

const defaultGenre = "fantasy"

// GenerateParams — параметры создания новой истории с первым эпизодом.
type GenerateParams struct {
	UserID           uuid.UUID
	CharacterIDs     []uuid.UUID
	ScenarioID       *uuid.UUID
	CustomCharacters string
	CustomScenario   string
	RelationshipDesc string
	Genre            string
	PlotNotes        string
	NextDirection    string
	UserTitle        string
	TotalEpisodes    int
}

// ContinueParams — параметры генерации следующего эпизода. Genre
// переопределяет жанр, сохраненный в истории; NextDirection — свободный
// текст с указанием, куда вести сюжет.
type ContinueParams struct {
	UserID           uuid.UUID
	StoryID          uuid.UUID
	CharacterIDs     []uuid.UUID
	ScenarioID       *uuid.UUID
	CustomCharacters string
	CustomScenario   string
	RelationshipDesc string
	Genre            string
	PlotNotes        string
	NextDirection    string
}

// RewriteParams — параметры переписывания последнего эпизода на месте.
// EpisodeIndex опционален; если задан, он обязан указывать на последний
// эпизод, переписывание середины истории не поддерживается.
type RewriteParams struct {
	UserID           uuid.UUID
	StoryID          uuid.UUID
	CharacterIDs     []uuid.UUID
	ScenarioID       *uuid.UUID
	CustomCharacters string
	CustomScenario   string
	RelationshipDesc string
	Genre            string
	PlotNotes        string
	NextDirection    string
	EpisodeIndex     int
}

// EpisodeResult — результат успешной генерации.
type EpisodeResult struct {
	StoryID    uuid.UUID               `json:"story_id"`
	OrderIndex int                     `json:"order_index"`
	Episode    models.GeneratedEpisode `json:"episode"`
}

// EpisodeService оркестрирует генерацию эпизодов: проверки, сборка промпта,
// вызов провайдера, разбор ответа, сохранение и списание токенов.
// Списание выполняется строго ПОСЛЕ успешного сохранения.
type EpisodeService struct {
	walletRepo  repository.WalletRepository
	charRepo    repository.CharacterRepository
	scenRepo    repository.ScenarioRepository
	storyRepo   repository.StoryRepository
	contentRepo repository.StoryContentRepository
	guard       repository.GenerationGuard
	aiClient    ai.Client
	prompts     *PromptBuilder
	parser      *ResponseParser
	logger      *zap.Logger
}

func NewEpisodeService(
	walletRepo repository.WalletRepository,
	charRepo repository.CharacterRepository,
	scenRepo repository.ScenarioRepository,
	storyRepo repository.StoryRepository,
	contentRepo repository.StoryContentRepository,
	guard repository.GenerationGuard,
	aiClient ai.Client,
	prompts *PromptBuilder,
	parser *ResponseParser,
	logger *zap.Logger,
) *EpisodeService {
	return &EpisodeService{
		walletRepo:  walletRepo,
		charRepo:    charRepo,
		scenRepo:    scenRepo,
		storyRepo:   storyRepo,
		contentRepo: contentRepo,
		guard:       guard,
		aiClient:    aiClient,
		prompts:     prompts,
		parser:      parser,
		logger:      logger.Named("EpisodeService"),
	}
}

// ensureBalance проверяет, что на кошельке хватает токенов, до каких-либо
// обращений к провайдеру. Само списание произойдет позже, атомарно.
func (s *EpisodeService) ensureBalance(ctx context.Context, userID uuid.UUID, cost int) error {
	wallet, err := s.walletRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrInsufficientBalance
		}
		return err
	}
	if wallet.Balance < cost {
		return models.ErrInsufficientBalance
	}
	return nil
}

// loadPromptContext загружает пресеты для указанных идентификаторов.
// Пустые идентификаторы допустимы: тогда соответствующая часть контекста
// должна прийти свободным текстом.
func (s *EpisodeService) loadPromptContext(ctx context.Context, characterIDs []uuid.UUID, scenarioID *uuid.UUID, customCharacters, customScenario string) (PromptContext, error) {
	pc := PromptContext{
		CustomCharacters: customCharacters,
		CustomScenario:   customScenario,
	}
	if len(characterIDs) > 0 && customCharacters == "" {
		characters, err := s.charRepo.GetByIDs(ctx, characterIDs)
		if err != nil {
			return PromptContext{}, err
		}
		pc.PresetCharacters = characters
	}
	if scenarioID != nil && customScenario == "" {
		scenario, err := s.scenRepo.GetByID(ctx, *scenarioID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return PromptContext{}, fmt.Errorf("%w: scenario preset", models.ErrMissingContext)
			}
			return PromptContext{}, err
		}
		pc.PresetScenario = scenario
	}
	return pc, nil
}

// generateEpisode выполняет один вызов провайдера и разбирает ответ.
func (s *EpisodeService) generateEpisode(ctx context.Context, pc PromptContext) (*models.GeneratedEpisode, error) {
	systemPrompt, userPrompt, err := s.prompts.BuildEpisodePrompt(pc)
	if err != nil {
		return nil, err
	}
	raw, usage, err := s.aiClient.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Provider response received",
		zap.Int("promptTokens", usage.PromptTokens),
		zap.Int("completionTokens", usage.CompletionTokens))
	return s.parser.ParseEpisode(raw)
}

// debitAfterPersist списывает стоимость после успешного сохранения.
// Контент уже сохранен, поэтому сбой списания не откатывает результат.
func (s *EpisodeService) debitAfterPersist(ctx context.Context, userID uuid.UUID, cost int) {
	if err := s.walletRepo.DebitIfSufficient(ctx, userID, cost); err != nil {
		s.logger.Error("Failed to debit wallet after successful persistence",
			zap.String("userID", userID.String()),
			zap.Int("cost", cost),
			zap.Error(err))
	}
}

// normalizeTotalEpisodes приводит целевую длину истории к допустимому диапазону.
func normalizeTotalEpisodes(total int) int {
	if total <= 0 {
		return models.DefaultTotalEpisodes
	}
	if total > 500 {
		return 500
	}
	return total
}

// Generate создает новую историю и генерирует ее первый эпизод.
func (s *EpisodeService) Generate(ctx context.Context, params GenerateParams) (*EpisodeResult, error) {
	release, err := s.guard.Acquire(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.ensureBalance(ctx, params.UserID, episodeTokenCost); err != nil {
		return nil, err
	}

	pc, err := s.loadPromptContext(ctx, params.CharacterIDs, params.ScenarioID, params.CustomCharacters, params.CustomScenario)
	if err != nil {
		return nil, err
	}
	genre := params.Genre
	if genre == "" {
		genre = defaultGenre
	}
	totalEpisodes := normalizeTotalEpisodes(params.TotalEpisodes)
	pc.RelationshipDesc = params.RelationshipDesc
	pc.Genre = genre
	pc.PlotNotes = params.PlotNotes
	pc.NextDirection = params.NextDirection
	pc.CurrentIndex = 1
	pc.TotalEpisodes = totalEpisodes
	pc.IsFirstEpisode = true

	episode, err := s.generateEpisode(ctx, pc)
	if err != nil {
		return nil, err
	}

	title := params.UserTitle
	if title == "" {
		title = episode.Title
	}
	if title == "" {
		title = "Untitled"
	}

	story := &models.Story{
		UserID:        params.UserID,
		Title:         title,
		Summary:       episode.Summary,
		PlotNotes:     params.PlotNotes,
		GenreDesc:     genre,
		TotalEpisodes: totalEpisodes,
		NextOptions:   episode.NextOptions,
		IsFinished:    episode.IsFinished,
	}
	if err := s.storyRepo.Create(ctx, story); err != nil {
		return nil, err
	}
	content := &models.StoryContent{
		StoryID:    story.ID,
		OrderIndex: 1,
		Content:    episode.Content,
	}
	if err := s.contentRepo.Insert(ctx, content); err != nil {
		return nil, err
	}

	s.debitAfterPersist(ctx, params.UserID, episodeTokenCost)

	episode.Title = title
	return &EpisodeResult{StoryID: story.ID, OrderIndex: 1, Episode: *episode}, nil
}

// Continue генерирует следующий эпизод существующей истории.
// Индекс нового эпизода защищен уникальным ограничением: если параллельный
// запрос успел занять тот же номер, вернется models.ErrEpisodeConflict.
func (s *EpisodeService) Continue(ctx context.Context, params ContinueParams) (*EpisodeResult, error) {
	release, err := s.guard.Acquire(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.ensureBalance(ctx, params.UserID, episodeTokenCost); err != nil {
		return nil, err
	}

	story, err := s.storyRepo.GetByID(ctx, params.StoryID)
	if err != nil {
		return nil, err
	}
	if story.UserID != params.UserID {
		return nil, models.ErrForbidden
	}

	pc, err := s.loadPromptContext(ctx, params.CharacterIDs, params.ScenarioID, params.CustomCharacters, params.CustomScenario)
	if err != nil {
		return nil, err
	}

	latest, err := s.contentRepo.LatestIndex(ctx, params.StoryID)
	if err != nil {
		return nil, err
	}
	nextIndex := latest + 1

	plotNotes := params.PlotNotes
	if plotNotes == "" {
		plotNotes = story.PlotNotes
	}
	genre := params.Genre
	if genre == "" {
		genre = story.GenreDesc
	}
	pc.RelationshipDesc = params.RelationshipDesc
	pc.Genre = genre
	pc.PlotNotes = plotNotes
	pc.Summary = story.Summary
	pc.NextDirection = params.NextDirection
	pc.CurrentIndex = nextIndex
	pc.TotalEpisodes = story.TotalEpisodes

	episode, err := s.generateEpisode(ctx, pc)
	if err != nil {
		return nil, err
	}

	content := &models.StoryContent{
		StoryID:    params.StoryID,
		OrderIndex: nextIndex,
		Content:    episode.Content,
	}
	if err := s.contentRepo.Insert(ctx, content); err != nil {
		return nil, err
	}
	if err := s.storyRepo.UpdateAfterEpisode(ctx, params.StoryID, episode.Summary, episode.NextOptions, plotNotes, episode.IsFinished); err != nil {
		return nil, err
	}

	s.debitAfterPersist(ctx, params.UserID, episodeTokenCost)

	return &EpisodeResult{StoryID: params.StoryID, OrderIndex: nextIndex, Episode: *episode}, nil
}

// Rewrite заново генерирует последний эпизод истории и заменяет его текст
// на месте. Режим regenerate обслуживается этим же методом.
func (s *EpisodeService) Rewrite(ctx context.Context, params RewriteParams) (*EpisodeResult, error) {
	release, err := s.guard.Acquire(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.ensureBalance(ctx, params.UserID, episodeTokenCost); err != nil {
		return nil, err
	}

	story, err := s.storyRepo.GetByID(ctx, params.StoryID)
	if err != nil {
		return nil, err
	}
	if story.UserID != params.UserID {
		return nil, models.ErrForbidden
	}

	latest, err := s.contentRepo.LatestIndex(ctx, params.StoryID)
	if err != nil {
		return nil, err
	}
	if latest == 0 {
		return nil, fmt.Errorf("%w: story has no episodes", models.ErrNotFound)
	}
	if params.EpisodeIndex != 0 && params.EpisodeIndex != latest {
		return nil, fmt.Errorf("%w: only the latest episode can be rewritten", models.ErrBadRequest)
	}

	pc, err := s.loadPromptContext(ctx, params.CharacterIDs, params.ScenarioID, params.CustomCharacters, params.CustomScenario)
	if err != nil {
		return nil, err
	}

	plotNotes := params.PlotNotes
	if plotNotes == "" {
		plotNotes = story.PlotNotes
	}
	genre := params.Genre
	if genre == "" {
		genre = story.GenreDesc
	}
	pc.RelationshipDesc = params.RelationshipDesc
	pc.Genre = genre
	pc.PlotNotes = plotNotes
	pc.Summary = story.Summary
	pc.NextDirection = params.NextDirection
	pc.CurrentIndex = latest
	pc.TotalEpisodes = story.TotalEpisodes

	episode, err := s.generateEpisode(ctx, pc)
	if err != nil {
		return nil, err
	}

	if err := s.contentRepo.UpdateAt(ctx, params.StoryID, latest, episode.Content); err != nil {
		return nil, err
	}
	if err := s.storyRepo.UpdateAfterEpisode(ctx, params.StoryID, episode.Summary, episode.NextOptions, plotNotes, episode.IsFinished); err != nil {
		return nil, err
	}

	s.debitAfterPersist(ctx, params.UserID, episodeTokenCost)

	return &EpisodeResult{StoryID: params.StoryID, OrderIndex: latest, Episode: *episode}, nil
}
