package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ghostwriter-server/internal/ai"
	"ghostwriter-server/internal/models"
	"ghostwriter-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// Минимальный баланс для входа в ретривер-путь. Фактическая стоимость
	// зависит от количества извлечений и списывается после сохранения.
	rlmMinimumBalance = 5

	// Стоимость одного извлечения (вызов планирования входит в базовую единицу).
	rlmExtractionCost = 2

	// Сколько символов хвоста последнего эпизода попадает в финальный промпт.
	rlmLastEpisodeTailRunes = 500
)

// RLMParams — параметры ретривер-генерации. Если StoryID пуст, начинается
// новая история: персонажи задаются вручную, а не пресетами.
type RLMParams struct {
	UserID           uuid.UUID
	StoryID          *uuid.UUID
	NextDirection    string
	GenreDesc        string
	UserTitle        string
	ManualCharacters []string
}

// RLMResult — результат ретривер-генерации с фактической стоимостью.
type RLMResult struct {
	EpisodeResult
	UsedTokens int `json:"used_tokens"`
}

// RetrievalPlanner реализует двухстадийную ретривер-генерацию: модель сначала
// планирует, какие прошлые эпизоды перечитать, затем извлекает из них факты,
// и только потом пишет следующий эпизод с этим контекстом.
type RetrievalPlanner struct {
	walletRepo  repository.WalletRepository
	storyRepo   repository.StoryRepository
	contentRepo repository.StoryContentRepository
	guard       repository.GenerationGuard
	aiClient    ai.Client
	prompts     *PromptBuilder
	parser      *ResponseParser
	logger      *zap.Logger
}

func NewRetrievalPlanner(
	walletRepo repository.WalletRepository,
	storyRepo repository.StoryRepository,
	contentRepo repository.StoryContentRepository,
	guard repository.GenerationGuard,
	aiClient ai.Client,
	prompts *PromptBuilder,
	parser *ResponseParser,
	logger *zap.Logger,
) *RetrievalPlanner {
	return &RetrievalPlanner{
		walletRepo:  walletRepo,
		storyRepo:   storyRepo,
		contentRepo: contentRepo,
		guard:       guard,
		aiClient:    aiClient,
		prompts:     prompts,
		parser:      parser,
		logger:      logger.Named("RetrievalPlanner"),
	}
}

// GenerateWithRetrieval выполняет полный ретривер-цикл и возвращает эпизод
// вместе с фактически потраченными токенами. Стоимость = 1 + 2 за каждое
// выполненное извлечение; списывается после успешного сохранения.
func (p *RetrievalPlanner) GenerateWithRetrieval(ctx context.Context, params RLMParams) (*RLMResult, error) {
	release, err := p.guard.Acquire(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	wallet, err := p.walletRepo.Get(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInsufficientBalance
		}
		return nil, err
	}
	if wallet.Balance < rlmMinimumBalance {
		return nil, fmt.Errorf("%w: retrieval generation requires at least %d tokens", models.ErrInsufficientBalance, rlmMinimumBalance)
	}

	if params.StoryID == nil {
		return p.generateNewStory(ctx, params)
	}
	return p.continueStory(ctx, params, *params.StoryID)
}

// generateNewStory пишет первую главу новой истории без стадии ретривера:
// прошлых эпизодов еще нет.
func (p *RetrievalPlanner) generateNewStory(ctx context.Context, params RLMParams) (*RLMResult, error) {
	tokenCost := 1
	systemPrompt, userPrompt := p.prompts.BuildRLMNewStoryPrompt(params.UserTitle, params.GenreDesc, params.ManualCharacters)

	raw, _, err := p.aiClient.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	episode, err := p.parser.ParseEpisode(raw)
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
		GenreDesc:     params.GenreDesc,
		TotalEpisodes: models.DefaultTotalEpisodes,
		NextOptions:   episode.NextOptions,
		IsFinished:    episode.IsFinished,
	}
	if err := p.storyRepo.Create(ctx, story); err != nil {
		return nil, err
	}
	content := &models.StoryContent{StoryID: story.ID, OrderIndex: 1, Content: episode.Content}
	if err := p.contentRepo.Insert(ctx, content); err != nil {
		return nil, err
	}

	p.debit(ctx, params.UserID, tokenCost)

	episode.Title = title
	return &RLMResult{
		EpisodeResult: EpisodeResult{StoryID: story.ID, OrderIndex: 1, Episode: *episode},
		UsedTokens:    tokenCost,
	}, nil
}

// continueStory выполняет план/извлечение по прошлым эпизодам и пишет
// следующий эпизод существующей истории.
func (p *RetrievalPlanner) continueStory(ctx context.Context, params RLMParams, storyID uuid.UUID) (*RLMResult, error) {
	story, err := p.storyRepo.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.UserID != params.UserID {
		return nil, models.ErrForbidden
	}

	history, err := p.contentRepo.ListByStory(ctx, storyID)
	if err != nil {
		return nil, err
	}

	tokenCost := 1
	var contextSnippets []string
	lastTail := ""
	nextIndex := 1

	if len(history) > 0 {
		last := history[len(history)-1]
		nextIndex = last.OrderIndex + 1
		lastTail = truncateRunes(last.Content, rlmLastEpisodeTailRunes)

		snippets, extractions, err := p.retrieveContext(ctx, params.NextDirection, history)
		if err != nil {
			return nil, err
		}
		contextSnippets = snippets
		tokenCost += extractions * rlmExtractionCost
	}

	systemPrompt, userPrompt := p.prompts.BuildRLMSynthesisPrompt(contextSnippets, lastTail, nextIndex, params.NextDirection)
	raw, _, err := p.aiClient.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	episode, err := p.parser.ParseEpisode(raw)
	if err != nil {
		return nil, err
	}

	content := &models.StoryContent{StoryID: storyID, OrderIndex: nextIndex, Content: episode.Content}
	if err := p.contentRepo.Insert(ctx, content); err != nil {
		return nil, err
	}
	if err := p.storyRepo.UpdateAfterEpisode(ctx, storyID, episode.Summary, episode.NextOptions, story.PlotNotes, episode.IsFinished); err != nil {
		return nil, err
	}

	p.debit(ctx, params.UserID, tokenCost)

	return &RLMResult{
		EpisodeResult: EpisodeResult{StoryID: storyID, OrderIndex: nextIndex, Episode: *episode},
		UsedTokens:    tokenCost,
	}, nil
}

// retrieveContext — стадии планирования и извлечения. Возвращает сниппеты
// вида "[episode N]: факт" и количество выполненных извлечений.
// Пустой план — штатная ситуация; сбой любого извлечения прерывает запрос.
func (p *RetrievalPlanner) retrieveContext(ctx context.Context, direction string, history []models.StoryContent) ([]string, int, error) {
	byIndex := make(map[int]models.StoryContent, len(history))
	indices := make([]int, 0, len(history))
	for _, episode := range history {
		byIndex[episode.OrderIndex] = episode
		indices = append(indices, episode.OrderIndex)
	}

	planSystem, planUser := p.prompts.BuildPlanPrompt(direction, indices)
	rawPlan, _, err := p.aiClient.Generate(ctx, planSystem, planUser)
	if err != nil {
		return nil, 0, err
	}
	plan, err := p.parser.ParsePlan(rawPlan)
	if err != nil {
		return nil, 0, err
	}
	if len(plan) == 0 {
		p.logger.Debug("Retrieval plan is empty, continuing without extracted context")
		return nil, 0, nil
	}

	var snippets []string
	extractions := 0
	for _, task := range plan {
		target, ok := byIndex[task.Index]
		if !ok {
			p.logger.Warn("Plan references unknown episode index, skipping", zap.Int("index", task.Index))
			continue
		}
		examSystem, examUser := p.prompts.BuildExtractionPrompt(target.Content, task.Reason)
		fact, _, err := p.aiClient.Generate(ctx, examSystem, examUser)
		if err != nil {
			return nil, 0, err
		}
		snippets = append(snippets, fmt.Sprintf("[episode %d]: %s", task.Index, strings.TrimSpace(fact)))
		extractions++
	}
	return snippets, extractions, nil
}

func (p *RetrievalPlanner) debit(ctx context.Context, userID uuid.UUID, cost int) {
	if err := p.walletRepo.DebitIfSufficient(ctx, userID, cost); err != nil {
		p.logger.Error("Failed to debit wallet after successful persistence",
			zap.String("userID", userID.String()),
			zap.Int("cost", cost),
			zap.Error(err))
	}
}

// truncateRunes обрезает строку до limit рун, не разрывая многобайтовые символы.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
