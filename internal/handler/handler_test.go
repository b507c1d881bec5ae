package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ghostwriter-server/internal/ai"
	"ghostwriter-server/internal/mocks"
	"ghostwriter-server/internal/models"
	"ghostwriter-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type handlerFixture struct {
	walletRepo  *mocks.MockWalletRepository
	charRepo    *mocks.MockCharacterRepository
	scenRepo    *mocks.MockScenarioRepository
	storyRepo   *mocks.MockStoryRepository
	contentRepo *mocks.MockStoryContentRepository
	guard       *mocks.MockGenerationGuard
	aiClient    *mocks.MockAIClient
	router      *gin.Engine
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	gin.SetMode(gin.TestMode)

	f := &handlerFixture{
		walletRepo:  mocks.NewMockWalletRepository(t),
		charRepo:    mocks.NewMockCharacterRepository(t),
		scenRepo:    mocks.NewMockScenarioRepository(t),
		storyRepo:   mocks.NewMockStoryRepository(t),
		contentRepo: mocks.NewMockStoryContentRepository(t),
		guard:       mocks.NewMockGenerationGuard(t),
		aiClient:    mocks.NewMockAIClient(t),
	}

	logger := zap.NewNop()
	prompts := service.NewPromptBuilder()
	parser := service.NewResponseParser(logger)

	episodes := service.NewEpisodeService(
		f.walletRepo, f.charRepo, f.scenRepo, f.storyRepo, f.contentRepo,
		f.guard, f.aiClient, prompts, parser, logger,
	)
	planner := service.NewRetrievalPlanner(
		f.walletRepo, f.storyRepo, f.contentRepo, f.guard, f.aiClient,
		prompts, parser, logger,
	)
	library := service.NewLibraryService(f.storyRepo, f.contentRepo, logger)
	presets := service.NewPresetService(f.charRepo, f.scenRepo, logger)
	wallets := service.NewWalletService(f.walletRepo, logger)

	h := NewHandler(episodes, planner, library, presets, wallets, logger)
	f.router = gin.New()
	h.RegisterRoutes(f.router)
	return f
}

func (f *handlerFixture) do(t *testing.T, method, path string, userID *uuid.UUID, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != nil {
		req.Header.Set("X-User-ID", userID.String())
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

const handlerEpisodeJSON = `{"title": "T", "content": "body", "summary": "s", "next_options": ["a", "b"], "is_finished": false}`

func TestGenerateEndpoint(t *testing.T) {
	userID := uuid.New()

	generateBody := gin.H{
		"mode":              "generate",
		"custom_characters": "A stranger.",
		"custom_scenario":   "A harbor.",
	}

	t.Run("missing user header", func(t *testing.T) {
		f := newHandlerFixture(t)
		w := f.do(t, http.MethodPost, "/api/generate", nil, generateBody)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.guard.On("Acquire", mock.Anything, userID).Return(func() {}, nil)
		f.walletRepo.On("Get", mock.Anything, userID).Return(&models.Wallet{UserID: userID, Balance: 10}, nil)
		f.aiClient.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(handlerEpisodeJSON, ai.UsageInfo{}, nil)
		storyID := uuid.New()
		f.storyRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Story")).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Story).ID = storyID
		}).Return(nil)
		f.contentRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
		f.walletRepo.On("DebitIfSufficient", mock.Anything, userID, 1).Return(nil)

		w := f.do(t, http.MethodPost, "/api/generate", &userID, generateBody)
		require.Equal(t, http.StatusOK, w.Code)

		var result service.EpisodeResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, storyID, result.StoryID)
		assert.Equal(t, 1, result.OrderIndex)
		assert.Equal(t, "body", result.Episode.Content)
	})

	t.Run("insufficient balance is 402", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.guard.On("Acquire", mock.Anything, userID).Return(func() {}, nil)
		f.walletRepo.On("Get", mock.Anything, userID).Return(&models.Wallet{UserID: userID, Balance: 0}, nil)

		w := f.do(t, http.MethodPost, "/api/generate", &userID, generateBody)
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
	})

	t.Run("missing context is 400", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.guard.On("Acquire", mock.Anything, userID).Return(func() {}, nil)
		f.walletRepo.On("Get", mock.Anything, userID).Return(&models.Wallet{UserID: userID, Balance: 10}, nil)

		w := f.do(t, http.MethodPost, "/api/generate", &userID, gin.H{"mode": "generate"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("active generation is 409", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.guard.On("Acquire", mock.Anything, userID).Return(nil, models.ErrUserHasActiveGeneration)

		w := f.do(t, http.MethodPost, "/api/generate", &userID, generateBody)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("provider failure is 502", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.guard.On("Acquire", mock.Anything, userID).Return(func() {}, nil)
		f.walletRepo.On("Get", mock.Anything, userID).Return(&models.Wallet{UserID: userID, Balance: 10}, nil)
		f.aiClient.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", ai.UsageInfo{}, models.ErrGenerationFailed)

		w := f.do(t, http.MethodPost, "/api/generate", &userID, generateBody)
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("continue threads next_direction into the prompt", func(t *testing.T) {
		f := newHandlerFixture(t)
		storyID := uuid.New()
		f.guard.On("Acquire", mock.Anything, userID).Return(func() {}, nil)
		f.walletRepo.On("Get", mock.Anything, userID).Return(&models.Wallet{UserID: userID, Balance: 10}, nil)
		f.storyRepo.On("GetByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, UserID: userID, GenreDesc: "mystery", TotalEpisodes: 20}, nil)
		f.contentRepo.On("LatestIndex", mock.Anything, storyID).Return(2, nil)

		var userPrompt string
		f.aiClient.On("Generate", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			userPrompt = args.Get(2).(string)
		}).Return(handlerEpisodeJSON, ai.UsageInfo{}, nil)
		f.contentRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
		f.storyRepo.On("UpdateAfterEpisode", mock.Anything, storyID, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.walletRepo.On("DebitIfSufficient", mock.Anything, userID, 1).Return(nil)

		body := gin.H{
			"mode":              "continue",
			"story_id":          storyID.String(),
			"custom_characters": "A stranger.",
			"custom_scenario":   "A harbor.",
			"next_direction":    "Head for the lighthouse.",
		}
		w := f.do(t, http.MethodPost, "/api/generate", &userID, body)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, userPrompt, "[Direction]\nHead for the lighthouse.")
	})

	t.Run("continue without story_id is 400", func(t *testing.T) {
		f := newHandlerFixture(t)
		w := f.do(t, http.MethodPost, "/api/generate", &userID, gin.H{"mode": "continue"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown mode is 400", func(t *testing.T) {
		f := newHandlerFixture(t)
		w := f.do(t, http.MethodPost, "/api/generate", &userID, gin.H{"mode": "remix"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("regenerate is dispatched as rewrite", func(t *testing.T) {
		f := newHandlerFixture(t)
		storyID := uuid.New()
		f.guard.On("Acquire", mock.Anything, userID).Return(func() {}, nil)
		f.walletRepo.On("Get", mock.Anything, userID).Return(&models.Wallet{UserID: userID, Balance: 10}, nil)
		f.storyRepo.On("GetByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, UserID: userID, GenreDesc: "mystery", TotalEpisodes: 20}, nil)
		f.contentRepo.On("LatestIndex", mock.Anything, storyID).Return(2, nil)
		f.aiClient.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(handlerEpisodeJSON, ai.UsageInfo{}, nil)
		f.contentRepo.On("UpdateAt", mock.Anything, storyID, 2, "body").Return(nil)
		f.storyRepo.On("UpdateAfterEpisode", mock.Anything, storyID, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.walletRepo.On("DebitIfSufficient", mock.Anything, userID, 1).Return(nil)

		body := gin.H{
			"mode":              "regenerate",
			"story_id":          storyID.String(),
			"custom_characters": "A stranger.",
			"custom_scenario":   "A harbor.",
		}
		w := f.do(t, http.MethodPost, "/api/generate", &userID, body)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestStoryEndpoints(t *testing.T) {
	userID := uuid.New()
	storyID := uuid.New()

	t.Run("get story with contents", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.storyRepo.On("GetByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, UserID: userID, Title: "T"}, nil)
		f.contentRepo.On("ListByStory", mock.Anything, storyID).Return([]models.StoryContent{
			{StoryID: storyID, OrderIndex: 1, Content: "one"},
		}, nil)

		w := f.do(t, http.MethodGet, "/api/stories/"+storyID.String(), &userID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var result service.StoryWithContents
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, "T", result.Story.Title)
		require.Len(t, result.Contents, 1)
	})

	t.Run("foreign private story is 403", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.storyRepo.On("GetByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, UserID: uuid.New()}, nil)

		w := f.do(t, http.MethodGet, "/api/stories/"+storyID.String(), &userID, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown story is 404", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.storyRepo.On("GetByID", mock.Anything, storyID).Return(nil, models.ErrStoryNotFound)

		w := f.do(t, http.MethodGet, "/api/stories/"+storyID.String(), &userID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unexpected error is 500 with a generic message", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.storyRepo.On("GetByID", mock.Anything, storyID).Return(nil, errors.New("connection reset"))

		w := f.do(t, http.MethodGet, "/api/stories/"+storyID.String(), &userID, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var apiErr APIError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
		assert.Equal(t, models.ErrInternalServer.Error(), apiErr.Message)
		assert.NotContains(t, apiErr.Message, "connection reset")
	})

	t.Run("visibility toggle", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.storyRepo.On("SetPublic", mock.Anything, storyID, userID, true).Return(nil)

		w := f.do(t, http.MethodPatch, "/api/stories/"+storyID.String()+"/visibility", &userID, gin.H{"is_public": true})
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("delete story", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.storyRepo.On("Delete", mock.Anything, storyID, userID).Return(nil)

		w := f.do(t, http.MethodDelete, "/api/stories/"+storyID.String(), &userID, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestPresetEndpoints(t *testing.T) {
	userID := uuid.New()

	t.Run("create character", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.charRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Character")).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Character).ID = uuid.New()
		}).Return(nil)

		body := gin.H{"name": "Mira", "personality_tags": []string{"stubborn"}, "dialogue_style": "clipped"}
		w := f.do(t, http.MethodPost, "/api/characters", &userID, body)
		require.Equal(t, http.StatusCreated, w.Code)

		var character models.Character
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &character))
		assert.Equal(t, "Mira", character.Name)
		assert.Equal(t, userID, character.UserID)
	})

	t.Run("create character without name is 400", func(t *testing.T) {
		f := newHandlerFixture(t)
		w := f.do(t, http.MethodPost, "/api/characters", &userID, gin.H{"dialogue_style": "clipped"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("create scenario", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.scenRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Scenario")).Return(nil)

		body := gin.H{"title": "Harbor", "setting_text": "Fog everywhere."}
		w := f.do(t, http.MethodPost, "/api/scenarios", &userID, body)
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestWalletEndpoints(t *testing.T) {
	userID := uuid.New()

	t.Run("get wallet", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.walletRepo.On("CreateIfAbsent", mock.Anything, userID, 0).Return(nil)
		f.walletRepo.On("Get", mock.Anything, userID).Return(&models.Wallet{UserID: userID, Balance: 7}, nil)

		w := f.do(t, http.MethodGet, "/api/wallet", &userID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var wallet models.Wallet
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wallet))
		assert.Equal(t, 7, wallet.Balance)
	})

	t.Run("top up", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.walletRepo.On("CreateIfAbsent", mock.Anything, userID, 0).Return(nil)
		f.walletRepo.On("Credit", mock.Anything, userID, 10).Return(nil)
		f.walletRepo.On("Get", mock.Anything, userID).Return(&models.Wallet{UserID: userID, Balance: 17}, nil)

		w := f.do(t, http.MethodPost, "/api/wallet/topup", &userID, gin.H{"amount": 10})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("non-positive top up is 400", func(t *testing.T) {
		f := newHandlerFixture(t)
		w := f.do(t, http.MethodPost, "/api/wallet/topup", &userID, gin.H{"amount": -5})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
