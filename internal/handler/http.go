package handler

import (
	"errors"
	"net/http"

	"ghostwriter-server/internal/models"
	"ghostwriter-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const userIDContextKey = "userID"

// APIError представляет стандартизированный ответ об ошибке.
type APIError struct {
	Message string `json:"error"`
}

// Handler обрабатывает HTTP запросы сервиса.
type Handler struct {
	episodes *service.EpisodeService
	planner  *service.RetrievalPlanner
	library  *service.LibraryService
	presets  *service.PresetService
	wallets  *service.WalletService
	logger   *zap.Logger
}

func NewHandler(
	episodes *service.EpisodeService,
	planner *service.RetrievalPlanner,
	library *service.LibraryService,
	presets *service.PresetService,
	wallets *service.WalletService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		episodes: episodes,
		planner:  planner,
		library:  library,
		presets:  presets,
		wallets:  wallets,
		logger:   logger.Named("Handler"),
	}
}

// RegisterRoutes регистрирует маршруты сервиса.
// Аутентификация внешняя: идентификатор пользователя приходит в заголовке
// X-User-ID уже проверенным вышестоящим шлюзом.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api", h.requireUserID)
	{
		api.POST("/generate", h.generateEpisode)
		api.POST("/rlm-generate", h.generateWithRetrieval)

		api.GET("/stories", h.listStories)
		api.GET("/stories/:id", h.getStory)
		api.PATCH("/stories/:id/visibility", h.setStoryVisibility)
		api.DELETE("/stories/:id", h.deleteStory)

		api.GET("/characters", h.listCharacters)
		api.POST("/characters", h.createCharacter)
		api.DELETE("/characters/:id", h.deleteCharacter)

		api.GET("/scenarios", h.listScenarios)
		api.POST("/scenarios", h.createScenario)
		api.DELETE("/scenarios/:id", h.deleteScenario)

		api.GET("/wallet", h.getWallet)
		api.POST("/wallet/topup", h.topUpWallet)
	}
}

// requireUserID извлекает идентификатор пользователя из заголовка X-User-ID.
func (h *Handler) requireUserID(c *gin.Context) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{Message: "missing X-User-ID header"})
		return
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{Message: "invalid X-User-ID header"})
		return
	}
	c.Set(userIDContextKey, userID)
	c.Next()
}

func getUserID(c *gin.Context) uuid.UUID {
	return c.MustGet(userIDContextKey).(uuid.UUID)
}

// handleServiceError транслирует ошибки сервисного слоя в HTTP статусы.
func (h *Handler) handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, models.ErrInsufficientBalance):
		statusCode = http.StatusPaymentRequired
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrMissingContext), errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		apiErr = APIError{Message: "forbidden"}
	case errors.Is(err, models.ErrStoryNotFound), errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrUserHasActiveGeneration), errors.Is(err, models.ErrEpisodeConflict):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrGenerationFailed), errors.Is(err, models.ErrMalformedResponse):
		statusCode = http.StatusBadGateway
		apiErr = APIError{Message: err.Error()}
	default:
		h.logger.Error("Unhandled service error", zap.Error(err))
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: models.ErrInternalServer.Error()}
	}
	c.JSON(statusCode, apiErr)
}

// parseIDParam разбирает :id из пути.
func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}
