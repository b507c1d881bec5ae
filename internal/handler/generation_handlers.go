package handler

import (
	"net/http"

	"ghostwriter-server/internal/models"
	"ghostwriter-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// generateEpisode — POST /api/generate. Диспетчеризует запрос по режиму.
func (h *Handler) generateEpisode(c *gin.Context) {
	userID := getUserID(c)

	var req generateEpisodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body: " + err.Error()})
		return
	}
	if req.Mode == "" {
		req.Mode = models.ModeGenerate
	}

	var result *service.EpisodeResult
	var err error

	switch req.Mode {
	case models.ModeGenerate:
		result, err = h.episodes.Generate(c.Request.Context(), service.GenerateParams{
			UserID:           userID,
			CharacterIDs:     req.CharacterIDs,
			ScenarioID:       req.ScenarioID,
			CustomCharacters: req.CustomCharacters,
			CustomScenario:   req.CustomScenario,
			RelationshipDesc: req.RelationshipDesc,
			Genre:            req.Genre,
			PlotNotes:        req.PlotNotes,
			NextDirection:    req.NextDirection,
			UserTitle:        req.UserTitle,
			TotalEpisodes:    req.TotalEpisodes,
		})
	case models.ModeContinue:
		if req.StoryID == nil {
			c.JSON(http.StatusBadRequest, APIError{Message: "story_id is required for continue"})
			return
		}
		result, err = h.episodes.Continue(c.Request.Context(), service.ContinueParams{
			UserID:           userID,
			StoryID:          *req.StoryID,
			CharacterIDs:     req.CharacterIDs,
			ScenarioID:       req.ScenarioID,
			CustomCharacters: req.CustomCharacters,
			CustomScenario:   req.CustomScenario,
			RelationshipDesc: req.RelationshipDesc,
			Genre:            req.Genre,
			PlotNotes:        req.PlotNotes,
			NextDirection:    req.NextDirection,
		})
	case models.ModeRewrite, models.ModeRegenerate:
		if req.StoryID == nil {
			c.JSON(http.StatusBadRequest, APIError{Message: "story_id is required for rewrite"})
			return
		}
		result, err = h.episodes.Rewrite(c.Request.Context(), service.RewriteParams{
			UserID:           userID,
			StoryID:          *req.StoryID,
			CharacterIDs:     req.CharacterIDs,
			ScenarioID:       req.ScenarioID,
			CustomCharacters: req.CustomCharacters,
			CustomScenario:   req.CustomScenario,
			RelationshipDesc: req.RelationshipDesc,
			Genre:            req.Genre,
			PlotNotes:        req.PlotNotes,
			NextDirection:    req.NextDirection,
			EpisodeIndex:     req.EpisodeIndex,
		})
	default:
		c.JSON(http.StatusBadRequest, APIError{Message: "unknown mode: " + string(req.Mode)})
		return
	}

	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.logger.Info("Episode generated",
		zap.String("userID", userID.String()),
		zap.String("mode", string(req.Mode)),
		zap.String("storyID", result.StoryID.String()),
		zap.Int("orderIndex", result.OrderIndex))
	c.JSON(http.StatusOK, result)
}

// generateWithRetrieval — POST /api/rlm-generate.
func (h *Handler) generateWithRetrieval(c *gin.Context) {
	userID := getUserID(c)

	var req rlmGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body: " + err.Error()})
		return
	}

	result, err := h.planner.GenerateWithRetrieval(c.Request.Context(), service.RLMParams{
		UserID:           userID,
		StoryID:          req.StoryID,
		NextDirection:    req.NextDirection,
		GenreDesc:        req.GenreDesc,
		UserTitle:        req.UserTitle,
		ManualCharacters: req.ManualCharacters,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.logger.Info("Retrieval episode generated",
		zap.String("userID", userID.String()),
		zap.String("storyID", result.StoryID.String()),
		zap.Int("usedTokens", result.UsedTokens))
	c.JSON(http.StatusOK, result)
}
