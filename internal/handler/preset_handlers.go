package handler

import (
	"net/http"

	"ghostwriter-server/internal/models"

	"github.com/gin-gonic/gin"
)

// listCharacters — GET /api/characters.
func (h *Handler) listCharacters(c *gin.Context) {
	characters, err := h.presets.ListCharacters(c.Request.Context(), getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, characters)
}

// createCharacter — POST /api/characters.
func (h *Handler) createCharacter(c *gin.Context) {
	var req createCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body: " + err.Error()})
		return
	}
	character := &models.Character{
		UserID:          getUserID(c),
		Name:            req.Name,
		Description:     req.Description,
		PersonalityTags: req.PersonalityTags,
		DialogueStyle:   req.DialogueStyle,
	}
	if err := h.presets.CreateCharacter(c.Request.Context(), character); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, character)
}

// deleteCharacter — DELETE /api/characters/:id.
func (h *Handler) deleteCharacter(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.presets.DeleteCharacter(c.Request.Context(), id, getUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listScenarios — GET /api/scenarios.
func (h *Handler) listScenarios(c *gin.Context) {
	scenarios, err := h.presets.ListScenarios(c.Request.Context(), getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scenarios)
}

// createScenario — POST /api/scenarios.
func (h *Handler) createScenario(c *gin.Context) {
	var req createScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body: " + err.Error()})
		return
	}
	scenario := &models.Scenario{
		UserID:      getUserID(c),
		Title:       req.Title,
		SettingText: req.SettingText,
	}
	if err := h.presets.CreateScenario(c.Request.Context(), scenario); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, scenario)
}

// deleteScenario — DELETE /api/scenarios/:id.
func (h *Handler) deleteScenario(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.presets.DeleteScenario(c.Request.Context(), id, getUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
