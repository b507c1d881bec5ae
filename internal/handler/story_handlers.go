package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// listStories — GET /api/stories.
func (h *Handler) listStories(c *gin.Context) {
	stories, err := h.library.ListStories(c.Request.Context(), getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stories)
}

// getStory — GET /api/stories/:id. Возвращает историю с эпизодами.
func (h *Handler) getStory(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	story, err := h.library.GetStory(c.Request.Context(), id, getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

// setStoryVisibility — PATCH /api/stories/:id/visibility.
func (h *Handler) setStoryVisibility(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req setVisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsPublic == nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "is_public is required"})
		return
	}
	if err := h.library.SetVisibility(c.Request.Context(), id, getUserID(c), *req.IsPublic); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// deleteStory — DELETE /api/stories/:id.
func (h *Handler) deleteStory(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.library.DeleteStory(c.Request.Context(), id, getUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
