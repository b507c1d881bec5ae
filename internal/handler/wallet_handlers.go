package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getWallet — GET /api/wallet.
func (h *Handler) getWallet(c *gin.Context) {
	wallet, err := h.wallets.GetWallet(c.Request.Context(), getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// topUpWallet — POST /api/wallet/topup.
func (h *Handler) topUpWallet(c *gin.Context) {
	var req topUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body: " + err.Error()})
		return
	}
	wallet, err := h.wallets.TopUp(c.Request.Context(), getUserID(c), req.Amount)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}
