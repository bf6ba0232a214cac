package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/windoze95/nickate-skill/internal/logger"
	"github.com/windoze95/nickate-skill/internal/service"
	"go.uber.org/zap"
)

// AuthorizeHandler is the handler for the Fitbit OAuth bootstrap routes.
type AuthorizeHandler struct {
	Service *service.AuthorizeService
}

// NewAuthorizeHandler creates a new AuthorizeHandler.
func NewAuthorizeHandler(authorizeService *service.AuthorizeService) *AuthorizeHandler {
	return &AuthorizeHandler{Service: authorizeService}
}

// GetAuthorizationURL handles GET /v1/admin/authorize.
func (h *AuthorizeHandler) GetAuthorizationURL(c *gin.Context) {
	url, err := h.Service.AuthorizationURL(c.Request.Context())
	if err != nil {
		logger.FromContext(c).Error("failed to build authorization url", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build authorization URL"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Callback handles GET /v1/oauth/callback?code=...&state=...
func (h *AuthorizeHandler) Callback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errParam})
		return
	}

	code, state := c.Query("code"), c.Query("state")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameters 'code' and 'state' are required"})
		return
	}

	if err := h.Service.CompleteAuthorization(c.Request.Context(), code, state); err != nil {
		if errors.Is(err, service.ErrInvalidState) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.FromContext(c).Error("fitbit authorization failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to complete Fitbit authorization"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Fitbit connected"})
}
