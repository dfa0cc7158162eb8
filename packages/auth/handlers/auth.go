package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"rankbot-api/packages/auth/middleware"
	"rankbot-api/packages/auth/models"
	"rankbot-api/packages/auth/utils"
)

const botKeyHeader = "X-Bot-Key"

type AuthHandler struct {
	tokens *utils.TokenManager
	botKey []byte
	logger zerolog.Logger
}

func NewAuthHandler(tokens *utils.TokenManager, botKey string, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		tokens: tokens,
		botKey: []byte(botKey),
		logger: logger.With().Str("handler", "auth").Logger(),
	}
}

// @Summary Issue an access token
// @Description The chat bot exchanges its shared key for a token acting as one user
// @Tags auth
// @Accept json
// @Produce json
// @Param X-Bot-Key header string true "Bot key"
// @Param request body models.TokenRequest true "Acting user"
// @Success 200 {object} models.TokenResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/token [post]
func (h *AuthHandler) IssueToken(c *gin.Context) {
	key := []byte(c.GetHeader(botKeyHeader))
	if len(h.botKey) == 0 || subtle.ConstantTimeCompare(key, h.botKey) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid bot key"})
		return
	}

	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.tokens.GenerateToken(req)
	if err != nil {
		h.logger.Error().Err(err).Str("user", req.UserID).Msg("failed to issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Current caller
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} coreModels.Caller
// @Failure 401 {object} map[string]string
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, caller)
}
