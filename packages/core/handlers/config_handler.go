package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/services"
)

type ConfigHandler struct {
	configService *services.ConfigService
	logger        zerolog.Logger
}

func NewConfigHandler(configService *services.ConfigService, logger zerolog.Logger) *ConfigHandler {
	return &ConfigHandler{
		configService: configService,
		logger:        logger.With().Str("handler", "config").Logger(),
	}
}

// SetupGuild prepares storage for a guild the bot joined
// @Summary Set up a guild (owner)
// @Tags config
// @Security BearerAuth
// @Produce json
// @Param guild path string true "Guild ID"
// @Success 200 {object} models.GuildConfig
// @Failure 403 {object} map[string]string
// @Router /guilds/{guild}/setup [post]
func (h *ConfigHandler) SetupGuild(c *gin.Context) {
	cfg, err := h.configService.SetupGuild(c.Request.Context(), c.Param("guild"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to set up guild")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// GetConfig returns the league settings of a guild
// @Summary Get guild settings
// @Tags config
// @Produce json
// @Param guild path string true "Guild ID"
// @Success 200 {object} models.GuildConfig
// @Router /guilds/{guild}/config [get]
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	cfg, err := h.configService.Get(c.Request.Context(), c.Param("guild"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve settings")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// SetAdminRole names the role that administers the league
// @Summary Set admin role (owner)
// @Tags config
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param guild path string true "Guild ID"
// @Param body body models.AdminRoleRequest true "Role"
// @Success 200 {object} models.GuildConfig
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /guilds/{guild}/config/admin-role [put]
func (h *ConfigHandler) SetAdminRole(c *gin.Context) {
	var req models.AdminRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	cfg, err := h.configService.SetAdminRole(c.Request.Context(), c.Param("guild"), req.Role)
	if err != nil {
		respondError(c, h.logger, err, "Failed to set admin role")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// SetThresholds changes the leaderboard minimums
// @Summary Set leaderboard thresholds (admin)
// @Tags config
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param guild path string true "Guild ID"
// @Param body body models.ThresholdRequest true "Thresholds"
// @Success 200 {object} models.GuildConfig
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /guilds/{guild}/config/thresholds [put]
func (h *ConfigHandler) SetThresholds(c *gin.Context) {
	var req models.ThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	cfg, err := h.configService.SetThresholds(c.Request.Context(), c.Param("guild"), req.Players, req.Decks)
	if err != nil {
		respondError(c, h.logger, err, "Failed to set thresholds")
		return
	}
	c.JSON(http.StatusOK, cfg)
}
