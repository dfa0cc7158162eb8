package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	authMiddleware "rankbot-api/packages/auth/middleware"
	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/services"
)

type MatchHandler struct {
	matchService       *services.MatchService
	leaderboardService *services.LeaderboardService
	admins             authMiddleware.AdminChecker
	logger             zerolog.Logger
}

func NewMatchHandler(matchService *services.MatchService, leaderboardService *services.LeaderboardService, admins authMiddleware.AdminChecker, logger zerolog.Logger) *MatchHandler {
	return &MatchHandler{
		matchService:       matchService,
		leaderboardService: leaderboardService,
		admins:             admins,
		logger:             logger.With().Str("handler", "match").Logger(),
	}
}

func (h *MatchHandler) isAdmin(ctx context.Context, guildID string, caller models.Caller) (bool, error) {
	if h.admins == nil {
		return caller.Owner, nil
	}
	return h.admins.IsAdmin(ctx, guildID, caller)
}

// CreateMatch logs a new pending match
// @Summary Log a match
// @Description Log a PENDING match. Only the winner or a league admin may log it.
// @Tags matches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param guild path string true "Guild ID"
// @Param match body models.CreateMatchRequest true "Match data"
// @Success 201 {object} models.Match
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /guilds/{guild}/matches [post]
func (h *MatchHandler) CreateMatch(c *gin.Context) {
	caller, ok := authMiddleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	guildID := c.Param("guild")
	if req.WinnerID != caller.UserID {
		admin, err := h.isAdmin(c.Request.Context(), guildID, caller)
		if err != nil {
			respondError(c, h.logger, err, "Failed to check permissions")
			return
		}
		if !admin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the winner or a league admin can log a match"})
			return
		}
	}

	match, err := h.matchService.CreateMatch(c.Request.Context(), guildID, req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create match")
		return
	}
	c.JSON(http.StatusCreated, match)
}

// GetMatch retrieves a match by game id
// @Summary Get match
// @Tags matches
// @Produce json
// @Param guild path string true "Guild ID"
// @Param id path string true "Game ID"
// @Success 200 {object} models.Match
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /guilds/{guild}/matches/{id} [get]
func (h *MatchHandler) GetMatch(c *gin.Context) {
	match, err := h.matchService.GetMatch(c.Request.Context(), c.Param("guild"), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve match")
		return
	}
	c.JSON(http.StatusOK, match)
}

// GetRecentMatches lists the newest matches of a guild
// @Summary Get recent matches
// @Tags matches
// @Produce json
// @Param guild path string true "Guild ID"
// @Param status query string false "Filter by status" Enums(PENDING,ACCEPTED)
// @Param limit query int false "Number of matches (default: 10, max: 100)"
// @Success 200 {array} models.Match
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /guilds/{guild}/matches [get]
func (h *MatchHandler) GetRecentMatches(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}
	status := c.Query("status")
	if status != "" && status != models.StatusPending && status != models.StatusAccepted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status. Must be one of: PENDING, ACCEPTED"})
		return
	}

	matches, err := h.leaderboardService.RecentMatches(c.Request.Context(), c.Param("guild"), status, limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve matches")
		return
	}
	c.JSON(http.StatusOK, matches)
}

// ConfirmMatch confirms the caller's result
// @Summary Confirm a match
// @Description Confirm the caller's participation and deck. The response carries the point changes when this was the last confirmation.
// @Tags matches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param guild path string true "Guild ID"
// @Param id path string true "Game ID"
// @Param body body models.ConfirmMatchRequest false "Deck played"
// @Success 200 {object} models.MatchResult
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /guilds/{guild}/matches/{id}/confirm [post]
func (h *MatchHandler) ConfirmMatch(c *gin.Context) {
	caller, ok := authMiddleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.ConfirmMatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	result, err := h.matchService.ConfirmAndEvaluate(c.Request.Context(), c.Param("guild"), c.Param("id"), caller.UserID, req.Deck)
	if err != nil {
		respondError(c, h.logger, err, "Failed to confirm match")
		return
	}
	c.JSON(http.StatusOK, result)
}

// UnconfirmMatch withdraws the caller's confirmation
// @Summary Withdraw a confirmation
// @Tags matches
// @Security BearerAuth
// @Produce json
// @Param guild path string true "Guild ID"
// @Param id path string true "Game ID"
// @Success 200 {object} models.Match
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /guilds/{guild}/matches/{id}/unconfirm [post]
func (h *MatchHandler) UnconfirmMatch(c *gin.Context) {
	caller, ok := authMiddleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	match, err := h.matchService.Unconfirm(c.Request.Context(), c.Param("guild"), c.Param("id"), caller.UserID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to withdraw confirmation")
		return
	}
	c.JSON(http.StatusOK, match)
}

// SetParticipantDeck sets a participant's deck and confirms for them
// @Summary Set a participant's deck (admin)
// @Tags matches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param guild path string true "Guild ID"
// @Param id path string true "Game ID"
// @Param body body models.ParticipantDeckRequest true "Participant and deck"
// @Success 200 {object} models.MatchResult
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /guilds/{guild}/matches/{id}/deck [put]
func (h *MatchHandler) SetParticipantDeck(c *gin.Context) {
	caller, ok := authMiddleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.ParticipantDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.matchService.SetParticipantDeckAs(c.Request.Context(), c.Param("guild"), c.Param("id"), caller, req.UserID, req.Deck)
	if err != nil {
		respondError(c, h.logger, err, "Failed to set deck")
		return
	}
	c.JSON(http.StatusOK, result)
}

// AcceptMatch force-accepts a pending match
// @Summary Force-accept a match (admin)
// @Tags matches
// @Security BearerAuth
// @Produce json
// @Param guild path string true "Guild ID"
// @Param id path string true "Game ID"
// @Success 200 {object} models.MatchResult
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /guilds/{guild}/matches/{id}/accept [post]
func (h *MatchHandler) AcceptMatch(c *gin.Context) {
	caller, ok := authMiddleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	result, err := h.matchService.ForceAccept(c.Request.Context(), c.Param("guild"), c.Param("id"), caller)
	if err != nil {
		respondError(c, h.logger, err, "Failed to accept match")
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteMatch removes a pending match
// @Summary Remove a pending match
// @Description Only the winner or a league admin may remove a match. Accepted matches cannot be removed.
// @Tags matches
// @Security BearerAuth
// @Param guild path string true "Guild ID"
// @Param id path string true "Game ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /guilds/{guild}/matches/{id} [delete]
func (h *MatchHandler) DeleteMatch(c *gin.Context) {
	caller, ok := authMiddleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if err := h.matchService.RemoveAs(c.Request.Context(), c.Param("guild"), c.Param("id"), caller); err != nil {
		respondError(c, h.logger, err, "Failed to remove match")
		return
	}
	c.Status(http.StatusNoContent)
}
