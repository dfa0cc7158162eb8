package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"rankbot-api/packages/core/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
	logger             zerolog.Logger
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService, logger zerolog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		logger:             logger.With().Str("handler", "leaderboard").Logger(),
	}
}

// GetTopMembers ranks the guild members
// @Summary Member leaderboard
// @Description Rank members by points, wins or winrate. Members under min accepted matches are left out; without min the guild threshold applies.
// @Tags leaderboard
// @Produce json
// @Param guild path string true "Guild ID"
// @Param sort query string false "Sort key" Enums(points,wins,winrate)
// @Param limit query int false "Rows (default: 10, max: 100)"
// @Param min query int false "Minimum accepted matches"
// @Success 200 {array} models.MemberStanding
// @Failure 400 {object} map[string]string
// @Router /guilds/{guild}/leaderboard [get]
func (h *LeaderboardHandler) GetTopMembers(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}
	minAccepted, ok := queryInt(c, "min", -1)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min parameter"})
		return
	}

	standings, err := h.leaderboardService.TopMembers(c.Request.Context(), c.Param("guild"), c.DefaultQuery("sort", services.SortPoints), limit, minAccepted)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve leaderboard")
		return
	}
	c.JSON(http.StatusOK, standings)
}

// GetTopDecks ranks decks by winrate
// @Summary Deck leaderboard
// @Tags leaderboard
// @Produce json
// @Param guild path string true "Guild ID"
// @Param limit query int false "Rows (default: 10, max: 100)"
// @Param min query int false "Minimum games"
// @Success 200 {array} models.DeckStanding
// @Failure 400 {object} map[string]string
// @Router /guilds/{guild}/leaderboard/decks [get]
func (h *LeaderboardHandler) GetTopDecks(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}
	minMatches, ok := queryInt(c, "min", -1)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min parameter"})
		return
	}

	standings, err := h.leaderboardService.TopDecks(c.Request.Context(), c.Param("guild"), limit, minMatches)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve deck leaderboard")
		return
	}
	c.JSON(http.StatusOK, standings)
}

// GetStats retrieves guild statistics
// @Summary Get guild statistics
// @Description Number of members and of pending and accepted matches
// @Tags stats
// @Produce json
// @Param guild path string true "Guild ID"
// @Success 200 {object} models.Stats
// @Failure 500 {object} map[string]string
// @Router /guilds/{guild}/stats [get]
func (h *LeaderboardHandler) GetStats(c *gin.Context) {
	stats, err := h.leaderboardService.Stats(c.Request.Context(), c.Param("guild"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}
