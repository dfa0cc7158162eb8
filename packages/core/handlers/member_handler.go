package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	authMiddleware "rankbot-api/packages/auth/middleware"
	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/services"
)

type MemberHandler struct {
	memberService      *services.MemberService
	leaderboardService *services.LeaderboardService
	logger             zerolog.Logger
}

func NewMemberHandler(memberService *services.MemberService, leaderboardService *services.LeaderboardService, logger zerolog.Logger) *MemberHandler {
	return &MemberHandler{
		memberService:      memberService,
		leaderboardService: leaderboardService,
		logger:             logger.With().Str("handler", "member").Logger(),
	}
}

// RegisterMember registers a member to the guild league
// @Summary Register a member
// @Description Members register themselves. Bot owners may register anyone.
// @Tags members
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param guild path string true "Guild ID"
// @Param member body models.RegisterMemberRequest true "Member"
// @Success 201 {object} models.Member
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /guilds/{guild}/members [post]
func (h *MemberHandler) RegisterMember(c *gin.Context) {
	caller, ok := authMiddleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.RegisterMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.UserID != caller.UserID && !caller.Owner {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only register yourself"})
		return
	}

	member, err := h.memberService.Register(c.Request.Context(), c.Param("guild"), req.UserID, req.Name)
	if err != nil {
		respondError(c, h.logger, err, "Failed to register member")
		return
	}
	c.JSON(http.StatusCreated, member)
}

// GetMembers lists every registered member
// @Summary List members
// @Tags members
// @Produce json
// @Param guild path string true "Guild ID"
// @Success 200 {array} models.Member
// @Failure 500 {object} map[string]string
// @Router /guilds/{guild}/members [get]
func (h *MemberHandler) GetMembers(c *gin.Context) {
	members, err := h.memberService.List(c.Request.Context(), c.Param("guild"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve members")
		return
	}
	c.JSON(http.StatusOK, members)
}

// GetMember retrieves a member by user ID
// @Summary Get member
// @Tags members
// @Produce json
// @Param guild path string true "Guild ID"
// @Param user path string true "User ID"
// @Success 200 {object} models.Member
// @Failure 404 {object} map[string]string
// @Router /guilds/{guild}/members/{user} [get]
func (h *MemberHandler) GetMember(c *gin.Context) {
	member, err := h.memberService.Get(c.Request.Context(), c.Param("guild"), c.Param("user"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve member")
		return
	}
	c.JSON(http.StatusOK, member)
}

// DeleteMember removes a member (owner)
// @Summary Delete member
// @Tags members
// @Security BearerAuth
// @Param guild path string true "Guild ID"
// @Param user path string true "User ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /guilds/{guild}/members/{user} [delete]
func (h *MemberHandler) DeleteMember(c *gin.Context) {
	if err := h.memberService.Delete(c.Request.Context(), c.Param("guild"), c.Param("user")); err != nil {
		respondError(c, h.logger, err, "Failed to delete member")
		return
	}
	c.Status(http.StatusNoContent)
}

// SetDeck stores the caller's current deck
// @Summary Set my deck
// @Tags members
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param guild path string true "Guild ID"
// @Param body body models.SetDeckRequest true "Deck"
// @Success 200 {object} models.Member
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /guilds/{guild}/members/me/deck [put]
func (h *MemberHandler) SetDeck(c *gin.Context) {
	caller, ok := authMiddleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.SetDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	member, err := h.memberService.SetDeck(c.Request.Context(), c.Param("guild"), caller.UserID, req.Deck)
	if err != nil {
		respondError(c, h.logger, err, "Failed to set deck")
		return
	}
	c.JSON(http.StatusOK, member)
}

// GetPendingMatches lists a member's pending matches
// @Summary Get member pending matches
// @Tags members
// @Produce json
// @Param guild path string true "Guild ID"
// @Param user path string true "User ID"
// @Success 200 {array} models.Match
// @Failure 404 {object} map[string]string
// @Router /guilds/{guild}/members/{user}/pending [get]
func (h *MemberHandler) GetPendingMatches(c *gin.Context) {
	matches, err := h.leaderboardService.PendingMatches(c.Request.Context(), c.Param("guild"), c.Param("user"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve pending matches")
		return
	}
	c.JSON(http.StatusOK, matches)
}

// GetMemberMatches lists a member's most recent matches
// @Summary Get member matches
// @Tags members
// @Produce json
// @Param guild path string true "Guild ID"
// @Param user path string true "User ID"
// @Param limit query int false "Number of matches (default: 10, max: 100)"
// @Success 200 {array} models.Match
// @Failure 400 {object} map[string]string
// @Router /guilds/{guild}/members/{user}/matches [get]
func (h *MemberHandler) GetMemberMatches(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}

	matches, err := h.leaderboardService.MemberMatches(c.Request.Context(), c.Param("guild"), c.Param("user"), limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve matches")
		return
	}
	c.JSON(http.StatusOK, matches)
}

// GetHistory lists the point changes of a member's accepted matches
// @Summary Get member point history
// @Tags members
// @Produce json
// @Param guild path string true "Guild ID"
// @Param user path string true "User ID"
// @Param limit query int false "Number of entries (default: 10, max: 100)"
// @Success 200 {array} models.HistoryEntry
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /guilds/{guild}/members/{user}/history [get]
func (h *MemberHandler) GetHistory(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}

	history, err := h.memberService.History(c.Request.Context(), c.Param("guild"), c.Param("user"), limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve history")
		return
	}
	c.JSON(http.StatusOK, history)
}

// ResetScores puts every member back to the starting rating (owner)
// @Summary Reset scores
// @Tags members
// @Security BearerAuth
// @Param guild path string true "Guild ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Router /guilds/{guild}/reset/scores [post]
func (h *MemberHandler) ResetScores(c *gin.Context) {
	if err := h.memberService.ResetScores(c.Request.Context(), c.Param("guild")); err != nil {
		respondError(c, h.logger, err, "Failed to reset scores")
		return
	}
	c.Status(http.StatusNoContent)
}

// ResetMatches deletes every match of the guild (owner)
// @Summary Reset matches
// @Tags members
// @Security BearerAuth
// @Param guild path string true "Guild ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Router /guilds/{guild}/reset/matches [post]
func (h *MemberHandler) ResetMatches(c *gin.Context) {
	if err := h.memberService.ResetMatches(c.Request.Context(), c.Param("guild")); err != nil {
		respondError(c, h.logger, err, "Failed to reset matches")
		return
	}
	c.Status(http.StatusNoContent)
}
