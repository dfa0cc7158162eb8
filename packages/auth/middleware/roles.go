package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	coreModels "rankbot-api/packages/core/models"
)

type AdminChecker interface {
	IsAdmin(ctx context.Context, guildID string, caller coreModels.Caller) (bool, error)
}

// RequireOwner lets only bot owners through.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := GetCaller(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		if !caller.Owner {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions", "required_role": "owner"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireLeagueAdmin checks the caller against the admin role of the guild
// named by the :guild path parameter.
func RequireLeagueAdmin(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := GetCaller(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		admin, err := checker.IsAdmin(c.Request.Context(), c.Param("guild"), caller)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check permissions"})
			c.Abort()
			return
		}
		if !admin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions", "required_role": "league admin"})
			c.Abort()
			return
		}
		c.Next()
	}
}
