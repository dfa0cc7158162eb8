package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rankbot-api/packages/auth/utils"
	coreModels "rankbot-api/packages/core/models"
)

const callerKey = "caller"

// JWTMiddleware authenticates the bearer token and stores the acting caller
// on the context. Owner status comes from the configured owner ids, never
// from the token.
func JWTMiddleware(tokens *utils.TokenManager, ownerIDs []string) gin.HandlerFunc {
	owners := make(map[string]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = struct{}{}
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		claims, err := tokens.ParseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		_, owner := owners[claims.UserID]
		c.Set(callerKey, coreModels.Caller{
			UserID: claims.UserID,
			Name:   claims.Username,
			Roles:  claims.Roles,
			Owner:  owner,
		})
		c.Next()
	}
}

func GetCaller(c *gin.Context) (coreModels.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return coreModels.Caller{}, false
	}
	caller, ok := v.(coreModels.Caller)
	return caller, ok
}
