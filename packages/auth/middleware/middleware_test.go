package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankbot-api/packages/auth/models"
	"rankbot-api/packages/auth/utils"
	coreModels "rankbot-api/packages/core/models"
)

type adminRole string

func (r adminRole) IsAdmin(_ context.Context, guildID string, caller coreModels.Caller) (bool, error) {
	if guildID == "broken" {
		return false, errors.New("store down")
	}
	return caller.Owner || caller.HasRole(string(r)), nil
}

func newRouter(tokens *utils.TokenManager, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWTMiddleware(tokens, []string{"owner-1"})}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		caller, _ := GetCaller(c)
		c.JSON(http.StatusOK, caller)
	})
	r.GET("/guilds/:guild/x", handlers...)
	return r
}

func token(t *testing.T, tokens *utils.TokenManager, userID string, roles ...string) string {
	t.Helper()
	resp, err := tokens.GenerateToken(models.TokenRequest{UserID: userID, Username: "u" + userID, Roles: roles})
	require.NoError(t, err)
	return resp.AccessToken
}

func do(r http.Handler, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddleware(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Minute)
	r := newRouter(tokens)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/guilds/g/x", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/guilds/g/x", "garbage").Code)

	w := do(r, "/guilds/g/x", token(t, tokens, "7", "Players"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"7","name":"u7","roles":["Players"],"owner":false}`, w.Body.String())

	w = do(r, "/guilds/g/x", token(t, tokens, "owner-1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"owner":true`)
}

func TestRequireOwner(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Minute)
	r := newRouter(tokens, RequireOwner())

	assert.Equal(t, http.StatusForbidden, do(r, "/guilds/g/x", token(t, tokens, "7")).Code)
	assert.Equal(t, http.StatusOK, do(r, "/guilds/g/x", token(t, tokens, "owner-1")).Code)
}

func TestRequireLeagueAdmin(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Minute)
	r := newRouter(tokens, RequireLeagueAdmin(adminRole("Judges")))

	assert.Equal(t, http.StatusForbidden, do(r, "/guilds/g/x", token(t, tokens, "7", "Players")).Code)
	assert.Equal(t, http.StatusOK, do(r, "/guilds/g/x", token(t, tokens, "7", "Judges")).Code)
	assert.Equal(t, http.StatusOK, do(r, "/guilds/g/x", token(t, tokens, "owner-1")).Code)
	assert.Equal(t, http.StatusInternalServerError, do(r, "/guilds/broken/x", token(t, tokens, "7")).Code)
}
