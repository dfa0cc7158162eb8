package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankbot-api/packages/auth/middleware"
	"rankbot-api/packages/auth/models"
	"rankbot-api/packages/auth/utils"
)

func TestIssueToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := utils.NewTokenManager("secret", time.Minute)
	h := NewAuthHandler(tokens, "bot-key", zerolog.Nop())
	r := gin.New()
	r.POST("/auth/token", h.IssueToken)
	r.GET("/auth/me", middleware.JWTMiddleware(tokens, nil), h.Me)

	post := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set(botKeyHeader, key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, post("", `{"user_id":"1","username":"a"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, post("wrong", `{"user_id":"1","username":"a"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post("bot-key", `{"username":"a"}`).Code)

	w := post("bot-key", `{"user_id":"1","username":"a","roles":["Judges"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Bearer", resp.TokenType)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	me := httptest.NewRecorder()
	r.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.JSONEq(t, `{"user_id":"1","name":"a","roles":["Judges"],"owner":false}`, me.Body.String())
}
