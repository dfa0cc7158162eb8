package core

import (
	"io"
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

	authMiddleware "rankbot-api/packages/auth/middleware"
	authModels "rankbot-api/packages/auth/models"
	authUtils "rankbot-api/packages/auth/utils"
	"rankbot-api/packages/core/lock"
	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/repository/memory"
)

const guildPath = "/guilds/g1"

type apiTest struct {
	t      *testing.T
	router *gin.Engine
	tokens *authUtils.TokenManager
	module *Module
}

func newAPITest(t *testing.T) *apiTest {
	t.Helper()
	gin.SetMode(gin.TestMode)

	module, err := NewModule(memory.New(), lock.NewLocal(), Options{}, zerolog.Nop())
	require.NoError(t, err)

	tokens := authUtils.NewTokenManager("test-secret", time.Hour)
	r := gin.New()
	module.SetupRoutes(r, authMiddleware.JWTMiddleware(tokens, []string{"owner"}))
	return &apiTest{t: t, router: r, tokens: tokens, module: module}
}

func (a *apiTest) do(method, path, userID, body string, roles ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		resp, err := a.tokens.GenerateToken(authModels.TokenRequest{UserID: userID, Username: "user-" + userID, Roles: roles})
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestMatchFlow(t *testing.T) {
	api := newAPITest(t)

	require.Equal(t, http.StatusOK, api.do(http.MethodPost, guildPath+"/setup", "owner", "").Code)
	for _, id := range []string{"w", "a", "b", "c"} {
		w := api.do(http.MethodPost, guildPath+"/members", id, `{"user_id":"`+id+`","name":"`+id+`"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, guildPath+"/members", "w", `{"user_id":"w","name":"w"}`).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, guildPath+"/members", "a", `{"user_id":"z","name":"z"}`).Code)

	body := `{"winner_id":"w","participant_ids":["w","a","b","c"]}`
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, guildPath+"/matches", "", body).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, guildPath+"/matches", "a", body).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, guildPath+"/matches", "w", `{"winner_id":"w","participant_ids":["w","w"]}`).Code)

	w := api.do(http.MethodPost, guildPath+"/matches", "w", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	match := decode[models.Match](t, w)
	matchPath := guildPath + "/matches/" + match.GameID

	pending := decode[[]models.Match](t, api.do(http.MethodGet, guildPath+"/members/a/pending", "", ""))
	require.Len(t, pending, 1)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, matchPath+"/confirm", "z", "").Code)
	for _, id := range []string{"w", "a", "b"} {
		result := decode[models.MatchResult](t, api.do(http.MethodPost, matchPath+"/confirm", id, ""))
		assert.Nil(t, result.Changes)
	}
	result := decode[models.MatchResult](t, api.do(http.MethodPost, matchPath+"/confirm", "c", `{}`))
	require.Len(t, result.Changes, 4)
	assert.Equal(t, 30, result.Changes[3].Change)
	assert.Equal(t, models.StatusAccepted, result.Match.Status)

	assert.Equal(t, http.StatusConflict, api.do(http.MethodDelete, matchPath, "w", "").Code)
	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, matchPath+"/unconfirm", "a", "").Code)

	board := decode[[]models.MemberStanding](t, api.do(http.MethodGet, guildPath+"/leaderboard?min=0", "", ""))
	require.Len(t, board, 4)
	assert.Equal(t, "w", board[0].UserID)
	assert.Equal(t, 1030, board[0].Points)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, guildPath+"/leaderboard?sort=elo", "", "").Code)

	stats := decode[models.Stats](t, api.do(http.MethodGet, guildPath+"/stats", "", ""))
	assert.Equal(t, models.Stats{Members: 4, AcceptedMatches: 1}, stats)

	history := decode[[]models.HistoryEntry](t, api.do(http.MethodGet, guildPath+"/members/c/history", "", ""))
	require.Len(t, history, 1)
	assert.Equal(t, -10, history[0].Change)
	assert.False(t, history[0].Won)
}

func TestAdminRoutes(t *testing.T) {
	api := newAPITest(t)
	api.do(http.MethodPost, guildPath+"/setup", "owner", "")
	api.do(http.MethodPost, guildPath+"/members", "owner", `{"user_id":"1","name":"one"}`)
	api.do(http.MethodPost, guildPath+"/members", "owner", `{"user_id":"2","name":"two"}`)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPut, guildPath+"/config/admin-role", "1", `{"role":"Judges"}`).Code)
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, guildPath+"/config/admin-role", "owner", `{"role":"Judges"}`).Code)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPut, guildPath+"/config/thresholds", "1", `{"players":1}`).Code)
	w := api.do(http.MethodPut, guildPath+"/config/thresholds", "1", `{"players":1}`, "Judges")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.GuildConfig](t, w).PlayerThreshold)

	w = api.do(http.MethodPost, guildPath+"/matches", "2", `{"winner_id":"2","participant_ids":["1","2"]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	matchPath := guildPath + "/matches/" + decode[models.Match](t, w).GameID

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, matchPath+"/accept", "1", "").Code)
	result := decode[models.MatchResult](t, api.do(http.MethodPost, matchPath+"/accept", "9", "", "Judges"))
	require.Len(t, result.Changes, 2)

	board := decode[[]models.MemberStanding](t, api.do(http.MethodGet, guildPath+"/leaderboard?sort=winrate", "", ""))
	require.Len(t, board, 2)
	assert.Equal(t, "2", board[0].UserID)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, guildPath+"/reset/scores", "1", "", "Judges").Code)
	require.Equal(t, http.StatusNoContent, api.do(http.MethodPost, guildPath+"/reset/scores", "owner", "").Code)
	member := decode[models.Member](t, api.do(http.MethodGet, guildPath+"/members/2", "", ""))
	assert.Equal(t, models.DefaultPoints, member.Points)

	require.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, guildPath+"/members/1", "owner", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, guildPath+"/members/1", "", "").Code)
}

func TestDeckRoutes(t *testing.T) {
	api := newAPITest(t)
	api.do(http.MethodPost, guildPath+"/setup", "owner", "")

	deck := `{"name":"Kinnan, Bonder Prodigy","aliases":["Kinnan"],"color":"GU"}`
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/decks", "1", deck).Code)
	assert.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/decks", "owner", deck).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodPost, "/decks", "owner", deck).Code)

	found := decode[models.Deck](t, api.do(http.MethodGet, "/decks/kinnan", "", ""))
	assert.Equal(t, "Kinnan, Bonder Prodigy", found.Name)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/decks/unknown", "", "").Code)

	w := api.do(http.MethodPost, "/decks/kinnan/aliases", "owner", `{"aliases":["KBP"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/decks/kbp", "", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/decks/reload", "owner", "").Code)

	listed := decode[[]models.Deck](t, api.do(http.MethodGet, "/decks?color=ug", "", ""))
	assert.Len(t, listed, 1)

	api.do(http.MethodPost, guildPath+"/members", "1", `{"user_id":"1","name":"one"}`)
	w = api.do(http.MethodPut, guildPath+"/members/me/deck", "1", `{"deck":"kbp"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Kinnan, Bonder Prodigy", decode[models.Member](t, w).Deck)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPut, guildPath+"/members/me/deck", "1", `{"deck":"nope"}`).Code)
}
