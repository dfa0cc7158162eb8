package auth

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"rankbot-api/packages/auth/handlers"
	"rankbot-api/packages/auth/middleware"
	"rankbot-api/packages/auth/utils"
	coreModels "rankbot-api/packages/core/models"
)

type Options struct {
	JWTSecret   string
	TokenExpiry time.Duration
	BotKey      string
	OwnerIDs    []string
}

type Module struct {
	Handler *handlers.AuthHandler
	tokens  *utils.TokenManager
	owners  []string
}

func NewModule(opts Options, logger zerolog.Logger) *Module {
	tokens := utils.NewTokenManager(opts.JWTSecret, opts.TokenExpiry)
	return &Module{
		Handler: handlers.NewAuthHandler(tokens, opts.BotKey, logger),
		tokens:  tokens,
		owners:  opts.OwnerIDs,
	}
}

func (m *Module) SetupRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/token", m.Handler.IssueToken)
		auth.GET("/me", m.JWTMiddleware(), m.Handler.Me)
	}
}

func (m *Module) JWTMiddleware() gin.HandlerFunc {
	return middleware.JWTMiddleware(m.tokens, m.owners)
}

func (m *Module) Tokens() *utils.TokenManager {
	return m.tokens
}

func GetCaller(c *gin.Context) (coreModels.Caller, bool) {
	return middleware.GetCaller(c)
}

func RequireOwner() gin.HandlerFunc {
	return middleware.RequireOwner()
}

func RequireLeagueAdmin(checker middleware.AdminChecker) gin.HandlerFunc {
	return middleware.RequireLeagueAdmin(checker)
}
