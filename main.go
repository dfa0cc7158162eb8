package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"rankbot-api/config"
	_ "rankbot-api/docs" // Swagger docs
	"rankbot-api/packages/auth"
	"rankbot-api/packages/core"
	"rankbot-api/packages/core/repository"
)

// @title           Rankbot League API
// @version         1.0
// @description     Match confirmation and rating API for chat-guild ranking leagues

// @license.name  MIT
// @license.url   http://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := config.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	locker, redisClient, err := config.NewLocker(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up match locks")
	}

	coreModule, err := core.NewModule(store, locker, core.Options{
		HashSalt:           cfg.HashSalt,
		AutoAcceptAfter:    cfg.AutoAcceptAfter,
		AutoAcceptSchedule: cfg.AutoAcceptSchedule,
		DecksFile:          cfg.DecksFile,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build core module")
	}

	if cfg.DecksFile != "" {
		added, err := coreModule.DeckService.LoadCatalogFile(ctx, cfg.DecksFile)
		if err != nil {
			logger.Error().Err(err).Str("file", cfg.DecksFile).Msg("failed to load deck catalog")
		} else {
			logger.Info().Int("added", added).Msg("deck catalog imported")
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	authModule := auth.NewModule(auth.Options{
		JWTSecret:   cfg.JWTSecret,
		TokenExpiry: cfg.TokenExpiry,
		BotKey:      cfg.BotAPIKey,
		OwnerIDs:    cfg.OwnerIDs,
	}, logger)
	authModule.SetupRoutes(r)
	coreModule.SetupRoutes(r, authModule.JWTMiddleware())

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/health", healthHandler(store))

	if err := coreModule.StartScheduler(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start scheduler")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	coreModule.StopScheduler()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to close store")
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", "X-Bot-Key")
	return c
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Message  string `json:"message" example:"Server is running"`
	Database string `json:"database" example:"connected"`
}

// @Summary Health Check
// @Description Check if the server is running and the store is reachable
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func healthHandler(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, HealthResponse{Message: "Server is running", Database: "unreachable"})
			return
		}
		c.JSON(http.StatusOK, HealthResponse{Message: "Server is running", Database: "connected"})
	}
}
