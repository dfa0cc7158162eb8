package core

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	authMiddleware "rankbot-api/packages/auth/middleware"
	"rankbot-api/packages/core/cron"
	"rankbot-api/packages/core/handlers"
	"rankbot-api/packages/core/lock"
	"rankbot-api/packages/core/repository"
	"rankbot-api/packages/core/services"
	"rankbot-api/packages/core/utils"
)

type Options struct {
	HashSalt           string
	AutoAcceptAfter    time.Duration
	AutoAcceptSchedule string
	DecksFile          string
}

type Module struct {
	MatchHandler          *handlers.MatchHandler
	MatchService          *services.MatchService
	MemberHandler         *handlers.MemberHandler
	MemberService         *services.MemberService
	LeaderboardHandler    *handlers.LeaderboardHandler
	LeaderboardService    *services.LeaderboardService
	DeckHandler           *handlers.DeckHandler
	DeckService           *services.DeckService
	ConfigHandler         *handlers.ConfigHandler
	ConfigService         *services.ConfigService
	AutoValidationService *services.AutoValidationService
	Scheduler             *cron.Scheduler
	logger                zerolog.Logger
}

func NewModule(store repository.Store, locker lock.Locker, opts Options, logger zerolog.Logger) (*Module, error) {
	ids, err := utils.NewIDGenerator(opts.HashSalt, utils.DefaultMaxAttempts)
	if err != nil {
		return nil, err
	}

	configService := services.NewConfigService(store, logger)
	configHandler := handlers.NewConfigHandler(configService, logger)

	deckService := services.NewDeckService(store, logger)
	deckHandler := handlers.NewDeckHandler(deckService, opts.DecksFile, logger)

	matchService := services.NewMatchService(store, locker, ids, logger,
		services.WithDeckResolver(deckService),
		services.WithAdminPredicate(configService.IsAdmin),
	)
	leaderboardService := services.NewLeaderboardService(store, configService)
	matchHandler := handlers.NewMatchHandler(matchService, leaderboardService, configService, logger)

	memberService := services.NewMemberService(store, deckService, logger)
	memberHandler := handlers.NewMemberHandler(memberService, leaderboardService, logger)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService, logger)

	autoValidationService := services.NewAutoValidationService(store, matchService, opts.AutoAcceptAfter, logger)
	scheduler := cron.NewScheduler(autoValidationService, opts.AutoAcceptSchedule, logger)

	return &Module{
		MatchHandler:          matchHandler,
		MatchService:          matchService,
		MemberHandler:         memberHandler,
		MemberService:         memberService,
		LeaderboardHandler:    leaderboardHandler,
		LeaderboardService:    leaderboardService,
		DeckHandler:           deckHandler,
		DeckService:           deckService,
		ConfigHandler:         configHandler,
		ConfigService:         configService,
		AutoValidationService: autoValidationService,
		Scheduler:             scheduler,
		logger:                logger,
	}, nil
}

// SetupRoutes registers the league API. authenticate must put the caller on
// the context, see the auth package.
func (m *Module) SetupRoutes(r *gin.Engine, authenticate gin.HandlerFunc) {
	owner := authMiddleware.RequireOwner()
	admin := authMiddleware.RequireLeagueAdmin(m.ConfigService)

	decks := r.Group("/decks")
	{
		decks.GET("", m.DeckHandler.GetDecks)
		decks.GET("/:alias", m.DeckHandler.GetDeck)
		decks.POST("", authenticate, owner, m.DeckHandler.UpsertDeck)
		decks.POST("/reload", authenticate, owner, m.DeckHandler.ReloadCatalog)
		decks.POST("/:alias/aliases", authenticate, owner, m.DeckHandler.AddAliases)
	}

	guild := r.Group("/guilds/:guild")
	{
		guild.POST("/setup", authenticate, owner, m.ConfigHandler.SetupGuild)
		guild.GET("/config", m.ConfigHandler.GetConfig)
		guild.PUT("/config/admin-role", authenticate, owner, m.ConfigHandler.SetAdminRole)
		guild.PUT("/config/thresholds", authenticate, admin, m.ConfigHandler.SetThresholds)

		guild.GET("/stats", m.LeaderboardHandler.GetStats)
		guild.GET("/leaderboard", m.LeaderboardHandler.GetTopMembers)
		guild.GET("/leaderboard/decks", m.LeaderboardHandler.GetTopDecks)

		guild.POST("/reset/scores", authenticate, owner, m.MemberHandler.ResetScores)
		guild.POST("/reset/matches", authenticate, owner, m.MemberHandler.ResetMatches)
	}

	members := guild.Group("/members")
	{
		members.GET("", m.MemberHandler.GetMembers)
		members.POST("", authenticate, m.MemberHandler.RegisterMember)
		members.PUT("/me/deck", authenticate, m.MemberHandler.SetDeck)
		members.GET("/:user", m.MemberHandler.GetMember)
		members.DELETE("/:user", authenticate, owner, m.MemberHandler.DeleteMember)
		members.GET("/:user/pending", m.MemberHandler.GetPendingMatches)
		members.GET("/:user/matches", m.MemberHandler.GetMemberMatches)
		members.GET("/:user/history", m.MemberHandler.GetHistory)
	}

	matches := guild.Group("/matches")
	{
		matches.GET("", m.MatchHandler.GetRecentMatches)
		matches.POST("", authenticate, m.MatchHandler.CreateMatch)
		matches.GET("/:id", m.MatchHandler.GetMatch)
		matches.DELETE("/:id", authenticate, m.MatchHandler.DeleteMatch)
		matches.POST("/:id/confirm", authenticate, m.MatchHandler.ConfirmMatch)
		matches.POST("/:id/unconfirm", authenticate, m.MatchHandler.UnconfirmMatch)
		matches.PUT("/:id/deck", authenticate, m.MatchHandler.SetParticipantDeck)
		matches.POST("/:id/accept", authenticate, m.MatchHandler.AcceptMatch)
	}
}

func (m *Module) StartScheduler() error {
	m.logger.Info().Msg("starting core module scheduler")
	return m.Scheduler.Start()
}

func (m *Module) StopScheduler() {
	m.logger.Info().Msg("stopping core module scheduler")
	m.Scheduler.Stop()
}

// RunAutoValidationNow triggers auto-validation outside the schedule.
func (m *Module) RunAutoValidationNow() {
	m.Scheduler.RunNow()
}
