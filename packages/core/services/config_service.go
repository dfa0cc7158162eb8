package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/repository"
)

type configStore interface {
	repository.ConfigStore
	SetupGuild(ctx context.Context, guildID string) error
}

// ConfigService manages per-guild league settings.
type ConfigService struct {
	store  configStore
	logger zerolog.Logger
}

func NewConfigService(store configStore, logger zerolog.Logger) *ConfigService {
	return &ConfigService{
		store:  store,
		logger: logger.With().Str("service", "config").Logger(),
	}
}

// Get returns the stored settings, or the defaults for a guild never set up.
func (s *ConfigService) Get(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	cfg, err := s.store.GetGuildConfig(ctx, guildID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			def := models.DefaultGuildConfig(guildID)
			return &def, nil
		}
		return nil, err
	}
	return cfg, nil
}

// SetupGuild prepares storage and default settings when the bot joins a guild.
func (s *ConfigService) SetupGuild(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	if err := s.store.SetupGuild(ctx, guildID); err != nil {
		return nil, err
	}

	cfg, err := s.store.GetGuildConfig(ctx, guildID)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	def := models.DefaultGuildConfig(guildID)
	def.CreatedAt = time.Now().UTC()
	def.UpdatedAt = def.CreatedAt
	if err := s.store.SaveGuildConfig(ctx, &def); err != nil {
		return nil, err
	}
	s.logger.Info().Str("guild", guildID).Msg("guild set up")
	return &def, nil
}

func (s *ConfigService) update(ctx context.Context, guildID string, apply func(*models.GuildConfig)) (*models.GuildConfig, error) {
	cfg, err := s.Get(ctx, guildID)
	if err != nil {
		return nil, err
	}
	apply(cfg)
	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now
	if err := s.store.SaveGuildConfig(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *ConfigService) SetAdminRole(ctx context.Context, guildID, role string) (*models.GuildConfig, error) {
	cfg, err := s.update(ctx, guildID, func(c *models.GuildConfig) { c.AdminRole = role })
	if err == nil {
		s.logger.Info().Str("guild", guildID).Str("role", role).Msg("admin role set")
	}
	return cfg, err
}

// SetThresholds changes the leaderboard minimum match counts. Nil leaves a value unchanged.
func (s *ConfigService) SetThresholds(ctx context.Context, guildID string, players, decks *int) (*models.GuildConfig, error) {
	return s.update(ctx, guildID, func(c *models.GuildConfig) {
		if players != nil && *players >= 0 {
			c.PlayerThreshold = *players
		}
		if decks != nil && *decks >= 0 {
			c.DeckThreshold = *decks
		}
	})
}

func (s *ConfigService) List(ctx context.Context) ([]models.GuildConfig, error) {
	return s.store.ListGuildConfigs(ctx)
}

// IsAdmin reports whether caller holds the guild's admin role. Bot owners
// always pass. A guild without an admin role has no admins.
func (s *ConfigService) IsAdmin(ctx context.Context, guildID string, caller models.Caller) (bool, error) {
	if caller.Owner {
		return true, nil
	}
	cfg, err := s.Get(ctx, guildID)
	if err != nil {
		return false, err
	}
	if cfg.AdminRole == "" {
		return false, nil
	}
	return caller.HasRole(cfg.AdminRole), nil
}
