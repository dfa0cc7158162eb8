package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/repository"
)

type autoValidationStore interface {
	repository.MatchStore
	ListGuildConfigs(ctx context.Context) ([]models.GuildConfig, error)
}

// AutoValidationService settles PENDING matches that nobody confirmed within
// the configured window. A zero window disables it.
type AutoValidationService struct {
	store   autoValidationStore
	matches *MatchService
	after   time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

func NewAutoValidationService(store autoValidationStore, matches *MatchService, after time.Duration, logger zerolog.Logger) *AutoValidationService {
	return &AutoValidationService{
		store:   store,
		matches: matches,
		after:   after,
		now:     time.Now,
		logger:  logger.With().Str("service", "auto_validation").Logger(),
	}
}

func (s *AutoValidationService) Enabled() bool {
	return s.after > 0
}

func (s *AutoValidationService) expired(ctx context.Context, guildID string) ([]models.Match, error) {
	cutoff := s.now().Add(-s.after).UTC()
	return s.store.FindMatches(ctx, guildID, repository.MatchQuery{
		Status: models.StatusPending,
		Before: &cutoff,
	})
}

// ValidateExpiredMatches force-accepts every expired match in every known
// guild and returns how many were settled. One failing match does not stop
// the others.
func (s *AutoValidationService) ValidateExpiredMatches(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}

	guilds, err := s.store.ListGuildConfigs(ctx)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, g := range guilds {
		matches, err := s.expired(ctx, g.GuildID)
		if err != nil {
			s.logger.Error().Err(err).Str("guild", g.GuildID).Msg("failed to find expired matches")
			continue
		}

		for _, m := range matches {
			result, err := s.matches.forceAccept(ctx, g.GuildID, m.GameID)
			if err != nil {
				s.logger.Error().Err(err).Str("guild", g.GuildID).Str("game_id", m.GameID).Msg("auto-accept failed")
				continue
			}
			if result.Changes != nil {
				settled++
				s.logger.Info().
					Str("guild", g.GuildID).
					Str("game_id", m.GameID).
					Time("created_at", m.Timestamp).
					Msg("match auto-accepted")
			}
		}
	}
	return settled, nil
}

// GetExpiredMatchesCount counts pending matches past the window across guilds.
func (s *AutoValidationService) GetExpiredMatchesCount(ctx context.Context) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}

	guilds, err := s.store.ListGuildConfigs(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, g := range guilds {
		matches, err := s.expired(ctx, g.GuildID)
		if err != nil {
			return 0, err
		}
		total += int64(len(matches))
	}
	return total, nil
}
