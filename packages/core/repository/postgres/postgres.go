// Package postgres keeps every guild in shared tables keyed by guild_id.
// The schema is created by the migrations package.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/repository"
)

type Store struct {
	db *gorm.DB
}

var _ repository.Store = (*Store)(nil)

// New expects a handle opened with TranslateError so that unique violations
// surface as gorm.ErrDuplicatedKey.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func orderedPlayers(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func wrapNotFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	return eris.Wrap(err, msg)
}

func (s *Store) SetupGuild(context.Context, string) error {
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return eris.Wrap(err, "failed to get sql handle")
	}
	return eris.Wrap(sqlDB.PingContext(ctx), "postgres ping failed")
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return eris.Wrap(err, "failed to get sql handle")
	}
	return sqlDB.Close()
}

func (s *Store) InsertMember(ctx context.Context, member *models.Member) error {
	if member.Pending == nil {
		member.Pending = models.StringSet{}
	}
	err := s.db.WithContext(ctx).Create(member).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrDuplicate
	}
	return eris.Wrap(err, "failed to insert member")
}

func (s *Store) GetMember(ctx context.Context, guildID, userID string) (*models.Member, error) {
	var member models.Member
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		First(&member).Error
	if err != nil {
		return nil, wrapNotFound(err, "failed to find member")
	}
	return &member, nil
}

func (s *Store) ListMembers(ctx context.Context, guildID string) ([]models.Member, error) {
	members := []models.Member{}
	err := s.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Order("created_at ASC, user_id ASC").
		Find(&members).Error
	return members, eris.Wrap(err, "failed to list members")
}

func (s *Store) CountMembers(ctx context.Context, guildID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Member{}).Where("guild_id = ?", guildID).Count(&n).Error
	return n, eris.Wrap(err, "failed to count members")
}

func (s *Store) DeleteMember(ctx context.Context, guildID, userID string) error {
	result := s.db.WithContext(ctx).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Delete(&models.Member{})
	if result.Error != nil {
		return eris.Wrap(result.Error, "failed to delete member")
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) SetMemberDeck(ctx context.Context, guildID, userID, deck string) error {
	result := s.db.WithContext(ctx).Model(&models.Member{}).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Update("deck", deck)
	if result.Error != nil {
		return eris.Wrap(result.Error, "failed to set member deck")
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func pushPending(tx *gorm.DB, guildID string, userIDs []string, gameID string) error {
	if len(userIDs) == 0 {
		return nil
	}
	return tx.Exec(`
		UPDATE members SET pending = pending || jsonb_build_array(?::text)
		WHERE guild_id = ? AND user_id IN ? AND NOT pending @> jsonb_build_array(?::text)`,
		gameID, guildID, userIDs, gameID,
	).Error
}

func pullPending(tx *gorm.DB, guildID, gameID string) error {
	return tx.Exec(
		`UPDATE members SET pending = pending - ?::text WHERE guild_id = ? AND pending @> jsonb_build_array(?::text)`,
		gameID, guildID, gameID,
	).Error
}

func applyResults(tx *gorm.DB, guildID string, results []repository.MemberResult) error {
	for _, r := range results {
		updates := map[string]interface{}{
			"points":   gorm.Expr("points + ?", r.Change),
			"accepted": gorm.Expr("accepted + 1"),
		}
		if r.Won {
			updates["wins"] = gorm.Expr("wins + 1")
		} else {
			updates["losses"] = gorm.Expr("losses + 1")
		}
		err := tx.Model(&models.Member{}).
			Where("guild_id = ? AND user_id = ?", guildID, r.UserID).
			Updates(updates).Error
		if err != nil {
			return eris.Wrapf(err, "failed to apply result for member %s", r.UserID)
		}
	}
	return nil
}

func (s *Store) ResetMembers(ctx context.Context, guildID string) error {
	err := s.db.WithContext(ctx).Model(&models.Member{}).
		Where("guild_id = ?", guildID).
		Updates(map[string]interface{}{
			"points":   models.DefaultPoints,
			"accepted": 0,
			"wins":     0,
			"losses":   0,
		}).Error
	return eris.Wrap(err, "failed to reset members")
}

func (s *Store) InsertMatch(ctx context.Context, match *models.Match) error {
	for i := range match.Players {
		match.Players[i].GuildID = match.GuildID
		match.Players[i].GameID = match.GameID
		match.Players[i].Position = i
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(match).Error; err != nil {
			return err
		}
		return pushPending(tx, match.GuildID, match.PlayerIDs(), match.GameID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrDuplicate
	}
	return eris.Wrap(err, "failed to insert match")
}

func (s *Store) GetMatch(ctx context.Context, guildID, gameID string) (*models.Match, error) {
	var match models.Match
	err := s.db.WithContext(ctx).
		Preload("Players", orderedPlayers).
		Where("guild_id = ? AND game_id = ?", guildID, gameID).
		First(&match).Error
	if err != nil {
		return nil, wrapNotFound(err, "failed to find match")
	}
	return &match, nil
}

func (s *Store) MatchExists(ctx context.Context, guildID, gameID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Match{}).
		Where("guild_id = ? AND game_id = ?", guildID, gameID).
		Count(&n).Error
	return n > 0, eris.Wrap(err, "failed to look up match id")
}

func (s *Store) FindMatches(ctx context.Context, guildID string, query repository.MatchQuery) ([]models.Match, error) {
	q := s.db.WithContext(ctx).Preload("Players", orderedPlayers).Where("guild_id = ?", guildID)
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}
	if query.UserID != "" {
		q = q.Where(`EXISTS (
			SELECT 1 FROM match_participants p
			WHERE p.guild_id = matches.guild_id AND p.game_id = matches.game_id AND p.user_id = ?)`,
			query.UserID)
	}
	if query.Before != nil {
		q = q.Where("created_at < ?", *query.Before)
	}
	if query.Newest {
		q = q.Order("created_at DESC, game_id DESC")
	} else {
		q = q.Order("created_at ASC, game_id ASC")
	}
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}

	matches := []models.Match{}
	err := q.Find(&matches).Error
	return matches, eris.Wrap(err, "failed to find matches")
}

func (s *Store) CountMatches(ctx context.Context, guildID, status string) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Match{}).Where("guild_id = ?", guildID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var n int64
	err := q.Count(&n).Error
	return n, eris.Wrap(err, "failed to count matches")
}

const pendingParent = `EXISTS (
	SELECT 1 FROM matches m
	WHERE m.guild_id = match_participants.guild_id AND m.game_id = match_participants.game_id AND m.status = ?)`

func (s *Store) UpdateParticipant(ctx context.Context, guildID, gameID, userID string, update repository.ParticipantUpdate) (bool, error) {
	updated := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{}
		if update.Confirmed != nil {
			fields["confirmed"] = *update.Confirmed
		}
		if update.Deck != nil {
			fields["deck"] = *update.Deck
		}

		q := tx.Model(&models.Participant{}).
			Where("guild_id = ? AND game_id = ? AND user_id = ?", guildID, gameID, userID).
			Where(pendingParent, models.StatusPending)
		if len(fields) == 0 {
			var n int64
			if err := q.Count(&n).Error; err != nil {
				return err
			}
			updated = n > 0
			return nil
		}

		result := q.Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		updated = result.RowsAffected > 0
		if !updated || update.Deck == nil || !update.WinningDeck {
			return nil
		}
		return tx.Model(&models.Match{}).
			Where("guild_id = ? AND game_id = ? AND status = ?", guildID, gameID, models.StatusPending).
			Update("winning_deck", *update.Deck).Error
	})
	if err != nil {
		return false, eris.Wrap(err, "failed to update participant")
	}
	return updated, nil
}

func (s *Store) ConfirmAll(ctx context.Context, guildID, gameID string) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.Participant{}).
		Where("guild_id = ? AND game_id = ?", guildID, gameID).
		Where(pendingParent, models.StatusPending).
		Update("confirmed", true)
	if result.Error != nil {
		return false, eris.Wrap(result.Error, "failed to confirm all participants")
	}
	return result.RowsAffected > 0, nil
}

func (s *Store) AcceptMatch(ctx context.Context, guildID, gameID string, acceptedAt time.Time, changes models.Delta, results []repository.MemberResult) (bool, error) {
	accepted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Match{}).
			Where("guild_id = ? AND game_id = ? AND status = ?", guildID, gameID, models.StatusPending).
			Where(`NOT EXISTS (
				SELECT 1 FROM match_participants p
				WHERE p.guild_id = matches.guild_id AND p.game_id = matches.game_id AND NOT p.confirmed)`).
			Updates(map[string]interface{}{
				"status":      models.StatusAccepted,
				"accepted_at": acceptedAt,
				"changes":     changes,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		if err := applyResults(tx, guildID, results); err != nil {
			return err
		}
		if err := pullPending(tx, guildID, gameID); err != nil {
			return err
		}
		accepted = true
		return nil
	})
	if err != nil {
		return false, eris.Wrap(err, "failed to accept match")
	}
	return accepted, nil
}

func (s *Store) DeletePendingMatch(ctx context.Context, guildID, gameID string) (bool, error) {
	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("guild_id = ? AND game_id = ? AND status = ?", guildID, gameID, models.StatusPending).
			Delete(&models.Match{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		deleted = true
		if err := tx.Where("guild_id = ? AND game_id = ?", guildID, gameID).Delete(&models.Participant{}).Error; err != nil {
			return err
		}
		return pullPending(tx, guildID, gameID)
	})
	if err != nil {
		return false, eris.Wrap(err, "failed to delete match")
	}
	return deleted, nil
}

func (s *Store) DeleteMatches(ctx context.Context, guildID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("guild_id = ?", guildID).Delete(&models.Participant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("guild_id = ?", guildID).Delete(&models.Match{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Member{}).
			Where("guild_id = ?", guildID).
			Update("pending", gorm.Expr("'[]'::jsonb")).Error
	})
	return eris.Wrap(err, "failed to delete matches")
}

func (s *Store) UpsertDeck(ctx context.Context, deck *models.Deck) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Deck{}).Where("name = ?", deck.Name).Count(&n).Error; err != nil {
			return err
		}
		created = n == 0
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			UpdateAll: true,
		}).Create(deck).Error
	})
	if err != nil {
		return false, eris.Wrap(err, "failed to upsert deck")
	}
	return created, nil
}

func (s *Store) FindDeck(ctx context.Context, canonicalAlias string) (*models.Deck, error) {
	var deck models.Deck
	err := s.db.WithContext(ctx).
		Where("canonical_aliases @> jsonb_build_array(?::text)", canonicalAlias).
		Order("name ASC").
		First(&deck).Error
	if err != nil {
		return nil, wrapNotFound(err, "failed to find deck")
	}
	return &deck, nil
}

func (s *Store) AddDeckAliases(ctx context.Context, canonicalAlias string, aliases, canonical []string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var deck models.Deck
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("canonical_aliases @> jsonb_build_array(?::text)", canonicalAlias).
			Order("name ASC").
			First(&deck).Error
		if err != nil {
			return err
		}
		for _, a := range aliases {
			deck.Aliases.Add(a)
		}
		for _, c := range canonical {
			deck.CanonicalAliases.Add(c)
		}
		return tx.Model(&deck).Updates(map[string]interface{}{
			"aliases":           deck.Aliases,
			"canonical_aliases": deck.CanonicalAliases,
		}).Error
	})
	if err != nil {
		return wrapNotFound(err, "failed to add deck aliases")
	}
	return nil
}

func (s *Store) ListDecks(ctx context.Context, color string) ([]models.Deck, error) {
	q := s.db.WithContext(ctx).Order("name ASC")
	if color != "" {
		q = q.Where("color = ?", color)
	}
	decks := []models.Deck{}
	err := q.Find(&decks).Error
	return decks, eris.Wrap(err, "failed to list decks")
}

func (s *Store) GetGuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	var cfg models.GuildConfig
	err := s.db.WithContext(ctx).Where("guild_id = ?", guildID).First(&cfg).Error
	if err != nil {
		return nil, wrapNotFound(err, "failed to find guild config")
	}
	return &cfg, nil
}

func (s *Store) SaveGuildConfig(ctx context.Context, cfg *models.GuildConfig) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"admin_role", "player_threshold", "deck_threshold", "updated_at"}),
	}).Create(cfg).Error
	return eris.Wrap(err, "failed to save guild config")
}

func (s *Store) ListGuildConfigs(ctx context.Context) ([]models.GuildConfig, error) {
	configs := []models.GuildConfig{}
	err := s.db.WithContext(ctx).Order("guild_id ASC").Find(&configs).Error
	return configs, eris.Wrap(err, "failed to list guild configs")
}
