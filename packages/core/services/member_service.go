package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/repository"
)

type memberStore interface {
	repository.MemberStore
	repository.MatchStore
}

type MemberService struct {
	store  memberStore
	decks  DeckResolver
	logger zerolog.Logger
}

func NewMemberService(store memberStore, decks DeckResolver, logger zerolog.Logger) *MemberService {
	return &MemberService{
		store:  store,
		decks:  decks,
		logger: logger.With().Str("service", "member").Logger(),
	}
}

func (s *MemberService) Register(ctx context.Context, guildID, userID, name string) (*models.Member, error) {
	member := &models.Member{
		GuildID:   guildID,
		UserID:    strings.TrimSpace(userID),
		Name:      strings.TrimSpace(name),
		Points:    models.DefaultPoints,
		Pending:   models.StringSet{},
		CreatedAt: time.Now().UTC(),
	}
	if member.UserID == "" || member.Name == "" {
		return nil, ErrInvalidMember
	}

	if err := s.store.InsertMember(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrMemberExists
		}
		return nil, err
	}

	s.logger.Info().Str("guild", guildID).Str("user", member.UserID).Msg("member registered")
	return member, nil
}

func (s *MemberService) Get(ctx context.Context, guildID, userID string) (*models.Member, error) {
	member, err := s.store.GetMember(ctx, guildID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

func (s *MemberService) List(ctx context.Context, guildID string) ([]models.Member, error) {
	return s.store.ListMembers(ctx, guildID)
}

func (s *MemberService) Delete(ctx context.Context, guildID, userID string) error {
	err := s.store.DeleteMember(ctx, guildID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrMemberNotFound
	}
	if err == nil {
		s.logger.Info().Str("guild", guildID).Str("user", userID).Msg("member deleted")
	}
	return err
}

// SetDeck stores the deck a member is currently playing.
func (s *MemberService) SetDeck(ctx context.Context, guildID, userID, deck string) (*models.Member, error) {
	name := deck
	if s.decks != nil {
		resolved, err := s.decks.ResolveDeck(ctx, deck)
		if err != nil {
			return nil, err
		}
		name = resolved
	}

	if err := s.store.SetMemberDeck(ctx, guildID, userID, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return s.Get(ctx, guildID, userID)
}

// History lists a member's accepted matches, newest first, with the points
// each one moved.
func (s *MemberService) History(ctx context.Context, guildID, userID string, limit int) ([]models.HistoryEntry, error) {
	if _, err := s.Get(ctx, guildID, userID); err != nil {
		return nil, err
	}

	matches, err := s.store.FindMatches(ctx, guildID, repository.MatchQuery{
		Status: models.StatusAccepted,
		UserID: userID,
		Limit:  limit,
		Newest: true,
	})
	if err != nil {
		return nil, err
	}

	history := make([]models.HistoryEntry, 0, len(matches))
	for _, m := range matches {
		entry := models.HistoryEntry{
			GameID:     m.GameID,
			Won:        m.Winner == userID,
			AcceptedAt: m.AcceptedAt,
		}
		if p, ok := m.Participant(userID); ok {
			entry.Deck = p.Deck
		}
		if change, ok := m.Changes.For(userID); ok {
			entry.Change = change.Change
		}
		history = append(history, entry)
	}
	return history, nil
}

// ResetScores puts every member back to the starting rating with no record.
// Pending matches and pending lists are left alone.
func (s *MemberService) ResetScores(ctx context.Context, guildID string) error {
	if err := s.store.ResetMembers(ctx, guildID); err != nil {
		return err
	}
	s.logger.Warn().Str("guild", guildID).Msg("scores reset")
	return nil
}

// ResetMatches deletes every match of the guild and empties pending lists.
func (s *MemberService) ResetMatches(ctx context.Context, guildID string) error {
	if err := s.store.DeleteMatches(ctx, guildID); err != nil {
		return err
	}
	s.logger.Warn().Str("guild", guildID).Msg("matches reset")
	return nil
}
