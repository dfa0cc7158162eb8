package repository

import (
	"context"
	"errors"
	"time"

	"rankbot-api/packages/core/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// MemberResult is the bookkeeping applied to one member when a match is accepted.
type MemberResult struct {
	UserID string
	Change int
	Won    bool
}

type MemberStore interface {
	InsertMember(ctx context.Context, member *models.Member) error
	GetMember(ctx context.Context, guildID, userID string) (*models.Member, error)
	// ListMembers returns members in registration order.
	ListMembers(ctx context.Context, guildID string) ([]models.Member, error)
	CountMembers(ctx context.Context, guildID string) (int64, error)
	DeleteMember(ctx context.Context, guildID, userID string) error
	SetMemberDeck(ctx context.Context, guildID, userID, deck string) error
	// ResetMembers restores the starting rating and clears win/loss records.
	// Pending lists are kept.
	ResetMembers(ctx context.Context, guildID string) error
}

type MatchQuery struct {
	Status string
	UserID string
	Before *time.Time
	Limit  int
	Newest bool
}

// ParticipantUpdate holds the fields to change on one participant. Nil
// fields are left alone. WinningDeck copies Deck onto the match as well.
type ParticipantUpdate struct {
	Confirmed   *bool
	Deck        *string
	WinningDeck bool
}

type MatchStore interface {
	// InsertMatch stores a new match and adds its game id to every registered
	// participant's pending list in one atomic write.
	InsertMatch(ctx context.Context, match *models.Match) error
	GetMatch(ctx context.Context, guildID, gameID string) (*models.Match, error)
	MatchExists(ctx context.Context, guildID, gameID string) (bool, error)
	FindMatches(ctx context.Context, guildID string, query MatchQuery) ([]models.Match, error)
	CountMatches(ctx context.Context, guildID, status string) (int64, error)
	// UpdateParticipant only touches PENDING matches. It reports false when no
	// pending match lists the participant.
	UpdateParticipant(ctx context.Context, guildID, gameID, userID string, update ParticipantUpdate) (bool, error)
	ConfirmAll(ctx context.Context, guildID, gameID string) (bool, error)
	// AcceptMatch moves a fully confirmed PENDING match to ACCEPTED, stores its
	// point changes, applies results to members and drops the game id from
	// pending lists. Either all of it happens or none. Exactly one concurrent
	// caller sees true.
	AcceptMatch(ctx context.Context, guildID, gameID string, acceptedAt time.Time, changes models.Delta, results []MemberResult) (bool, error)
	// DeletePendingMatch removes a PENDING match together with its pending
	// list entries.
	DeletePendingMatch(ctx context.Context, guildID, gameID string) (bool, error)
	// DeleteMatches removes every match of the guild and empties pending lists.
	DeleteMatches(ctx context.Context, guildID string) error
}

type DeckStore interface {
	// UpsertDeck inserts or replaces the deck by name and reports whether it was new.
	UpsertDeck(ctx context.Context, deck *models.Deck) (bool, error)
	FindDeck(ctx context.Context, canonicalAlias string) (*models.Deck, error)
	AddDeckAliases(ctx context.Context, canonicalAlias string, aliases, canonical []string) error
	// ListDecks returns all decks, or those of one color signature.
	ListDecks(ctx context.Context, color string) ([]models.Deck, error)
}

type ConfigStore interface {
	GetGuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error)
	SaveGuildConfig(ctx context.Context, cfg *models.GuildConfig) error
	ListGuildConfigs(ctx context.Context) ([]models.GuildConfig, error)
}

type Store interface {
	MemberStore
	MatchStore
	DeckStore
	ConfigStore
	// SetupGuild prepares storage for a guild. It is safe to call repeatedly.
	SetupGuild(ctx context.Context, guildID string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
