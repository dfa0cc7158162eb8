package models

import "time"

const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
)

type Participant struct {
	GuildID   string `gorm:"primaryKey;size:32" json:"-" bson:"-"`
	GameID    string `gorm:"primaryKey;size:16" json:"-" bson:"-"`
	UserID    string `gorm:"primaryKey;size:32" json:"user_id" bson:"user_id"`
	Position  int    `gorm:"not null" json:"-" bson:"-"`
	Name      string `gorm:"size:255" json:"name" bson:"name"`
	Deck      string `gorm:"size:255" json:"deck" bson:"deck"`
	Confirmed bool   `gorm:"default:false" json:"confirmed" bson:"confirmed"`
}

func (Participant) TableName() string {
	return "match_participants"
}

type Match struct {
	GuildID     string        `gorm:"primaryKey;size:32" json:"guild_id" bson:"-"`
	GameID      string        `gorm:"primaryKey;size:16" json:"game_id" bson:"game_id"`
	Winner      string        `gorm:"size:32;not null" json:"winner" bson:"winner"`
	WinningDeck string        `gorm:"size:255" json:"winning_deck" bson:"winning_deck"`
	Status      string        `gorm:"size:20;default:PENDING" json:"status" bson:"status"`
	Timestamp   time.Time     `gorm:"column:created_at" json:"timestamp" bson:"timestamp"`
	AcceptedAt  *time.Time    `json:"accepted_at,omitempty" bson:"accepted_at,omitempty"`
	Changes     Delta         `gorm:"type:jsonb" json:"changes,omitempty" bson:"changes,omitempty"`
	Players     []Participant `gorm:"foreignKey:GuildID,GameID;references:GuildID,GameID" json:"players" bson:"players"`
}

func (Match) TableName() string {
	return "matches"
}

func (m *Match) IsAccepted() bool {
	return m.Status == StatusAccepted
}

// Participant returns the player entry for userID.
func (m *Match) Participant(userID string) (*Participant, bool) {
	for i := range m.Players {
		if m.Players[i].UserID == userID {
			return &m.Players[i], true
		}
	}
	return nil, false
}

func (m *Match) AllConfirmed() bool {
	for _, p := range m.Players {
		if !p.Confirmed {
			return false
		}
	}
	return len(m.Players) > 0
}

func (m *Match) PlayerIDs() []string {
	ids := make([]string, 0, len(m.Players))
	for _, p := range m.Players {
		ids = append(ids, p.UserID)
	}
	return ids
}

type CreateMatchRequest struct {
	WinnerID       string   `json:"winner_id" binding:"required"`
	ParticipantIDs []string `json:"participant_ids" binding:"required,min=2"`
	Seed           int64    `json:"seed,omitempty"`
}

type ConfirmMatchRequest struct {
	Deck string `json:"deck"`
}

type ParticipantDeckRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Deck   string `json:"deck" binding:"required"`
}

// MatchResult is returned by confirmation endpoints. Changes is set only
// when the call settled the match.
type MatchResult struct {
	Match   *Match `json:"match"`
	Changes Delta  `json:"changes,omitempty"`
}

// HistoryEntry is a member's point change from one accepted match.
type HistoryEntry struct {
	GameID     string     `json:"game_id"`
	Won        bool       `json:"won"`
	Deck       string     `json:"deck"`
	Change     int        `json:"change"`
	AcceptedAt *time.Time `json:"accepted_at"`
}
