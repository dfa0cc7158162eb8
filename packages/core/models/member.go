package models

import "time"

const DefaultPoints = 1000

type Member struct {
	GuildID   string    `gorm:"primaryKey;size:32" json:"guild_id" bson:"-"`
	UserID    string    `gorm:"primaryKey;size:32" json:"user_id" bson:"_id"`
	Name      string    `gorm:"size:255;not null" json:"name" bson:"name"`
	Points    int       `gorm:"default:1000" json:"points" bson:"points"`
	Pending   StringSet `gorm:"type:jsonb;default:'[]'::jsonb" json:"pending" bson:"pending"`
	Accepted  int       `gorm:"default:0" json:"accepted" bson:"accepted"`
	Wins      int       `gorm:"default:0" json:"wins" bson:"wins"`
	Losses    int       `gorm:"default:0" json:"losses" bson:"losses"`
	Deck      string    `gorm:"size:255" json:"deck" bson:"deck"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

func (Member) TableName() string {
	return "members"
}

// WinRate is wins over accepted matches, zero before the first accepted match.
func (m *Member) WinRate() float64 {
	if m.Accepted == 0 {
		return 0
	}
	return float64(m.Wins) / float64(m.Accepted)
}

type RegisterMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Name   string `json:"name" binding:"required"`
}

type SetDeckRequest struct {
	Deck string `json:"deck" binding:"required"`
}

// MemberStanding is a leaderboard row.
type MemberStanding struct {
	Rank    int     `json:"rank"`
	UserID  string  `json:"user_id"`
	Name    string  `json:"name"`
	Points  int     `json:"points"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Matches int     `json:"matches"`
	WinRate float64 `json:"winrate"`
}
