package models

import "time"

const (
	DefaultPlayerThreshold = 5
	DefaultDeckThreshold   = 5
)

type GuildConfig struct {
	GuildID         string    `gorm:"primaryKey;size:32" json:"guild_id" bson:"_id"`
	AdminRole       string    `gorm:"size:255" json:"admin_role" bson:"admin_role"`
	PlayerThreshold int       `gorm:"default:5" json:"player_threshold" bson:"player_threshold"`
	DeckThreshold   int       `gorm:"default:5" json:"deck_threshold" bson:"deck_threshold"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

func (GuildConfig) TableName() string {
	return "guild_configs"
}

func DefaultGuildConfig(guildID string) GuildConfig {
	return GuildConfig{
		GuildID:         guildID,
		PlayerThreshold: DefaultPlayerThreshold,
		DeckThreshold:   DefaultDeckThreshold,
	}
}

type AdminRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type ThresholdRequest struct {
	Players *int `json:"players" binding:"omitempty,min=0"`
	Decks   *int `json:"decks" binding:"omitempty,min=0"`
}

type Stats struct {
	Members         int64 `json:"members"`
	PendingMatches  int64 `json:"pending_matches"`
	AcceptedMatches int64 `json:"accepted_matches"`
}
