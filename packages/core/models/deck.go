package models

type Deck struct {
	Name             string    `gorm:"primaryKey;size:255" json:"name" bson:"name"`
	Aliases          StringSet `gorm:"type:jsonb;default:'[]'::jsonb" json:"aliases" bson:"aliases"`
	CanonicalAliases StringSet `gorm:"type:jsonb;default:'[]'::jsonb" json:"canonical_aliases" bson:"canonical_aliases"`
	Color            string    `gorm:"size:8;index" json:"color" bson:"color"`
	ColorName        string    `gorm:"size:64" json:"color_name" bson:"color_name"`
	Description      string    `json:"description" bson:"description"`
	Commanders       StringSet `gorm:"type:jsonb;default:'[]'::jsonb" json:"commanders" bson:"commanders"`
}

func (Deck) TableName() string {
	return "decks"
}

type UpsertDeckRequest struct {
	Name        string   `json:"name" binding:"required"`
	Aliases     []string `json:"aliases"`
	Color       string   `json:"color"`
	ColorName   string   `json:"color_name"`
	Description string   `json:"description"`
	Commanders  []string `json:"commanders"`
}

type AddAliasesRequest struct {
	Aliases []string `json:"aliases" binding:"required,min=1"`
}

// DeckStanding is a deck leaderboard row.
type DeckStanding struct {
	Name    string  `json:"name"`
	Games   int     `json:"games"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"winrate"`
}
