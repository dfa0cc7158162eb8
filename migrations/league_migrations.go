package migrations

import "gorm.io/gorm"

func GetLeagueMigrations() []MigrationDefinition {
	return []MigrationDefinition{
		{
			Name: "2025_01_01_000000_create_members_table",
			Up: func(db *gorm.DB) error {
				return db.Exec(`
					CREATE TABLE IF NOT EXISTS members (
						guild_id VARCHAR(32) NOT NULL,
						user_id VARCHAR(32) NOT NULL,
						name VARCHAR(255) NOT NULL,
						points INT NOT NULL DEFAULT 1000,
						pending JSONB NOT NULL DEFAULT '[]'::jsonb,
						accepted INT NOT NULL DEFAULT 0 CHECK (accepted >= 0),
						wins INT NOT NULL DEFAULT 0,
						losses INT NOT NULL DEFAULT 0,
						deck VARCHAR(255) NOT NULL DEFAULT '',
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						PRIMARY KEY (guild_id, user_id)
					);
					CREATE INDEX IF NOT EXISTS idx_members_points ON members(guild_id, points DESC);
					CREATE INDEX IF NOT EXISTS idx_members_pending ON members USING GIN (pending);
				`).Error
			},
			Down: func(db *gorm.DB) error {
				return db.Exec("DROP TABLE IF EXISTS members CASCADE").Error
			},
		},
		{
			Name: "2025_01_01_000001_create_matches_tables",
			Up: func(db *gorm.DB) error {
				if err := db.Exec(`
					CREATE TABLE IF NOT EXISTS matches (
						guild_id VARCHAR(32) NOT NULL,
						game_id VARCHAR(16) NOT NULL,
						winner VARCHAR(32) NOT NULL,
						winning_deck VARCHAR(255) NOT NULL DEFAULT '',
						status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						accepted_at TIMESTAMPTZ NULL,
						changes JSONB NOT NULL DEFAULT '[]'::jsonb,
						PRIMARY KEY (guild_id, game_id),
						CHECK (status IN ('PENDING', 'ACCEPTED'))
					);
					CREATE INDEX IF NOT EXISTS idx_matches_status ON matches(guild_id, status, created_at);
				`).Error; err != nil {
					return err
				}

				return db.Exec(`
					CREATE TABLE IF NOT EXISTS match_participants (
						guild_id VARCHAR(32) NOT NULL,
						game_id VARCHAR(16) NOT NULL,
						user_id VARCHAR(32) NOT NULL,
						position INT NOT NULL,
						name VARCHAR(255) NOT NULL DEFAULT '',
						deck VARCHAR(255) NOT NULL DEFAULT '',
						confirmed BOOLEAN NOT NULL DEFAULT false,
						PRIMARY KEY (guild_id, game_id, user_id),
						FOREIGN KEY (guild_id, game_id) REFERENCES matches(guild_id, game_id) ON DELETE CASCADE
					);
					CREATE INDEX IF NOT EXISTS idx_match_participants_user ON match_participants(guild_id, user_id);
				`).Error
			},
			Down: func(db *gorm.DB) error {
				if err := db.Exec("DROP TABLE IF EXISTS match_participants CASCADE").Error; err != nil {
					return err
				}
				return db.Exec("DROP TABLE IF EXISTS matches CASCADE").Error
			},
		},
	}
}
