package migrations

import "gorm.io/gorm"

func GetCatalogMigrations() []MigrationDefinition {
	return []MigrationDefinition{
		{
			Name: "2025_01_02_000000_create_decks_table",
			Up: func(db *gorm.DB) error {
				return db.Exec(`
					CREATE TABLE IF NOT EXISTS decks (
						name VARCHAR(255) PRIMARY KEY,
						aliases JSONB NOT NULL DEFAULT '[]'::jsonb,
						canonical_aliases JSONB NOT NULL DEFAULT '[]'::jsonb,
						color VARCHAR(8) NOT NULL DEFAULT '',
						color_name VARCHAR(64) NOT NULL DEFAULT '',
						description TEXT NOT NULL DEFAULT '',
						commanders JSONB NOT NULL DEFAULT '[]'::jsonb
					);
					CREATE INDEX IF NOT EXISTS idx_decks_color ON decks(color);
					CREATE INDEX IF NOT EXISTS idx_decks_canonical_aliases ON decks USING GIN (canonical_aliases);
				`).Error
			},
			Down: func(db *gorm.DB) error {
				return db.Exec("DROP TABLE IF EXISTS decks CASCADE").Error
			},
		},
		{
			Name: "2025_01_02_000001_create_guild_configs_table",
			Up: func(db *gorm.DB) error {
				return db.Exec(`
					CREATE TABLE IF NOT EXISTS guild_configs (
						guild_id VARCHAR(32) PRIMARY KEY,
						admin_role VARCHAR(255) NOT NULL DEFAULT '',
						player_threshold INT NOT NULL DEFAULT 5,
						deck_threshold INT NOT NULL DEFAULT 5,
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
					);
				`).Error
			},
			Down: func(db *gorm.DB) error {
				return db.Exec("DROP TABLE IF EXISTS guild_configs CASCADE").Error
			},
		},
	}
}

// GetAllMigrations returns every migration in the order it must run.
func GetAllMigrations() []MigrationDefinition {
	all := GetLeagueMigrations()
	return append(all, GetCatalogMigrations()...)
}
