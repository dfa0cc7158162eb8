package config

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"rankbot-api/migrations"
	"rankbot-api/packages/core/lock"
	"rankbot-api/packages/core/repository"
	"rankbot-api/packages/core/repository/memory"
	mongoStore "rankbot-api/packages/core/repository/mongo"
	pgStore "rankbot-api/packages/core/repository/postgres"
)

// ConnectDatabase opens the postgres connection used by the postgres store
// and the migration tools.
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	level := gormLogger.Warn
	if !cfg.IsProduction() {
		level = gormLogger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, eris.Wrap(err, "failed to connect to database")
	}
	return db, nil
}

// OpenStore returns the league store selected by STORE_DRIVER.
func OpenStore(ctx context.Context, cfg *Config, logger zerolog.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case DriverMongo:
		store, err := mongoStore.Connect(ctx, cfg.MongoURI, mongoStore.Options{
			SharedDatabase: cfg.MongoDatabase,
			GuildPrefix:    cfg.MongoPrefix,
		})
		if err != nil {
			return nil, err
		}
		logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to mongodb")
		return store, nil

	case DriverPostgres:
		db, err := ConnectDatabase(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			migrator := migrations.NewMigrator(db)
			for _, m := range migrations.GetAllMigrations() {
				migrator.AddMigration(m)
			}
			if err := migrator.Migrate(); err != nil {
				return nil, eris.Wrap(err, "failed to migrate database")
			}
		}
		logger.Info().Msg("connected to postgres")
		return pgStore.New(db), nil

	case DriverMemory:
		logger.Warn().Msg("using the in-memory store, data will not survive a restart")
		return memory.New(), nil
	}
	return nil, eris.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// NewLocker returns a redis lock when REDIS_URL is set and an in-process one
// otherwise. The redis client, if any, is returned for shutdown.
func NewLocker(ctx context.Context, cfg *Config, logger zerolog.Logger) (lock.Locker, *redis.Client, error) {
	if cfg.RedisURL == "" {
		return lock.NewLocal(), nil, nil
	}
	client, err := lock.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info().Msg("using redis match locks")
	return lock.NewRedis(client, cfg.LockTTL, logger), client, nil
}
