package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"mongo"`
	// MongoURI must point at a replica set; match writes use transactions.
	MongoURI      string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string        `env:"MONGODB_DATABASE" envDefault:"rankbot"`
	MongoPrefix   string        `env:"MONGODB_GUILD_PREFIX"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	AutoMigrate   bool          `env:"AUTO_MIGRATE" envDefault:"false"`
	RedisURL      string        `env:"REDIS_URL"`
	LockTTL       time.Duration `env:"LOCK_TTL" envDefault:"10s"`

	JWTSecret   string        `env:"JWT_SECRET"`
	TokenExpiry time.Duration `env:"TOKEN_EXPIRY" envDefault:"15m"`
	BotAPIKey   string        `env:"BOT_API_KEY"`
	OwnerIDs    []string      `env:"OWNER_IDS" envSeparator:","`

	HashSalt           string        `env:"HASHID_SALT" envDefault:"cEDH league"`
	AutoAcceptAfter    time.Duration `env:"AUTO_ACCEPT_AFTER" envDefault:"0"`
	AutoAcceptSchedule string        `env:"AUTO_ACCEPT_SCHEDULE" envDefault:"0 */15 * * * *"`
	DecksFile          string        `env:"DECKS_FILE"`
	AllowedOrigins     []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, eris.Wrap(err, "failed to parse environment variables")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return eris.New("MONGODB_URI is required with the mongo store")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return eris.New("DATABASE_URL is required with the postgres store")
		}
	case DriverMemory:
	default:
		return eris.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" && c.IsProduction() {
		return eris.New("JWT_SECRET is required in production")
	}
	if c.AutoAcceptAfter < 0 {
		return eris.New("AUTO_ACCEPT_AFTER cannot be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}
