package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rankbot-api/migrations"
	"rankbot-api/packages/core/repository"
	"rankbot-api/packages/core/repository/repotest"
)

// Set POSTGRES_TEST_DSN to run against a live server. Migrations are applied
// to that database.
func TestStore(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	db, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	migrator := migrations.NewMigrator(db)
	for _, m := range migrations.GetAllMigrations() {
		migrator.AddMigration(m)
	}
	require.NoError(t, migrator.Migrate())

	store := New(db)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	repotest.Run(t, func(t *testing.T) repository.Store { return store })
}
