package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("OWNER_IDS", "1,2")
	t.Setenv("AUTO_ACCEPT_AFTER", "48h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"1", "2"}, cfg.OwnerIDs)
	assert.Equal(t, 48*time.Hour, cfg.AutoAcceptAfter)
	assert.Equal(t, "cEDH league", cfg.HashSalt)
	assert.Equal(t, 10*time.Second, cfg.LockTTL)
}

func TestValidate(t *testing.T) {
	cases := map[string]Config{
		"unknown driver":         {StoreDriver: "sqlite"},
		"postgres without url":   {StoreDriver: DriverPostgres},
		"production without jwt": {StoreDriver: DriverMemory, AppEnv: "production"},
		"negative window":        {StoreDriver: DriverMemory, AutoAcceptAfter: -time.Minute},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, cfg.Validate())
		})
	}

	ok := Config{StoreDriver: DriverMemory}
	assert.NoError(t, ok.Validate())
}
