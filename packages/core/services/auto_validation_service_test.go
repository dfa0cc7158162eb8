package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankbot-api/packages/core/models"
)

func TestAutoValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "1", "2", "3")

	svc := NewAutoValidationService(env.store, env.matches, 24*time.Hour, zerolog.Nop())
	svc.now = env.clock.Now

	stale := env.create(t, "1", "1", "2", "3")
	_, err := env.matches.Confirm(ctx, testGuild, stale.GameID, "1", "")
	require.NoError(t, err)
	env.clock.Advance(25 * time.Hour)
	fresh := env.create(t, "2", "1", "2")

	count, err := svc.GetExpiredMatchesCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	settled, err := svc.ValidateExpiredMatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)

	m, err := env.matches.GetMatch(ctx, testGuild, stale.GameID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, m.Status)
	assert.True(t, m.AllConfirmed())
	assert.Equal(t, 1020, env.member(t, "1").Points)

	m, err = env.matches.GetMatch(ctx, testGuild, fresh.GameID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, m.Status)

	settled, err = svc.ValidateExpiredMatches(ctx)
	require.NoError(t, err)
	assert.Zero(t, settled)
}

func TestAutoValidationDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "1", "2")
	env.create(t, "1", "1", "2")
	env.clock.Advance(1000 * time.Hour)

	svc := NewAutoValidationService(env.store, env.matches, 0, zerolog.Nop())
	svc.now = env.clock.Now
	assert.False(t, svc.Enabled())

	settled, err := svc.ValidateExpiredMatches(context.Background())
	require.NoError(t, err)
	assert.Zero(t, settled)
}
