package fixtures

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankbot-api/packages/core"
	"rankbot-api/packages/core/lock"
	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/repository/memory"
)

func TestGenerateAndClear(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	module, err := core.NewModule(store, lock.NewLocal(), core.Options{}, zerolog.Nop())
	require.NoError(t, err)

	f := NewFixtures(module, "fixture-guild", 7, zerolog.Nop())
	require.NoError(t, f.GenerateTestData(ctx))

	stats, err := module.LeaderboardService.Stats(ctx, "fixture-guild")
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.Members)
	assert.Equal(t, int64(50), stats.PendingMatches+stats.AcceptedMatches)

	members, err := module.MemberService.List(ctx, "fixture-guild")
	require.NoError(t, err)
	total, accepted, wins, losses := 0, 0, 0, 0
	for _, m := range members {
		total += m.Points - models.DefaultPoints
		accepted += m.Accepted
		wins += m.Wins
		losses += m.Losses
	}
	assert.Zero(t, total, "ratings are zero-sum")
	assert.Equal(t, int(stats.AcceptedMatches), wins)
	assert.Equal(t, accepted, wins+losses)

	require.NoError(t, f.ClearAllData(ctx))
	stats, err = module.LeaderboardService.Stats(ctx, "fixture-guild")
	require.NoError(t, err)
	assert.Equal(t, &models.Stats{}, stats)
}
