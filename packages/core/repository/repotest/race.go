package repotest

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankbot-api/packages/core/lock"
	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/repository"
	"rankbot-api/packages/core/services"
	"rankbot-api/packages/core/utils"
)

// testRacingLastConfirmations runs two service instances with their own
// lockers against one store, so the store alone decides who scores.
func testRacingLastConfirmations(t *testing.T, store repository.Store) {
	ctx := context.Background()
	guildID := newGuild(t, store)
	players := []string{"1", "2", "3"}
	for _, id := range players {
		addMember(t, store, guildID, id, models.DefaultPoints)
	}

	ids, err := utils.NewIDGenerator(utils.DefaultHashSalt, 0)
	require.NoError(t, err)
	first := services.NewMatchService(store, lock.NewLocal(), ids, zerolog.Nop())
	second := services.NewMatchService(store, lock.NewLocal(), ids, zerolog.Nop())

	const rounds = 20
	for i := 0; i < rounds; i++ {
		m, err := first.CreateMatch(ctx, guildID, models.CreateMatchRequest{
			Seed:           int64(5000 + i),
			WinnerID:       "1",
			ParticipantIDs: players,
		})
		require.NoError(t, err)
		_, err = first.ConfirmAndEvaluate(ctx, guildID, m.GameID, "1", "")
		require.NoError(t, err)

		start := make(chan struct{})
		results := make([]*models.MatchResult, 2)
		var wg sync.WaitGroup
		confirm := func(slot int, svc *services.MatchService, userID string) {
			defer wg.Done()
			<-start
			res, err := svc.ConfirmAndEvaluate(ctx, guildID, m.GameID, userID, "")
			assert.NoError(t, err)
			results[slot] = res
		}
		wg.Add(2)
		go confirm(0, first, "2")
		go confirm(1, second, "3")
		close(start)
		wg.Wait()

		settled := 0
		for _, res := range results {
			if res != nil && res.Changes != nil {
				settled++
			}
		}
		assert.Equal(t, 1, settled, "round %d scored %d times", i, settled)

		got, err := store.GetMatch(ctx, guildID, m.GameID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAccepted, got.Status)
	}

	total := 0
	for _, id := range players {
		member, err := store.GetMember(ctx, guildID, id)
		require.NoError(t, err)
		total += member.Points
		assert.Equal(t, rounds, member.Accepted)
		assert.Empty(t, member.Pending)
	}
	assert.Equal(t, len(players)*models.DefaultPoints, total)

	winner, err := store.GetMember(ctx, guildID, "1")
	require.NoError(t, err)
	assert.Equal(t, rounds, winner.Wins)
}
