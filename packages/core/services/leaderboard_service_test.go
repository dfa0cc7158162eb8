package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankbot-api/packages/core/models"
)

func standingIDs(standings []models.MemberStanding) []string {
	ids := make([]string, 0, len(standings))
	for _, s := range standings {
		ids = append(ids, s.UserID)
	}
	return ids
}

func TestTopMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, "a", 1040, 10, 6)
	env.seed(t, "b", 1100, 4, 4)
	env.seed(t, "c", 1030, 5, 4)
	env.seed(t, "d", 960, 20, 5)
	env.seed(t, "e", 1040, 7, 1)

	t.Run("points keeps registration order on ties", func(t *testing.T) {
		got, err := env.leaderboard.TopMembers(ctx, testGuild, SortPoints, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a", "e", "c", "d"}, standingIDs(got))
		assert.Equal(t, 1, got[0].Rank)
		assert.Equal(t, 5, got[4].Rank)
	})

	t.Run("wins", func(t *testing.T) {
		got, err := env.leaderboard.TopMembers(ctx, testGuild, SortWins, 3, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "d", "b"}, standingIDs(got))
	})

	t.Run("winrate applies the guild threshold before the limit", func(t *testing.T) {
		got, err := env.leaderboard.TopMembers(ctx, testGuild, SortWinRate, 2, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a"}, standingIDs(got))
		assert.InDelta(t, 0.8, got[0].WinRate, 1e-9)
		assert.Equal(t, 5, got[0].Matches)
	})

	t.Run("threshold follows guild settings", func(t *testing.T) {
		players := 8
		_, err := env.config.SetThresholds(ctx, testGuild, &players, nil)
		require.NoError(t, err)
		got, err := env.leaderboard.TopMembers(ctx, testGuild, SortWinRate, 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "d"}, standingIDs(got))
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := env.leaderboard.TopMembers(ctx, testGuild, "elo", 10, 0)
		assert.ErrorIs(t, err, ErrInvalidSortKey)
	})
}

func TestPendingMatchesAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "1", "2", "3")

	done := env.create(t, "1", "1", "2")
	open := env.create(t, "2", "1", "2", "3")
	env.confirmAll(t, done)

	pending, err := env.leaderboard.PendingMatches(ctx, testGuild, "1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, open.GameID, pending[0].GameID)

	_, err = env.leaderboard.PendingMatches(ctx, testGuild, "nobody")
	assert.ErrorIs(t, err, ErrMemberNotFound)

	stats, err := env.leaderboard.Stats(ctx, testGuild)
	require.NoError(t, err)
	assert.Equal(t, &models.Stats{Members: 3, PendingMatches: 1, AcceptedMatches: 1}, stats)

	recent, err := env.leaderboard.RecentMatches(ctx, testGuild, "", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, open.GameID, recent[0].GameID)

	mine, err := env.leaderboard.MemberMatches(ctx, testGuild, "3", 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, open.GameID, mine[0].GameID)
}

func TestTopDecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "1", "2")
	for _, name := range []string{"Kinnan", "Najeela", "Tymna"} {
		_, _, err := env.decks.Upsert(ctx, models.UpsertDeckRequest{Name: name})
		require.NoError(t, err)
	}

	play := func(winner, winnerDeck, loserDeck string) {
		loser := "2"
		if winner == "2" {
			loser = "1"
		}
		m := env.create(t, winner, "1", "2")
		_, err := env.matches.Confirm(ctx, testGuild, m.GameID, winner, winnerDeck)
		require.NoError(t, err)
		result, err := env.matches.ConfirmAndEvaluate(ctx, testGuild, m.GameID, loser, loserDeck)
		require.NoError(t, err)
		require.NotNil(t, result.Changes)
	}
	play("1", "Kinnan", "Najeela")
	play("1", "Kinnan", "Tymna")
	play("2", "Najeela", "Kinnan")
	play("2", "Tymna", "")

	// Pending matches never count.
	pending := env.create(t, "1", "1", "2")
	_, err := env.matches.Confirm(ctx, testGuild, pending.GameID, "1", "Tymna")
	require.NoError(t, err)

	got, err := env.leaderboard.TopDecks(ctx, testGuild, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Kinnan", got[0].Name)
	assert.Equal(t, 3, got[0].Games)
	assert.Equal(t, 2, got[0].Wins)
	assert.Equal(t, "Najeela", got[1].Name)
	assert.Equal(t, "Tymna", got[2].Name)

	got, err = env.leaderboard.TopDecks(ctx, testGuild, 0, 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Kinnan", got[0].Name)

	got, err = env.leaderboard.TopDecks(ctx, testGuild, 10, -1)
	require.NoError(t, err)
	assert.Empty(t, got)
}
