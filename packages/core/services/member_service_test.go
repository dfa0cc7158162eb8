package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankbot-api/packages/core/models"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m, err := env.members.Register(ctx, testGuild, " 42 ", " Sam ")
	require.NoError(t, err)
	assert.Equal(t, "42", m.UserID)
	assert.Equal(t, "Sam", m.Name)
	assert.Equal(t, models.DefaultPoints, m.Points)
	assert.Empty(t, m.Pending)

	_, err = env.members.Register(ctx, testGuild, "42", "Sam again")
	assert.ErrorIs(t, err, ErrMemberExists)

	_, err = env.members.Register(ctx, testGuild, "", "nobody")
	assert.ErrorIs(t, err, ErrInvalidMember)

	_, err = env.members.Register(ctx, "guild-2", "42", "Sam")
	assert.NoError(t, err, "guilds are isolated")

	_, err = env.members.Get(ctx, testGuild, "43")
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestDeleteMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "1", "2")

	require.NoError(t, env.members.Delete(ctx, testGuild, "2"))
	assert.ErrorIs(t, env.members.Delete(ctx, testGuild, "2"), ErrMemberNotFound)

	list, err := env.members.List(ctx, testGuild)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "1", list[0].UserID)
}

func TestSetDeck(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "1")
	_, _, err := env.decks.Upsert(ctx, models.UpsertDeckRequest{Name: "Sisay, Weatherlight Captain", Aliases: []string{"Sisay"}})
	require.NoError(t, err)

	m, err := env.members.SetDeck(ctx, testGuild, "1", "SISAY")
	require.NoError(t, err)
	assert.Equal(t, "Sisay, Weatherlight Captain", m.Deck)

	_, err = env.members.SetDeck(ctx, testGuild, "1", "unknown")
	assert.ErrorIs(t, err, ErrDeckNotFound)
	_, err = env.members.SetDeck(ctx, testGuild, "9", "sisay")
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "1", "2")

	first := env.create(t, "1", "1", "2")
	env.confirmAll(t, first)
	second := env.create(t, "2", "1", "2")
	env.confirmAll(t, second)
	env.create(t, "1", "1", "2")

	history, err := env.members.History(ctx, testGuild, "1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.GameID, history[0].GameID)
	assert.False(t, history[0].Won)
	assert.Negative(t, history[0].Change)
	assert.Equal(t, first.GameID, history[1].GameID)
	assert.True(t, history[1].Won)
	assert.Equal(t, 10, history[1].Change)

	history, err = env.members.History(ctx, testGuild, "1", 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = env.members.History(ctx, testGuild, "3", 0)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestResets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "1", "2")
	env.confirmAll(t, env.create(t, "1", "1", "2"))
	waiting := env.create(t, "2", "1", "2")

	require.NoError(t, env.members.ResetScores(ctx, testGuild))
	one := env.member(t, "1")
	assert.Equal(t, models.DefaultPoints, one.Points)
	assert.Zero(t, one.Accepted)
	assert.Zero(t, one.Wins)
	assert.Equal(t, models.StringSet{waiting.GameID}, one.Pending)

	pending, err := env.leaderboard.PendingMatches(ctx, testGuild, "2")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, waiting.GameID, pending[0].GameID)

	env.create(t, "2", "1", "2")
	require.NoError(t, env.members.ResetMatches(ctx, testGuild))
	n, err := env.store.CountMatches(ctx, testGuild, "")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, env.member(t, "1").Pending)
	assert.Empty(t, env.member(t, "2").Pending)
}
