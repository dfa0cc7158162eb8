package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"rankbot-api/packages/core/lock"
	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/repository/memory"
	"rankbot-api/packages/core/utils"
)

const testGuild = "guild-1"

type testEnv struct {
	store       *memory.Store
	clock       *fakeClock
	matches     *MatchService
	members     *MemberService
	decks       *DeckService
	config      *ConfigService
	leaderboard *LeaderboardService
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()
	store := memory.New()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	ids, err := utils.NewIDGenerator(utils.DefaultHashSalt, 0)
	require.NoError(t, err)

	config := NewConfigService(store, logger)
	decks := NewDeckService(store, logger)
	env := &testEnv{
		store:  store,
		clock:  clock,
		decks:  decks,
		config: config,
		matches: NewMatchService(store, lock.NewLocal(), ids, logger,
			WithDeckResolver(decks),
			WithAdminPredicate(config.IsAdmin),
			WithClock(clock.Now),
		),
		members:     NewMemberService(store, decks, logger),
		leaderboard: NewLeaderboardService(store, config),
	}

	_, err = config.SetupGuild(context.Background(), testGuild)
	require.NoError(t, err)
	return env
}

func (e *testEnv) register(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := e.members.Register(context.Background(), testGuild, id, "player-"+id)
		require.NoError(t, err)
	}
}

// seed inserts a member with a given record, bypassing registration.
func (e *testEnv) seed(t *testing.T, userID string, points, accepted, wins int) {
	t.Helper()
	require.NoError(t, e.store.InsertMember(context.Background(), &models.Member{
		GuildID:   testGuild,
		UserID:    userID,
		Name:      "player-" + userID,
		Points:    points,
		Accepted:  accepted,
		Wins:      wins,
		Losses:    accepted - wins,
		CreatedAt: e.clock.Now(),
	}))
}

func (e *testEnv) create(t *testing.T, winner string, players ...string) *models.Match {
	t.Helper()
	m, err := e.matches.CreateMatch(context.Background(), testGuild, models.CreateMatchRequest{
		WinnerID:       winner,
		ParticipantIDs: players,
	})
	require.NoError(t, err)
	e.clock.Advance(time.Second)
	return m
}

func (e *testEnv) confirmAll(t *testing.T, m *models.Match) *models.MatchResult {
	t.Helper()
	var result *models.MatchResult
	for _, p := range m.Players {
		var err error
		result, err = e.matches.ConfirmAndEvaluate(context.Background(), testGuild, m.GameID, p.UserID, "")
		require.NoError(t, err)
	}
	return result
}

func (e *testEnv) member(t *testing.T, userID string) *models.Member {
	t.Helper()
	m, err := e.members.Get(context.Background(), testGuild, userID)
	require.NoError(t, err)
	return m
}
