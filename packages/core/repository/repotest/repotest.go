// Package repotest holds behavior checks shared by every repository.Store.
package repotest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/repository"
)

// Factory returns a store ready for use. Tests use fresh guild ids, so a
// factory may hand out the same backing database every time.
type Factory func(t *testing.T) repository.Store

func Run(t *testing.T, factory Factory) {
	t.Run("Members", func(t *testing.T) { testMembers(t, factory(t)) })
	t.Run("PendingLists", func(t *testing.T) { testPendingLists(t, factory(t)) })
	t.Run("AcceptAndReset", func(t *testing.T) { testAcceptAndReset(t, factory(t)) })
	t.Run("Matches", func(t *testing.T) { testMatches(t, factory(t)) })
	t.Run("ParticipantUpdates", func(t *testing.T) { testParticipantUpdates(t, factory(t)) })
	t.Run("AcceptOnce", func(t *testing.T) { testAcceptOnce(t, factory(t)) })
	t.Run("RacingLastConfirmations", func(t *testing.T) { testRacingLastConfirmations(t, factory(t)) })
	t.Run("DeletePending", func(t *testing.T) { testDeletePending(t, factory(t)) })
	t.Run("FindMatches", func(t *testing.T) { testFindMatches(t, factory(t)) })
	t.Run("Decks", func(t *testing.T) { testDecks(t, factory(t)) })
	t.Run("GuildConfigs", func(t *testing.T) { testGuildConfigs(t, factory(t)) })
}

func newGuild(t *testing.T, store repository.Store) string {
	t.Helper()
	guildID := "g" + uuid.NewString()[:8]
	require.NoError(t, store.SetupGuild(context.Background(), guildID))
	return guildID
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func addMember(t *testing.T, store repository.Store, guildID, userID string, points int) {
	t.Helper()
	err := store.InsertMember(context.Background(), &models.Member{
		GuildID:   guildID,
		UserID:    userID,
		Name:      "name-" + userID,
		Points:    points,
		CreatedAt: now(),
	})
	require.NoError(t, err)
}

func pendingMatch(guildID, gameID, winner string, at time.Time, players ...string) *models.Match {
	m := &models.Match{
		GuildID:   guildID,
		GameID:    gameID,
		Winner:    winner,
		Status:    models.StatusPending,
		Timestamp: at,
	}
	for _, p := range players {
		m.Players = append(m.Players, models.Participant{UserID: p, Name: "name-" + p})
	}
	return m
}

func testMembers(t *testing.T, store repository.Store) {
	ctx := context.Background()
	guildID := newGuild(t, store)

	addMember(t, store, guildID, "100", models.DefaultPoints)
	addMember(t, store, guildID, "200", 1200)

	err := store.InsertMember(ctx, &models.Member{GuildID: guildID, UserID: "100", Name: "dup", Points: 1})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	m, err := store.GetMember(ctx, guildID, "200")
	require.NoError(t, err)
	assert.Equal(t, guildID, m.GuildID)
	assert.Equal(t, 1200, m.Points)
	assert.Empty(t, m.Pending)

	_, err = store.GetMember(ctx, guildID, "300")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.GetMember(ctx, newGuild(t, store), "100")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	list, err := store.ListMembers(ctx, guildID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "100", list[0].UserID)
	assert.Equal(t, "200", list[1].UserID)

	n, err := store.CountMembers(ctx, guildID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, store.SetMemberDeck(ctx, guildID, "100", "Kess"))
	m, err = store.GetMember(ctx, guildID, "100")
	require.NoError(t, err)
	assert.Equal(t, "Kess", m.Deck)
	assert.ErrorIs(t, store.SetMemberDeck(ctx, guildID, "300", "Kess"), repository.ErrNotFound)

	require.NoError(t, store.DeleteMember(ctx, guildID, "100"))
	assert.ErrorIs(t, store.DeleteMember(ctx, guildID, "100"), repository.ErrNotFound)
	n, err = store.CountMembers(ctx, guildID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func pendingOf(t *testing.T, store repository.Store, guildID, userID string) models.StringSet {
	t.Helper()
	m, err := store.GetMember(context.Background(), guildID, userID)
	require.NoError(t, err)
	return m.Pending
}

func testPendingLists(t *testing.T, store repository.Store) {
	ctx := context.Background()
	guildID := newGuild(t, store)
	addMember(t, store, guildID, "1", models.DefaultPoints)
	addMember(t, store, guildID, "2", models.DefaultPoints)
	addMember(t, store, guildID, "3", models.DefaultPoints)

	require.NoError(t, store.InsertMatch(ctx, pendingMatch(guildID, "abcd", "1", now(), "1", "2")))
	require.NoError(t, store.InsertMatch(ctx, pendingMatch(guildID, "efgh", "1", now(), "1", "3")))
	err := store.InsertMatch(ctx, pendingMatch(guildID, "abcd", "3", now(), "3", "2"))
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	assert.Equal(t, models.StringSet{"abcd", "efgh"}, pendingOf(t, store, guildID, "1"))
	assert.Equal(t, models.StringSet{"abcd"}, pendingOf(t, store, guildID, "2"))
	assert.Equal(t, models.StringSet{"efgh"}, pendingOf(t, store, guildID, "3"), "a failed insert leaves pending lists alone")

	deleted, err := store.DeletePendingMatch(ctx, guildID, "abcd")
	require.NoError(t, err)
	require.True(t, deleted)
	assert.Equal(t, models.StringSet{"efgh"}, pendingOf(t, store, guildID, "1"))
	assert.Empty(t, pendingOf(t, store, guildID, "2"))

	require.NoError(t, store.DeleteMatches(ctx, guildID))
	assert.Empty(t, pendingOf(t, store, guildID, "1"))
	assert.Empty(t, pendingOf(t, store, guildID, "3"))
}

func testAcceptAndReset(t *testing.T, store repository.Store) {
	ctx := context.Background()
	guildID := newGuild(t, store)
	addMember(t, store, guildID, "w", 1000)
	addMember(t, store, guildID, "l", 1000)
	require.NoError(t, store.InsertMatch(ctx, pendingMatch(guildID, "zzzz", "w", now(), "w", "l")))
	require.NoError(t, store.InsertMatch(ctx, pendingMatch(guildID, "yyyy", "l", now(), "w", "l")))
	_, err := store.ConfirmAll(ctx, guildID, "zzzz")
	require.NoError(t, err)

	changes := models.Delta{{UserID: "l", Player: "name-l", Change: -10}, {UserID: "w", Player: "name-w", Change: 10}}
	accepted, err := store.AcceptMatch(ctx, guildID, "zzzz", now(), changes, []repository.MemberResult{
		{UserID: "l", Change: -10},
		{UserID: "w", Change: 10, Won: true},
	})
	require.NoError(t, err)
	require.True(t, accepted)

	w, err := store.GetMember(ctx, guildID, "w")
	require.NoError(t, err)
	assert.Equal(t, 1010, w.Points)
	assert.Equal(t, 1, w.Accepted)
	assert.Equal(t, 1, w.Wins)
	assert.Equal(t, 0, w.Losses)
	assert.Equal(t, models.StringSet{"yyyy"}, w.Pending)

	l, err := store.GetMember(ctx, guildID, "l")
	require.NoError(t, err)
	assert.Equal(t, 990, l.Points)
	assert.Equal(t, 1, l.Accepted)
	assert.Equal(t, 1, l.Losses)
	assert.Equal(t, models.StringSet{"yyyy"}, l.Pending)

	require.NoError(t, store.ResetMembers(ctx, guildID))
	w, err = store.GetMember(ctx, guildID, "w")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPoints, w.Points)
	assert.Zero(t, w.Accepted)
	assert.Zero(t, w.Wins)
	assert.Equal(t, models.StringSet{"yyyy"}, w.Pending, "pending matches survive a score reset")
}

func testMatches(t *testing.T, store repository.Store) {
	ctx := context.Background()
	guildID := newGuild(t, store)
	at := now()

	require.NoError(t, store.InsertMatch(ctx, pendingMatch(guildID, "ab12", "1", at, "1", "2", "3")))
	err := store.InsertMatch(ctx, pendingMatch(guildID, "ab12", "2", at, "2", "3"))
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	// same id in another guild is fine
	require.NoError(t, store.InsertMatch(ctx, pendingMatch(newGuild(t, store), "ab12", "1", at, "1", "2")))

	m, err := store.GetMatch(ctx, guildID, "ab12")
	require.NoError(t, err)
	assert.Equal(t, guildID, m.GuildID)
	assert.Equal(t, models.StatusPending, m.Status)
	assert.Equal(t, []string{"1", "2", "3"}, m.PlayerIDs())
	assert.WithinDuration(t, at, m.Timestamp, time.Second)
	for _, p := range m.Players {
		assert.False(t, p.Confirmed)
		assert.Empty(t, p.Deck)
	}

	ok, err := store.MatchExists(ctx, guildID, "ab12")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.MatchExists(ctx, guildID, "zz99")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.GetMatch(ctx, guildID, "zz99")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testParticipantUpdates(t *testing.T, store repository.Store) {
	ctx := context.Background()
	guildID := newGuild(t, store)
	require.NoError(t, store.InsertMatch(ctx, pendingMatch(guildID, "cd34", "1", now(), "1", "2")))

	yes := true
	deck := "Kinnan"
	ok, err := store.UpdateParticipant(ctx, guildID, "cd34", "1", repository.ParticipantUpdate{
		Confirmed: &yes, Deck: &deck, WinningDeck: true,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.UpdateParticipant(ctx, guildID, "cd34", "9", repository.ParticipantUpdate{Confirmed: &yes})
	require.NoError(t, err)
	assert.False(t, ok)

	m, err := store.GetMatch(ctx, guildID, "cd34")
	require.NoError(t, err)
	assert.Equal(t, "Kinnan", m.WinningDeck)
	p, _ := m.Participant("1")
	assert.True(t, p.Confirmed)
	assert.Equal(t, "Kinnan", p.Deck)
	p, _ = m.Participant("2")
	assert.False(t, p.Confirmed)

	no := false
	ok, err = store.UpdateParticipant(ctx, guildID, "cd34", "1", repository.ParticipantUpdate{Confirmed: &no})
	require.NoError(t, err)
	assert.True(t, ok)
	m, err = store.GetMatch(ctx, guildID, "cd34")
	require.NoError(t, err)
	p, _ = m.Participant("1")
	assert.False(t, p.Confirmed)
	assert.Equal(t, "Kinnan", p.Deck)

	ok, err = store.ConfirmAll(ctx, guildID, "cd34")
	require.NoError(t, err)
	assert.True(t, ok)
	m, err = store.GetMatch(ctx, guildID, "cd34")
	require.NoError(t, err)
	assert.True(t, m.AllConfirmed())

	accepted, err := store.AcceptMatch(ctx, guildID, "cd34", now(), nil, nil)
	require.NoError(t, err)
	require.True(t, accepted)

	ok, err = store.UpdateParticipant(ctx, guildID, "cd34", "2", repository.ParticipantUpdate{Confirmed: &no})
	require.NoError(t, err)
	assert.False(t, ok, "accepted matches are immutable")
	ok, err = store.ConfirmAll(ctx, guildID, "cd34")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testAcceptOnce(t *testing.T, store repository.Store) {
	ctx := context.Background()
	guildID := newGuild(t, store)
	addMember(t, store, guildID, "1", 1000)
	addMember(t, store, guildID, "2", 1000)
	require.NoError(t, store.InsertMatch(ctx, pendingMatch(guildID, "ef56", "1", now(), "1", "2")))

	accepted, err := store.AcceptMatch(ctx, guildID, "ef56", now(), nil, nil)
	require.NoError(t, err)
	assert.False(t, accepted, "unconfirmed match must not be accepted")

	_, err = store.ConfirmAll(ctx, guildID, "ef56")
	require.NoError(t, err)

	changes := models.Delta{{UserID: "2", Player: "name-2", Change: -10}, {UserID: "1", Player: "name-1", Change: 10}}
	results := []repository.MemberResult{{UserID: "2", Change: -10}, {UserID: "1", Change: 10, Won: true}}
	var wins int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.AcceptMatch(ctx, guildID, "ef56", now(), changes, results)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	m, err := store.GetMatch(ctx, guildID, "ef56")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, m.Status)
	require.NotNil(t, m.AcceptedAt)
	assert.Equal(t, changes, m.Changes)

	w, err := store.GetMember(ctx, guildID, "1")
	require.NoError(t, err)
	assert.Equal(t, 1010, w.Points)
	assert.Equal(t, 1, w.Accepted)
}

func testDeletePending(t *testing.T, store repository.Store) {
	ctx := context.Background()
	guildID := newGuild(t, store)
	require.NoError(t, store.InsertMatch(ctx, pendingMatch(guildID, "gh78", "1", now(), "1", "2")))
	require.NoError(t, store.InsertMatch(ctx, pendingMatch(guildID, "ij90", "1", now(), "1", "2")))

	deleted, err := store.DeletePendingMatch(ctx, guildID, "gh78")
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = store.GetMatch(ctx, guildID, "gh78")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	deleted, err = store.DeletePendingMatch(ctx, guildID, "gh78")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.ConfirmAll(ctx, guildID, "ij90")
	require.NoError(t, err)
	_, err = store.AcceptMatch(ctx, guildID, "ij90", now(), nil, nil)
	require.NoError(t, err)
	deleted, err = store.DeletePendingMatch(ctx, guildID, "ij90")
	require.NoError(t, err)
	assert.False(t, deleted)

	require.NoError(t, store.DeleteMatches(ctx, guildID))
	n, err := store.CountMatches(ctx, guildID, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testFindMatches(t *testing.T, store repository.Store) {
	ctx := context.Background()
	guildID := newGuild(t, store)
	base := now().Add(-time.Hour)

	require.NoError(t, store.InsertMatch(ctx, pendingMatch(guildID, "m001", "1", base, "1", "2")))
	require.NoError(t, store.InsertMatch(ctx, pendingMatch(guildID, "m002", "2", base.Add(time.Minute), "2", "3")))
	require.NoError(t, store.InsertMatch(ctx, pendingMatch(guildID, "m003", "1", base.Add(2*time.Minute), "1", "3")))
	_, err := store.ConfirmAll(ctx, guildID, "m002")
	require.NoError(t, err)
	_, err = store.AcceptMatch(ctx, guildID, "m002", now(), nil, nil)
	require.NoError(t, err)

	all, err := store.FindMatches(ctx, guildID, repository.MatchQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"m001", "m002", "m003"}, gameIDs(all))

	newest, err := store.FindMatches(ctx, guildID, repository.MatchQuery{Newest: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"m003", "m002"}, gameIDs(newest))

	pending, err := store.FindMatches(ctx, guildID, repository.MatchQuery{Status: models.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, []string{"m001", "m003"}, gameIDs(pending))

	mine, err := store.FindMatches(ctx, guildID, repository.MatchQuery{UserID: "3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"m002", "m003"}, gameIDs(mine))
	require.Len(t, mine[1].Players, 2)

	cutoff := base.Add(90 * time.Second)
	old, err := store.FindMatches(ctx, guildID, repository.MatchQuery{Status: models.StatusPending, Before: &cutoff})
	require.NoError(t, err)
	assert.Equal(t, []string{"m001"}, gameIDs(old))

	n, err := store.CountMatches(ctx, guildID, models.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	n, err = store.CountMatches(ctx, guildID, models.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func gameIDs(matches []models.Match) []string {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.GameID)
	}
	return ids
}

func testDecks(t *testing.T, store repository.Store) {
	ctx := context.Background()
	suffix := uuid.NewString()[:8]
	name := "Deck " + suffix
	alias := "alias" + suffix

	created, err := store.UpsertDeck(ctx, &models.Deck{
		Name:             name,
		Aliases:          models.StringSet{"Alias " + suffix},
		CanonicalAliases: models.StringSet{alias},
		Color:            "x" + suffix,
		ColorName:        "Test",
		Commanders:       models.StringSet{},
	})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.UpsertDeck(ctx, &models.Deck{
		Name:             name,
		Aliases:          models.StringSet{"Alias " + suffix},
		CanonicalAliases: models.StringSet{alias},
		Color:            "x" + suffix,
		ColorName:        "Test",
		Description:      "replaced",
		Commanders:       models.StringSet{},
	})
	require.NoError(t, err)
	assert.False(t, created)

	d, err := store.FindDeck(ctx, alias)
	require.NoError(t, err)
	assert.Equal(t, name, d.Name)
	assert.Equal(t, "replaced", d.Description)

	require.NoError(t, store.AddDeckAliases(ctx, alias, []string{"Other " + suffix}, []string{"other" + suffix, alias}))
	d, err = store.FindDeck(ctx, "other"+suffix)
	require.NoError(t, err)
	assert.Equal(t, name, d.Name)
	assert.Len(t, d.CanonicalAliases, 2)
	assert.Len(t, d.Aliases, 2)

	err = store.AddDeckAliases(ctx, "missing"+suffix, []string{"x"}, []string{"x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.FindDeck(ctx, "missing"+suffix)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	byColor, err := store.ListDecks(ctx, "x"+suffix)
	require.NoError(t, err)
	require.Len(t, byColor, 1)
	assert.Equal(t, name, byColor[0].Name)
}

func testGuildConfigs(t *testing.T, store repository.Store) {
	ctx := context.Background()
	guildID := newGuild(t, store)

	_, err := store.GetGuildConfig(ctx, guildID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	cfg := models.DefaultGuildConfig(guildID)
	cfg.AdminRole = "league-admin"
	require.NoError(t, store.SaveGuildConfig(ctx, &cfg))

	cfg.PlayerThreshold = 3
	require.NoError(t, store.SaveGuildConfig(ctx, &cfg))

	got, err := store.GetGuildConfig(ctx, guildID)
	require.NoError(t, err)
	assert.Equal(t, "league-admin", got.AdminRole)
	assert.Equal(t, 3, got.PlayerThreshold)
	assert.Equal(t, models.DefaultDeckThreshold, got.DeckThreshold)

	all, err := store.ListGuildConfigs(ctx)
	require.NoError(t, err)
	found := false
	for _, c := range all {
		if c.GuildID == guildID {
			found = true
		}
	}
	assert.True(t, found)
}
