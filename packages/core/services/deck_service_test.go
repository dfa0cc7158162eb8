package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankbot-api/packages/core/models"
)

const testCatalog = `[
  {
    "colors": "ug",
    "color_name": "Simic",
    "decks": [
      {"name": "Kinnan, Bonder Prodigy", "nicknames": ["Kinnan", "Kinnan Bonder"], "commanders": ["Kinnan, Bonder Prodigy"]},
      {"name": "Tatyova", "nicknames": []}
    ]
  },
  {
    "colors": "gwubr",
    "color_name": "Five Color",
    "decks": [
      {"name": "Najeela, the Blade-Blossom", "nicknames": ["Najeela", "Naj"], "description": "Warrior combat loops"}
    ]
  }
]`

func TestLoadCatalog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	added, err := env.decks.LoadCatalog(ctx, strings.NewReader(testCatalog))
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	added, err = env.decks.LoadCatalog(ctx, strings.NewReader(testCatalog))
	require.NoError(t, err)
	assert.Zero(t, added, "reloading imports nothing new")

	deck, err := env.decks.Find(ctx, "naj")
	require.NoError(t, err)
	assert.Equal(t, "Najeela, the Blade-Blossom", deck.Name)
	assert.Equal(t, "wubrg", deck.Color)
	assert.Equal(t, "Five Color", deck.ColorName)

	name, err := env.decks.ResolveDeck(ctx, "Kinnan-Bonder")
	require.NoError(t, err)
	assert.Equal(t, "Kinnan, Bonder Prodigy", name)

	simic, err := env.decks.List(ctx, "GU")
	require.NoError(t, err)
	assert.Len(t, simic, 2)

	all, err := env.decks.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = env.decks.LoadCatalog(ctx, strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestDeckAliases(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	deck, created, err := env.decks.Upsert(ctx, models.UpsertDeckRequest{Name: "Tymna the Weaver", Aliases: []string{"Tymna/Thrasios"}})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, deck.CanonicalAliases, "tymnatheweaver")

	_, err = env.decks.Find(ctx, "tnt")
	assert.ErrorIs(t, err, ErrDeckNotFound)

	deck, err = env.decks.AddAliases(ctx, "tymna the weaver", []string{"TnT"})
	require.NoError(t, err)
	assert.Contains(t, deck.Aliases, "TnT")

	found, err := env.decks.Find(ctx, "tnt")
	require.NoError(t, err)
	assert.Equal(t, "Tymna the Weaver", found.Name)

	short, err := env.decks.ShortName(ctx, "tnt")
	require.NoError(t, err)
	assert.Equal(t, "TnT", short)

	_, err = env.decks.AddAliases(ctx, "missing", []string{"x"})
	assert.ErrorIs(t, err, ErrDeckNotFound)

	_, _, err = env.decks.Upsert(ctx, models.UpsertDeckRequest{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidDeck)
}
