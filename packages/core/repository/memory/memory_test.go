package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/repository"
	"rankbot-api/packages/core/repository/repotest"
)

func TestStore(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store { return New() })
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.InsertMatch(ctx, &models.Match{
		GuildID: "g",
		GameID:  "abcd",
		Status:  models.StatusPending,
		Players: []models.Participant{{UserID: "1"}, {UserID: "2"}},
	}))

	m, err := s.GetMatch(ctx, "g", "abcd")
	require.NoError(t, err)
	m.Players[0].Confirmed = true
	m.Status = models.StatusAccepted

	again, err := s.GetMatch(ctx, "g", "abcd")
	require.NoError(t, err)
	assert.False(t, again.Players[0].Confirmed)
	assert.Equal(t, models.StatusPending, again.Status)
}
