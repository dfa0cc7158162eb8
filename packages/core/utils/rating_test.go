package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDeltaFourPlayerTable(t *testing.T) {
	winner := Standing{UserID: "w", Name: "Winner", Points: 1000}
	losers := []Standing{
		{UserID: "a", Name: "A", Points: 1000},
		{UserID: "b", Name: "B", Points: 900},
		{UserID: "c", Name: "C", Points: 1100},
	}

	delta := ComputeDelta(winner, losers)

	require.Len(t, delta, 4)
	assert.Equal(t, "a", delta[0].UserID)
	assert.Equal(t, -10, delta[0].Change)
	assert.Equal(t, "b", delta[1].UserID)
	assert.Equal(t, -8, delta[1].Change)
	assert.Equal(t, "c", delta[2].UserID)
	assert.Equal(t, -12, delta[2].Change)
	assert.Equal(t, "w", delta[3].UserID)
	assert.Equal(t, "Winner", delta[3].Player)
	assert.Equal(t, 30, delta[3].Change)
	assert.Zero(t, delta.Sum())
}

func TestComputeDeltaHeadsUp(t *testing.T) {
	delta := ComputeDelta(
		Standing{UserID: "w", Points: 1000},
		[]Standing{{UserID: "l", Points: 1000}},
	)

	require.Len(t, delta, 2)
	assert.Equal(t, -10, delta[0].Change)
	assert.Equal(t, 10, delta[1].Change)
}

func TestComputeDeltaIsZeroSum(t *testing.T) {
	tables := [][]int{
		{1000, 1000},
		{1500, 800, 1200},
		{400, 2000, 2000, 2000},
		{1000, 990, 1010, 1005, 995},
	}
	for _, points := range tables {
		winner := Standing{UserID: "w", Points: points[0]}
		var losers []Standing
		for i, p := range points[1:] {
			losers = append(losers, Standing{UserID: string(rune('a' + i)), Points: p})
		}

		delta := ComputeDelta(winner, losers)

		require.Len(t, delta, len(points))
		assert.Zero(t, delta.Sum(), "table %v", points)
		for _, e := range delta[:len(delta)-1] {
			assert.GreaterOrEqual(t, -e.Change, 4, "table %v", points)
			assert.LessOrEqual(t, -e.Change, 16, "table %v", points)
		}
	}
}

func TestPointLossBounds(t *testing.T) {
	assert.Equal(t, 10, PointLoss(0))
	assert.Equal(t, 16, PointLoss(5000))
	assert.Equal(t, 4, PointLoss(-5000))
	assert.Greater(t, PointLoss(300), PointLoss(-300))
}

func TestPointLossStaysInRange(t *testing.T) {
	for diff := -200.0; diff <= 200; diff += 0.25 {
		loss := PointLoss(diff)
		assert.GreaterOrEqual(t, loss, 4)
		assert.LessOrEqual(t, loss, 16)
	}
}
