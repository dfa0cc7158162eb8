package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T, maxAttempts int) *IDGenerator {
	t.Helper()
	g, err := NewIDGenerator(DefaultHashSalt, maxAttempts)
	require.NoError(t, err)
	return g
}

func noneTaken(string) (bool, error) { return false, nil }

func TestGenerateIsDeterministic(t *testing.T) {
	g := newTestGenerator(t, 0)

	first, seed, err := g.Generate(1234567890123, noneTaken)
	require.NoError(t, err)
	second, _, err := g.Generate(1234567890123, noneTaken)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1234567890123), seed)
	assert.Len(t, first, GameIDLength)
	assert.Regexp(t, "^[a-z0-9]{4}$", first)
}

func TestGenerateSmallSeedStillFourChars(t *testing.T) {
	g := newTestGenerator(t, 0)

	id, _, err := g.Generate(1, noneTaken)
	require.NoError(t, err)
	assert.Len(t, id, GameIDLength)
}

func TestGenerateSkipsTakenIDs(t *testing.T) {
	g := newTestGenerator(t, 0)
	taken, err := g.Token(500)
	require.NoError(t, err)
	next, err := g.Token(499)
	require.NoError(t, err)

	id, seed, err := g.Generate(500, func(candidate string) (bool, error) {
		return candidate == taken, nil
	})

	require.NoError(t, err)
	if next != taken {
		assert.Equal(t, next, id)
		assert.Equal(t, int64(499), seed)
	}
	assert.NotEqual(t, taken, id)
}

func TestGenerateExhausted(t *testing.T) {
	g := newTestGenerator(t, 5)
	calls := 0

	_, _, err := g.Generate(100, func(string) (bool, error) {
		calls++
		return true, nil
	})

	assert.ErrorIs(t, err, ErrIDSpaceExhausted)
	assert.Equal(t, 5, calls)
}

func TestGenerateStopsAtSeedZero(t *testing.T) {
	g := newTestGenerator(t, 0)
	calls := 0

	_, _, err := g.Generate(2, func(string) (bool, error) {
		calls++
		return true, nil
	})

	assert.ErrorIs(t, err, ErrIDSpaceExhausted)
	assert.Equal(t, 3, calls)
}

func TestGeneratePropagatesLookupErrors(t *testing.T) {
	g := newTestGenerator(t, 0)
	boom := errors.New("store down")

	_, _, err := g.Generate(10, func(string) (bool, error) { return false, boom })

	assert.ErrorIs(t, err, boom)
}
