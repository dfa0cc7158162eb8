package utils

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	hashids "github.com/speps/go-hashids/v2"
)

const (
	DefaultHashSalt    = "cEDH league"
	DefaultMaxAttempts = 10000
	GameIDLength       = 4
)

var ErrIDSpaceExhausted = errors.New("no free game id left for this seed")

// ExistsFunc reports whether a candidate game id is already taken.
type ExistsFunc func(gameID string) (bool, error)

// IDGenerator derives short game ids from a numeric seed. The same seed and
// the same set of taken ids always give the same result.
type IDGenerator struct {
	hasher      *hashids.HashID
	maxAttempts int
}

func NewIDGenerator(salt string, maxAttempts int) (*IDGenerator, error) {
	if salt == "" {
		salt = DefaultHashSalt
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = GameIDLength
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, eris.Wrap(err, "failed to build hashids encoder")
	}

	return &IDGenerator{hasher: h, maxAttempts: maxAttempts}, nil
}

// Token is the candidate id for a single seed.
func (g *IDGenerator) Token(seed int64) (string, error) {
	encoded, err := g.hasher.EncodeInt64([]int64{seed})
	if err != nil {
		return "", eris.Wrapf(err, "failed to encode seed %d", seed)
	}
	if len(encoded) > GameIDLength {
		encoded = encoded[:GameIDLength]
	}
	return strings.ToLower(encoded), nil
}

// Generate walks seeds downward from seed until exists reports a free token.
// It returns the id together with the seed that produced it.
func (g *IDGenerator) Generate(seed int64, exists ExistsFunc) (string, int64, error) {
	for attempt := 0; attempt < g.maxAttempts && seed >= 0; attempt++ {
		token, err := g.Token(seed)
		if err != nil {
			return "", seed, err
		}

		taken, err := exists(token)
		if err != nil {
			return "", seed, err
		}
		if !taken {
			return token, seed, nil
		}
		seed--
	}

	return "", seed, ErrIDSpaceExhausted
}
