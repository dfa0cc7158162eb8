package services

import (
	"errors"

	"rankbot-api/packages/core/utils"
)

var (
	ErrInvalidParticipants = errors.New("a match needs at least two distinct participants including the winner")
	ErrMatchNotFound       = errors.New("match not found")
	ErrParticipantNotFound = errors.New("user is not a participant of this match")
	ErrMatchImmutable      = errors.New("match has already been accepted")
	ErrIDSpaceExhausted    = utils.ErrIDSpaceExhausted

	ErrMemberNotFound = errors.New("member not found")
	ErrMemberExists   = errors.New("member already registered")
	ErrInvalidMember  = errors.New("member id and name are required")
	ErrDeckNotFound   = errors.New("deck name not recognized")
	ErrInvalidDeck    = errors.New("deck name is required")
	ErrInvalidSortKey = errors.New("unknown leaderboard sort key")
	ErrNotAuthorized  = errors.New("not authorized")
)
