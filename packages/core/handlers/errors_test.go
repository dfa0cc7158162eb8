package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"rankbot-api/packages/core/services"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrMatchNotFound, http.StatusNotFound},
		{services.ErrParticipantNotFound, http.StatusNotFound},
		{fmt.Errorf("lookup: %w", services.ErrDeckNotFound), http.StatusNotFound},
		{services.ErrMatchImmutable, http.StatusConflict},
		{services.ErrMemberExists, http.StatusConflict},
		{services.ErrInvalidParticipants, http.StatusBadRequest},
		{services.ErrInvalidSortKey, http.StatusBadRequest},
		{services.ErrNotAuthorized, http.StatusForbidden},
		{services.ErrIDSpaceExhausted, http.StatusServiceUnavailable},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
