package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"rankbot-api/packages/core/services"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrDeckNotFound),
		errors.Is(err, services.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrMatchImmutable),
		errors.Is(err, services.ErrMemberExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidParticipants),
		errors.Is(err, services.ErrInvalidMember),
		errors.Is(err, services.ErrInvalidDeck),
		errors.Is(err, services.ErrInvalidSortKey):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, services.ErrIDSpaceExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error as JSON. Unexpected errors are logged and
// hidden behind msg.
func respondError(c *gin.Context, logger zerolog.Logger, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// queryInt reads an integer query parameter, falling back to def when absent.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func queryLimit(c *gin.Context) (int, bool) {
	limit, ok := queryInt(c, "limit", defaultLimit)
	if !ok || limit <= 0 {
		return 0, false
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, true
}
