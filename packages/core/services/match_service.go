package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"rankbot-api/packages/core/lock"
	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/repository"
	"rankbot-api/packages/core/utils"
)

const maxInsertRetries = 5

// DeckResolver maps a free-text deck alias to a canonical deck name.
type DeckResolver interface {
	ResolveDeck(ctx context.Context, alias string) (string, error)
}

// AdminPredicate reports whether caller administers the guild's league.
type AdminPredicate func(ctx context.Context, guildID string, caller models.Caller) (bool, error)

type matchStore interface {
	repository.MemberStore
	repository.MatchStore
}

type MatchService struct {
	store   matchStore
	locker  lock.Locker
	ids     *utils.IDGenerator
	decks   DeckResolver
	isAdmin AdminPredicate
	now     func() time.Time
	logger  zerolog.Logger
}

type MatchOption func(*MatchService)

func WithDeckResolver(r DeckResolver) MatchOption {
	return func(s *MatchService) { s.decks = r }
}

func WithAdminPredicate(p AdminPredicate) MatchOption {
	return func(s *MatchService) { s.isAdmin = p }
}

func WithClock(now func() time.Time) MatchOption {
	return func(s *MatchService) { s.now = now }
}

func NewMatchService(store matchStore, locker lock.Locker, ids *utils.IDGenerator, logger zerolog.Logger, opts ...MatchOption) *MatchService {
	s := &MatchService{
		store:  store,
		locker: locker,
		ids:    ids,
		now:    time.Now,
		logger: logger.With().Str("service", "match").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MatchService) GetMatch(ctx context.Context, guildID, gameID string) (*models.Match, error) {
	match, err := s.store.GetMatch(ctx, guildID, gameID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func uniqueParticipants(winnerID string, participantIDs []string) ([]string, error) {
	seen := make(map[string]struct{}, len(participantIDs))
	ids := make([]string, 0, len(participantIDs))
	for _, id := range participantIDs {
		if id == "" {
			return nil, ErrInvalidParticipants
		}
		if _, dup := seen[id]; dup {
			return nil, ErrInvalidParticipants
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		return nil, ErrInvalidParticipants
	}
	if _, ok := seen[winnerID]; !ok {
		return nil, ErrInvalidParticipants
	}
	return ids, nil
}

// CreateMatch logs a new PENDING match. The store adds it to every
// participant's pending list in the same write. A zero seed is replaced by
// the current time in milliseconds.
func (s *MatchService) CreateMatch(ctx context.Context, guildID string, req models.CreateMatchRequest) (*models.Match, error) {
	ids, err := uniqueParticipants(req.WinnerID, req.ParticipantIDs)
	if err != nil {
		return nil, err
	}

	players := make([]models.Participant, 0, len(ids))
	for _, id := range ids {
		member, err := s.store.GetMember(ctx, guildID, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrMemberNotFound
			}
			return nil, err
		}
		players = append(players, models.Participant{UserID: id, Name: member.Name})
	}

	seed := req.Seed
	if seed == 0 {
		seed = s.now().UnixMilli()
	}

	match := &models.Match{
		GuildID:   guildID,
		Winner:    req.WinnerID,
		Status:    models.StatusPending,
		Timestamp: s.now().UTC(),
		Players:   players,
	}

	exists := func(candidate string) (bool, error) {
		return s.store.MatchExists(ctx, guildID, candidate)
	}
	for attempt := 0; ; attempt++ {
		gameID, used, err := s.ids.Generate(seed, exists)
		if err != nil {
			return nil, err
		}
		match.GameID = gameID

		err = s.store.InsertMatch(ctx, match)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt >= maxInsertRetries {
			return nil, err
		}
		s.logger.Debug().Str("guild", guildID).Str("game_id", gameID).Msg("game id taken concurrently, retrying")
		seed = used - 1
	}

	s.logger.Info().
		Str("guild", guildID).
		Str("game_id", match.GameID).
		Str("winner", match.Winner).
		Int("players", len(players)).
		Msg("match logged")

	return match, nil
}

func (s *MatchService) resolveDeck(ctx context.Context, deck string) (string, error) {
	if deck == "" || s.decks == nil {
		return deck, nil
	}
	return s.decks.ResolveDeck(ctx, deck)
}

// classifyMiss explains why a conditional participant update matched nothing.
// A nil error with a match means the match is already accepted.
func (s *MatchService) classifyMiss(ctx context.Context, guildID, gameID, userID string) (*models.Match, error) {
	match, err := s.GetMatch(ctx, guildID, gameID)
	if err != nil {
		return nil, err
	}
	if match.IsAccepted() {
		return match, nil
	}
	if _, ok := match.Participant(userID); !ok {
		return nil, ErrParticipantNotFound
	}
	return match, nil
}

// Confirm records userID's confirmation and deck. Confirming an accepted match
// is a no-op that returns the settled match.
func (s *MatchService) Confirm(ctx context.Context, guildID, gameID, userID, deck string) (*models.Match, error) {
	match, err := s.GetMatch(ctx, guildID, gameID)
	if err != nil {
		return nil, err
	}
	if match.IsAccepted() {
		return match, nil
	}
	if _, ok := match.Participant(userID); !ok {
		return nil, ErrParticipantNotFound
	}

	deckName, err := s.resolveDeck(ctx, deck)
	if err != nil {
		return nil, err
	}

	confirmed := true
	ok, err := s.store.UpdateParticipant(ctx, guildID, gameID, userID, repository.ParticipantUpdate{
		Confirmed:   &confirmed,
		Deck:        &deckName,
		WinningDeck: userID == match.Winner,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.classifyMiss(ctx, guildID, gameID, userID)
	}

	s.logger.Debug().Str("guild", guildID).Str("game_id", gameID).Str("user", userID).Msg("match confirmed")
	return s.GetMatch(ctx, guildID, gameID)
}

// ForceConfirmAll marks every participant confirmed without touching decks.
func (s *MatchService) ForceConfirmAll(ctx context.Context, guildID, gameID string) (*models.Match, error) {
	match, err := s.GetMatch(ctx, guildID, gameID)
	if err != nil {
		return nil, err
	}
	if match.IsAccepted() {
		return match, nil
	}
	if _, err := s.store.ConfirmAll(ctx, guildID, gameID); err != nil {
		return nil, err
	}
	return s.GetMatch(ctx, guildID, gameID)
}

func (s *MatchService) Unconfirm(ctx context.Context, guildID, gameID, userID string) (*models.Match, error) {
	match, err := s.GetMatch(ctx, guildID, gameID)
	if err != nil {
		return nil, err
	}
	if match.IsAccepted() {
		return nil, ErrMatchImmutable
	}
	if _, ok := match.Participant(userID); !ok {
		return nil, ErrParticipantNotFound
	}

	confirmed := false
	ok, err := s.store.UpdateParticipant(ctx, guildID, gameID, userID, repository.ParticipantUpdate{Confirmed: &confirmed})
	if err != nil {
		return nil, err
	}
	if !ok {
		match, err := s.classifyMiss(ctx, guildID, gameID, userID)
		if err != nil {
			return nil, err
		}
		if match.IsAccepted() {
			return nil, ErrMatchImmutable
		}
	}
	return s.GetMatch(ctx, guildID, gameID)
}

// SetParticipantDeck sets a participant's deck and confirms on their behalf.
func (s *MatchService) SetParticipantDeck(ctx context.Context, guildID, gameID, userID, deck string) (*models.Match, error) {
	match, err := s.GetMatch(ctx, guildID, gameID)
	if err != nil {
		return nil, err
	}
	if match.IsAccepted() {
		return nil, ErrMatchImmutable
	}
	updated, err := s.Confirm(ctx, guildID, gameID, userID, deck)
	if err != nil {
		return nil, err
	}
	if updated.IsAccepted() {
		return nil, ErrMatchImmutable
	}
	return updated, nil
}

// Evaluate scores a fully confirmed PENDING match. It returns a nil Delta when
// the match is missing, already accepted or still waiting on confirmations.
func (s *MatchService) Evaluate(ctx context.Context, guildID, gameID string) (models.Delta, error) {
	unlock, err := s.locker.Lock(ctx, guildID+":"+gameID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	match, err := s.store.GetMatch(ctx, guildID, gameID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if match.IsAccepted() || !match.AllConfirmed() {
		return nil, nil
	}

	var winner utils.Standing
	var losers []utils.Standing
	for _, p := range match.Players {
		standing, err := s.standing(ctx, guildID, p)
		if err != nil {
			return nil, err
		}
		if p.UserID == match.Winner {
			winner = standing
		} else {
			losers = append(losers, standing)
		}
	}

	delta := utils.ComputeDelta(winner, losers)
	results := make([]repository.MemberResult, 0, len(delta))
	for _, e := range delta {
		results = append(results, repository.MemberResult{
			UserID: e.UserID,
			Change: e.Change,
			Won:    e.UserID == match.Winner,
		})
	}

	accepted, err := s.store.AcceptMatch(ctx, guildID, gameID, s.now().UTC(), delta, results)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, nil
	}

	s.logger.Info().
		Str("guild", guildID).
		Str("game_id", gameID).
		Str("winner", match.Winner).
		Int("gain", delta[len(delta)-1].Change).
		Msg("match accepted")

	return delta, nil
}

func (s *MatchService) standing(ctx context.Context, guildID string, p models.Participant) (utils.Standing, error) {
	member, err := s.store.GetMember(ctx, guildID, p.UserID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return utils.Standing{}, err
		}
		s.logger.Warn().Str("guild", guildID).Str("user", p.UserID).Msg("scoring a participant who is no longer registered")
		return utils.Standing{UserID: p.UserID, Name: p.Name, Points: models.DefaultPoints}, nil
	}
	return utils.Standing{UserID: p.UserID, Name: member.Name, Points: member.Points}, nil
}

// ConfirmAndEvaluate confirms for userID and settles the match when that was
// the last missing confirmation.
func (s *MatchService) ConfirmAndEvaluate(ctx context.Context, guildID, gameID, userID, deck string) (*models.MatchResult, error) {
	match, err := s.Confirm(ctx, guildID, gameID, userID, deck)
	if err != nil {
		return nil, err
	}
	if match.IsAccepted() {
		return &models.MatchResult{Match: match}, nil
	}
	return s.evaluateResult(ctx, guildID, gameID, match)
}

func (s *MatchService) evaluateResult(ctx context.Context, guildID, gameID string, match *models.Match) (*models.MatchResult, error) {
	delta, err := s.Evaluate(ctx, guildID, gameID)
	if err != nil {
		return nil, err
	}
	if delta == nil {
		return &models.MatchResult{Match: match}, nil
	}
	settled, err := s.GetMatch(ctx, guildID, gameID)
	if err != nil {
		return nil, err
	}
	return &models.MatchResult{Match: settled, Changes: delta}, nil
}

// Remove deletes a PENDING match. The store clears it from pending lists.
func (s *MatchService) Remove(ctx context.Context, guildID, gameID string) error {
	match, err := s.GetMatch(ctx, guildID, gameID)
	if err != nil {
		return err
	}
	if match.IsAccepted() {
		return ErrMatchImmutable
	}

	deleted, err := s.store.DeletePendingMatch(ctx, guildID, gameID)
	if err != nil {
		return err
	}
	if !deleted {
		if _, err := s.GetMatch(ctx, guildID, gameID); err != nil {
			return err
		}
		return ErrMatchImmutable
	}

	s.logger.Info().Str("guild", guildID).Str("game_id", gameID).Msg("match removed")
	return nil
}

func (s *MatchService) callerIsAdmin(ctx context.Context, guildID string, caller models.Caller) (bool, error) {
	if caller.Owner {
		return true, nil
	}
	if s.isAdmin == nil {
		return false, nil
	}
	return s.isAdmin(ctx, guildID, caller)
}

// RemoveAs lets the match winner or a league admin remove a pending match.
func (s *MatchService) RemoveAs(ctx context.Context, guildID, gameID string, caller models.Caller) error {
	match, err := s.GetMatch(ctx, guildID, gameID)
	if err != nil {
		return err
	}
	if caller.UserID != match.Winner {
		admin, err := s.callerIsAdmin(ctx, guildID, caller)
		if err != nil {
			return err
		}
		if !admin {
			return ErrNotAuthorized
		}
	}
	return s.Remove(ctx, guildID, gameID)
}

// ForceAccept confirms every participant and settles the match. Only league
// admins may do this. An already accepted match comes back without changes.
func (s *MatchService) ForceAccept(ctx context.Context, guildID, gameID string, caller models.Caller) (*models.MatchResult, error) {
	admin, err := s.callerIsAdmin(ctx, guildID, caller)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, ErrNotAuthorized
	}
	return s.forceAccept(ctx, guildID, gameID)
}

func (s *MatchService) forceAccept(ctx context.Context, guildID, gameID string) (*models.MatchResult, error) {
	match, err := s.ForceConfirmAll(ctx, guildID, gameID)
	if err != nil {
		return nil, err
	}
	if match.IsAccepted() {
		return &models.MatchResult{Match: match}, nil
	}
	return s.evaluateResult(ctx, guildID, gameID, match)
}

// SetParticipantDeckAs is the admin form of SetParticipantDeck. The match is
// settled if that was the last missing confirmation.
func (s *MatchService) SetParticipantDeckAs(ctx context.Context, guildID, gameID string, caller models.Caller, userID, deck string) (*models.MatchResult, error) {
	admin, err := s.callerIsAdmin(ctx, guildID, caller)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, ErrNotAuthorized
	}
	match, err := s.SetParticipantDeck(ctx, guildID, gameID, userID, deck)
	if err != nil {
		return nil, err
	}
	return s.evaluateResult(ctx, guildID, gameID, match)
}
