package services

import (
	"context"
	"errors"
	"sort"

	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/repository"
)

const (
	SortPoints  = "points"
	SortWins    = "wins"
	SortWinRate = "winrate"
)

type leaderboardStore interface {
	repository.MemberStore
	repository.MatchStore
}

// GuildSettings supplies the leaderboard thresholds of a guild.
type GuildSettings interface {
	Get(ctx context.Context, guildID string) (*models.GuildConfig, error)
}

type LeaderboardService struct {
	store    leaderboardStore
	settings GuildSettings
}

func NewLeaderboardService(store leaderboardStore, settings GuildSettings) *LeaderboardService {
	return &LeaderboardService{store: store, settings: settings}
}

func (s *LeaderboardService) thresholds(ctx context.Context, guildID string) (int, int, error) {
	if s.settings == nil {
		return models.DefaultPlayerThreshold, models.DefaultDeckThreshold, nil
	}
	cfg, err := s.settings.Get(ctx, guildID)
	if err != nil {
		return 0, 0, err
	}
	return cfg.PlayerThreshold, cfg.DeckThreshold, nil
}

// TopMembers ranks members with at least minAccepted accepted matches. A
// negative minAccepted uses the guild's player threshold. Ties keep
// registration order and limit applies after sorting.
func (s *LeaderboardService) TopMembers(ctx context.Context, guildID, sortKey string, limit, minAccepted int) ([]models.MemberStanding, error) {
	var less func(a, b *models.Member) bool
	switch sortKey {
	case SortPoints, "":
		less = func(a, b *models.Member) bool { return a.Points > b.Points }
	case SortWins:
		less = func(a, b *models.Member) bool { return a.Wins > b.Wins }
	case SortWinRate:
		less = func(a, b *models.Member) bool { return a.WinRate() > b.WinRate() }
	default:
		return nil, ErrInvalidSortKey
	}

	if minAccepted < 0 {
		players, _, err := s.thresholds(ctx, guildID)
		if err != nil {
			return nil, err
		}
		minAccepted = players
	}

	members, err := s.store.ListMembers(ctx, guildID)
	if err != nil {
		return nil, err
	}

	eligible := make([]models.Member, 0, len(members))
	for _, m := range members {
		if m.Accepted >= minAccepted {
			eligible = append(eligible, m)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool { return less(&eligible[i], &eligible[j]) })
	if limit > 0 && len(eligible) > limit {
		eligible = eligible[:limit]
	}

	standings := make([]models.MemberStanding, 0, len(eligible))
	for i, m := range eligible {
		standings = append(standings, models.MemberStanding{
			Rank:    i + 1,
			UserID:  m.UserID,
			Name:    m.Name,
			Points:  m.Points,
			Wins:    m.Wins,
			Losses:  m.Losses,
			Matches: m.Accepted,
			WinRate: m.WinRate(),
		})
	}
	return standings, nil
}

// PendingMatches resolves a member's pending list to match records.
func (s *LeaderboardService) PendingMatches(ctx context.Context, guildID, userID string) ([]models.Match, error) {
	member, err := s.store.GetMember(ctx, guildID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	matches := make([]models.Match, 0, len(member.Pending))
	for _, gameID := range member.Pending {
		m, err := s.store.GetMatch(ctx, guildID, gameID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if m.Status == models.StatusPending {
			matches = append(matches, *m)
		}
	}
	return matches, nil
}

func (s *LeaderboardService) MemberMatches(ctx context.Context, guildID, userID string, limit int) ([]models.Match, error) {
	return s.store.FindMatches(ctx, guildID, repository.MatchQuery{UserID: userID, Limit: limit, Newest: true})
}

func (s *LeaderboardService) RecentMatches(ctx context.Context, guildID, status string, limit int) ([]models.Match, error) {
	return s.store.FindMatches(ctx, guildID, repository.MatchQuery{Status: status, Limit: limit, Newest: true})
}

func (s *LeaderboardService) Stats(ctx context.Context, guildID string) (*models.Stats, error) {
	members, err := s.store.CountMembers(ctx, guildID)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.CountMatches(ctx, guildID, models.StatusPending)
	if err != nil {
		return nil, err
	}
	accepted, err := s.store.CountMatches(ctx, guildID, models.StatusAccepted)
	if err != nil {
		return nil, err
	}
	return &models.Stats{Members: members, PendingMatches: pending, AcceptedMatches: accepted}, nil
}

// TopDecks ranks decks by win rate over accepted matches. A negative
// minMatches uses the guild's deck threshold.
func (s *LeaderboardService) TopDecks(ctx context.Context, guildID string, limit, minMatches int) ([]models.DeckStanding, error) {
	if minMatches < 0 {
		_, decks, err := s.thresholds(ctx, guildID)
		if err != nil {
			return nil, err
		}
		minMatches = decks
	}

	matches, err := s.store.FindMatches(ctx, guildID, repository.MatchQuery{Status: models.StatusAccepted})
	if err != nil {
		return nil, err
	}

	byName := map[string]*models.DeckStanding{}
	var order []string
	for _, m := range matches {
		for _, p := range m.Players {
			if p.Deck == "" {
				continue
			}
			st, ok := byName[p.Deck]
			if !ok {
				st = &models.DeckStanding{Name: p.Deck}
				byName[p.Deck] = st
				order = append(order, p.Deck)
			}
			st.Games++
			if p.UserID == m.Winner {
				st.Wins++
			}
		}
	}

	standings := make([]models.DeckStanding, 0, len(order))
	for _, name := range order {
		st := byName[name]
		if st.Games < minMatches {
			continue
		}
		st.WinRate = float64(st.Wins) / float64(st.Games)
		standings = append(standings, *st)
	}
	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].WinRate != standings[j].WinRate {
			return standings[i].WinRate > standings[j].WinRate
		}
		return standings[i].Games > standings[j].Games
	})
	if limit > 0 && len(standings) > limit {
		standings = standings[:limit]
	}
	return standings, nil
}
