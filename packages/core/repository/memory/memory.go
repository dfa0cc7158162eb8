// Package memory is an in-process Store used by tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/repository"
)

type guildData struct {
	members     map[string]*models.Member
	memberOrder []string
	matches     map[string]*models.Match
	matchOrder  []string
}

type Store struct {
	mu      sync.RWMutex
	guilds  map[string]*guildData
	decks   map[string]*models.Deck
	decksBy []string
	configs map[string]*models.GuildConfig
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		guilds:  make(map[string]*guildData),
		decks:   make(map[string]*models.Deck),
		configs: make(map[string]*models.GuildConfig),
	}
}

func (s *Store) guild(guildID string) *guildData {
	g, ok := s.guilds[guildID]
	if !ok {
		g = &guildData{
			members: make(map[string]*models.Member),
			matches: make(map[string]*models.Match),
		}
		s.guilds[guildID] = g
	}
	return g
}

func copyMember(m *models.Member) models.Member {
	out := *m
	out.Pending = append(models.StringSet{}, m.Pending...)
	return out
}

func copyMatch(m *models.Match) models.Match {
	out := *m
	out.Players = append([]models.Participant(nil), m.Players...)
	out.Changes = append(models.Delta(nil), m.Changes...)
	if m.AcceptedAt != nil {
		at := *m.AcceptedAt
		out.AcceptedAt = &at
	}
	return out
}

func copyDeck(d *models.Deck) models.Deck {
	out := *d
	out.Aliases = append(models.StringSet{}, d.Aliases...)
	out.CanonicalAliases = append(models.StringSet{}, d.CanonicalAliases...)
	out.Commanders = append(models.StringSet{}, d.Commanders...)
	return out
}

func (s *Store) SetupGuild(_ context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guild(guildID)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close(context.Context) error { return nil }

func (s *Store) InsertMember(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.guild(member.GuildID)
	if _, ok := g.members[member.UserID]; ok {
		return repository.ErrDuplicate
	}
	m := copyMember(member)
	if m.Pending == nil {
		m.Pending = models.StringSet{}
	}
	g.members[m.UserID] = &m
	g.memberOrder = append(g.memberOrder, m.UserID)
	return nil
}

func (s *Store) GetMember(_ context.Context, guildID, userID string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.guilds[guildID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m, ok := g.members[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyMember(m)
	return &out, nil
}

func (s *Store) ListMembers(_ context.Context, guildID string) ([]models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.guilds[guildID]
	if !ok {
		return []models.Member{}, nil
	}
	out := make([]models.Member, 0, len(g.memberOrder))
	for _, id := range g.memberOrder {
		out = append(out, copyMember(g.members[id]))
	}
	return out, nil
}

func (s *Store) CountMembers(_ context.Context, guildID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.guilds[guildID]
	if !ok {
		return 0, nil
	}
	return int64(len(g.members)), nil
}

func (s *Store) DeleteMember(_ context.Context, guildID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guilds[guildID]
	if !ok {
		return repository.ErrNotFound
	}
	if _, ok := g.members[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(g.members, userID)
	for i, id := range g.memberOrder {
		if id == userID {
			g.memberOrder = append(g.memberOrder[:i], g.memberOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) SetMemberDeck(_ context.Context, guildID, userID, deck string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.guild(guildID).members[userID]
	if !ok {
		return repository.ErrNotFound
	}
	m.Deck = deck
	return nil
}

func (g *guildData) pullPending(gameID string) {
	for _, m := range g.members {
		m.Pending.Remove(gameID)
	}
}

func (g *guildData) applyResults(results []repository.MemberResult) {
	for _, r := range results {
		m, ok := g.members[r.UserID]
		if !ok {
			continue
		}
		m.Points += r.Change
		m.Accepted++
		if r.Won {
			m.Wins++
		} else {
			m.Losses++
		}
	}
}

func (s *Store) ResetMembers(_ context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.guild(guildID).members {
		m.Points = models.DefaultPoints
		m.Accepted = 0
		m.Wins = 0
		m.Losses = 0
	}
	return nil
}

func (s *Store) InsertMatch(_ context.Context, match *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.guild(match.GuildID)
	if _, ok := g.matches[match.GameID]; ok {
		return repository.ErrDuplicate
	}
	m := copyMatch(match)
	g.matches[m.GameID] = &m
	g.matchOrder = append(g.matchOrder, m.GameID)
	for _, id := range m.PlayerIDs() {
		if member, ok := g.members[id]; ok {
			member.Pending.Add(m.GameID)
		}
	}
	return nil
}

func (s *Store) GetMatch(_ context.Context, guildID, gameID string) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.guilds[guildID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m, ok := g.matches[gameID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyMatch(m)
	return &out, nil
}

func (s *Store) MatchExists(_ context.Context, guildID, gameID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.guilds[guildID]
	if !ok {
		return false, nil
	}
	_, ok = g.matches[gameID]
	return ok, nil
}

func (s *Store) FindMatches(_ context.Context, guildID string, query repository.MatchQuery) ([]models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Match{}
	g, ok := s.guilds[guildID]
	if !ok {
		return out, nil
	}
	for _, id := range g.matchOrder {
		m := g.matches[id]
		if query.Status != "" && m.Status != query.Status {
			continue
		}
		if query.UserID != "" {
			if _, ok := m.Participant(query.UserID); !ok {
				continue
			}
		}
		if query.Before != nil && !m.Timestamp.Before(*query.Before) {
			continue
		}
		out = append(out, copyMatch(m))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if query.Newest {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (s *Store) CountMatches(_ context.Context, guildID, status string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.guilds[guildID]
	if !ok {
		return 0, nil
	}
	var n int64
	for _, m := range g.matches {
		if status == "" || m.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *Store) UpdateParticipant(_ context.Context, guildID, gameID, userID string, update repository.ParticipantUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.guild(guildID).matches[gameID]
	if !ok || m.Status != models.StatusPending {
		return false, nil
	}
	p, ok := m.Participant(userID)
	if !ok {
		return false, nil
	}
	if update.Confirmed != nil {
		p.Confirmed = *update.Confirmed
	}
	if update.Deck != nil {
		p.Deck = *update.Deck
		if update.WinningDeck {
			m.WinningDeck = *update.Deck
		}
	}
	return true, nil
}

func (s *Store) ConfirmAll(_ context.Context, guildID, gameID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.guild(guildID).matches[gameID]
	if !ok || m.Status != models.StatusPending {
		return false, nil
	}
	for i := range m.Players {
		m.Players[i].Confirmed = true
	}
	return true, nil
}

func (s *Store) AcceptMatch(_ context.Context, guildID, gameID string, acceptedAt time.Time, changes models.Delta, results []repository.MemberResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.guild(guildID)
	m, ok := g.matches[gameID]
	if !ok || m.Status != models.StatusPending || !m.AllConfirmed() {
		return false, nil
	}
	m.Status = models.StatusAccepted
	at := acceptedAt
	m.AcceptedAt = &at
	m.Changes = append(models.Delta(nil), changes...)
	g.applyResults(results)
	g.pullPending(gameID)
	return true, nil
}

func (s *Store) DeletePendingMatch(_ context.Context, guildID, gameID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.guild(guildID)
	m, ok := g.matches[gameID]
	if !ok || m.Status != models.StatusPending {
		return false, nil
	}
	delete(g.matches, gameID)
	for i, id := range g.matchOrder {
		if id == gameID {
			g.matchOrder = append(g.matchOrder[:i], g.matchOrder[i+1:]...)
			break
		}
	}
	g.pullPending(gameID)
	return true, nil
}

func (s *Store) DeleteMatches(_ context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.guild(guildID)
	g.matches = make(map[string]*models.Match)
	g.matchOrder = nil
	for _, m := range g.members {
		m.Pending = models.StringSet{}
	}
	return nil
}

func (s *Store) UpsertDeck(_ context.Context, deck *models.Deck) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := copyDeck(deck)
	_, exists := s.decks[d.Name]
	s.decks[d.Name] = &d
	if !exists {
		s.decksBy = append(s.decksBy, d.Name)
	}
	return !exists, nil
}

func (s *Store) findDeckLocked(canonicalAlias string) *models.Deck {
	for _, name := range s.decksBy {
		d := s.decks[name]
		if d.CanonicalAliases.Contains(canonicalAlias) {
			return d
		}
	}
	return nil
}

func (s *Store) FindDeck(_ context.Context, canonicalAlias string) (*models.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := s.findDeckLocked(canonicalAlias)
	if d == nil {
		return nil, repository.ErrNotFound
	}
	out := copyDeck(d)
	return &out, nil
}

func (s *Store) AddDeckAliases(_ context.Context, canonicalAlias string, aliases, canonical []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.findDeckLocked(canonicalAlias)
	if d == nil {
		return repository.ErrNotFound
	}
	for _, a := range aliases {
		d.Aliases.Add(a)
	}
	for _, c := range canonical {
		d.CanonicalAliases.Add(c)
	}
	return nil
}

func (s *Store) ListDecks(_ context.Context, color string) ([]models.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Deck{}
	for _, name := range s.decksBy {
		d := s.decks[name]
		if color != "" && d.Color != color {
			continue
		}
		out = append(out, copyDeck(d))
	}
	return out, nil
}

func (s *Store) GetGuildConfig(_ context.Context, guildID string) (*models.GuildConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[guildID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *cfg
	return &out, nil
}

func (s *Store) SaveGuildConfig(_ context.Context, cfg *models.GuildConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *cfg
	s.configs[c.GuildID] = &c
	return nil
}

func (s *Store) ListGuildConfigs(context.Context) ([]models.GuildConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.GuildConfig, 0, len(s.configs))
	for _, c := range s.configs {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GuildID < out[j].GuildID })
	return out, nil
}
