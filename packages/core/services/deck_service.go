package services

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/repository"
	"rankbot-api/packages/core/utils"
)

// DeckService owns the shared deck catalog used to resolve deck names.
type DeckService struct {
	store  repository.DeckStore
	logger zerolog.Logger
}

var _ DeckResolver = (*DeckService)(nil)

func NewDeckService(store repository.DeckStore, logger zerolog.Logger) *DeckService {
	return &DeckService{
		store:  store,
		logger: logger.With().Str("service", "deck").Logger(),
	}
}

// Upsert adds or replaces a deck and reports whether it was new. The deck's
// own name always resolves to it.
func (s *DeckService) Upsert(ctx context.Context, req models.UpsertDeckRequest) (*models.Deck, bool, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, false, ErrInvalidDeck
	}

	deck := &models.Deck{
		Name:             name,
		Aliases:          models.StringSet{},
		CanonicalAliases: models.StringSet(utils.CanonicalAliases(append([]string{name}, req.Aliases...))),
		Color:            utils.ColorSignature(req.Color),
		ColorName:        req.ColorName,
		Description:      req.Description,
		Commanders:       models.StringSet{},
	}
	for _, a := range req.Aliases {
		if a = strings.TrimSpace(a); a != "" {
			deck.Aliases.Add(a)
		}
	}
	for _, c := range req.Commanders {
		deck.Commanders.Add(c)
	}

	created, err := s.store.UpsertDeck(ctx, deck)
	if err != nil {
		return nil, false, err
	}
	return deck, created, nil
}

func (s *DeckService) Find(ctx context.Context, alias string) (*models.Deck, error) {
	canonical := utils.CanonicalAlias(alias)
	if canonical == "" {
		return nil, ErrDeckNotFound
	}
	deck, err := s.store.FindDeck(ctx, canonical)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDeckNotFound
		}
		return nil, err
	}
	return deck, nil
}

func (s *DeckService) ResolveDeck(ctx context.Context, alias string) (string, error) {
	deck, err := s.Find(ctx, alias)
	if err != nil {
		return "", err
	}
	return deck.Name, nil
}

func (s *DeckService) AddAliases(ctx context.Context, alias string, aliases []string) (*models.Deck, error) {
	canonical := utils.CanonicalAlias(alias)
	err := s.store.AddDeckAliases(ctx, canonical, aliases, utils.CanonicalAliases(aliases))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDeckNotFound
		}
		return nil, err
	}
	return s.Find(ctx, alias)
}

// List returns every deck, or only those matching a color identity.
func (s *DeckService) List(ctx context.Context, color string) ([]models.Deck, error) {
	signature := ""
	if color != "" {
		signature = utils.ColorSignature(color)
	}
	return s.store.ListDecks(ctx, signature)
}

func (s *DeckService) ShortName(ctx context.Context, alias string) (string, error) {
	deck, err := s.Find(ctx, alias)
	if err != nil {
		return "", err
	}
	return utils.ShortestAlias(deck.Name, deck.Aliases), nil
}

type catalogCategory struct {
	Colors    string        `json:"colors"`
	ColorName string        `json:"color_name"`
	Decks     []catalogDeck `json:"decks"`
}

type catalogDeck struct {
	Name        string   `json:"name"`
	Nicknames   []string `json:"nicknames"`
	Description string   `json:"description"`
	Commanders  []string `json:"commanders"`
}

// LoadCatalog upserts every deck of a catalog document grouped by color
// identity and returns how many decks were new.
func (s *DeckService) LoadCatalog(ctx context.Context, r io.Reader) (int, error) {
	var categories []catalogCategory
	if err := json.NewDecoder(r).Decode(&categories); err != nil {
		return 0, eris.Wrap(err, "failed to decode deck catalog")
	}

	added := 0
	for _, category := range categories {
		for _, d := range category.Decks {
			_, created, err := s.Upsert(ctx, models.UpsertDeckRequest{
				Name:        d.Name,
				Aliases:     d.Nicknames,
				Color:       category.Colors,
				ColorName:   category.ColorName,
				Description: d.Description,
				Commanders:  d.Commanders,
			})
			if err != nil {
				return added, eris.Wrapf(err, "failed to load deck %q", d.Name)
			}
			if created {
				added++
			}
		}
	}

	s.logger.Info().Int("added", added).Msg("deck catalog loaded")
	return added, nil
}

func (s *DeckService) LoadCatalogFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "failed to open deck catalog %s", path)
	}
	defer f.Close()
	return s.LoadCatalog(ctx, f)
}
