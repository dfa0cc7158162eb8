package fixtures

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"rankbot-api/packages/core"
	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/services"
)

var usernames = []string{
	"alexandre", "marie", "julien", "sophie", "thomas",
	"camille", "nicolas", "laura", "antoine", "emma",
}

var decks = []models.UpsertDeckRequest{
	{Name: "Kinnan, Bonder Prodigy", Aliases: []string{"Kinnan"}, Color: "ug", ColorName: "Simic"},
	{Name: "Najeela, the Blade-Blossom", Aliases: []string{"Najeela", "Naj"}, Color: "wubrg", ColorName: "Five Color"},
	{Name: "Tymna / Thrasios", Aliases: []string{"TnT"}, Color: "wubg", ColorName: "Witch-Maw"},
	{Name: "Rograkh / Silas Renn", Aliases: []string{"Rog/Silas"}, Color: "ubr", ColorName: "Grixis"},
	{Name: "Urza, Lord High Artificer", Aliases: []string{"Urza"}, Color: "u", ColorName: "Mono Blue"},
	{Name: "Winota, Joiner of Forces", Aliases: []string{"Winota"}, Color: "rw", ColorName: "Boros"},
}

type Fixtures struct {
	module  *core.Module
	guildID string
	rng     *rand.Rand
	logger  zerolog.Logger
}

func NewFixtures(module *core.Module, guildID string, seed int64, logger zerolog.Logger) *Fixtures {
	return &Fixtures{
		module:  module,
		guildID: guildID,
		rng:     rand.New(rand.NewSource(seed)), // #nosec G404
		logger:  logger.With().Str("component", "fixtures").Str("guild", guildID).Logger(),
	}
}

// GenerateTestData registers 10 members and logs 50 matches through the
// services, leaving roughly one in five pending.
func (f *Fixtures) GenerateTestData(ctx context.Context) error {
	f.logger.Info().Msg("starting fixtures generation")

	if _, err := f.module.ConfigService.SetupGuild(ctx, f.guildID); err != nil {
		return eris.Wrap(err, "failed to set up guild")
	}

	deckNames, err := f.generateDecks(ctx)
	if err != nil {
		return eris.Wrap(err, "failed to generate decks")
	}

	members, err := f.generateMembers(ctx)
	if err != nil {
		return eris.Wrap(err, "failed to generate members")
	}

	accepted, pending, err := f.generateMatches(ctx, members, deckNames, 50)
	if err != nil {
		return eris.Wrap(err, "failed to generate matches")
	}

	f.logger.Info().
		Int("members", len(members)).
		Int("accepted", accepted).
		Int("pending", pending).
		Msg("fixtures generated")
	return nil
}

func (f *Fixtures) generateDecks(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(decks))
	for _, d := range decks {
		deck, _, err := f.module.DeckService.Upsert(ctx, d)
		if err != nil {
			return nil, err
		}
		names = append(names, deck.Name)
	}
	return names, nil
}

func (f *Fixtures) generateMembers(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(usernames))
	for i, name := range usernames {
		userID := fixtureUserID(i)
		_, err := f.module.MemberService.Register(ctx, f.guildID, userID, name)
		if err != nil && !errors.Is(err, services.ErrMemberExists) {
			return nil, err
		}
		ids = append(ids, userID)
	}
	return ids, nil
}

func fixtureUserID(i int) string {
	return fmt.Sprintf("1000000000000000%02d", i+1)
}

func (f *Fixtures) generateMatches(ctx context.Context, members, deckNames []string, n int) (int, int, error) {
	accepted, pending := 0, 0
	for i := 0; i < n; i++ {
		size := 3 + f.rng.Intn(2)
		order := f.rng.Perm(len(members))[:size]
		players := make([]string, 0, size)
		for _, idx := range order {
			players = append(players, members[idx])
		}
		winner := players[f.rng.Intn(size)]

		match, err := f.module.MatchService.CreateMatch(ctx, f.guildID, models.CreateMatchRequest{
			WinnerID:       winner,
			ParticipantIDs: players,
		})
		if err != nil {
			return accepted, pending, err
		}

		leavePending := f.rng.Intn(5) == 0
		for j, userID := range players {
			if leavePending && j == len(players)-1 {
				break
			}
			deck := deckNames[f.rng.Intn(len(deckNames))]
			if _, err := f.module.MatchService.ConfirmAndEvaluate(ctx, f.guildID, match.GameID, userID, deck); err != nil {
				return accepted, pending, err
			}
		}
		if leavePending {
			pending++
		} else {
			accepted++
		}
	}
	return accepted, pending, nil
}

// ClearAllData removes every match and member of the fixture guild.
func (f *Fixtures) ClearAllData(ctx context.Context) error {
	if err := f.module.MemberService.ResetMatches(ctx, f.guildID); err != nil {
		return eris.Wrap(err, "failed to clear matches")
	}
	members, err := f.module.MemberService.List(ctx, f.guildID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if err := f.module.MemberService.Delete(ctx, f.guildID, m.UserID); err != nil {
			return eris.Wrapf(err, "failed to delete member %s", m.UserID)
		}
	}
	f.logger.Info().Int("members", len(members)).Msg("fixture data cleared")
	return nil
}
