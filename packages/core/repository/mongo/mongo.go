// Package mongo stores each guild in its own MongoDB database, with decks and
// guild settings in a shared one.
package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/repository"
)

const (
	membersCollection = "members"
	matchesCollection = "matches"
	decksCollection   = "decks"
	configsCollection = "guild_configs"

	DefaultSharedDatabase = "rankbot"
)

type Options struct {
	// SharedDatabase holds decks and guild settings.
	SharedDatabase string
	// GuildPrefix is prepended to the guild id to name per-guild databases.
	GuildPrefix string
}

type Store struct {
	client *mongo.Client
	opts   Options
}

var _ repository.Store = (*Store)(nil)

func Connect(ctx context.Context, uri string, opts Options) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, eris.Wrap(err, "failed to connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, eris.Wrap(err, "failed to ping mongodb")
	}
	return New(client, opts), nil
}

func New(client *mongo.Client, opts Options) *Store {
	if opts.SharedDatabase == "" {
		opts.SharedDatabase = DefaultSharedDatabase
	}
	return &Store{client: client, opts: opts}
}

func (s *Store) members(guildID string) *mongo.Collection {
	return s.client.Database(s.opts.GuildPrefix + guildID).Collection(membersCollection)
}

func (s *Store) matches(guildID string) *mongo.Collection {
	return s.client.Database(s.opts.GuildPrefix + guildID).Collection(matchesCollection)
}

func (s *Store) decks() *mongo.Collection {
	return s.client.Database(s.opts.SharedDatabase).Collection(decksCollection)
}

func (s *Store) configs() *mongo.Collection {
	return s.client.Database(s.opts.SharedDatabase).Collection(configsCollection)
}

func (s *Store) SetupGuild(ctx context.Context, guildID string) error {
	_, err := s.matches(guildID).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "game_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "players.user_id", Value: 1}}},
	})
	if err != nil {
		return eris.Wrapf(err, "failed to create match indexes for guild %s", guildID)
	}
	_, err = s.members(guildID).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "points", Value: -1}},
	})
	if err != nil {
		return eris.Wrapf(err, "failed to create member indexes for guild %s", guildID)
	}
	_, err = s.decks().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "canonical_aliases", Value: 1}}},
		{Keys: bson.D{{Key: "color", Value: 1}}},
	})
	return eris.Wrap(err, "failed to create deck indexes")
}

func (s *Store) Ping(ctx context.Context) error {
	return eris.Wrap(s.client.Ping(ctx, nil), "mongodb ping failed")
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) InsertMember(ctx context.Context, member *models.Member) error {
	if member.Pending == nil {
		member.Pending = models.StringSet{}
	}
	_, err := s.members(member.GuildID).InsertOne(ctx, member)
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return eris.Wrap(err, "failed to insert member")
}

func (s *Store) GetMember(ctx context.Context, guildID, userID string) (*models.Member, error) {
	var member models.Member
	err := s.members(guildID).FindOne(ctx, bson.M{"_id": userID}).Decode(&member)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, eris.Wrap(err, "failed to find member")
	}
	member.GuildID = guildID
	return &member, nil
}

func (s *Store) ListMembers(ctx context.Context, guildID string) ([]models.Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.members(guildID).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, eris.Wrap(err, "failed to list members")
	}
	members := []models.Member{}
	if err := cursor.All(ctx, &members); err != nil {
		return nil, eris.Wrap(err, "failed to decode members")
	}
	for i := range members {
		members[i].GuildID = guildID
	}
	return members, nil
}

func (s *Store) CountMembers(ctx context.Context, guildID string) (int64, error) {
	n, err := s.members(guildID).CountDocuments(ctx, bson.M{})
	return n, eris.Wrap(err, "failed to count members")
}

func (s *Store) DeleteMember(ctx context.Context, guildID, userID string) error {
	res, err := s.members(guildID).DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return eris.Wrap(err, "failed to delete member")
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) SetMemberDeck(ctx context.Context, guildID, userID, deck string) error {
	res, err := s.members(guildID).UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{"deck": deck}})
	if err != nil {
		return eris.Wrap(err, "failed to set member deck")
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// transaction runs fn in a multi-document transaction. The server must be
// part of a replica set.
func (s *Store) transaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return eris.Wrap(err, "failed to start mongodb session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *Store) pullPending(ctx context.Context, guildID, gameID string) error {
	_, err := s.members(guildID).UpdateMany(ctx,
		bson.M{"pending": gameID},
		bson.M{"$pull": bson.M{"pending": gameID}},
	)
	return err
}

func (s *Store) applyResults(ctx context.Context, guildID string, results []repository.MemberResult) error {
	if len(results) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(results))
	for _, r := range results {
		inc := bson.M{"points": r.Change, "accepted": 1}
		if r.Won {
			inc["wins"] = 1
		} else {
			inc["losses"] = 1
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": r.UserID}).
			SetUpdate(bson.M{"$inc": inc}))
	}
	_, err := s.members(guildID).BulkWrite(ctx, writes)
	return err
}

func (s *Store) ResetMembers(ctx context.Context, guildID string) error {
	_, err := s.members(guildID).UpdateMany(ctx, bson.M{}, bson.M{"$set": bson.M{
		"points":   models.DefaultPoints,
		"accepted": 0,
		"wins":     0,
		"losses":   0,
	}})
	return eris.Wrap(err, "failed to reset members")
}

func (s *Store) InsertMatch(ctx context.Context, match *models.Match) error {
	err := s.transaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.matches(match.GuildID).InsertOne(sc, match); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return repository.ErrDuplicate
			}
			return err
		}
		_, err := s.members(match.GuildID).UpdateMany(sc,
			bson.M{"_id": bson.M{"$in": match.PlayerIDs()}},
			bson.M{"$addToSet": bson.M{"pending": match.GameID}},
		)
		return err
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return repository.ErrDuplicate
	}
	return eris.Wrap(err, "failed to insert match")
}

func (s *Store) GetMatch(ctx context.Context, guildID, gameID string) (*models.Match, error) {
	var match models.Match
	err := s.matches(guildID).FindOne(ctx, bson.M{"game_id": gameID}).Decode(&match)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, eris.Wrap(err, "failed to find match")
	}
	match.GuildID = guildID
	return &match, nil
}

func (s *Store) MatchExists(ctx context.Context, guildID, gameID string) (bool, error) {
	n, err := s.matches(guildID).CountDocuments(ctx, bson.M{"game_id": gameID}, options.Count().SetLimit(1))
	if err != nil {
		return false, eris.Wrap(err, "failed to look up match id")
	}
	return n > 0, nil
}

func (s *Store) FindMatches(ctx context.Context, guildID string, query repository.MatchQuery) ([]models.Match, error) {
	filter := bson.M{}
	if query.Status != "" {
		filter["status"] = query.Status
	}
	if query.UserID != "" {
		filter["players.user_id"] = query.UserID
	}
	if query.Before != nil {
		filter["timestamp"] = bson.M{"$lt": *query.Before}
	}

	direction := 1
	if query.Newest {
		direction = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: direction}, {Key: "_id", Value: direction}})
	if query.Limit > 0 {
		opts.SetLimit(int64(query.Limit))
	}

	cursor, err := s.matches(guildID).Find(ctx, filter, opts)
	if err != nil {
		return nil, eris.Wrap(err, "failed to find matches")
	}
	matches := []models.Match{}
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, eris.Wrap(err, "failed to decode matches")
	}
	for i := range matches {
		matches[i].GuildID = guildID
	}
	return matches, nil
}

func (s *Store) CountMatches(ctx context.Context, guildID, status string) (int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	n, err := s.matches(guildID).CountDocuments(ctx, filter)
	return n, eris.Wrap(err, "failed to count matches")
}

func (s *Store) UpdateParticipant(ctx context.Context, guildID, gameID, userID string, update repository.ParticipantUpdate) (bool, error) {
	set := bson.M{}
	if update.Confirmed != nil {
		set["players.$.confirmed"] = *update.Confirmed
	}
	if update.Deck != nil {
		set["players.$.deck"] = *update.Deck
		if update.WinningDeck {
			set["winning_deck"] = *update.Deck
		}
	}
	filter := bson.M{"game_id": gameID, "status": models.StatusPending, "players.user_id": userID}
	if len(set) == 0 {
		n, err := s.matches(guildID).CountDocuments(ctx, filter)
		return n > 0, eris.Wrap(err, "failed to look up participant")
	}

	res, err := s.matches(guildID).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, eris.Wrap(err, "failed to update participant")
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) ConfirmAll(ctx context.Context, guildID, gameID string) (bool, error) {
	res, err := s.matches(guildID).UpdateOne(ctx,
		bson.M{"game_id": gameID, "status": models.StatusPending},
		bson.M{"$set": bson.M{"players.$[].confirmed": true}},
	)
	if err != nil {
		return false, eris.Wrap(err, "failed to confirm all participants")
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) AcceptMatch(ctx context.Context, guildID, gameID string, acceptedAt time.Time, changes models.Delta, results []repository.MemberResult) (bool, error) {
	accepted := false
	err := s.transaction(ctx, func(sc mongo.SessionContext) error {
		accepted = false
		res, err := s.matches(guildID).UpdateOne(sc,
			bson.M{
				"game_id":           gameID,
				"status":            models.StatusPending,
				"players.confirmed": bson.M{"$ne": false},
			},
			bson.M{"$set": bson.M{
				"status":      models.StatusAccepted,
				"accepted_at": acceptedAt,
				"changes":     changes,
			}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return nil
		}
		if err := s.applyResults(sc, guildID, results); err != nil {
			return err
		}
		if err := s.pullPending(sc, guildID, gameID); err != nil {
			return err
		}
		accepted = true
		return nil
	})
	if err != nil {
		return false, eris.Wrap(err, "failed to accept match")
	}
	return accepted, nil
}

func (s *Store) DeletePendingMatch(ctx context.Context, guildID, gameID string) (bool, error) {
	deleted := false
	err := s.transaction(ctx, func(sc mongo.SessionContext) error {
		deleted = false
		res, err := s.matches(guildID).DeleteOne(sc, bson.M{"game_id": gameID, "status": models.StatusPending})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return nil
		}
		if err := s.pullPending(sc, guildID, gameID); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, eris.Wrap(err, "failed to delete match")
	}
	return deleted, nil
}

func (s *Store) DeleteMatches(ctx context.Context, guildID string) error {
	err := s.transaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.matches(guildID).DeleteMany(sc, bson.M{}); err != nil {
			return err
		}
		_, err := s.members(guildID).UpdateMany(sc, bson.M{}, bson.M{"$set": bson.M{"pending": bson.A{}}})
		return err
	})
	return eris.Wrap(err, "failed to delete matches")
}

func (s *Store) UpsertDeck(ctx context.Context, deck *models.Deck) (bool, error) {
	res, err := s.decks().ReplaceOne(ctx, bson.M{"name": deck.Name}, deck, options.Replace().SetUpsert(true))
	if err != nil {
		return false, eris.Wrap(err, "failed to upsert deck")
	}
	return res.UpsertedCount > 0, nil
}

func (s *Store) FindDeck(ctx context.Context, canonicalAlias string) (*models.Deck, error) {
	var deck models.Deck
	err := s.decks().FindOne(ctx, bson.M{"canonical_aliases": canonicalAlias}).Decode(&deck)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, eris.Wrap(err, "failed to find deck")
	}
	return &deck, nil
}

func (s *Store) AddDeckAliases(ctx context.Context, canonicalAlias string, aliases, canonical []string) error {
	res, err := s.decks().UpdateOne(ctx, bson.M{"canonical_aliases": canonicalAlias}, bson.M{
		"$addToSet": bson.M{
			"aliases":           bson.M{"$each": aliases},
			"canonical_aliases": bson.M{"$each": canonical},
		},
	})
	if err != nil {
		return eris.Wrap(err, "failed to add deck aliases")
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) ListDecks(ctx context.Context, color string) ([]models.Deck, error) {
	filter := bson.M{}
	if color != "" {
		filter["color"] = color
	}
	cursor, err := s.decks().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, eris.Wrap(err, "failed to list decks")
	}
	decks := []models.Deck{}
	if err := cursor.All(ctx, &decks); err != nil {
		return nil, eris.Wrap(err, "failed to decode decks")
	}
	return decks, nil
}

func (s *Store) GetGuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	var cfg models.GuildConfig
	err := s.configs().FindOne(ctx, bson.M{"_id": guildID}).Decode(&cfg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, eris.Wrap(err, "failed to find guild config")
	}
	return &cfg, nil
}

func (s *Store) SaveGuildConfig(ctx context.Context, cfg *models.GuildConfig) error {
	_, err := s.configs().ReplaceOne(ctx, bson.M{"_id": cfg.GuildID}, cfg, options.Replace().SetUpsert(true))
	return eris.Wrap(err, "failed to save guild config")
}

func (s *Store) ListGuildConfigs(ctx context.Context) ([]models.GuildConfig, error) {
	cursor, err := s.configs().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, eris.Wrap(err, "failed to list guild configs")
	}
	configs := []models.GuildConfig{}
	if err := cursor.All(ctx, &configs); err != nil {
		return nil, eris.Wrap(err, "failed to decode guild configs")
	}
	return configs, nil
}
