package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"rankbot-api/packages/core/repository"
	"rankbot-api/packages/core/repository/repotest"
)

// Set MONGODB_TEST_URI to run against a live server.
func TestStore(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	prefix := "rankbot_test_" + uuid.NewString()[:8] + "_"
	store, err := Connect(ctx, uri, Options{SharedDatabase: prefix + "shared", GuildPrefix: prefix})
	require.NoError(t, err)
	t.Cleanup(func() {
		dbs, err := store.client.ListDatabaseNames(context.Background(), bson.M{
			"name": bson.M{"$regex": "^" + prefix},
		})
		if err == nil {
			for _, name := range dbs {
				_ = store.client.Database(name).Drop(context.Background())
			}
		}
		_ = store.Close(context.Background())
	})

	repotest.Run(t, func(t *testing.T) repository.Store { return store })
}
