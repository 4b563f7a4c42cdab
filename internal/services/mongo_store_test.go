// internal/services/mongo_store_test.go
//
// A document mapping and routing layer for the jam-build data services
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of propsodm.
// propsodm is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// propsodm is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with propsodm.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/localnerve/propsodm/internal/config"
	"github.com/localnerve/propsodm/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// startMongo runs a throwaway MongoDB container. Set MONGO_IMAGE (for
// example mongo:7) to enable these tests.
func startMongo(t *testing.T) *MongoStore {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	image := os.Getenv("MONGO_IMAGE")
	if image == "" {
		t.Skip("MONGO_IMAGE not set")
	}

	ctx := context.Background()
	port, err := nat.NewPort("tcp", "27017")
	require.NoError(t, err)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{string(port)},
			WaitingFor:   wait.ForListeningPort(port).WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate mongo container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)

	client, err := database.ConnectMongo(ctx, &config.Config{
		MongoURI:          fmt.Sprintf("mongodb://%s:%s", host, mapped.Port()),
		DBConnectionLimit: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseMongo(client) })

	return NewMongoStore(client, "odm_test")
}

func TestMongoStore(t *testing.T) {
	store := startMongo(t)
	ctx := context.Background()

	t.Run("defaults after unset", func(t *testing.T) {
		runDefaultsScenario(t, store)
	})

	t.Run("crud", func(t *testing.T) {
		oid := bson.NewObjectID()
		_, err := store.InsertOne(ctx, peopleConfig, bson.M{"_id": oid, "nm": "Ada", "rank": 1})
		require.NoError(t, err)

		require.NoError(t, store.UpdateOne(ctx, peopleConfig, oid, bson.M{"nm": "Bea"}, []string{"rank"}))
		doc, err := store.FindOne(ctx, peopleConfig, bson.M{"_id": oid}, bson.M{"nm": 1})
		require.NoError(t, err)
		assert.Equal(t, "Bea", doc["nm"])
		assert.NotContains(t, doc, "rank")

		require.NoError(t, store.DeleteOne(ctx, peopleConfig, oid))
		_, err = store.FindOne(ctx, peopleConfig, bson.M{"_id": oid}, nil)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.True(t, errors.Is(store.DeleteOne(ctx, peopleConfig, oid), ErrNotFound))
	})

	t.Run("find with operators", func(t *testing.T) {
		cfg := peopleConfig
		for i := 0; i < 5; i++ {
			_, err := store.InsertOne(ctx, cfg, bson.M{"_id": bson.NewObjectID(), "nm": "op", "rank": i})
			require.NoError(t, err)
		}
		docs, err := store.Find(ctx, cfg, bson.M{"nm": "op", "rank": bson.M{"$gte": 2}}, nil,
			FindOptions{Sort: bson.D{{Key: "rank", Value: -1}}, Limit: 2})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.EqualValues(t, 4, docs[0]["rank"])
		assert.EqualValues(t, 3, docs[1]["rank"])
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}
