// internal/services/mongo_store.go
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

	"github.com/localnerve/propsodm/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// MongoStore is the DocumentStore backed by MongoDB.
type MongoStore struct {
	Client *mongo.Client
	// Database is used for models whose DbConfig names none.
	Database string
}

// NewMongoStore creates a store over a connected client
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{Client: client, Database: database}
}

func (s *MongoStore) collection(cfg *models.DbConfig) *mongo.Collection {
	database := cfg.Database
	if database == "" {
		database = s.Database
	}
	return s.Client.Database(database).Collection(cfg.Collection)
}

func (s *MongoStore) FindOne(ctx context.Context, cfg *models.DbConfig, filter, projection bson.M) (bson.M, error) {
	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}
	if cfg.Collation != nil {
		opts.SetCollation(cfg.Collation)
	}

	var doc bson.M
	err := s.collection(cfg).FindOne(ctx, orEmpty(filter), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find one in %s: %w", cfg.Collection, err)
	}
	return doc, nil
}

func (s *MongoStore) Find(ctx context.Context, cfg *models.DbConfig, filter, projection bson.M, findOpts FindOptions) ([]bson.M, error) {
	opts := options.Find()
	if projection != nil {
		opts.SetProjection(projection)
	}
	if cfg.Collation != nil {
		opts.SetCollation(cfg.Collation)
	}
	if len(findOpts.Sort) > 0 {
		opts.SetSort(findOpts.Sort)
	}
	if findOpts.Skip > 0 {
		opts.SetSkip(findOpts.Skip)
	}
	if findOpts.Limit > 0 {
		opts.SetLimit(findOpts.Limit)
	}

	cursor, err := s.collection(cfg).Find(ctx, orEmpty(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", cfg.Collection, err)
	}
	docs := []bson.M{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("read cursor of %s: %w", cfg.Collection, err)
	}
	return docs, nil
}

func (s *MongoStore) InsertOne(ctx context.Context, cfg *models.DbConfig, doc bson.M) (any, error) {
	if _, ok := doc["_id"]; !ok {
		return nil, ErrMissingDocumentID
	}
	res, err := s.collection(cfg).InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", cfg.Collection, err)
	}
	return res.InsertedID, nil
}

func (s *MongoStore) UpdateOne(ctx context.Context, cfg *models.DbConfig, id any, set bson.M, unset []string) error {
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		fields := bson.M{}
		for _, f := range unset {
			fields[f] = ""
		}
		update["$unset"] = fields
	}
	if len(update) == 0 {
		_, err := s.FindOne(ctx, cfg, bson.M{"_id": id}, bson.M{"_id": 1})
		return err
	}

	res, err := s.collection(cfg).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update %s: %w", cfg.Collection, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteOne(ctx context.Context, cfg *models.DbConfig, id any) error {
	res, err := s.collection(cfg).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", cfg.Collection, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, readpref.Primary())
}

func orEmpty(filter bson.M) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return filter
}
