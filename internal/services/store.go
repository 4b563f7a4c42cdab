// internal/services/store.go
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

	"github.com/localnerve/propsodm/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedFilter is returned by stores that cannot evaluate a filter.
	ErrUnsupportedFilter = errors.New("unsupported filter")
	// ErrMissingDocumentID is returned when a document without _id is inserted.
	ErrMissingDocumentID = errors.New("document has no _id")
)

// FindOptions shape a multi document read. Zero values mean no limit.
type FindOptions struct {
	Sort  bson.D
	Skip  int64
	Limit int64
}

// DocumentStore persists database documents, already keyed by database
// field names, in the collection named by a model's DbConfig.
type DocumentStore interface {
	FindOne(ctx context.Context, cfg *models.DbConfig, filter, projection bson.M) (bson.M, error)
	Find(ctx context.Context, cfg *models.DbConfig, filter, projection bson.M, opts FindOptions) ([]bson.M, error)
	InsertOne(ctx context.Context, cfg *models.DbConfig, doc bson.M) (any, error)
	// UpdateOne sets the given fields and removes the unset ones.
	UpdateOne(ctx context.Context, cfg *models.DbConfig, id any, set bson.M, unset []string) error
	DeleteOne(ctx context.Context, cfg *models.DbConfig, id any) error
	Ping(ctx context.Context) error
}
