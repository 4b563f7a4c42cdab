// internal/services/sql_store.go
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
	"sort"
	"strings"
	"time"

	"github.com/localnerve/propsodm/internal/database"
	"github.com/localnerve/propsodm/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

// SQLStore is the DocumentStore backed by a relational database through
// gorm. Every collection shares one table; documents are kept as JSON.
// Filters may match _id by equality or $in and top level fields by equality.
type SQLStore struct {
	DB *gorm.DB
}

// NewSQLStore creates a store over an open, migrated connection
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{DB: db}
}

func (s *SQLStore) read(ctx context.Context, collection string) *gorm.DB {
	return s.DB.WithContext(ctx).
		Session(&gorm.Session{Logger: s.DB.Logger.LogMode(logger.Silent)}).
		Clauses(hints.Comment("select", "collection:"+sanitizeComment(collection))).
		Where("collection = ?", collection)
}

func (s *SQLStore) FindOne(ctx context.Context, cfg *models.DbConfig, filter, projection bson.M) (bson.M, error) {
	query, err := where(s.read(ctx, cfg.Collection), filter)
	if err != nil {
		return nil, err
	}

	var rec database.DocumentRecord
	if err := query.Order("record_id").Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find one in %s: %w", cfg.Collection, err)
	}

	doc, err := decodeBody(rec.Body)
	if err != nil {
		return nil, err
	}
	return projectDoc(doc, projection), nil
}

func (s *SQLStore) Find(ctx context.Context, cfg *models.DbConfig, filter, projection bson.M, opts FindOptions) ([]bson.M, error) {
	query, err := where(s.read(ctx, cfg.Collection), filter)
	if err != nil {
		return nil, err
	}
	query = query.Order("record_id")
	if len(opts.Sort) == 0 {
		if opts.Skip > 0 {
			query = query.Offset(int(opts.Skip))
		}
		if opts.Limit > 0 {
			query = query.Limit(int(opts.Limit))
		}
	}

	var recs []database.DocumentRecord
	if err := query.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("find in %s: %w", cfg.Collection, err)
	}

	docs := make([]bson.M, 0, len(recs))
	for _, rec := range recs {
		doc, err := decodeBody(rec.Body)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if len(opts.Sort) > 0 {
		sortDocs(docs, opts.Sort)
		docs = window(docs, opts.Skip, opts.Limit)
	}
	for i, doc := range docs {
		docs[i] = projectDoc(doc, projection)
	}
	return docs, nil
}

func (s *SQLStore) InsertOne(ctx context.Context, cfg *models.DbConfig, doc bson.M) (any, error) {
	id, ok := doc["_id"]
	if !ok {
		return nil, ErrMissingDocumentID
	}
	body, err := encodeBody(doc)
	if err != nil {
		return nil, err
	}

	rec := database.DocumentRecord{
		Collection: cfg.Collection,
		DocumentID: documentKey(id),
		Body:       body,
	}
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("insert into %s: %w", cfg.Collection, err)
	}

	logrus.WithFields(logrus.Fields{
		"collection": cfg.Collection,
		"id":         rec.DocumentID,
	}).Debug("Document inserted")
	return id, nil
}

func (s *SQLStore) UpdateOne(ctx context.Context, cfg *models.DbConfig, id any, set bson.M, unset []string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec database.DocumentRecord
		query := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)})
		// sqlite has no row locks
		if tx.Dialector.Name() != "sqlite" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		err := query.
			Where("collection = ? AND document_id = ?", cfg.Collection, documentKey(id)).
			Take(&rec).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		doc, err := decodeBody(rec.Body)
		if err != nil {
			return err
		}
		for field, value := range set {
			if field == "_id" {
				continue
			}
			doc[field] = value
		}
		for _, field := range unset {
			delete(doc, field)
		}

		body, err := encodeBody(doc)
		if err != nil {
			return err
		}
		return tx.Model(&rec).Updates(map[string]any{
			"body":       body,
			"updated_at": time.Now().UTC(),
		}).Error
	})
}

func (s *SQLStore) DeleteOne(ctx context.Context, cfg *models.DbConfig, id any) error {
	res := s.DB.WithContext(ctx).
		Where("collection = ? AND document_id = ?", cfg.Collection, documentKey(id)).
		Delete(&database.DocumentRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete from %s: %w", cfg.Collection, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func where(query *gorm.DB, filter bson.M) (*gorm.DB, error) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := filter[key]
		if key == "_id" {
			ids, err := idCondition(value)
			if err != nil {
				return nil, err
			}
			if len(ids) == 1 {
				query = query.Where("document_id = ?", ids[0])
			} else {
				query = query.Where("document_id IN ?", ids)
			}
			continue
		}
		if strings.HasPrefix(key, "$") || strings.Contains(key, ".") || !isScalar(value) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFilter, key)
		}
		query = query.Where(datatypes.JSONQuery("body").Equals(value, key))
	}
	return query, nil
}

func idCondition(value any) ([]string, error) {
	ops, ok := value.(bson.M)
	if !ok {
		if m, isMap := value.(map[string]any); isMap {
			ops, ok = bson.M(m), true
		}
	}
	if !ok {
		return []string{documentKey(value)}, nil
	}

	in, ok := ops["$in"]
	if len(ops) != 1 || !ok {
		return nil, fmt.Errorf("%w: _id supports equality and $in", ErrUnsupportedFilter)
	}
	var list []any
	switch t := in.(type) {
	case bson.A:
		list = t
	case []any:
		list = t
	default:
		return nil, fmt.Errorf("%w: $in needs an array", ErrUnsupportedFilter)
	}
	ids := make([]string, len(list))
	for i, v := range list {
		ids[i] = documentKey(v)
	}
	return ids, nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int32, int64, float32, float64:
		return true
	}
	return false
}

func documentKey(id any) string {
	switch t := id.(type) {
	case bson.ObjectID:
		return t.Hex()
	case string:
		return t
	}
	return fmt.Sprint(id)
}

func sanitizeComment(s string) string {
	return strings.NewReplacer("*/", "", "/*", "").Replace(s)
}

func encodeBody(doc bson.M) (database.JSON, error) {
	raw, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return database.JSON{}, fmt.Errorf("encode document: %w", err)
	}
	return database.JSON{JSON: datatypes.JSON(raw)}, nil
}

func decodeBody(body database.JSON) (bson.M, error) {
	var doc bson.M
	if err := bson.UnmarshalExtJSON(body.JSON, false, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// projectDoc applies a database field projection. Dotted paths select
// inside sub-documents.
func projectDoc(doc bson.M, projection bson.M) bson.M {
	if len(projection) == 0 {
		return doc
	}
	spec := map[string]any{}
	for path, rule := range projection {
		parts := strings.Split(path, ".")
		level := spec
		for _, part := range parts[:len(parts)-1] {
			next, ok := level[part].(map[string]any)
			if !ok {
				next = map[string]any{}
				level[part] = next
			}
			level = next
		}
		level[parts[len(parts)-1]] = rule
	}
	return bson.M(models.ApplyProjection(doc, spec, "_id"))
}

func sortDocs(docs []bson.M, by bson.D) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range by {
			c := compareValues(docs[i][key.Key], docs[j][key.Key])
			if c == 0 {
				continue
			}
			if direction(key.Value) < 0 {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func direction(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float64:
		return int(t)
	}
	return 1
}

// compareValues orders missing values first, then numbers, then strings.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case 1:
		fa, fb := toFloat(a), toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
	case 2:
		return strings.Compare(a.(string), b.(string))
	case 3:
		return strings.Compare(documentKey(a), documentKey(b))
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case int, int32, int64, float32, float64:
		return 1
	case string:
		return 2
	case bson.ObjectID:
		return 3
	}
	return 4
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case float64:
		return t
	}
	return 0
}

func window(docs []bson.M, skip, limit int64) []bson.M {
	if skip > 0 {
		if skip >= int64(len(docs)) {
			return []bson.M{}
		}
		docs = docs[skip:]
	}
	if limit > 0 && limit < int64(len(docs)) {
		docs = docs[:limit]
	}
	return docs
}
