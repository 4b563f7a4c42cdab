// internal/services/repository.go
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
	"fmt"

	"github.com/localnerve/propsodm/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Repository reads and writes the instances of one model through a
// DocumentStore. Filters, projections and sorts are given in property names
// and translated to database field names before they reach the store.
type Repository struct {
	Model *models.Model
	Store DocumentStore
}

// NewRepository binds a model to a store. The model must be bound to a
// collection and have an identity property.
func NewRepository(m *models.Model, store DocumentStore) (*Repository, error) {
	if m.DbConfig() == nil {
		return nil, fmt.Errorf("model %s has no database binding", m.Name())
	}
	if m.IDProperty() == "" {
		return nil, fmt.Errorf("%w: model %s", models.ErrMissingID, m.Name())
	}
	return &Repository{Model: m, Store: store}, nil
}

func (r *Repository) idFilter(id any) bson.M {
	return r.Model.TranslateToDb(map[string]any{r.Model.IDProperty(): id})
}

func (r *Repository) log() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"model":      r.Model.Name(),
		"collection": r.Model.DbConfig().Collection,
	})
}

// Get loads one instance. With a projection the instance holds only the
// projected properties.
func (r *Repository) Get(ctx context.Context, id any, projection map[string]any) (*models.Instance, error) {
	doc, err := r.Store.FindOne(ctx, r.Model.DbConfig(), r.idFilter(id), r.Model.TranslateToDb(projection))
	if err != nil {
		return nil, err
	}
	return r.Model.FromDb(doc, r.fromDbOptions(projection)...)
}

// GetAll loads every instance matching filter.
func (r *Repository) GetAll(ctx context.Context, filter, projection map[string]any, opts FindOptions) ([]*models.Instance, error) {
	opts.Sort = r.translateSort(opts.Sort)
	docs, err := r.Store.Find(ctx, r.Model.DbConfig(), r.Model.TranslateToDb(filter), r.Model.TranslateToDb(projection), opts)
	if err != nil {
		return nil, err
	}
	raw := make(bson.A, len(docs))
	for i, doc := range docs {
		raw[i] = doc
	}
	return r.Model.FromDbArray(raw, r.fromDbOptions(projection)...)
}

func (r *Repository) fromDbOptions(projection map[string]any) []models.FromDbOption {
	if len(projection) == 0 {
		return nil
	}
	return []models.FromDbOption{models.Strict()}
}

func (r *Repository) translateSort(sort bson.D) bson.D {
	if len(sort) == 0 {
		return nil
	}
	out := make(bson.D, 0, len(sort))
	for _, e := range sort {
		for field, dir := range r.Model.TranslateToDb(map[string]any{e.Key: e.Value}) {
			out = append(out, bson.E{Key: field, Value: dir})
		}
	}
	return out
}

// Create stores a new instance, assigning a fresh identity when it has none.
func (r *Repository) Create(ctx context.Context, inst *models.Instance) (*models.Instance, error) {
	if id := inst.ID(); id == nil || id == "" {
		inst.SetID(bson.NewObjectID())
	}
	doc, err := inst.ToDb()
	if err != nil {
		return nil, err
	}
	if _, err := r.Store.InsertOne(ctx, r.Model.DbConfig(), doc); err != nil {
		return nil, err
	}
	r.log().WithField("id", inst.ID()).Debug("Instance created")
	return inst, nil
}

// Save writes an instance. With changes, only those properties are written
// and a nil change removes the field, so the property falls back to its
// default on the next load. Changes are applied to inst as well.
func (r *Repository) Save(ctx context.Context, inst *models.Instance, changes map[string]any) error {
	var (
		doc bson.M
		err error
	)
	if changes == nil {
		doc, err = inst.ToDb()
	} else {
		doc, err = inst.ChangesToDb(changes)
	}
	if err != nil {
		return err
	}

	id, ok := doc["_id"]
	if !ok {
		return fmt.Errorf("%w: cannot save %s", ErrMissingDocumentID, r.Model.Name())
	}
	if err := r.update(ctx, id, doc); err != nil {
		return err
	}

	for property, value := range changes {
		if value == nil {
			inst.Delete(property)
			continue
		}
		inst.Set(property, value)
	}
	return nil
}

// Patch applies a partial JSON object in the given context and returns the
// stored result.
func (r *Repository) Patch(ctx context.Context, id any, json map[string]any, jsonCtx *models.Context) (*models.Instance, error) {
	doc, err := r.Model.FromJSONToDb(json, jsonCtx)
	if err != nil {
		return nil, err
	}
	filterID := r.idFilter(id)["_id"]
	if err := r.update(ctx, filterID, doc); err != nil {
		return nil, err
	}
	return r.Get(ctx, id, nil)
}

func (r *Repository) update(ctx context.Context, id any, doc bson.M) error {
	set := bson.M{}
	var unset []string
	for field, value := range doc {
		switch {
		case field == "_id":
		case value == nil:
			unset = append(unset, field)
		default:
			set[field] = value
		}
	}
	if err := r.Store.UpdateOne(ctx, r.Model.DbConfig(), id, set, unset); err != nil {
		return err
	}
	r.log().WithFields(logrus.Fields{"id": id, "set": len(set), "unset": len(unset)}).Debug("Instance updated")
	return nil
}

// Remove deletes an instance by identity.
func (r *Repository) Remove(ctx context.Context, id any) error {
	filterID := r.idFilter(id)["_id"]
	if err := r.Store.DeleteOne(ctx, r.Model.DbConfig(), filterID); err != nil {
		return err
	}
	r.log().WithField("id", filterID).Debug("Instance removed")
	return nil
}
