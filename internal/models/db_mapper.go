// internal/models/db_mapper.go
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

package models

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// FromDbOption configures FromDb.
type FromDbOption func(*fromDbOptions)

type fromDbOptions struct {
	strict bool
}

// Strict removes every property whose database field is missing from the
// document, so an instance read through a projection carries no defaults
// for the fields that were not read.
func Strict() FromDbOption {
	return func(o *fromDbOptions) { o.strict = true }
}

// ToDb maps the instance to its database document. The identity is written
// as _id; the identity alias never appears in the document.
func (i *Instance) ToDb() (bson.M, error) {
	out, err := i.model.mapToDb(i.entries(), 0)
	if err != nil {
		return nil, err
	}
	ensureID(out, i)
	return out, nil
}

// ChangesToDb maps a partial change set, keyed by property name, to a
// database document carrying the instance identity. Nil values are kept so
// the store can clear those fields.
func (i *Instance) ChangesToDb(changes map[string]any) (bson.M, error) {
	out, err := i.model.mapToDb(sortedEntries(changes), 0)
	if err != nil {
		return nil, err
	}
	ensureID(out, i)
	return out, nil
}

func ensureID(out bson.M, i *Instance) {
	if _, ok := out["_id"]; ok {
		return
	}
	if id := i.ID(); !emptyID(id) {
		out["_id"] = normalizeID(id)
	}
}

// mapToDb maps one document level. A nil model copies every field.
func (m *Model) mapToDb(src []bson.E, depth int) (bson.M, error) {
	out := make(bson.M, len(src))
	for _, e := range src {
		key, value := e.Key, e.Value
		if isFunc(value) {
			continue
		}
		if m == nil {
			v, err := m.dbValue(nil, value, depth)
			if err != nil {
				return nil, err
			}
			out[key] = v
			continue
		}
		if m.idProperty != "" && (key == m.idProperty || key == "_id") {
			if !emptyID(value) {
				out["_id"] = normalizeID(value)
			}
			continue
		}

		desc := m.dbByProperty[key]
		if desc != nil && desc.Private {
			continue
		}
		name := key
		switch {
		case desc != nil:
			name = desc.Field
		case m.options.Promiscuous:
		default:
			continue
		}

		if desc != nil && desc.Promiscuous {
			out[name] = plainValue(value)
			continue
		}
		var nested *Model
		if desc != nil {
			nested = desc.Model
		}
		v, err := m.dbValue(nested, value, depth)
		if err != nil {
			return nil, nestError(m, key, err)
		}
		out[name] = v
	}
	return out, nil
}

func (m *Model) dbValue(nested *Model, value any, depth int) (any, error) {
	if inst, ok := value.(*Instance); ok && inst != nil {
		return inst.model.mapToDb(inst.entries(), depth+1)
	}
	if ShouldRecurse(value) {
		src, _ := entries(value)
		return nested.mapToDb(src, depth+1)
	}
	if list, ok := elements(value); ok {
		out := make(bson.A, len(list))
		for n, el := range list {
			v, err := m.dbValue(nested, el, depth)
			if err != nil {
				return nil, err
			}
			out[n] = v
		}
		return out, nil
	}
	return value, nil
}

// FromDb builds an instance from a database document. It returns nil, nil
// when raw is not a document.
func (m *Model) FromDb(raw any, opts ...FromDbOption) (*Instance, error) {
	var o fromDbOptions
	for _, opt := range opts {
		opt(&o)
	}
	src, ok := entries(raw)
	if !ok {
		return nil, nil
	}
	return m.fromDb(src, &o)
}

// FromDbArray maps every document of raw. Elements that are not documents
// are skipped, and raw that is not an array yields an empty slice.
func (m *Model) FromDbArray(raw any, opts ...FromDbOption) ([]*Instance, error) {
	list, ok := elements(raw)
	if !ok {
		return []*Instance{}, nil
	}
	out := make([]*Instance, 0, len(list))
	for _, el := range list {
		inst, err := m.FromDb(el, opts...)
		if err != nil {
			return nil, err
		}
		if inst != nil {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (m *Model) fromDb(src []bson.E, o *fromDbOptions) (*Instance, error) {
	inst, err := m.New()
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(src))
	for _, e := range src {
		present[e.Key] = true
		if e.Key == "_id" && m.idProperty != "" {
			inst.SetID(normalizeID(e.Value))
			continue
		}

		property := e.Key
		desc := m.dbByField[e.Key]
		switch {
		case desc != nil:
			property = desc.Property
		case !m.options.Promiscuous || e.Key == m.idProperty:
			continue
		}

		var nested *Model
		if desc != nil && !desc.Promiscuous {
			nested = desc.Model
		}
		v, err := m.fromDbValue(nested, property, e.Value, o)
		if err != nil {
			return nil, err
		}
		inst.Set(property, v)
	}

	if o.strict {
		for _, key := range inst.Keys() {
			if key == m.idProperty {
				if !present["_id"] {
					inst.Delete(key)
				}
				continue
			}
			field := key
			if d := m.dbByProperty[key]; d != nil {
				field = d.Field
			}
			if !present[field] {
				inst.Delete(key)
			}
		}
	}
	return inst, nil
}

func (m *Model) fromDbValue(nested *Model, property string, value any, o *fromDbOptions) (any, error) {
	if ShouldRecurse(value) {
		if nested == nil {
			return plainDoc(value), nil
		}
		src, _ := entries(value)
		inst, err := nested.fromDb(src, o)
		if err != nil {
			var de *DefinitionError
			if errors.As(err, &de) {
				return nil, constructError(m, property, nested, err)
			}
			return nil, nestError(m, property, err)
		}
		return inst, nil
	}
	if list, ok := elements(value); ok {
		out := make([]any, len(list))
		for n, el := range list {
			v, err := m.fromDbValue(nested, property, el, o)
			if err != nil {
				return nil, err
			}
			out[n] = v
		}
		return out, nil
	}
	if dt, ok := value.(bson.DateTime); ok {
		return dt.Time().UTC(), nil
	}
	return value, nil
}

// TranslateToDb rewrites a filter or projection keyed by property names into
// one keyed by database field names. Query operators are kept as they are;
// dotted paths are translated through nested models and identity values are
// converted to bson.ObjectID.
func (m *Model) TranslateToDb(doc map[string]any) bson.M {
	if doc == nil {
		return nil
	}
	return m.translate(sortedEntries(doc))
}

func (m *Model) translate(src []bson.E) bson.M {
	out := make(bson.M, len(src))
	for _, e := range src {
		if strings.HasPrefix(e.Key, "$") {
			out[e.Key] = m.translateOperand(e.Value)
			continue
		}
		path, leaf, isID := m.translatePath(e.Key)
		switch {
		case isID:
			out[path] = translateID(e.Value)
		case ShouldRecurse(e.Value):
			out[path] = leaf.translateValue(e.Value)
		default:
			out[path] = e.Value
		}
	}
	return out
}

// translateOperand handles the operand of a top level operator such as $and.
func (m *Model) translateOperand(v any) any {
	if list, ok := elements(v); ok {
		out := make(bson.A, len(list))
		for i, el := range list {
			out[i] = m.translateOperand(el)
		}
		return out
	}
	if src, ok := entries(v); ok {
		return m.translate(src)
	}
	return v
}

// translateValue handles the value of a field: an operator document or a
// sub-document compared for equality.
func (m *Model) translateValue(v any) any {
	src, _ := entries(v)
	operators := true
	for _, e := range src {
		if !strings.HasPrefix(e.Key, "$") {
			operators = false
			break
		}
	}
	if !operators {
		if m == nil {
			return plainDoc(v)
		}
		return m.translate(src)
	}
	out := make(bson.M, len(src))
	for _, e := range src {
		if e.Key == "$elemMatch" && m != nil {
			if sub, ok := entries(e.Value); ok {
				out[e.Key] = m.translate(sub)
				continue
			}
		}
		out[e.Key] = plainValue(e.Value)
	}
	return out
}

func (m *Model) translatePath(path string) (string, *Model, bool) {
	parts := strings.Split(path, ".")
	current := m
	isID := false
	for n, part := range parts {
		isID = false
		if current == nil {
			continue
		}
		if n == 0 && current == m && part == m.idProperty {
			parts[n] = "_id"
			isID = true
			current = nil
			continue
		}
		if part == "_id" && n == 0 {
			isID = true
			current = nil
			continue
		}
		if isIndex(part) {
			continue
		}
		d := current.dbByProperty[part]
		if d == nil {
			current = nil
			continue
		}
		parts[n] = d.Field
		current = d.Model
	}
	return strings.Join(parts, "."), current, isID
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func translateID(v any) any {
	if list, ok := elements(v); ok {
		out := make(bson.A, len(list))
		for i, el := range list {
			out[i] = translateID(el)
		}
		return out
	}
	if src, ok := entries(v); ok {
		out := make(bson.M, len(src))
		for _, e := range src {
			out[e.Key] = translateID(e.Value)
		}
		return out
	}
	return normalizeID(v)
}
