// internal/models/recurse.go
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
	"reflect"
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ShouldRecurse reports whether v is a structured node that is mapped field
// by field. Nil, scalars, identifiers, dates and arrays are leaves; arrays of
// sub-documents are walked separately by the mappers.
func ShouldRecurse(v any) bool {
	switch t := v.(type) {
	case *Instance:
		return t != nil
	case map[string]any, bson.M, bson.D:
		return true
	}
	return false
}

// entries lists the fields of a document shaped value. Maps are listed in key
// order so mapping output does not depend on map iteration.
func entries(v any) ([]bson.E, bool) {
	switch t := v.(type) {
	case *Instance:
		if t == nil {
			return nil, false
		}
		return t.entries(), true
	case bson.D:
		return []bson.E(t), true
	case bson.M:
		return sortedEntries(t), true
	case map[string]any:
		return sortedEntries(t), true
	}
	return nil, false
}

func sortedEntries(m map[string]any) []bson.E {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]bson.E, len(keys))
	for i, k := range keys {
		out[i] = bson.E{Key: k, Value: m[k]}
	}
	return out
}

// elements lists the members of an array shaped value.
func elements(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case bson.A:
		return []any(t), true
	case []*Instance:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out, true
	case []bson.M:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out, true
	case []bson.D:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out, true
	}
	return nil, false
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

// cloneValue deep copies maps, arrays and instances. Leaves are shared.
func cloneValue(v any) any {
	switch t := v.(type) {
	case *Instance:
		if t == nil {
			return t
		}
		return t.Clone()
	case map[string]any:
		cp := make(map[string]any, len(t))
		for k, e := range t {
			cp[k] = cloneValue(e)
		}
		return cp
	case bson.M:
		cp := make(bson.M, len(t))
		for k, e := range t {
			cp[k] = cloneValue(e)
		}
		return cp
	case bson.D:
		cp := make(bson.D, len(t))
		for i, e := range t {
			cp[i] = bson.E{Key: e.Key, Value: cloneValue(e.Value)}
		}
		return cp
	case []any:
		cp := make([]any, len(t))
		for i, e := range t {
			cp[i] = cloneValue(e)
		}
		return cp
	case bson.A:
		cp := make(bson.A, len(t))
		for i, e := range t {
			cp[i] = cloneValue(e)
		}
		return cp
	}
	return v
}

// plainDoc converts any document shaped value into a map[string]any tree.
func plainDoc(v any) map[string]any {
	src, _ := entries(v)
	out := make(map[string]any, len(src))
	for _, e := range src {
		out[e.Key] = plainValue(e.Value)
	}
	return out
}

func plainValue(v any) any {
	if ShouldRecurse(v) {
		if inst, ok := v.(*Instance); ok {
			return plainDoc(inst)
		}
		return plainDoc(v)
	}
	if list, ok := elements(v); ok {
		out := make([]any, len(list))
		for i, e := range list {
			out[i] = plainValue(e)
		}
		return out
	}
	if dt, ok := v.(bson.DateTime); ok {
		return dt.Time().UTC()
	}
	return v
}

// normalizeID converts valid identity strings to bson.ObjectID. Anything
// else is returned unchanged.
func normalizeID(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if oid, err := bson.ObjectIDFromHex(s); err == nil {
		return oid
	}
	return s
}

func emptyID(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bson.ObjectID:
		return t.IsZero()
	}
	return false
}

// jsonLeaf renders identifiers and dates the way the JSON representation
// carries them.
func jsonLeaf(v any) any {
	switch t := v.(type) {
	case bson.ObjectID:
		return t.Hex()
	case bson.DateTime:
		return t.Time().UTC()
	}
	return v
}
