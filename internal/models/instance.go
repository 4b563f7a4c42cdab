// internal/models/instance.go
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
	"encoding/json"
	"slices"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Instance is one document of a Model: an ordered set of property values.
// The identity value is held under the identity property and is also
// reachable as _id. Instances are not safe for concurrent mutation.
type Instance struct {
	model     *Model
	keys      []string
	values    map[string]any
	cipherKey string
}

func newInstance(m *Model) *Instance {
	return &Instance{model: m, values: make(map[string]any)}
}

// Model returns the model the instance was created from.
func (i *Instance) Model() *Model { return i.model }

func (i *Instance) resolve(key string) string {
	if key == "_id" && i.model.idProperty != "" {
		return i.model.idProperty
	}
	return key
}

// Get returns a property value and whether the property is set.
func (i *Instance) Get(key string) (any, bool) {
	v, ok := i.values[i.resolve(key)]
	return v, ok
}

// Value returns a property value, nil when unset.
func (i *Instance) Value(key string) any {
	return i.values[i.resolve(key)]
}

// Has reports whether the property is set, even to nil.
func (i *Instance) Has(key string) bool {
	_, ok := i.values[i.resolve(key)]
	return ok
}

// Set assigns a property, appending it to the key order when new.
func (i *Instance) Set(key string, v any) {
	key = i.resolve(key)
	if _, ok := i.values[key]; !ok {
		i.keys = append(i.keys, key)
	}
	i.values[key] = v
}

// Delete removes a property.
func (i *Instance) Delete(key string) {
	key = i.resolve(key)
	if _, ok := i.values[key]; !ok {
		return
	}
	delete(i.values, key)
	i.keys = slices.DeleteFunc(i.keys, func(k string) bool { return k == key })
}

// Keys returns the set properties in assignment order.
func (i *Instance) Keys() []string {
	return slices.Clone(i.keys)
}

// ID returns the identity value, nil when unset or undeclared.
func (i *Instance) ID() any {
	if i.model.idProperty == "" {
		return nil
	}
	return i.values[i.model.idProperty]
}

// SetID assigns the identity value. It is a no-op for models without an
// identity property.
func (i *Instance) SetID(v any) {
	if i.model.idProperty == "" {
		return
	}
	i.Set(i.model.idProperty, v)
}

// CipherKey returns the key resolved for the instance when it was created.
func (i *Instance) CipherKey() string { return i.cipherKey }

// Clone returns a deep copy of the instance.
func (i *Instance) Clone() *Instance {
	cp := &Instance{
		model:     i.model,
		keys:      slices.Clone(i.keys),
		values:    make(map[string]any, len(i.values)),
		cipherKey: i.cipherKey,
	}
	for k, v := range i.values {
		cp.values[k] = cloneValue(v)
	}
	return cp
}

// MarshalJSON encodes the default context JSON representation.
func (i *Instance) MarshalJSON() ([]byte, error) {
	out, err := i.ToJSON(nil)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// MarshalBSON encodes the database representation.
func (i *Instance) MarshalBSON() ([]byte, error) {
	doc, err := i.ToDb()
	if err != nil {
		return nil, err
	}
	return bson.Marshal(doc)
}

func (i *Instance) entries() []bson.E {
	out := make([]bson.E, 0, len(i.keys))
	for _, k := range i.keys {
		out = append(out, bson.E{Key: k, Value: i.values[k]})
	}
	return out
}
