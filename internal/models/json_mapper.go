// internal/models/json_mapper.go
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

	"go.mongodb.org/mongo-driver/v2/bson"
)

// FromJSONOption configures FromJSON.
type FromJSONOption func(*fromJSONOptions)

type fromJSONOptions struct {
	sparse bool
}

// Sparse keeps only the properties present in the source object. Nested
// instances reached through those properties keep their defaults.
func Sparse() FromJSONOption {
	return func(o *fromJSONOptions) { o.sparse = true }
}

// ToJSON maps the instance to its JSON object in ctx, nil meaning the
// default context. Model formatters run after the object is built and the
// context projection, if any, is applied last.
func (i *Instance) ToJSON(ctx *Context) (map[string]any, error) {
	ctx = ctx.orDefault()
	out, err := i.toJSON(ctx)
	if err != nil {
		return nil, err
	}
	if ctx.Projection != nil {
		out = ApplyProjection(out, ctx.Projection, i.model.jsonIDField(ctx))
	}
	return out, nil
}

func (i *Instance) toJSON(ctx *Context) (map[string]any, error) {
	m := i.model
	out := make(map[string]any, len(i.keys))
	for _, key := range i.keys {
		value := i.values[key]
		if isFunc(value) {
			continue
		}
		if d := m.dbByProperty[key]; d != nil && d.Private {
			continue
		}
		specific, wild := m.jsonByPropertyIn(key, ctx.Name)
		if specific.private(ctx) || wild.private(ctx) {
			continue
		}
		name := jsonFieldName(key, specific, wild)

		if specific.promiscuous() || wild.promiscuous() {
			out[name] = plainValue(value)
			continue
		}

		v, err := jsonValue(value, ctx)
		if err != nil {
			return nil, nestError(m, key, err)
		}
		for _, d := range []*JSONDescriptor{specific, wild} {
			if d == nil || d.FormatOut == nil {
				continue
			}
			if v, err = d.FormatOut(v, key, ctx); err != nil {
				return nil, &MappingError{Model: m.name, Property: key, Message: "output formatter failed", Err: err}
			}
		}
		if d := encryptor(specific, wild); d != nil && v != nil {
			if v, err = Encrypt(v, i.fieldKey(d)); err != nil {
				return nil, &MappingError{Model: m.name, Property: key, Message: "encryption failed", Err: err}
			}
		}
		out[name] = v
	}

	for _, f := range m.outFormatters(ctx.Name) {
		var err error
		if out, err = f(out, i, ctx); err != nil {
			return nil, &MappingError{Model: m.name, Message: "output formatter failed", Err: err}
		}
	}
	return out, nil
}

func jsonValue(value any, ctx *Context) (any, error) {
	if inst, ok := value.(*Instance); ok && inst != nil {
		return inst.toJSON(ctx)
	}
	if ShouldRecurse(value) {
		src, _ := entries(value)
		out := make(map[string]any, len(src))
		for _, e := range src {
			v, err := jsonValue(e.Value, ctx)
			if err != nil {
				return nil, err
			}
			out[e.Key] = v
		}
		return out, nil
	}
	if list, ok := elements(value); ok {
		out := make([]any, len(list))
		for n, el := range list {
			v, err := jsonValue(el, ctx)
			if err != nil {
				return nil, err
			}
			out[n] = v
		}
		return out, nil
	}
	return jsonLeaf(value), nil
}

// encryptor returns the descriptor that asks for encryption, the specific
// context first.
func encryptor(specific, wild *JSONDescriptor) *JSONDescriptor {
	switch {
	case specific.encrypted():
		return specific
	case wild.encrypted():
		return wild
	}
	return nil
}

func (i *Instance) fieldKey(d *JSONDescriptor) string {
	if d.CipherKey != "" {
		return d.CipherKey
	}
	return i.cipherKey
}

func (m *Model) outFormatters(context string) []OutFormatter {
	if context == AnyContext {
		return m.formatOut[AnyContext]
	}
	out := append([]OutFormatter{}, m.formatOut[context]...)
	return append(out, m.formatOut[AnyContext]...)
}

func (m *Model) inFormatters(context string) []InFormatter {
	if context == AnyContext {
		return m.formatIn[AnyContext]
	}
	out := append([]InFormatter{}, m.formatIn[context]...)
	return append(out, m.formatIn[AnyContext]...)
}

// FromJSON builds an instance from a JSON object in ctx, nil meaning the
// default context. It returns nil, nil when src is not an object. Only
// declared properties are read unless the model is promiscuous.
func (m *Model) FromJSON(src any, ctx *Context, opts ...FromJSONOption) (*Instance, error) {
	var o fromJSONOptions
	for _, opt := range opts {
		opt(&o)
	}
	fields, ok := entries(src)
	if !ok {
		return nil, nil
	}
	return m.fromJSON(fields, ctx.orDefault(), &o, true)
}

func (m *Model) fromJSON(src []bson.E, ctx *Context, o *fromJSONOptions, root bool) (*Instance, error) {
	inst, err := m.New()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(src))
	for _, e := range src {
		property, specific, wild, ok := m.resolveJSONField(e.Key, ctx.Name)
		if !ok || !m.accepts(property, specific, wild) {
			continue
		}
		if specific.promiscuous() || wild.promiscuous() {
			inst.Set(property, plainValue(e.Value))
			seen[property] = true
			continue
		}

		value, err := inst.decryptField(specific, wild, e.Value)
		if err != nil {
			return nil, &MappingError{Model: m.name, Property: property, Message: "decryption failed", Err: err}
		}
		if property == m.idProperty || specific.typedID() || wild.typedID() {
			value = normalizeIDs(value)
		}

		nested := specific.model()
		if nested == nil {
			nested = wild.model()
		}
		if nested == nil {
			nested = m.nestedModel(property)
		}
		if value, err = m.fromJSONValue(nested, property, value, ctx, o); err != nil {
			return nil, err
		}

		for _, d := range []*JSONDescriptor{specific, wild} {
			if d == nil || d.FormatIn == nil {
				continue
			}
			if value, err = d.FormatIn(value, property, ctx); err != nil {
				return nil, &MappingError{Model: m.name, Property: property, Message: "input formatter failed", Err: err}
			}
		}
		inst.Set(property, value)
		seen[property] = true
	}

	if root && o.sparse {
		for _, key := range inst.Keys() {
			if !seen[key] {
				inst.Delete(key)
			}
		}
	}

	if formatters := m.inFormatters(ctx.Name); len(formatters) > 0 {
		json := plainDoc(bson.D(src))
		for _, f := range formatters {
			if inst, err = f(inst, json, ctx); err != nil {
				return nil, &MappingError{Model: m.name, Message: "input formatter failed", Err: err}
			}
		}
	}
	return inst, nil
}

// accepts reports whether an incoming field may be assigned to property.
func (m *Model) accepts(property string, specific, wild *JSONDescriptor) bool {
	return m.options.Promiscuous || m.declared(property) || specific != nil || wild != nil
}

func (m *Model) fromJSONValue(nested *Model, property string, value any, ctx *Context, o *fromJSONOptions) (any, error) {
	if ShouldRecurse(value) {
		if nested == nil {
			return plainDoc(value), nil
		}
		src, _ := entries(value)
		inst, err := nested.fromJSON(src, ctx, o, false)
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
			v, err := m.fromJSONValue(nested, property, el, ctx, o)
			if err != nil {
				return nil, err
			}
			out[n] = v
		}
		return out, nil
	}
	return value, nil
}

func (i *Instance) decryptField(specific, wild *JSONDescriptor, value any) (any, error) {
	d := encryptor(specific, wild)
	if d == nil {
		return value, nil
	}
	text, ok := value.(string)
	if !ok || text == "" {
		return value, nil
	}
	if d.Decryptor != nil {
		return d.Decryptor(text, i.fieldKey(d))
	}
	return Decrypt(text, i.fieldKey(d))
}

func normalizeIDs(v any) any {
	if list, ok := elements(v); ok {
		out := make([]any, len(list))
		for n, el := range list {
			out[n] = normalizeID(el)
		}
		return out
	}
	return normalizeID(v)
}

// FromJSONToDb maps a JSON object in ctx straight to a database document,
// as used for partial updates. The identity field of the root and of any
// nested model becomes its _id, and an empty identity is dropped, as ToDb
// does.
func (m *Model) FromJSONToDb(src any, ctx *Context) (bson.M, error) {
	fields, ok := entries(src)
	if !ok {
		return nil, nil
	}
	ctx = ctx.orDefault()
	// cipher keys are resolved the way a fresh instance would resolve them
	probe, err := m.New()
	if err != nil {
		return nil, err
	}
	return m.jsonToDb(probe, fields, ctx)
}

func (m *Model) jsonToDb(probe *Instance, src []bson.E, ctx *Context) (bson.M, error) {
	out := make(bson.M, len(src))
	for _, e := range src {
		if m == nil {
			out[e.Key] = plainValue(e.Value)
			continue
		}
		property, specific, wild, ok := m.resolveJSONField(e.Key, ctx.Name)
		if !ok || !m.accepts(property, specific, wild) {
			continue
		}
		if property == m.idProperty {
			if !emptyID(e.Value) {
				out["_id"] = normalizeID(e.Value)
			}
			continue
		}

		desc := m.dbByProperty[property]
		if desc != nil && desc.Private {
			continue
		}
		name := property
		switch {
		case desc != nil:
			name = desc.Field
		case m.options.Promiscuous:
		default:
			continue
		}
		if specific.promiscuous() || wild.promiscuous() || (desc != nil && desc.Promiscuous) {
			out[name] = plainValue(e.Value)
			continue
		}

		value, err := probe.decryptField(specific, wild, e.Value)
		if err != nil {
			return nil, &MappingError{Model: m.name, Property: property, Message: "decryption failed", Err: err}
		}
		if specific.typedID() || wild.typedID() {
			value = normalizeIDs(value)
		}

		nested := specific.model()
		if nested == nil {
			nested = wild.model()
		}
		if nested == nil {
			nested = m.nestedModel(property)
		}
		value, err = m.jsonToDbValue(probe, nested, value, ctx)
		if err != nil {
			return nil, nestError(m, property, err)
		}
		if !ShouldRecurse(e.Value) {
			for _, d := range []*JSONDescriptor{specific, wild} {
				if d == nil || d.FormatIn == nil {
					continue
				}
				if value, err = d.FormatIn(value, property, ctx); err != nil {
					return nil, &MappingError{Model: m.name, Property: property, Message: "input formatter failed", Err: err}
				}
			}
		}
		out[name] = value
	}
	return out, nil
}

func (m *Model) jsonToDbValue(probe *Instance, nested *Model, value any, ctx *Context) (any, error) {
	if ShouldRecurse(value) {
		src, _ := entries(value)
		if nested != nil {
			sub, err := nested.New()
			if err != nil {
				return nil, constructError(m, "", nested, err)
			}
			probe = sub
		}
		return nested.jsonToDb(probe, src, ctx)
	}
	if list, ok := elements(value); ok {
		out := make(bson.A, len(list))
		for n, el := range list {
			v, err := m.jsonToDbValue(probe, nested, el, ctx)
			if err != nil {
				return nil, err
			}
			out[n] = v
		}
		return out, nil
	}
	return value, nil
}
