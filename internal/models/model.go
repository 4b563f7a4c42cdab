// internal/models/model.go
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

// Package models is the document mapping engine. A Model is declared once
// with Define; its field registries are written during Define and only read
// afterwards, so one Model may be used by any number of goroutines.
//
// Instances move between three shapes:
//
//	ToDb / FromDb       instance <-> database document (bson.M)
//	ToJSON / FromJSON   instance <-> JSON object, per context
//	FromJSONToDb        JSON object -> database document
package models

import (
	"fmt"
	"slices"

	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/multierr"
)

// Operation names accepted in Options.SuppressedOperations.
const (
	OpGet    = "get"
	OpGetAll = "getAll"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// DbConfig binds a model to a collection.
type DbConfig struct {
	Database   string
	Collection string
	Collation  *options.Collation
}

// Options holds model level configuration.
type Options struct {
	// Db binds the model to storage. A bound model needs an identity property.
	Db *DbConfig
	// Promiscuous models persist and accept properties that have no mapping.
	Promiscuous bool
	// SuppressedOperations lists the routes not generated for the model.
	SuppressedOperations []string
	// CipherKey resolves the encryption key of each new instance.
	CipherKey func(inst *Instance) string
}

// Model is a declared document type.
type Model struct {
	name       string
	options    Options
	idProperty string

	props     []propDef
	propIndex map[string]int

	dbByProperty   map[string]*DbDescriptor
	dbByField      map[string]*DbDescriptor
	jsonByProperty map[string]*JSONDescriptor
	jsonByField    map[string]*JSONDescriptor

	formatOut map[string][]OutFormatter
	formatIn  map[string][]InFormatter
}

type propDef struct {
	name     string
	fallback func(m *Model) (any, error)
}

// Decl is one declaration inside Define.
type Decl interface {
	declare(m *Model) error
}

// PropOption configures a property declared with Prop or ID.
type PropOption interface {
	applyProp(m *Model, p *propDef) error
}

type declFunc func(m *Model) error

func (f declFunc) declare(m *Model) error { return f(m) }

type propOptionFunc func(m *Model, p *propDef) error

func (f propOptionFunc) applyProp(m *Model, p *propDef) error { return f(m, p) }

func (d Db) applyProp(m *Model, p *propDef) error {
	return m.registerDb(p.name, d)
}

func (j JSON) applyProp(m *Model, p *propDef) error {
	return m.registerJSON(p.name, j)
}

// Define declares a model. Every declaration is applied in order and all
// failures are reported together.
func Define(name string, opts Options, decls ...Decl) (*Model, error) {
	m := &Model{
		name:           name,
		options:        opts,
		propIndex:      make(map[string]int),
		dbByProperty:   make(map[string]*DbDescriptor),
		dbByField:      make(map[string]*DbDescriptor),
		jsonByProperty: make(map[string]*JSONDescriptor),
		jsonByField:    make(map[string]*JSONDescriptor),
		formatOut:      make(map[string][]OutFormatter),
		formatIn:       make(map[string][]InFormatter),
	}

	var err error
	if name == "" {
		err = multierr.Append(err, &DefinitionError{Message: "model name is required", Kind: ErrInvalidDefinition})
	}
	if opts.Db != nil && opts.Db.Collection == "" {
		err = multierr.Append(err, &DefinitionError{
			Model:   name,
			Message: fmt.Sprintf("Model %s defines a database binding without a collection", name),
			Kind:    ErrInvalidDefinition,
		})
	}
	for _, d := range decls {
		err = multierr.Append(err, d.declare(m))
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// MustDefine is Define for package level declarations; it panics on error.
func MustDefine(name string, opts Options, decls ...Decl) *Model {
	m, err := Define(name, opts, decls...)
	if err != nil {
		panic(err)
	}
	return m
}

// Prop declares a property.
func Prop(name string, opts ...PropOption) Decl {
	return declFunc(func(m *Model) error {
		return m.declareProp(name, opts)
	})
}

// ID declares the identity property. Its value is stored under _id in the
// database and read or written through either name on an instance.
func ID(name string, opts ...PropOption) Decl {
	return declFunc(func(m *Model) error {
		if m.idProperty != "" {
			return &DefinitionError{
				Model:    m.name,
				Property: name,
				Message: fmt.Sprintf("%s is trying to use ID on property %s, but it has already been defined on %s",
					m.name, name, m.idProperty),
				Kind: ErrDuplicateID,
			}
		}
		m.idProperty = name
		if err := m.registerDb(name, Db{Field: "_id"}); err != nil {
			return err
		}
		return m.declareProp(name, opts)
	})
}

// FormatOut registers a model level formatter run at the end of ToJSON.
func FormatOut(context string, f OutFormatter) Decl {
	return declFunc(func(m *Model) error {
		if context == "" {
			context = DefaultContext
		}
		m.formatOut[context] = append(m.formatOut[context], f)
		return nil
	})
}

// FormatIn registers a model level formatter run at the end of FromJSON.
func FormatIn(context string, f InFormatter) Decl {
	return declFunc(func(m *Model) error {
		if context == "" {
			context = DefaultContext
		}
		m.formatIn[context] = append(m.formatIn[context], f)
		return nil
	})
}

// Default sets the value a new instance starts with. Maps, slices and
// instances are deep copied for every instance.
func Default(v any) PropOption {
	return propOptionFunc(func(_ *Model, p *propDef) error {
		p.fallback = func(*Model) (any, error) { return cloneValue(v), nil }
		return nil
	})
}

// DefaultFunc computes the starting value of every new instance.
func DefaultFunc(fn func() any) PropOption {
	return propOptionFunc(func(_ *Model, p *propDef) error {
		p.fallback = func(*Model) (any, error) { return fn(), nil }
		return nil
	})
}

// DefaultNew starts the property with a new instance of its nested model.
func DefaultNew() PropOption {
	return propOptionFunc(func(_ *Model, p *propDef) error {
		p.fallback = func(m *Model) (any, error) {
			nested := m.nestedModel(p.name)
			if nested == nil {
				return nil, &DefinitionError{
					Model:    m.name,
					Property: p.name,
					Message:  fmt.Sprintf("%s.%s uses DefaultNew without a nested model", m.name, p.name),
					Kind:     ErrInvalidDefinition,
				}
			}
			inst, err := nested.New()
			if err != nil {
				return nil, constructError(m, p.name, nested, err)
			}
			return inst, nil
		}
		return nil
	})
}

func (m *Model) declareProp(name string, opts []PropOption) error {
	if name == "" {
		return &DefinitionError{Model: m.name, Message: m.name + " declares a property without a name", Kind: ErrInvalidDefinition}
	}
	idx, ok := m.propIndex[name]
	if !ok {
		m.props = append(m.props, propDef{name: name})
		idx = len(m.props) - 1
		m.propIndex[name] = idx
	}
	var err error
	for _, o := range opts {
		err = multierr.Append(err, o.applyProp(m, &m.props[idx]))
	}
	return err
}

// New creates an instance holding the declared defaults.
func (m *Model) New() (*Instance, error) {
	if m.options.Db != nil && m.idProperty == "" {
		return nil, &DefinitionError{
			Model:   m.name,
			Message: fmt.Sprintf("Model %s defines a database binding but does not have an ID property", m.name),
			Kind:    ErrMissingID,
		}
	}
	inst := newInstance(m)
	for _, p := range m.props {
		if p.fallback == nil {
			continue
		}
		v, err := p.fallback(m)
		if err != nil {
			return nil, err
		}
		inst.Set(p.name, v)
	}
	if m.options.CipherKey != nil {
		inst.cipherKey = m.options.CipherKey(inst)
	}
	return inst, nil
}

// Name returns the declared model name.
func (m *Model) Name() string { return m.name }

// Options returns the model options.
func (m *Model) Options() Options { return m.options }

// DbConfig returns the storage binding, nil for unbound models.
func (m *Model) DbConfig() *DbConfig { return m.options.Db }

// IDProperty returns the identity property name, empty when none is declared.
func (m *Model) IDProperty() string { return m.idProperty }

// Promiscuous reports whether unmapped properties are kept.
func (m *Model) Promiscuous() bool { return m.options.Promiscuous }

// Properties lists the declared property names in declaration order.
func (m *Model) Properties() []string {
	names := make([]string, len(m.props))
	for i, p := range m.props {
		names[i] = p.name
	}
	return names
}

// Suppressed reports whether the named operation is suppressed.
func (m *Model) Suppressed(op string) bool {
	return slices.Contains(m.options.SuppressedOperations, op)
}

func (m *Model) declared(property string) bool {
	_, ok := m.propIndex[property]
	return ok
}

// nestedModel returns the model declared for sub-documents of property,
// looking at the database mapping first and then any JSON mapping.
func (m *Model) nestedModel(property string) *Model {
	if d := m.dbByProperty[property]; d != nil && d.Model != nil {
		return d.Model
	}
	for _, p := range []string{DefaultContext, AnyContext} {
		if d := m.jsonByProperty[jsonKey(property, p)]; d != nil && d.Model != nil {
			return d.Model
		}
	}
	return nil
}

// jsonIDField returns the JSON name of the identity property in ctx.
func (m *Model) jsonIDField(ctx *Context) string {
	if m.idProperty == "" {
		return ""
	}
	specific, wild := m.jsonByPropertyIn(m.idProperty, ctx.Name)
	return jsonFieldName(m.idProperty, specific, wild)
}
