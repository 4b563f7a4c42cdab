// internal/models/registry.go
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

// Db maps a property to its database field.
type Db struct {
	// Field is the document field name, the property name when empty.
	Field string
	// Model is the nested model used for sub-documents and arrays of them.
	Model *Model
	// Private properties never leave the instance, in any representation.
	Private bool
	// Promiscuous values are copied to the document without mapping.
	Promiscuous bool
}

// JSON maps a property to its JSON field for one context.
type JSON struct {
	// Field is the JSON field name, the property name when empty.
	Field string
	// Context partitions mappings of the same property. "default" when empty,
	// "*" applies in every context.
	Context string
	// Model is the nested model used for sub-objects and arrays of them.
	Model *Model
	// Private excludes the property from ToJSON in this context.
	Private bool
	// PrivateIf decides privacy per call. It is consulted when Private is false.
	PrivateIf func(ctx *Context) bool
	// Promiscuous values pass through without mapping or formatting.
	Promiscuous bool
	// Type "id" converts valid identity strings to bson.ObjectID on input.
	Type string
	// FormatIn runs on the value in FromJSON, after nested mapping.
	FormatIn FieldFormatter
	// FormatOut runs on the value in ToJSON, before encryption.
	FormatOut FieldFormatter
	// Encrypt stores the value as ciphertext in the JSON representation.
	Encrypt bool
	// CipherKey overrides the instance cipher key for this field.
	CipherKey string
	// Decryptor overrides Decrypt for this field.
	Decryptor func(ciphertext string, key string) (any, error)
}

// DbDescriptor is a registered Db mapping together with its property.
type DbDescriptor struct {
	Db
	Property string
}

// JSONDescriptor is a registered JSON mapping together with its property.
type JSONDescriptor struct {
	JSON
	Property string

	named bool
}

func jsonKey(name, context string) string {
	return name + ":" + context
}

func (m *Model) registerDb(property string, d Db) error {
	switch {
	case property == m.idProperty:
		d.Field = "_id"
	case d.Field == "":
		d.Field = property
	}
	if d.Field == "_id" && property != m.idProperty {
		return &DefinitionError{
			Model:    m.name,
			Property: property,
			Message:  m.name + " maps property " + property + " to _id, which is reserved for the identity property",
			Kind:     ErrInvalidDefinition,
		}
	}
	if prev, ok := m.dbByProperty[property]; ok {
		delete(m.dbByField, prev.Field)
	}
	desc := &DbDescriptor{Db: d, Property: property}
	m.dbByProperty[property] = desc
	m.dbByField[d.Field] = desc
	return nil
}

func (m *Model) registerJSON(property string, j JSON) error {
	named := j.Field != ""
	if !named {
		j.Field = property
	}
	if j.Context == "" {
		j.Context = DefaultContext
	}
	if prev, ok := m.jsonByProperty[jsonKey(property, j.Context)]; ok {
		delete(m.jsonByField, jsonKey(prev.Field, j.Context))
	}
	desc := &JSONDescriptor{JSON: j, Property: property, named: named}
	m.jsonByProperty[jsonKey(property, j.Context)] = desc
	m.jsonByField[jsonKey(j.Field, j.Context)] = desc
	return nil
}

// DbFieldByProperty returns the database mapping of a property.
func (m *Model) DbFieldByProperty(property string) (DbDescriptor, bool) {
	d, ok := m.dbByProperty[property]
	if !ok {
		return DbDescriptor{}, false
	}
	return *d, true
}

// DbFieldByName returns the database mapping that writes the given field.
func (m *Model) DbFieldByName(field string) (DbDescriptor, bool) {
	d, ok := m.dbByField[field]
	if !ok {
		return DbDescriptor{}, false
	}
	return *d, true
}

// JSONFieldByProperty returns the JSON mapping of a property in exactly the
// given context. The wildcard context is not consulted.
func (m *Model) JSONFieldByProperty(property, context string) (JSONDescriptor, bool) {
	d, ok := m.jsonByProperty[jsonKey(property, context)]
	if !ok {
		return JSONDescriptor{}, false
	}
	return *d, true
}

// JSONFieldByName returns the JSON mapping that reads the given field in
// exactly the given context.
func (m *Model) JSONFieldByName(field, context string) (JSONDescriptor, bool) {
	d, ok := m.jsonByField[jsonKey(field, context)]
	if !ok {
		return JSONDescriptor{}, false
	}
	return *d, true
}

// jsonByPropertyIn returns the specific and wildcard descriptors of property.
func (m *Model) jsonByPropertyIn(property, context string) (specific, wild *JSONDescriptor) {
	if context != AnyContext {
		specific = m.jsonByProperty[jsonKey(property, context)]
	}
	wild = m.jsonByProperty[jsonKey(property, AnyContext)]
	return specific, wild
}

// resolveJSONField finds the property read from an incoming JSON field. A
// field only resolves to a property whose outgoing name in this context is
// that same field, so renamed properties are not assigned by their own name.
func (m *Model) resolveJSONField(field, context string) (property string, specific, wild *JSONDescriptor, ok bool) {
	candidates := make([]string, 0, 3)
	if context != AnyContext {
		if d := m.jsonByField[jsonKey(field, context)]; d != nil {
			candidates = append(candidates, d.Property)
		}
	}
	if d := m.jsonByField[jsonKey(field, AnyContext)]; d != nil {
		candidates = append(candidates, d.Property)
	}
	candidates = append(candidates, field)

	for _, property := range candidates {
		specific, wild = m.jsonByPropertyIn(property, context)
		if jsonFieldName(property, specific, wild) == field {
			return property, specific, wild, true
		}
	}
	if field == "_id" && m.idProperty != "" {
		specific, wild = m.jsonByPropertyIn(m.idProperty, context)
		return m.idProperty, specific, wild, true
	}
	return "", nil, nil, false
}

// jsonFieldName returns the outgoing field name of property. A name set in
// the specific context wins over one set in the wildcard context.
func jsonFieldName(property string, specific, wild *JSONDescriptor) string {
	switch {
	case specific != nil && specific.named:
		return specific.Field
	case wild != nil && wild.named:
		return wild.Field
	}
	return property
}

func (d *JSONDescriptor) private(ctx *Context) bool {
	if d == nil {
		return false
	}
	if d.Private {
		return true
	}
	return d.PrivateIf != nil && d.PrivateIf(ctx)
}

func (d *JSONDescriptor) promiscuous() bool {
	return d != nil && d.Promiscuous
}

func (d *JSONDescriptor) encrypted() bool {
	return d != nil && d.Encrypt
}

func (d *JSONDescriptor) typedID() bool {
	return d != nil && d.Type == "id"
}

func (d *JSONDescriptor) model() *Model {
	if d == nil {
		return nil
	}
	return d.Model
}
