// internal/models/context.go
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

// Context names with special meaning.
const (
	DefaultContext = "default"
	AnyContext     = "*"
)

// Context selects which JSON descriptors apply to a mapping call. Data is
// handed through to formatters untouched. A non-nil Projection is applied to
// the output of ToJSON as its last step.
type Context struct {
	Name       string
	Data       any
	Projection map[string]any
}

// NewContext returns a context with the given name, "default" when empty.
func NewContext(name string) *Context {
	if name == "" {
		name = DefaultContext
	}
	return &Context{Name: name}
}

// WithProjection returns a copy of c carrying the projection spec.
func (c *Context) WithProjection(projection map[string]any) *Context {
	cp := *c.orDefault()
	cp.Projection = projection
	return &cp
}

func (c *Context) orDefault() *Context {
	if c == nil {
		return &Context{Name: DefaultContext}
	}
	if c.Name == "" {
		cp := *c
		cp.Name = DefaultContext
		return &cp
	}
	return c
}

// FieldFormatter transforms a single property value on its way in or out of
// the JSON representation.
type FieldFormatter func(value any, property string, ctx *Context) (any, error)

// OutFormatter post-processes the JSON object produced for an instance.
type OutFormatter func(json map[string]any, inst *Instance, ctx *Context) (map[string]any, error)

// InFormatter post-processes the instance built from a JSON object.
type InFormatter func(inst *Instance, json map[string]any, ctx *Context) (*Instance, error)
