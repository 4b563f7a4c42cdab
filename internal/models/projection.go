// internal/models/projection.go
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

// ApplyProjection filters a JSON object with a projection spec whose leaves
// are 0 or 1. A level with any leaf 1 is inclusive and keeps only the listed
// fields; otherwise it is exclusive and drops the fields set to 0. Sub-specs
// apply to sub-objects and to every object of an array. idField names the
// identity field kept at the root of an inclusive projection unless it is
// explicitly excluded. Fields are never added.
func ApplyProjection(obj map[string]any, spec map[string]any, idField string) map[string]any {
	return project(obj, spec, idField)
}

func project(obj map[string]any, spec map[string]any, idField string) map[string]any {
	if obj == nil {
		return nil
	}
	inclusive := false
	for _, v := range spec {
		if n, ok := projectionFlag(v); ok && n == 1 {
			inclusive = true
			break
		}
	}

	out := make(map[string]any, len(obj))
	for key, value := range obj {
		rule, listed := spec[key]
		if !listed {
			if !inclusive || (idField != "" && key == idField) {
				out[key] = value
			}
			continue
		}
		if n, ok := projectionFlag(rule); ok {
			if n == 1 {
				out[key] = value
			}
			continue
		}
		sub, ok := subSpec(rule)
		if !ok {
			if !inclusive {
				out[key] = value
			}
			continue
		}
		out[key] = projectValue(value, sub)
	}
	return out
}

func projectValue(value any, spec map[string]any) any {
	if src, ok := entries(value); ok {
		obj := make(map[string]any, len(src))
		for _, e := range src {
			obj[e.Key] = e.Value
		}
		return project(obj, spec, "")
	}
	if list, ok := elements(value); ok {
		out := make([]any, len(list))
		for i, el := range list {
			out[i] = projectValue(el, spec)
		}
		return out
	}
	return value
}

// projectionFlag reads a 0/1 leaf. JSON numbers decode as float64 and
// booleans are accepted as well.
func projectionFlag(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func subSpec(v any) (map[string]any, bool) {
	if src, ok := entries(v); ok {
		out := make(map[string]any, len(src))
		for _, e := range src {
			out[e.Key] = e.Value
		}
		return out, true
	}
	return nil, false
}
