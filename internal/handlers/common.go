// internal/handlers/common.go
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

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/propsodm/internal/types"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Codes carried by 400 responses for malformed query parameters.
const (
	CodeInvalidWhere      = "invalid_where_parameter"
	CodeInvalidProjection = "invalid_projection_parameter"
	CodeInvalidSort       = "invalid_sort_parameter"
	CodeInvalidPaging     = "invalid_paging_parameter"
	CodeInvalidBody       = "invalid_body"
)

// parseDocumentQuery reads a query parameter holding an Extended JSON
// object. An absent parameter yields nil.
func parseDocumentQuery(c *fiber.Ctx, name, code string) (map[string]any, *types.CustomError) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	var doc bson.M
	if err := bson.UnmarshalExtJSON([]byte(raw), false, &doc); err != nil {
		return nil, types.NewBadRequest(code, fmt.Sprintf("Invalid %s parameter", name), err)
	}
	return map[string]any(doc), nil
}

// parseSort reads the sort parameter: one object or an array of objects,
// each mapping properties to 1 or -1. Key order is kept.
func parseSort(c *fiber.Ctx) (bson.D, *types.CustomError) {
	raw := strings.TrimSpace(c.Query("sort"))
	if raw == "" {
		return nil, nil
	}
	invalid := func(err error) (bson.D, *types.CustomError) {
		return nil, types.NewBadRequest(CodeInvalidSort, "Invalid sort parameter", err)
	}

	var list types.FlexList[json.RawMessage]
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return invalid(err)
	}
	var out bson.D
	for _, item := range list.Slice() {
		var keys bson.D
		if err := bson.UnmarshalExtJSON(item, false, &keys); err != nil {
			return invalid(err)
		}
		for _, e := range keys {
			dir, ok := e.Value.(int32)
			if !ok || (dir != 1 && dir != -1) {
				return invalid(fmt.Errorf("direction of %q must be 1 or -1", e.Key))
			}
			out = append(out, bson.E{Key: e.Key, Value: int(dir)})
		}
	}
	return out, nil
}

// parsePaging reads the skip and limit parameters
func parsePaging(c *fiber.Ctx) (skip, limit int64, cerr *types.CustomError) {
	s, l := c.QueryInt("skip", 0), c.QueryInt("limit", 0)
	if s < 0 || l < 0 {
		return 0, 0, types.NewBadRequest(CodeInvalidPaging, "Invalid paging parameter",
			errors.New("skip and limit must not be negative"))
	}
	return int64(s), int64(l), nil
}

// parseBody reads a JSON object request body
func parseBody(c *fiber.Ctx) (map[string]any, *types.CustomError) {
	var body map[string]any
	if err := json.Unmarshal(c.Body(), &body); err != nil || body == nil {
		if err == nil {
			err = errors.New("body must be a JSON object")
		}
		return nil, types.NewBadRequest(CodeInvalidBody, "Invalid input", err)
	}
	return body, nil
}

// sortedKeys lists the keys of a JSON object in a stable order for logging
func sortedKeys(doc map[string]any) []string {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
