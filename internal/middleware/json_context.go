// internal/middleware/json_context.go
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

package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/propsodm/internal/models"
)

// JSONContextHeader names the request header that selects the JSON context
const JSONContextHeader = "X-Json-Context"

const jsonContextKey = "jsonContext"

// JSONContext parses the X-Json-Context header and stores the mapping
// context in locals. A missing header selects the default context.
func JSONContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := strings.TrimSpace(c.Get(JSONContextHeader))
		c.Locals(jsonContextKey, models.NewContext(name))
		return c.Next()
	}
}

// JSONContextFrom returns the context stored by JSONContext, or the default
// context when the middleware did not run
func JSONContextFrom(c *fiber.Ctx) *models.Context {
	if ctx, ok := c.Locals(jsonContextKey).(*models.Context); ok {
		return ctx
	}
	return models.NewContext("")
}
