// internal/utils/utils_test.go
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

package utils

import (
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/propsodm/internal/config"
	"github.com/localnerve/propsodm/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body io.Reader) ErrorResponseStruct {
	var out ErrorResponseStruct
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestCustomErrorResponse(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		return CustomErrorResponse(c, types.NewBadRequest("invalid_where_parameter", "Invalid where parameter", assert.AnError))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/items?where=x", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decode(t, resp.Body)
	assert.Equal(t, 400, body.Status)
	assert.False(t, body.Ok)
	assert.Equal(t, "invalid_where_parameter", body.Code)
	assert.Equal(t, assert.AnError.Error(), body.Details)
	assert.Equal(t, "request", body.Type)
	assert.Equal(t, "/items?where=x", body.URL)
	_, err = time.Parse(time.RFC3339, body.Timestamp)
	assert.NoError(t, err)
}

func TestNotFoundResponse(t *testing.T) {
	app := fiber.New()
	app.Get("/x", func(c *fiber.Ctx) error { return NotFoundResponse(c, "gone") })

	resp, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.Equal(t, "gone", body.Message)
	assert.Empty(t, body.Code)
}

func TestMutationSuccessResponse(t *testing.T) {
	app := fiber.New()
	app.Delete("/x/:id", func(c *fiber.Ctx) error { return MutationSuccessResponse(c, c.Params("id")) })

	resp, err := app.Test(httptest.NewRequest("DELETE", "/x/abc", nil))
	require.NoError(t, err)
	var body SuccessResponseStruct
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Ok)
	assert.Equal(t, "abc", body.ID)
}

func TestDatabaseAddress(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{"sqlite", config.Config{DBType: "sqlite", DBHost: "localhost"}, ""},
		{"mongo", config.Config{DBType: "mongodb", MongoURI: "mongodb://db:27017/odm"}, "mongodb://db:27017/odm"},
		{"mongo srv", config.Config{DBType: "mongodb", MongoURI: "mongodb+srv://cluster.example.com"}, ""},
		{"mongo seed list", config.Config{DBType: "mongodb", MongoURI: "mongodb://a:1,b:2"}, ""},
		{"mysql", config.Config{DBType: "mysql", DBHost: "db", DBPort: "3306"}, "tcp://db:3306"},
		{"no host", config.Config{DBType: "postgres"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DatabaseAddress(&tt.cfg))
		})
	}
}

func TestPingService(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	assert.NoError(t, PingService("tcp://"+ln.Addr().String(), time.Second))
	assert.Error(t, PingService("://bad", time.Second))
}
