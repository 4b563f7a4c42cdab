// internal/handlers/model_routes_test.go
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
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/propsodm/internal/database"
	"github.com/localnerve/propsodm/internal/domain"
	"github.com/localnerve/propsodm/internal/middleware"
	"github.com/localnerve/propsodm/internal/models"
	"github.com/localnerve/propsodm/internal/services"
	"github.com/localnerve/propsodm/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testKey = "handler-test-key"

func init() {
	domain.PasswordCost = bcrypt.MinCost
	domain.SetCipherKey(testKey)
}

var noteModel = models.MustDefine("Note", models.Options{
	Db:                   &models.DbConfig{Collection: "notes"},
	SuppressedOperations: []string{models.OpDelete, models.OpUpdate},
},
	models.ID("id"),
	models.Prop("text", models.Db{}),
)

func setupStore(t *testing.T) services.DocumentStore {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return services.NewSQLStore(db)
}

func setupApp(t *testing.T) *fiber.App {
	store := setupStore(t)
	app := fiber.New()
	api := app.Group("/api", middleware.JSONContext())

	for path, m := range map[string]*models.Model{"/users": domain.User, "/notes": noteModel} {
		repo, err := services.NewRepository(m, store)
		require.NoError(t, err)
		NewModelHandler(repo).Register(api, path)
	}
	return app
}

func do(t *testing.T, app *fiber.App, method, target string, body any, jsonContext string) (*http.Response, []byte) {
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = strings.NewReader(string(raw))
		}
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if jsonContext != "" {
		req.Header.Set(middleware.JSONContextHeader, jsonContext)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decodeObject(t *testing.T, raw []byte) map[string]any {
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func decodeError(t *testing.T, raw []byte) utils.ErrorResponseStruct {
	var out utils.ErrorResponseStruct
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func createUser(t *testing.T, app *fiber.App, body map[string]any) map[string]any {
	resp, raw := do(t, app, "POST", "/api/users", body, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	return decodeObject(t, raw)
}

func query(path string, params map[string]string) string {
	v := url.Values{}
	for k, p := range params {
		v.Set(k, p)
	}
	return path + "?" + v.Encode()
}

func TestCreateAndGetUser(t *testing.T) {
	app := setupApp(t)
	created := createUser(t, app, map[string]any{
		"fullName": "Ada Lovelace",
		"email":    "ADA@example.com",
		"password": "secret",
	})

	id, ok := created["id"].(string)
	require.True(t, ok)
	assert.Len(t, id, 24)
	assert.Equal(t, "ada@example.com", created["email"])
	assert.NotContains(t, created, "password")
	assert.NotContains(t, created, "passwordHash")
	assert.NotContains(t, created, "role")
	assert.Equal(t, float64(0), created["contactCount"])
	assert.Equal(t, "US", created["address"].(map[string]any)["country"])

	resp, raw := do(t, app, "GET", "/api/users/"+id, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, created, decodeObject(t, raw))

	resp, raw = do(t, app, "GET", "/api/users/"+id, nil, domain.AdminContext)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "user", decodeObject(t, raw)["role"])
}

func TestGetUserProjection(t *testing.T) {
	app := setupApp(t)
	id := createUser(t, app, map[string]any{"fullName": "Ada", "email": "a@x.io"})["id"].(string)

	resp, raw := do(t, app, "GET", query("/api/users/"+id, map[string]string{"projection": `{"fullName":1}`}), nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"id": id, "fullName": "Ada"}, decodeObject(t, raw))

	resp, raw = do(t, app, "GET", query("/api/users/"+id, map[string]string{"projection": `{fullName`}), nil, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decodeError(t, raw)
	assert.Equal(t, CodeInvalidProjection, body.Code)
	assert.NotEmpty(t, body.Details)
}

func TestGetUserNotFound(t *testing.T) {
	app := setupApp(t)
	resp, raw := do(t, app, "GET", "/api/users/64b7f0c2a1e3d4b5c6a7e8f9", nil, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, decodeError(t, raw).Message, "not found")
}

func TestListUsers(t *testing.T) {
	app := setupApp(t)
	for _, name := range []string{"Cy", "Ada", "Bo", "Ada"} {
		createUser(t, app, map[string]any{"fullName": name})
	}

	list := func(params map[string]string) []map[string]any {
		resp, raw := do(t, app, "GET", query("/api/users", params), nil, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
		var out []map[string]any
		require.NoError(t, json.Unmarshal(raw, &out))
		return out
	}

	assert.Len(t, list(nil), 4)
	assert.Len(t, list(map[string]string{"where": `{"name":"Ada"}`}), 2)

	sorted := list(map[string]string{"sort": `[{"name":-1}]`, "skip": "1", "limit": "2", "projection": `{"fullName":1}`})
	require.Len(t, sorted, 2)
	assert.Equal(t, "Bo", sorted[0]["fullName"])
	assert.Equal(t, "Ada", sorted[1]["fullName"])
	assert.Len(t, sorted[0], 2)
}

func TestListUsersBadParameters(t *testing.T) {
	app := setupApp(t)
	tests := []struct {
		params map[string]string
		code   string
	}{
		{map[string]string{"where": `{"name":`}, CodeInvalidWhere},
		{map[string]string{"where": `{"name":{"$gt":"A"}}`}, CodeInvalidWhere},
		{map[string]string{"sort": `{"name":2}`}, CodeInvalidSort},
		{map[string]string{"sort": `nope`}, CodeInvalidSort},
		{map[string]string{"projection": `[1]`}, CodeInvalidProjection},
		{map[string]string{"limit": "-1"}, CodeInvalidPaging},
	}
	for _, tt := range tests {
		resp, raw := do(t, app, "GET", query("/api/users", tt.params), nil, "")
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, tt.params)
		assert.Equal(t, tt.code, decodeError(t, raw).Code, tt.params)
	}
}

func TestEncryptedFieldOverHTTP(t *testing.T) {
	app := setupApp(t)
	ssn, err := models.Encrypt("123-45-6789", testKey)
	require.NoError(t, err)

	created := createUser(t, app, map[string]any{"fullName": "Ada", "ssn": ssn})
	assert.NotEqual(t, ssn, created["ssn"])
	plain, err := models.Decrypt(created["ssn"].(string), testKey)
	require.NoError(t, err)
	assert.Equal(t, "123-45-6789", plain)

	resp, raw := do(t, app, "POST", "/api/users", map[string]any{"ssn": "123-45-6789"}, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "mapping_error", decodeError(t, raw).Code)
}

func TestUpdateUser(t *testing.T) {
	app := setupApp(t)
	id := createUser(t, app, map[string]any{"fullName": "Ada", "email": "a@x.io"})["id"].(string)

	resp, raw := do(t, app, "PUT", "/api/users/"+id, map[string]any{"fullName": "Ada King", "email": nil}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	updated := decodeObject(t, raw)
	assert.Equal(t, "Ada King", updated["fullName"])
	assert.NotContains(t, updated, "email")

	resp, _ = do(t, app, "PUT", "/api/users/"+id, map[string]any{"role": "admin"}, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, raw = do(t, app, "PUT", "/api/users/"+id, map[string]any{"role": "admin"}, domain.AdminContext)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "admin", decodeObject(t, raw)["role"])

	resp, _ = do(t, app, "PUT", "/api/users/64b7f0c2a1e3d4b5c6a7e8f9", map[string]any{"fullName": "x"}, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, raw = do(t, app, "PUT", "/api/users/"+id, "[1,2]", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, CodeInvalidBody, decodeError(t, raw).Code)
}

func TestDeleteUser(t *testing.T) {
	app := setupApp(t)
	id := createUser(t, app, map[string]any{"fullName": "Ada"})["id"].(string)

	resp, raw := do(t, app, "DELETE", "/api/users/"+id, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var ok utils.SuccessResponseStruct
	require.NoError(t, json.Unmarshal(raw, &ok))
	assert.True(t, ok.Ok)
	assert.Equal(t, id, ok.ID)

	resp, _ = do(t, app, "GET", "/api/users/"+id, nil, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, app, "DELETE", "/api/users/"+id, nil, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSuppressedOperations(t *testing.T) {
	app := setupApp(t)
	resp, raw := do(t, app, "POST", "/api/notes", map[string]any{"text": "hi"}, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := decodeObject(t, raw)["id"].(string)

	resp, _ = do(t, app, "GET", "/api/notes/"+id, nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	for _, method := range []string{"DELETE", "PUT"} {
		resp, _ = do(t, app, method, "/api/notes/"+id, map[string]any{}, "")
		assert.Contains(t, []int{fiber.StatusNotFound, fiber.StatusMethodNotAllowed}, resp.StatusCode, method)
	}
}
