// internal/domain/user.go
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

// Package domain declares the documents served by cmd/server.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/localnerve/propsodm/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// AdminContext is the JSON context that may read and assign roles
const AdminContext = "admin"

// PasswordCost is the bcrypt cost used for new password hashes
var PasswordCost = bcrypt.DefaultCost

var cipherKey atomic.Value

// SetCipherKey sets the key that encrypts sensitive fields of new instances
func SetCipherKey(key string) {
	cipherKey.Store(key)
}

func currentCipherKey(*models.Instance) string {
	key, _ := cipherKey.Load().(string)
	return key
}

// ErrReadOnly is returned when a client assigns a field it may not write
var ErrReadOnly = errors.New("field is read only")

var (
	// Address is a postal address. Cleared fields fall back to their defaults.
	Address = models.MustDefine("Address", models.Options{},
		models.Prop("street", models.Db{}, models.Default("")),
		models.Prop("city", models.Db{Field: "cty"}, models.Default("")),
		models.Prop("state", models.Db{}, models.Default("")),
		models.Prop("zip", models.Db{Field: "postalCode"}, models.Default("")),
		models.Prop("country", models.Db{}, models.Default("US")),
	)

	// Contact is one way to reach a user
	Contact = models.MustDefine("Contact", models.Options{},
		models.Prop("kind", models.Db{}, models.Default("email")),
		models.Prop("value", models.Db{Field: "val"}),
		models.Prop("primary", models.Db{}, models.Default(false)),
	)

	// User is served at /api/users
	User = models.MustDefine("User", models.Options{
		Db:        &models.DbConfig{Collection: "users"},
		CipherKey: currentCipherKey,
	},
		models.ID("id"),
		models.Prop("name", models.Db{Field: "nm"}, models.JSON{Field: "fullName", Context: models.AnyContext}),
		models.Prop("email", models.Db{}, models.JSON{Context: models.AnyContext, FormatIn: normalizeEmail}),
		models.Prop("ssn", models.Db{}, models.JSON{Context: models.AnyContext, Encrypt: true}),
		models.Prop("password", models.Db{Private: true}, models.JSON{Context: models.AnyContext, Private: true}),
		models.Prop("passwordHash", models.Db{Field: "pwh"}, models.JSON{Context: models.AnyContext, Private: true, FormatIn: readOnly}),
		models.Prop("role", models.Db{}, models.Default("user"), models.JSON{
			Context:   models.AnyContext,
			PrivateIf: notAdmin,
			FormatIn:  adminOnly,
		}),
		models.Prop("managerId", models.Db{Field: "mgr"}, models.JSON{Context: models.AnyContext, Type: "id"}),
		models.Prop("address", models.Db{Field: "addr", Model: Address}, models.DefaultNew()),
		models.Prop("contacts", models.Db{Model: Contact}, models.DefaultFunc(func() any { return []any{} })),
		models.FormatIn(models.AnyContext, hashPassword),
		models.FormatOut(models.AnyContext, countContacts),
	)
)

func normalizeEmail(v any, _ string, _ *models.Context) (any, error) {
	if s, ok := v.(string); ok {
		return strings.ToLower(strings.TrimSpace(s)), nil
	}
	return v, nil
}

func readOnly(_ any, property string, _ *models.Context) (any, error) {
	return nil, fmt.Errorf("%w: %s", ErrReadOnly, property)
}

func notAdmin(ctx *models.Context) bool {
	return ctx.Name != AdminContext
}

func adminOnly(v any, property string, ctx *models.Context) (any, error) {
	if notAdmin(ctx) {
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, property)
	}
	return v, nil
}

// hashPassword replaces a plain password with its bcrypt hash
func hashPassword(inst *models.Instance, _ map[string]any, _ *models.Context) (*models.Instance, error) {
	password, ok := inst.Get("password")
	if !ok {
		return inst, nil
	}
	inst.Delete("password")
	plain, _ := password.(string)
	if plain == "" {
		return inst, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return nil, err
	}
	inst.Set("passwordHash", string(hash))
	return inst, nil
}

// CheckPassword reports whether plain matches the stored hash of a user
func CheckPassword(user *models.Instance, plain string) bool {
	hash, _ := user.Value("passwordHash").(string)
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func countContacts(json map[string]any, inst *models.Instance, _ *models.Context) (map[string]any, error) {
	contacts, _ := inst.Value("contacts").([]any)
	json["contactCount"] = len(contacts)
	return json, nil
}
