// internal/models/fixtures_test.go
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

package models_test

import (
	"strings"

	"github.com/localnerve/propsodm/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const userHex = "64b7f0c2a1e3d4b5c6a7e8f9"

var userOID, _ = bson.ObjectIDFromHex(userHex)

var (
	contactModel = models.MustDefine("Contact", models.Options{},
		models.Prop("phone", models.Db{Field: "ph"}),
		models.Prop("email", models.Db{}),
	)

	addressModel = models.MustDefine("Address1", models.Options{},
		models.Prop("street", models.Db{}, models.Default("1600 Pennsylvania Ave NW")),
		models.Prop("city", models.Db{Field: "cty"}, models.Default("Washington")),
		models.Prop("state", models.Db{}, models.Default("DC")),
		models.Prop("zip", models.Db{}, models.Default("20500")),
		models.Prop("gateCode", models.Db{}, models.Default("a123")),
	)

	userModel = models.MustDefine("User", models.Options{Db: &models.DbConfig{Collection: "users"}},
		models.ID("id"),
		models.Prop("name", models.Db{Field: "nm"}, models.JSON{Field: "full_name", Context: "api"}),
		models.Prop("ln", models.Db{}),
		models.Prop("password", models.Db{}, models.JSON{Private: true, Context: models.AnyContext}),
		models.Prop("internal", models.Db{Private: true}),
		models.Prop("contact", models.Db{Model: contactModel}),
		models.Prop("address", models.Db{Field: "addr", Model: addressModel}, models.DefaultNew()),
		models.Prop("tags", models.Db{}, models.Default([]any{"a"})),
	)

	placeModel = models.MustDefine("Place", models.Options{},
		models.Prop("city", models.Db{}),
		models.Prop("zip", models.Db{}),
	)

	memberModel = models.MustDefine("Member", models.Options{},
		models.Prop("name", models.Db{}),
		models.Prop("address", models.Db{Model: placeModel}, models.JSON{Field: "addr", Context: models.AnyContext}),
	)

	teamModel = models.MustDefine("Team", models.Options{},
		models.Prop("members", models.Db{Model: memberModel}),
	)

	itemModel = models.MustDefine("Item", models.Options{},
		models.ID("id"),
		models.Prop("v", models.Db{}),
	)

	holderModel = models.MustDefine("Holder", models.Options{Db: &models.DbConfig{Collection: "holders"}},
		models.ID("id"),
		models.Prop("sub", models.Db{Model: itemModel}),
	)

	vaultModel = models.MustDefine("Vault", models.Options{},
		models.Prop("label", models.Db{}),
		models.Prop("secret", models.Db{Private: true}, models.JSON{Field: "s", Context: models.AnyContext}),
	)

	secretModel = models.MustDefine("Secret", models.Options{
		CipherKey: func(*models.Instance) string { return "instance-key" },
	},
		models.Prop("ssn", models.JSON{Encrypt: true, Context: models.AnyContext}),
		models.Prop("pin", models.JSON{Encrypt: true, CipherKey: "field-key"}),
		models.Prop("plain"),
	)
)

func upper(v any, _ string, _ *models.Context) (any, error) {
	if s, ok := v.(string); ok {
		return strings.ToUpper(s), nil
	}
	return v, nil
}

func exclaim(v any, _ string, _ *models.Context) (any, error) {
	if s, ok := v.(string); ok {
		return s + "!", nil
	}
	return v, nil
}

func mustNew(m *models.Model) *models.Instance {
	inst, err := m.New()
	if err != nil {
		panic(err)
	}
	return inst
}
