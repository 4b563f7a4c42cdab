// internal/services/fixtures_test.go
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

package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/localnerve/propsodm/internal/database"
	"github.com/localnerve/propsodm/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	address1Model = models.MustDefine("Address1", models.Options{},
		models.Prop("street", models.Db{}, models.Default("1600 Pennsylvania Ave NW")),
		models.Prop("city", models.Db{}, models.Default("Washington")),
		models.Prop("state", models.Db{}, models.Default("DC")),
		models.Prop("zip", models.Db{}, models.Default("20500")),
		models.Prop("gateCode", models.Db{}, models.Default("a123")),
	)

	test94Model = models.MustDefine("Test94", models.Options{Db: &models.DbConfig{Collection: "test94"}},
		models.ID("id"),
		models.Prop("address", models.Db{Model: address1Model}, models.DefaultNew()),
	)

	personModel = models.MustDefine("Person", models.Options{Db: &models.DbConfig{Collection: "people"}},
		models.ID("id"),
		models.Prop("name", models.Db{Field: "nm"}),
		models.Prop("rank", models.Db{}),
		models.Prop("nickname", models.Db{}, models.JSON{Field: "nick"}),
	)
)

// setupTestDB creates an in-memory SQLite database holding the document table
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func newRepository(t *testing.T, m *models.Model, store DocumentStore) *Repository {
	repo, err := NewRepository(m, store)
	require.NoError(t, err)
	return repo
}

// runDefaultsScenario creates a document with a fully populated nested
// address, clears the address and checks that reloading yields the declared
// defaults again.
func runDefaultsScenario(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	repo := newRepository(t, test94Model, store)

	inst, err := test94Model.FromJSON(map[string]any{
		"address": map[string]any{"city": "2", "gateCode": "5", "state": "3", "street": "1", "zip": "4"},
	}, nil)
	require.NoError(t, err)
	_, err = repo.Create(ctx, inst)
	require.NoError(t, err)
	require.NotNil(t, inst.ID())

	loaded, err := repo.Get(ctx, inst.ID(), nil)
	require.NoError(t, err)
	address := loaded.Value("address").(*models.Instance)
	for field, want := range map[string]string{"street": "1", "city": "2", "state": "3", "zip": "4", "gateCode": "5"} {
		assert.Equal(t, want, address.Value(field), field)
	}

	require.NoError(t, repo.Save(ctx, loaded, map[string]any{"address": nil}))

	reloaded, err := repo.Get(ctx, inst.ID(), nil)
	require.NoError(t, err)
	address = reloaded.Value("address").(*models.Instance)
	for field, want := range map[string]string{
		"street": "1600 Pennsylvania Ave NW", "city": "Washington", "state": "DC", "zip": "20500", "gateCode": "a123",
	} {
		assert.Equal(t, want, address.Value(field), field)
	}
}
