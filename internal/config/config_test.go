// internal/config/config_test.go
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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "DB_TYPE", "DB_HOST", "DB_PORT", "DB_DATABASE", "DB_USER",
		"DB_PASSWORD", "DB_CONNECTION_LIMIT", "MONGO_URI", "CIPHER_KEY", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_TYPE", "MySQL")
	t.Setenv("DB_DATABASE", "odm")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_CONNECTION_LIMIT", "12")
	t.Setenv("CIPHER_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.DBType)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, 12, cfg.DBConnectionLimit)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "8080"
dbType: mongodb
mongoUri: mongodb://localhost:27017
dbDatabase: fromfile
cipherKey: file-key
logLevel: debug
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_DATABASE", "fromenv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "fromenv", cfg.DBDatabase)
	assert.Equal(t, "file-key", cfg.CipherKey)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"mongo without uri", map[string]string{"CIPHER_KEY": "k"}, "MONGO_URI is required for DB_TYPE mongodb"},
		{"sql without user", map[string]string{"DB_TYPE": "postgres", "DB_DATABASE": "d", "CIPHER_KEY": "k"}, "DB_USER is required"},
		{"unknown type", map[string]string{"DB_TYPE": "oracle"}, "unsupported database type: oracle"},
		{"missing cipher key", map[string]string{"DB_TYPE": "sqlite", "DB_DATABASE": "x.db"}, "CIPHER_KEY is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoadMongoDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("CIPHER_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mongodb", cfg.DBType)
	assert.Equal(t, DefaultMongoDatabase, cfg.DBDatabase)
	assert.Empty(t, cfg.DBPort)
}
