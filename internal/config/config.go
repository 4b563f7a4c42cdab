// internal/config/config.go
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
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultMongoDatabase is the database used when DB_DATABASE is not set for mongodb
const DefaultMongoDatabase = "propsodm"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string `yaml:"port"`

	// Database configuration
	DBType            string `yaml:"dbType"` // mongodb, mysql, postgres, sqlite, sqlserver
	DBHost            string `yaml:"dbHost"`
	DBPort            string `yaml:"dbPort"`
	DBDatabase        string `yaml:"dbDatabase"`
	DBUser            string `yaml:"dbUser"`
	DBPassword        string `yaml:"dbPassword"`
	DBConnectionLimit int    `yaml:"dbConnectionLimit"`
	MongoURI          string `yaml:"mongoUri"`

	// Mapping configuration
	CipherKey string `yaml:"cipherKey"`

	LogLevel string `yaml:"logLevel"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		Port:              "3000",
		DBType:            "mongodb",
		DBHost:            "localhost",
		DBConnectionLimit: 5,
		LogLevel:          "info",
	}
}

// Load loads configuration from the optional CONFIG_FILE yaml document and
// then from environment variables, which take precedence
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBType = strings.ToLower(getEnv("DB_TYPE", cfg.DBType))
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBDatabase = getEnv("DB_DATABASE", cfg.DBDatabase)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBConnectionLimit = getEnvAsInt("DB_CONNECTION_LIMIT", cfg.DBConnectionLimit)
	cfg.MongoURI = getEnv("MONGO_URI", cfg.MongoURI)
	cfg.CipherKey = getEnv("CIPHER_KEY", cfg.CipherKey)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if cfg.DBPort == "" {
		cfg.DBPort = defaultPort(cfg.DBType)
	}
	if cfg.DBDatabase == "" && (cfg.DBType == "mongodb" || cfg.DBType == "mongo") {
		cfg.DBDatabase = DefaultMongoDatabase
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the required fields for the configured database type
func (c *Config) Validate() error {
	switch c.DBType {
	case "mongodb", "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for DB_TYPE %s", c.DBType)
		}
	case "sqlite":
		if c.DBDatabase == "" {
			return fmt.Errorf("DB_DATABASE is required")
		}
	case "mysql", "mariadb", "postgres", "postgresql", "sqlserver", "mssql":
		if c.DBDatabase == "" {
			return fmt.Errorf("DB_DATABASE is required")
		}
		if c.DBUser == "" {
			return fmt.Errorf("DB_USER is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DBType)
	}
	if c.CipherKey == "" {
		return fmt.Errorf("CIPHER_KEY is required")
	}
	return nil
}

func defaultPort(dbType string) string {
	switch dbType {
	case "mysql", "mariadb":
		return "3306"
	case "postgres", "postgresql":
		return "5432"
	case "sqlserver", "mssql":
		return "1433"
	}
	return ""
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
