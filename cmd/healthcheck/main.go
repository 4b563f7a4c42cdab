// cmd/healthcheck/main.go
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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/localnerve/propsodm/internal/config"
	"github.com/localnerve/propsodm/internal/database"
	"github.com/localnerve/propsodm/internal/services"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()
	logrus.SetOutput(os.Stderr)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	var store services.DocumentStore
	if database.IsMongo(cfg) {
		client, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			report(services.HealthCheckResult{Status: "unhealthy", Database: "unreachable", ErrorMessage: err.Error()})
		}
		defer database.CloseMongo(client)
		store = services.NewMongoStore(client, cfg.DBDatabase)
	} else {
		db, err := database.Connect(cfg)
		if err != nil {
			report(services.HealthCheckResult{Status: "unhealthy", Database: "unreachable", ErrorMessage: err.Error()})
		}
		defer database.Close(db)
		store = services.NewSQLStore(db)
	}

	result := services.HealthCheck(ctx, cfg, store)
	if result.Status != "healthy" {
		report(result)
	}
	output, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(output))
}

// report prints an unhealthy result and exits with status 1
func report(result services.HealthCheckResult) {
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logrus.Fatalf("Failed to marshal health check result: %v", err)
	}
	fmt.Println(string(output))
	os.Exit(1)
}
