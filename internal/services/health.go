// internal/services/health.go
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
	"fmt"
	"time"

	"github.com/localnerve/propsodm/internal/config"
	"github.com/localnerve/propsodm/internal/utils"
	"github.com/sirupsen/logrus"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Network      string            `json:"network"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck checks that the database host is reachable and that the store
// answers a ping
func HealthCheck(ctx context.Context, cfg *config.Config, store DocumentStore) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Network: "skipped",
		Details: map[string]string{"database_type": cfg.DBType},
	}
	fail := func(component, state string, err error) {
		result.Status = "unhealthy"
		result.Details[component+"_error"] = err.Error()
		msg := fmt.Sprintf("%s %s: %v", component, state, err)
		if result.ErrorMessage == "" {
			result.ErrorMessage = msg
		} else {
			result.ErrorMessage += "; " + msg
		}
		logrus.WithError(err).WithField("component", component).Warn("Health check failed")
	}

	if address := utils.DatabaseAddress(cfg); address != "" {
		if err := utils.PingService(address, 1500*time.Millisecond); err != nil {
			result.Network = "unreachable"
			fail("network", "unreachable", err)
		} else {
			result.Network = "ok"
			result.Details["database_address"] = address
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		result.Database = "unreachable"
		fail("database", "ping failed", err)
	} else {
		result.Database = "ok"
		if cfg.DBDatabase != "" {
			result.Details["database_name"] = cfg.DBDatabase
		}
	}

	if result.Status == "healthy" {
		logrus.Info("Health check passed - all systems operational")
	}
	return result
}
