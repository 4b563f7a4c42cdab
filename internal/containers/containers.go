// internal/containers/containers.go
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

// Package containers starts the databases used for local development and
// container tests.
package containers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/localnerve/propsodm/data"
	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DefaultMongoImage is used when MONGO_IMAGE is not set
const DefaultMongoImage = "mongo:7"

// ServerImage is the service image started next to the database when it
// exists locally
const ServerImage = "propsodm:latest"

// DevContainers holds the running containers
type DevContainers struct {
	Network  *testcontainers.DockerNetwork
	Database testcontainers.Container
	Server   testcontainers.Container

	// Env holds the settings a local process uses to reach the database
	Env map[string]string
}

// Terminate stops every container and removes the network
func (dc *DevContainers) Terminate(ctx context.Context) {
	for name, c := range map[string]testcontainers.Container{"server": dc.Server, "database": dc.Database} {
		if c == nil {
			continue
		}
		if err := c.Terminate(ctx); err != nil {
			logrus.WithError(err).WithField("container", name).Warn("Failed to terminate container")
		}
	}
	if dc.Network != nil {
		if err := dc.Network.Remove(ctx); err != nil {
			logrus.WithError(err).Warn("Failed to remove network")
		}
	}
}

// Start runs the database selected by DB_TYPE (mongodb, mysql or mariadb)
// and, when ServerImage exists locally, the service itself
func Start(ctx context.Context) (*DevContainers, error) {
	dc := &DevContainers{Env: map[string]string{}}

	nw, err := network.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create network: %w", err)
	}
	dc.Network = nw

	dbType := strings.ToLower(getEnv("DB_TYPE", "mongodb"))
	switch dbType {
	case "mongodb", "mongo":
		err = dc.startMongo(ctx)
	case "mysql", "mariadb":
		err = dc.startMariaDB(ctx, dbType)
	default:
		err = fmt.Errorf("no development container for DB_TYPE %s", dbType)
	}
	if err != nil {
		dc.Terminate(ctx)
		return nil, err
	}

	if err := dc.startServer(ctx, dbType); err != nil {
		dc.Terminate(ctx)
		return nil, err
	}
	return dc, nil
}

func (dc *DevContainers) startMongo(ctx context.Context) error {
	port, _ := nat.NewPort("tcp", "27017")
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          getEnv("MONGO_IMAGE", DefaultMongoImage),
			ExposedPorts:   []string{string(port)},
			WaitingFor:     wait.ForListeningPort(port).WithStartupTimeout(90 * time.Second),
			Networks:       []string{dc.Network.Name},
			NetworkAliases: map[string][]string{dc.Network.Name: {"mongo"}},
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("failed to start MongoDB: %w", err)
	}
	dc.Database = c

	host, _ := c.Host(ctx)
	mapped, _ := c.MappedPort(ctx, port)
	dc.Env["DB_TYPE"] = "mongodb"
	dc.Env["MONGO_URI"] = fmt.Sprintf("mongodb://%s:%s", host, mapped.Port())
	return nil
}

func (dc *DevContainers) startMariaDB(ctx context.Context, dbType string) error {
	dbPort := getEnv("DB_PORT", "3306")
	port, err := nat.NewPort("tcp", dbPort)
	if err != nil {
		return fmt.Errorf("failed to create DB port: %w", err)
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        getEnv("DB_IMAGE", "mariadb:11"),
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": os.Getenv("DB_ROOT_PASSWORD"),
				"MYSQL_DATABASE":      os.Getenv("DB_DATABASE"),
			},
			WaitingFor:     wait.ForListeningPort(port).WithStartupTimeout(90 * time.Second),
			Networks:       []string{dc.Network.Name},
			NetworkAliases: map[string][]string{dc.Network.Name: {getEnv("DB_HOST", "db")}},
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", dbType, err)
	}
	dc.Database = c

	host, _ := c.Host(ctx)
	mapped, _ := c.MappedPort(ctx, port)
	if err := initMariaDB(ctx, host, mapped.Port()); err != nil {
		return err
	}
	dc.Env["DB_TYPE"] = dbType
	dc.Env["DB_HOST"] = host
	dc.Env["DB_PORT"] = mapped.Port()
	return nil
}

// initMariaDB creates the service account and the document table
func initMariaDB(ctx context.Context, host, port string) error {
	db, err := sql.Open("mysql", fmt.Sprintf("root:%s@tcp(%s:%s)/", os.Getenv("DB_ROOT_PASSWORD"), host, port))
	if err != nil {
		return fmt.Errorf("failed to connect to MariaDB for setup: %w", err)
	}
	defer db.Close()

	for i := 0; i < 30; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		return fmt.Errorf("MariaDB not ready after 30 seconds: %w", err)
	}

	user, database := os.Getenv("DB_USER"), os.Getenv("DB_DATABASE")
	setup := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf("CREATE USER IF NOT EXISTS '%s'@'%%' IDENTIFIED BY '%s'", user, os.Getenv("DB_PASSWORD")),
	}
	for _, script := range []string{data.InitdbMariaDBTables, data.InitdbMariaDBPrivileges} {
		setup = append(setup, SplitStatements(ExpandScript(script, map[string]string{
			"DB_DATABASE": database,
			"DB_USER":     user,
		}))...)
	}
	for _, q := range setup {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%w: when executing > %s", err, q)
		}
	}
	return nil
}

func (dc *DevContainers) startServer(ctx context.Context, dbType string) error {
	exists, err := imageExists(ctx, ServerImage)
	if err != nil {
		return fmt.Errorf("failed to check if image exists: %w", err)
	}
	if !exists {
		logrus.Infof("Image %s not found, run cmd/server against the database instead", ServerImage)
		return nil
	}

	serverPort := getEnv("PORT", "3000")
	port, err := nat.NewPort("tcp", serverPort)
	if err != nil {
		return fmt.Errorf("failed to create server port: %w", err)
	}
	env := map[string]string{
		"DB_TYPE":    dbType,
		"PORT":       serverPort,
		"CIPHER_KEY": os.Getenv("CIPHER_KEY"),
		"LOG_LEVEL":  getEnv("LOG_LEVEL", "info"),
	}
	if dbType == "mongodb" || dbType == "mongo" {
		env["MONGO_URI"] = "mongodb://mongo:27017"
		env["DB_DATABASE"] = getEnv("DB_DATABASE", "propsodm")
	} else {
		for _, key := range []string{"DB_HOST", "DB_PORT", "DB_DATABASE", "DB_USER", "DB_PASSWORD"} {
			env[key] = os.Getenv(key)
		}
		env["DB_HOST"] = getEnv("DB_HOST", "db")
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        ServerImage,
			ExposedPorts: []string{string(port)},
			Env:          env,
			WaitingFor:   wait.ForHTTP("/metrics").WithPort(port).WithStartupTimeout(30 * time.Second),
			Networks:     []string{dc.Network.Name},
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", ServerImage, err)
	}
	dc.Server = c

	host, _ := c.Host(ctx)
	mapped, _ := c.MappedPort(ctx, port)
	dc.Env["BASE_URL"] = fmt.Sprintf("http://%s:%s", host, mapped.Port())
	return nil
}

// ExpandScript replaces ${NAME} references with values from vars
func ExpandScript(script string, vars map[string]string) string {
	return os.Expand(script, func(name string) string { return vars[name] })
}

// SplitStatements splits a SQL script into statements, dropping "--"
// comments outside of quoted strings
func SplitStatements(script string) []string {
	var (
		out   []string
		stmt  strings.Builder
		quote rune
	)
	for _, line := range strings.Split(script, "\n") {
		runes := []rune(line)
		for i := 0; i < len(runes); i++ {
			r := runes[i]
			switch {
			case quote != 0:
				if r == quote {
					quote = 0
				}
			case r == '\'' || r == '"':
				quote = r
			case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
				i = len(runes)
				continue
			case r == ';':
				if s := strings.TrimSpace(stmt.String()); s != "" {
					out = append(out, s)
				}
				stmt.Reset()
				continue
			}
			stmt.WriteRune(r)
		}
		stmt.WriteRune(' ')
	}
	if s := strings.TrimSpace(stmt.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func imageExists(ctx context.Context, imageName string) (bool, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false, err
	}
	defer cli.Close()

	images, err := cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return false, err
	}
	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == imageName {
				return true, nil
			}
		}
	}
	return false, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
