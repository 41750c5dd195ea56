// containers.go
//
// A test case management data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of testcasedb.
// testcasedb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// testcasedb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with testcasedb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/localnerve/testcasedb/data"
	"github.com/localnerve/testcasedb/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Fixed credentials created by the bootstrap SQL and container env.
const (
	containerDatabase = "testcasedb"
	containerUser     = "testcase"
	containerPassword = "testcase"
	containerRootPass = "testcase-root"
)

// DBContainer is a running database container and the config that reaches it.
type DBContainer struct {
	Container testcontainers.Container
	Config    *config.Config
}

// Terminate stops the container.
func (c *DBContainer) Terminate(t *testing.T) {
	if c == nil || c.Container == nil {
		return
	}
	if err := c.Container.Terminate(context.Background()); err != nil {
		logMessage(t, "Failed to terminate database container: %v", err)
	}
}

// ContainerImage returns the image configured for dbType, or "".
// MySQL and MariaDB use DB_IMAGE, Postgres uses POSTGRES_IMAGE.
func ContainerImage(dbType string) string {
	switch dbType {
	case "postgres":
		return os.Getenv("POSTGRES_IMAGE")
	case "mysql", "mariadb":
		return os.Getenv("DB_IMAGE")
	}
	return ""
}

// RequireContainer skips t in short mode or when no image is configured.
func RequireContainer(t *testing.T, dbType string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	if ContainerImage(dbType) == "" {
		t.Skipf("no container image configured for %s", dbType)
	}
}

// StartDatabase starts a database container of dbType and prepares it for the service.
func StartDatabase(ctx context.Context, t *testing.T, dbType string) (*DBContainer, error) {
	image := ContainerImage(dbType)
	if image == "" {
		return nil, fmt.Errorf("no image configured for %s", dbType)
	}

	var (
		port     nat.Port
		env      map[string]string
		strategy wait.Strategy
	)
	switch dbType {
	case "postgres":
		port = "5432/tcp"
		env = map[string]string{
			"POSTGRES_PASSWORD": containerPassword,
			"POSTGRES_USER":     containerUser,
			"POSTGRES_DB":       containerDatabase,
		}
		strategy = wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second)
	case "mysql", "mariadb":
		port = "3306/tcp"
		env = map[string]string{
			"MYSQL_ROOT_PASSWORD": containerRootPass,
		}
		strategy = wait.ForListeningPort(port).WithStartupTimeout(60 * time.Second)
	default:
		return nil, fmt.Errorf("unsupported container database type: %s", dbType)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{string(port)},
			Env:          env,
			WaitingFor:   strategy,
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start %s container: %w", dbType, err)
	}
	result := &DBContainer{Container: container}

	host, err := container.Host(ctx)
	if err != nil {
		result.Terminate(t)
		return nil, err
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		result.Terminate(t)
		return nil, err
	}

	if dbType != "postgres" {
		if err := performMySQLInit(ctx, host, mapped.Port()); err != nil {
			result.Terminate(t)
			return nil, err
		}
	}

	result.Config = &config.Config{
		Env:               "development",
		DBType:            dbType,
		DBHost:            host,
		DBPort:            mapped.Port(),
		DBDatabase:        containerDatabase,
		DBUser:            containerUser,
		DBPassword:        containerPassword,
		DBConnectionLimit: 5,
		IDAllocator:       config.AllocatorCounter,
		ActivityTimeout:   5 * time.Second,
	}
	logMessage(t, "%s container listening at %s:%s", dbType, host, mapped.Port())
	return result, nil
}

func performMySQLInit(ctx context.Context, host, port string) error {
	db, err := sql.Open("mysql", fmt.Sprintf("root:%s@tcp(%s:%s)/", containerRootPass, host, port))
	if err != nil {
		return fmt.Errorf("connect to mysql for setup: %w", err)
	}
	defer db.Close()

	// Wait for connection to be really ready
	for i := 0; i < 30; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	if err != nil {
		return fmt.Errorf("mysql not ready after 30 seconds: %w", err)
	}

	if err := executeSQL(ctx, db, data.InitdbMySQLDatabase); err != nil {
		return fmt.Errorf("database init sql: %w", err)
	}
	if err := executeSQL(ctx, db, data.InitdbMySQLPrivileges); err != nil {
		return fmt.Errorf("privileges init sql: %w", err)
	}
	return nil
}

// executeSQL runs each statement of a script. Line comments are dropped.
func executeSQL(ctx context.Context, db *sql.DB, script string) error {
	var lines []string
	for _, l := range strings.Split(script, "\n") {
		if i := strings.Index(l, "--"); i >= 0 {
			l = l[:i]
		}
		lines = append(lines, l)
	}

	for _, q := range strings.Split(strings.Join(lines, "\n"), ";") {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%s : when executing > %s", err.Error(), q)
		}
	}
	return nil
}

func logMessage(t *testing.T, format string, args ...interface{}) {
	if t != nil {
		t.Helper()
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
