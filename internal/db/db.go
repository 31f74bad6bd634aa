package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// driverAliases maps DB_DRIVER values to registered database/sql drivers.
var driverAliases = map[string]string{
	"postgres":   "pgx",
	"postgresql": "pgx",
	"sqlite3":    "sqlite",
}

// DriverName resolves a configured driver to the registered driver name.
func DriverName(driver string) string {
	if name, ok := driverAliases[driver]; ok {
		return name
	}
	return driver
}

func Init(driver, connection string) (*sqlx.DB, error) {
	driver = DriverName(driver)

	// SQLite: create data directory for file databases
	if driver == "sqlite" && !strings.Contains(connection, ":memory:") {
		path, _, _ := strings.Cut(strings.TrimPrefix(connection, "file:"), "?")
		err := os.MkdirAll(filepath.Dir(path), 0755)
		if err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Open(driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == "sqlite" {
		// One writer at a time; readers share the WAL
		db.SetMaxOpenConns(8)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connected", "driver", driver)
	return db, nil
}

func Close(db *sqlx.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
