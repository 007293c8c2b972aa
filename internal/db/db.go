package db

import (
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

// Init opens the database for the configured driver. driver is "sqlite" or
// "pgx"; connection is a file path (plus optional pragmas) for sqlite and a
// postgres URL for pgx.
func Init(driver, connection string) (*sqlx.DB, error) {
	if driver == "sqlite" {
		connection = sqliteDSN(connection)
		if dir := filepath.Dir(strings.SplitN(connection, "?", 2)[0]); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	database, err := sqlx.Connect(driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	database.SetMaxOpenConns(25)
	database.SetMaxIdleConns(5)
	database.SetConnMaxLifetime(5 * time.Minute)

	if err := database.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connected", "driver", driver)
	return database, nil
}

// sqliteDSN guarantees foreign key enforcement on every pooled connection.
// The comment/reply cascades delete children explicitly, but the schema FKs
// are the backstop and must not silently no-op.
func sqliteDSN(connection string) string {
	if strings.Contains(connection, "_pragma=foreign_keys") {
		return connection
	}
	sep := "?"
	if strings.Contains(connection, "?") {
		sep = "&"
	}
	return connection + sep + "_pragma=foreign_keys(1)"
}

func Close(database *sqlx.DB) error {
	if database != nil {
		return database.Close()
	}
	return nil
}
