package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ttlearn/internal/config"
	"ttlearn/internal/errors"
)

// DriverFor maps the database configuration to a driver name and DSN. A
// configured DATABASE_URL selects PostgreSQL; otherwise the local SQLite
// fallback file is used.
func DriverFor(cfg config.DatabaseConfig) (driver, dsn string) {
	if cfg.URL != "" {
		return "postgres", cfg.URL
	}
	return "sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", cfg.Fallback)
}

// Connect opens the run history database and verifies the connection.
func Connect(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	driver, dsn := DriverFor(cfg)
	conn, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s database", driver)
	}
	if driver == "sqlite" {
		// modernc's driver is not safe for concurrent writes over one file
		// without serializing access.
		conn.SetMaxOpenConns(1)
	}
	return conn, nil
}
