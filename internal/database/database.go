package database

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection shared by the user store and metric persistence.
type DB struct {
	conn *sql.DB
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		telegram_id INTEGER PRIMARY KEY
	);`,
	`CREATE TABLE IF NOT EXISTS favorites (
		telegram_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (telegram_id, symbol)
	);`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		telegram_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		target_price REAL NOT NULL,
		reference_price REAL NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS alerts_telegram_id ON alerts (telegram_id);`,
	`CREATE TABLE IF NOT EXISTS metrics (
		metric_name TEXT NOT NULL,
		label_key TEXT NOT NULL DEFAULT '',
		label_value TEXT NOT NULL DEFAULT '',
		metric_value REAL NOT NULL,
		PRIMARY KEY (metric_name, label_key, label_value)
	);`,
}

// Open connects to the SQLite file at dbPath and applies the schema.
func Open(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "could not create database directory %s", dir)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	// a single connection avoids SQLITE_BUSY between concurrent handlers
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to configure database")
	}

	for _, query := range migrations {
		if _, err := conn.Exec(query); err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "failed to migrate database")
		}
	}

	log.WithField("path", dbPath).Debug("Database initialized successfully.")
	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
