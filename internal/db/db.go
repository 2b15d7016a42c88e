package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens the SQLite database and runs migrations.
func Connect(path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_loc=UTC&_busy_timeout=5000", path)
	database, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	// SQLite allows a single writer; serializing through one connection
	// avoids SQLITE_BUSY under concurrent handlers.
	database.SetMaxOpenConns(1)

	if err := runMigrations(database); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return database, nil
}

func runMigrations(database *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS messages (
            id TEXT PRIMARY KEY,
            username TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'general',
            content TEXT NOT NULL,
            created_at TIMESTAMP NOT NULL,
            reply_to TEXT NOT NULL DEFAULT '',
            reply_to_username TEXT NOT NULL DEFAULT '',
            reply_to_content TEXT NOT NULL DEFAULT '',
            reactions TEXT NOT NULL DEFAULT '{}'
        );`,
		`CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at);`,
	}

	for _, m := range migrations {
		if _, err := database.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
