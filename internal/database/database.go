// Package database opens the PostgreSQL connection and applies embedded
// schema migrations.
package database

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Open connects to PostgreSQL at connStr and applies pending migrations.
func Open(connStr string) (*sql.DB, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}
	if err = migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migrate: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return err
	}

	var current int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), -1) FROM schema_version`)
	if err = row.Scan(&current); err != nil {
		return err
	}

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for i := current + 1; i < len(names); i++ {
		data, readErr := migrationFS.ReadFile("migrations/" + names[i])
		if readErr != nil {
			return fmt.Errorf("read migration %d: %w", i, readErr)
		}

		tx, txErr := db.Begin()
		if txErr != nil {
			return txErr
		}
		if _, err = tx.Exec(string(data)); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", names[i], err)
		}
		if _, err = tx.Exec(`INSERT INTO schema_version (version) VALUES ($1)`, i); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", names[i], err)
		}
		if err = tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}
