package database

import (
    "database/sql"
    "embed"
    "fmt"

    "github.com/pressly/goose/v3"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var embedMigrations embed.FS

// dialects maps store driver names to goose dialects and migration dirs.
var dialects = map[string]struct {
    goose string
    dir   string
}{
    "mysql":  {goose: "mysql", dir: "migrations/mysql"},
    "sqlite": {goose: "sqlite3", dir: "migrations/sqlite"},
}

// Migrate brings the schema for driver ("mysql" or "sqlite") up to date.
func Migrate(db *sql.DB, driver string) error {
    d, ok := dialects[driver]
    if !ok {
        return fmt.Errorf("no migrations for driver %q", driver)
    }
    goose.SetBaseFS(embedMigrations)
    if err := goose.SetDialect(d.goose); err != nil {
        return fmt.Errorf("failed to set goose dialect: %w", err)
    }
    if err := goose.Up(db, d.dir); err != nil {
        return fmt.Errorf("failed to run migrations: %w", err)
    }
    return nil
}

// Version reports the applied migration version.
func Version(db *sql.DB) (int64, error) {
    v, err := goose.GetDBVersion(db)
    if err != nil {
        return 0, fmt.Errorf("failed to get database version: %w", err)
    }
    return v, nil
}
