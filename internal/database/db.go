// Package database opens the SQL connections used by the mysql and sqlite
// show stores and applies their schema migrations.
package database

import (
    "context"
    "database/sql"
    "fmt"
    "os"
    "path/filepath"
    "time"

    _ "github.com/go-sql-driver/mysql"
    _ "github.com/mattn/go-sqlite3"
)

// MySQLDSN builds the go-sql-driver DSN for the given credentials.
func MySQLDSN(user, pass, host, port, name string) string {
    auth := user
    if pass != "" {
        auth = fmt.Sprintf("%s:%s", user, pass)
    }
    // parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
    return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
        auth, host, port, name)
}

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
    db, err := sql.Open("mysql", MySQLDSN(user, pass, host, port, name))
    if err != nil {
        return nil, err
    }

    // Pool settings
    db.SetMaxOpenConns(25)
    db.SetMaxIdleConns(25)
    db.SetConnMaxLifetime(30 * time.Minute)

    if err := ping(db); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("mysql ping: %w", err)
    }
    return db, nil
}

// OpenSQLite opens (creating if needed) the database file at path.  The
// parent directory is created when missing.
func OpenSQLite(path string) (*sql.DB, error) {
    if dir := filepath.Dir(path); dir != "" {
        if err := os.MkdirAll(dir, 0o755); err != nil {
            return nil, fmt.Errorf("create sqlite directory: %w", err)
        }
    }
    db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
    if err != nil {
        return nil, fmt.Errorf("open sqlite: %w", err)
    }
    // sqlite serialises writers; one connection avoids "database is locked".
    db.SetMaxOpenConns(1)
    if err := ping(db); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("sqlite ping: %w", err)
    }
    return db, nil
}

func ping(db *sql.DB) error {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    return db.PingContext(ctx)
}
