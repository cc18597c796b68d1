package database

import (
    "os"
    "path/filepath"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestMySQLDSN(t *testing.T) {
    assert.Equal(t,
        "app:secret@tcp(db:3306)/shows?charset=utf8mb4&parseTime=true&loc=UTC",
        MySQLDSN("app", "secret", "db", "3306", "shows"))
    assert.Equal(t,
        "root@tcp(localhost:3306)/shows?charset=utf8mb4&parseTime=true&loc=UTC",
        MySQLDSN("root", "", "localhost", "3306", "shows"))
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
    path := filepath.Join(t.TempDir(), "data", "shows.db")

    db, err := OpenSQLite(path)
    require.NoError(t, err)
    defer db.Close()

    _, err = os.Stat(path)
    require.NoError(t, err, "database file should be created")

    require.NoError(t, Migrate(db, "sqlite"))
    // Running twice is a no-op.
    require.NoError(t, Migrate(db, "sqlite"))

    v, err := Version(db)
    require.NoError(t, err)
    assert.Equal(t, int64(1), v)

    _, err = db.Exec(`INSERT INTO shows (name, episodes_seen) VALUES (?, ?)`, "Dark", 26)
    assert.NoError(t, err)
}

func TestMigrate_UnknownDriver(t *testing.T) {
    db, err := OpenSQLite(filepath.Join(t.TempDir(), "x.db"))
    require.NoError(t, err)
    defer db.Close()

    assert.Error(t, Migrate(db, "postgres"))
}
