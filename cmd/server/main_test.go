package main

import (
    "context"
    "path/filepath"
    "testing"

    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/show-tracker/internal/config"
    "github.com/iliyamo/show-tracker/internal/repository"
)

func TestOpenStore_Memory(t *testing.T) {
    cfg := &config.Config{Store: config.StoreConfig{Driver: repository.DriverMemory}}

    store, err := openStore(cfg, nil)
    require.NoError(t, err)
    defer store.Close()
    assert.IsType(t, &repository.MemoryStore{}, store)
}

func TestOpenStore_SQLiteSeeded(t *testing.T) {
    cfg := &config.Config{Store: config.StoreConfig{
        Driver:     repository.DriverSQLite,
        SQLitePath: filepath.Join(t.TempDir(), "data", "shows.db"),
    }}

    store, err := openStore(cfg, nil)
    require.NoError(t, err)
    defer store.Close()

    seedStore(store, zerolog.Nop())
    seedStore(store, zerolog.Nop()) // second run is a no-op

    shows, err := store.List(context.Background())
    require.NoError(t, err)
    want, err := repository.DefaultShows()
    require.NoError(t, err)
    assert.Len(t, shows, len(want))
}

func TestOpenStore_RedisWithoutClient(t *testing.T) {
    cfg := &config.Config{Store: config.StoreConfig{Driver: repository.DriverRedis}}

    _, err := openStore(cfg, nil)
    assert.Error(t, err)
}
