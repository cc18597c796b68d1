// Package repository contains data access logic for shows.  Every backend
// implements ShowStore so handlers never know whether records live in
// process memory, MySQL, SQLite or Redis.
package repository

import (
    "context"
    "fmt"

    "github.com/iliyamo/show-tracker/internal/model"
)

// ShowStore is the record store consumed by the HTTP handlers.  Ids are
// assigned by the store on Create and never reused within a process.
type ShowStore interface {
    // List returns every show ordered by id.
    List(ctx context.Context) ([]model.Show, error)

    // GetByID returns ErrShowNotFound when the id is unknown.
    GetByID(ctx context.Context, id int64) (model.Show, error)

    // Create stores a new show and returns it with its assigned id.
    Create(ctx context.Context, s model.Show) (model.Show, error)

    // UpdateByID merges the supplied patch fields into the show and
    // returns the updated record.  An empty patch returns the record
    // unchanged.
    UpdateByID(ctx context.Context, id int64, p model.ShowPatch) (model.Show, error)

    // DeleteByID removes the show.  It returns ErrShowNotFound when there
    // was nothing to remove.
    DeleteByID(ctx context.Context, id int64) error

    // Close releases connections held by the backend.
    Close() error
}

// Driver names accepted by New.
const (
    DriverMemory = "memory"
    DriverMySQL  = "mysql"
    DriverSQLite = "sqlite"
    DriverRedis  = "redis"
)

// FilterMinEpisodes returns the shows whose EpisodesSeen is at least min,
// preserving order.  The result is never nil so it always encodes as a
// JSON array.
func FilterMinEpisodes(shows []model.Show, min int) []model.Show {
    out := make([]model.Show, 0, len(shows))
    for _, s := range shows {
        if s.EpisodesSeen >= min {
            out = append(out, s)
        }
    }
    return out
}

func validateDriver(name string) error {
    switch name {
    case DriverMemory, DriverMySQL, DriverSQLite, DriverRedis:
        return nil
    }
    return fmt.Errorf("%w: %q", ErrUnknownDriver, name)
}
