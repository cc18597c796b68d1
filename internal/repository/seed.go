package repository

import (
    "context"
    _ "embed"
    "encoding/json"
    "fmt"

    "github.com/iliyamo/show-tracker/internal/model"
)

//go:embed fixtures/shows.json
var defaultFixture []byte

// DefaultShows returns the records of the bundled fixture.
func DefaultShows() ([]model.Show, error) {
    return ParseFixture(defaultFixture)
}

// ParseFixture decodes a fixture of the form {"shows": [...]}.
func ParseFixture(data []byte) ([]model.Show, error) {
    var fx struct {
        Shows []model.Show `json:"shows"`
    }
    if err := json.Unmarshal(data, &fx); err != nil {
        return nil, fmt.Errorf("parse fixture: %w", err)
    }
    return fx.Shows, nil
}

// Seed inserts shows into st when it is empty and returns how many were
// written.  A store that already holds records is left untouched so durable
// backends are only seeded once.
func Seed(ctx context.Context, st ShowStore, shows []model.Show) (int, error) {
    existing, err := st.List(ctx)
    if err != nil {
        return 0, err
    }
    if len(existing) > 0 {
        return 0, nil
    }
    for i, s := range shows {
        if _, err := st.Create(ctx, s); err != nil {
            return i, fmt.Errorf("seed show %q: %w", s.Name, err)
        }
    }
    return len(shows), nil
}
