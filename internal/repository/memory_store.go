package repository

import (
    "context"
    "sort"
    "sync"

    "github.com/iliyamo/show-tracker/internal/model"
)

// MemoryStore keeps shows in a map guarded by a RWMutex.  Nothing survives
// a restart; it is the default backend for local development.
type MemoryStore struct {
    mu     sync.RWMutex
    shows  map[int64]model.Show
    nextID int64
}

// NewMemoryStore returns an empty store whose first assigned id is 1.
func NewMemoryStore() *MemoryStore {
    return &MemoryStore{shows: make(map[int64]model.Show), nextID: 1}
}

// List returns a copy of every show ordered by id.
func (m *MemoryStore) List(_ context.Context) ([]model.Show, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    out := make([]model.Show, 0, len(m.shows))
    for _, s := range m.shows {
        out = append(out, s)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (m *MemoryStore) GetByID(_ context.Context, id int64) (model.Show, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    s, ok := m.shows[id]
    if !ok {
        return model.Show{}, ErrShowNotFound
    }
    return s, nil
}

// Create assigns the next id.  A non-zero ID on the input is honoured so
// fixtures keep their ids; the counter then continues after the highest one.
func (m *MemoryStore) Create(_ context.Context, s model.Show) (model.Show, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    if s.ID == 0 {
        s.ID = m.nextID
    }
    if s.ID >= m.nextID {
        m.nextID = s.ID + 1
    }
    m.shows[s.ID] = s
    return s, nil
}

func (m *MemoryStore) UpdateByID(_ context.Context, id int64, p model.ShowPatch) (model.Show, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    cur, ok := m.shows[id]
    if !ok {
        return model.Show{}, ErrShowNotFound
    }
    upd := p.Apply(cur)
    m.shows[id] = upd
    return upd, nil
}

func (m *MemoryStore) DeleteByID(_ context.Context, id int64) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if _, ok := m.shows[id]; !ok {
        return ErrShowNotFound
    }
    delete(m.shows, id)
    return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
