package repository

import (
    "context"      // context for controlling query lifetime
    "database/sql" // sql provides DB abstraction
    "errors"
    "fmt"
    "sort"
    "strings"

    "github.com/iliyamo/show-tracker/internal/model"
)

// SQLStore persists shows in the `shows` table of a MySQL or SQLite
// database.  Both dialects accept `?` placeholders and report
// LastInsertId, so one implementation serves both drivers.  The schema is
// created by database.Migrate.
type SQLStore struct {
    db *sql.DB
}

// NewSQLStore constructs a SQLStore with the given DB handle.
func NewSQLStore(db *sql.DB) *SQLStore {
    return &SQLStore{db: db}
}

// DB exposes the underlying sql.DB.
func (r *SQLStore) DB() *sql.DB {
    return r.db
}

// List returns all shows ordered by id.  When the table is empty it returns
// an empty slice and nil error.
func (r *SQLStore) List(ctx context.Context) ([]model.Show, error) {
    const q = `SELECT id, name, episodes_seen FROM shows ORDER BY id ASC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, fmt.Errorf("list shows: %w", err)
    }
    defer rows.Close()
    result := []model.Show{}
    for rows.Next() {
        var s model.Show
        if err := rows.Scan(&s.ID, &s.Name, &s.EpisodesSeen); err != nil {
            return nil, fmt.Errorf("scan show: %w", err)
        }
        result = append(result, s)
    }
    if err := rows.Err(); err != nil {
        return nil, fmt.Errorf("list shows: %w", err)
    }
    return result, nil
}

// GetByID retrieves a show by its ID.  It returns ErrShowNotFound if
// there is no matching row.
func (r *SQLStore) GetByID(ctx context.Context, id int64) (model.Show, error) {
    const q = `SELECT id, name, episodes_seen FROM shows WHERE id = ?`
    var s model.Show
    err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Name, &s.EpisodesSeen)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.Show{}, ErrShowNotFound
        }
        return model.Show{}, fmt.Errorf("get show %d: %w", id, err)
    }
    return s, nil
}

// Create inserts a new show and returns it with the generated ID.  A
// non-zero ID is inserted verbatim, which is how fixtures keep their ids.
func (r *SQLStore) Create(ctx context.Context, s model.Show) (model.Show, error) {
    var (
        res sql.Result
        err error
    )
    if s.ID != 0 {
        res, err = r.db.ExecContext(ctx, `INSERT INTO shows (id, name, episodes_seen) VALUES (?, ?, ?)`, s.ID, s.Name, s.EpisodesSeen)
    } else {
        res, err = r.db.ExecContext(ctx, `INSERT INTO shows (name, episodes_seen) VALUES (?, ?)`, s.Name, s.EpisodesSeen)
    }
    if err != nil {
        return model.Show{}, fmt.Errorf("insert show: %w", err)
    }
    id, err := res.LastInsertId() // obtain the auto-incremented ID
    if err != nil {
        return model.Show{}, fmt.Errorf("insert show: %w", err)
    }
    s.ID = id
    return s, nil
}

// UpdateByID updates only the columns present in the patch.  MySQL reports
// zero affected rows when the values are unchanged, so RowsAffected cannot
// tell "not found" from "no change"; the row is re-read instead.
func (r *SQLStore) UpdateByID(ctx context.Context, id int64, p model.ShowPatch) (model.Show, error) {
    fields := p.Fields()
    if len(fields) == 0 {
        return r.GetByID(ctx, id)
    }
    cols := make([]string, 0, len(fields))
    for col := range fields {
        cols = append(cols, col)
    }
    sort.Strings(cols)
    sets := make([]string, 0, len(cols))
    args := make([]any, 0, len(cols)+1)
    for _, col := range cols {
        sets = append(sets, col+" = ?")
        args = append(args, fields[col])
    }
    args = append(args, id)

    q := `UPDATE shows SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
    if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
        return model.Show{}, fmt.Errorf("update show %d: %w", id, err)
    }
    // The re-read doubles as the existence check.
    return r.GetByID(ctx, id)
}

// DeleteByID removes the row and returns ErrShowNotFound when nothing was
// deleted.
func (r *SQLStore) DeleteByID(ctx context.Context, id int64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM shows WHERE id = ?`, id)
    if err != nil {
        return fmt.Errorf("delete show %d: %w", id, err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return fmt.Errorf("delete show %d: %w", id, err)
    }
    if n == 0 {
        return ErrShowNotFound
    }
    return nil
}

// Close closes the underlying pool.
func (r *SQLStore) Close() error {
    return r.db.Close()
}
