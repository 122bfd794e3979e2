package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("store: run not found")

// Entry is one indexed run.
type Entry struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Model   string    `json:"model"`
	Kind    string    `json:"kind"`
	Target  string    `json:"target,omitempty"`
	Voltage float64   `json:"voltage"`
	Value   float64   `json:"value"`
	Created time.Time `json:"created"`
}

// Index keeps a queryable record of saved runs next to the run
// directories.
type Index struct {
	db *sql.DB
}

// migrations run in order; the schema version is PRAGMA user_version.
var migrations = []string{
	`CREATE TABLE runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		model TEXT NOT NULL,
		kind TEXT NOT NULL,
		voltage REAL NOT NULL,
		value REAL NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX idx_runs_created ON runs(created_at);`,
	`ALTER TABLE runs ADD COLUMN target TEXT NOT NULL DEFAULT '';
	CREATE INDEX idx_runs_kind ON runs(kind);`,
}

// Open opens or creates the index at path; ":memory:" gives a private
// in-memory index.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	idx := &Index{db: db}
	if err := idx.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return idx, nil
}

func (x *Index) Close() error {
	return x.db.Close()
}

func (x *Index) Version(ctx context.Context) (int, error) {
	var v int
	err := x.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}

func (x *Index) migrate(ctx context.Context) error {
	version, err := x.Version(ctx)
	if err != nil {
		return err
	}
	for i := version; i < len(migrations); i++ {
		tx, err := x.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Record inserts or replaces e.
func (x *Index) Record(ctx context.Context, e Entry) error {
	if e.Created.IsZero() {
		e.Created = time.Now()
	}
	_, err := x.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, name, model, kind, target, voltage, value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Name, e.Model, e.Kind, e.Target, e.Voltage, e.Value, e.Created.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", e.ID, err)
	}
	return nil
}

// ListOptions filters List; zero values match everything.
type ListOptions struct {
	Kind  string
	Model string
	Limit int
}

// List returns runs newest first.
func (x *Index) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	query := `SELECT id, name, model, kind, target, voltage, value, created_at FROM runs WHERE 1 = 1`
	var args []any
	if opts.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, opts.Kind)
	}
	if opts.Model != "" {
		query += ` AND model = ?`
		args = append(args, opts.Model)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := x.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return entries, nil
}

func (x *Index) Get(ctx context.Context, id string) (Entry, error) {
	row := x.db.QueryRowContext(ctx, `
		SELECT id, name, model, kind, target, voltage, value, created_at FROM runs WHERE id = ?
	`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

func (x *Index) Delete(ctx context.Context, id string) error {
	res, err := x.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e       Entry
		created int64
	)
	if err := s.Scan(&e.ID, &e.Name, &e.Model, &e.Kind, &e.Target, &e.Voltage, &e.Value, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("failed to scan run: %w", err)
	}
	e.Created = time.Unix(0, created)
	return e, nil
}
