// Package store keeps frozen projection snapshots in a SQLite document table.
// Rows are written once and never updated.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/internal/snapshot"

	_ "modernc.org/sqlite" // register sqlite driver
)

var (
	// ErrNotFound is returned when no snapshot has the requested id.
	ErrNotFound = errors.New("snapshot not found")
	// ErrExists is returned when saving an id that is already stored.
	ErrExists = errors.New("snapshot already exists")
)

// createdAtLayout has a fixed width so the text column sorts chronologically.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite-backed snapshot store.
type Store struct {
	db *sql.DB
}

// Entry is a stored snapshot without its document.
type Entry struct {
	ID            string    `json:"id"`
	GroupID       string    `json:"groupId"`
	Name          string    `json:"name"`
	SchemaVersion int       `json:"schemaVersion"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Open opens or creates the snapshot database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating snapshot dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening snapshot db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the snapshot database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a snapshot document.
func (s *Store) Save(ctx context.Context, snap model.ProjectionSnapshot) error {
	data, err := snapshot.Marshal(snap)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO snapshots
		(id, group_id, name, schema_version, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.GroupID, snap.Name, snap.SchemaVersion, string(data),
		snap.CreatedAt.UTC().Format(createdAtLayout),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrExists, snap.ID)
		}
		return fmt.Errorf("saving snapshot %s: %w", snap.ID, err)
	}
	return nil
}

// Get returns the raw stored document for snapshot.Load.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM snapshots WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", id, err)
	}
	return []byte(data), nil
}

// List returns a group's snapshots, newest first. An empty groupID lists
// every group.
func (s *Store) List(ctx context.Context, groupID string) ([]Entry, error) {
	query := "SELECT id, group_id, name, schema_version, created_at FROM snapshots"
	var args []any
	if groupID != "" {
		query += " WHERE group_id = ?"
		args = append(args, groupID)
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Name, &e.SchemaVersion, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(createdAtLayout, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes a snapshot.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
