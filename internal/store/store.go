// Package store handles SQLite persistence of the imported character index.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when no row matches.
var ErrNotFound = errors.New("character not indexed")

// Store wraps SQLite access for imported characters.
type Store struct {
	db *sql.DB
}

// Entry is an indexed imported character.
type Entry struct {
	ID         string
	FilePath   string
	SourcePath string
	Frames     int
	Width      int
	Height     int
	ImportedAt time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS characters (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			file_path TEXT NOT NULL,
			source_path TEXT NOT NULL,
			frames INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			imported_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertCharacter indexes an imported character.
func (s *Store) InsertCharacter(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO characters (id, file_path, source_path, frames, width, height, imported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.FilePath,
		e.SourcePath,
		e.Frames,
		e.Width,
		e.Height,
		e.ImportedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// DeleteCharacter removes a character from the index.
func (s *Store) DeleteCharacter(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCharacter returns one indexed character.
func (s *Store) GetCharacter(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, file_path, source_path, frames, width, height, imported_at
		 FROM characters WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// ListCharacters returns indexed characters in import order.
func (s *Store) ListCharacters(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_path, source_path, frames, width, height, imported_at
		 FROM characters
		 ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var importedAt string
	if err := row.Scan(&e.ID, &e.FilePath, &e.SourcePath, &e.Frames, &e.Width, &e.Height, &importedAt); err != nil {
		return Entry{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, importedAt)
	if err != nil {
		return Entry{}, err
	}
	e.ImportedAt = parsed
	return e, nil
}
