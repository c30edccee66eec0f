package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteNoteStore は SQLite に "notes" テーブルを持つ NoteStore の実装です
type sqliteNoteStore struct {
	db *sql.DB
}

func openSQLiteNoteStore(path string) (*sqliteNoteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	// 書き込みは1接続に集約する
	db.SetMaxOpenConns(1)

	store := &sqliteNoteStore{db: db}
	if err := store.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return store, nil
}

// initTables はテーブルが無ければ作成する
func (s *sqliteNoteStore) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS notes (
			id        TEXT PRIMARY KEY,
			title     TEXT NOT NULL,
			content   TEXT NOT NULL,
			latitude  REAL NOT NULL,
			longitude REAL NOT NULL,
			timestamp TEXT NOT NULL,
			position  INTEGER NOT NULL
		);
	`)
	return err
}

func (s *sqliteNoteStore) Get(ctx context.Context, id string) (*Note, error) {
	var note Note
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, latitude, longitude, timestamp
		FROM notes
		WHERE id = ?
	`, id).Scan(&note.ID, &note.Title, &note.Content,
		&note.Location.Latitude, &note.Location.Longitude, &note.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get", Err: err}
	}
	return &note, nil
}

func (s *sqliteNoteStore) GetAll(ctx context.Context) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, latitude, longitude, timestamp
		FROM notes
		ORDER BY position, id
	`)
	if err != nil {
		return nil, &StorageError{Op: "getAll", Err: err}
	}
	defer rows.Close()

	notes := []Note{}
	for rows.Next() {
		var note Note
		if err := rows.Scan(&note.ID, &note.Title, &note.Content,
			&note.Location.Latitude, &note.Location.Longitude, &note.Timestamp); err != nil {
			return nil, &StorageError{Op: "getAll", Err: err}
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "getAll", Err: err}
	}
	return notes, nil
}

// Put は id が既にあれば並び順を保ったまま上書きし、無ければ末尾に追加する
func (s *sqliteNoteStore) Put(ctx context.Context, note *Note) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, title, content, latitude, longitude, timestamp, position)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM notes))
		ON CONFLICT(id) DO UPDATE SET
			title     = excluded.title,
			content   = excluded.content,
			latitude  = excluded.latitude,
			longitude = excluded.longitude,
			timestamp = excluded.timestamp
	`, note.ID, note.Title, note.Content, note.Location.Latitude, note.Location.Longitude, note.Timestamp)
	if err != nil {
		return &StorageError{Op: "put", Err: err}
	}
	return nil
}

func (s *sqliteNoteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}

// ReplaceAll は1トランザクションで全件を削除し、指定順で挿入し直す
func (s *sqliteNoteStore) ReplaceAll(ctx context.Context, notes []Note) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "replaceAll", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes`); err != nil {
		return &StorageError{Op: "replaceAll", Err: err}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO notes (id, title, content, latitude, longitude, timestamp, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return &StorageError{Op: "replaceAll", Err: err}
	}
	defer stmt.Close()

	for i, note := range notes {
		if _, err := stmt.ExecContext(ctx, note.ID, note.Title, note.Content,
			note.Location.Latitude, note.Location.Longitude, note.Timestamp, i); err != nil {
			return &StorageError{Op: "replaceAll", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "replaceAll", Err: err}
	}
	return nil
}

func (s *sqliteNoteStore) Close() error {
	return s.db.Close()
}
