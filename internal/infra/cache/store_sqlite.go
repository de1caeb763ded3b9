package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a file-backed Store. It gives the cache the same role a
// browser's local storage plays: cheap, local, survives a restart, and still
// strictly a cache. MaxRows bounds the file the way a storage quota would.
type SQLiteStore struct {
	writeDB *sql.DB
	readDB  *sql.DB
	maxRows int
}

// OpenSQLiteStore opens (creating if needed) the cache database at dbPath.
// maxRows <= 0 means unbounded.
func OpenSQLiteStore(dbPath string, maxRows int) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &SQLiteStore{writeDB: writeDB, readDB: readDB, maxRows: maxRows}
	if err := s.init(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value BLOB NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// Close closes both database handles.
func (s *SQLiteStore) Close() error {
	var firstErr error
	for _, db := range []*sql.DB{s.readDB, s.writeDB} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Read returns the value stored under key.
func (s *SQLiteStore) Read(key string) ([]byte, bool, error) {
	var value []byte
	err := s.readDB.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Write stores value under key, returning ErrStoreFull when inserting a new
// key would exceed MaxRows.
func (s *SQLiteStore) Write(key string, value []byte) error {
	if s.maxRows > 0 {
		var exists bool
		if err := s.readDB.QueryRow(`SELECT EXISTS(SELECT 1 FROM kv WHERE key = ?)`, key).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			var count int
			if err := s.readDB.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&count); err != nil {
				return err
			}
			if count >= s.maxRows {
				return ErrStoreFull
			}
		}
	}

	_, err := s.writeDB.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Delete removes key.
func (s *SQLiteStore) Delete(key string) error {
	_, err := s.writeDB.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Keys lists every stored key.
func (s *SQLiteStore) Keys() ([]string, error) {
	rows, err := s.readDB.Query(`SELECT key FROM kv`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Vacuum reclaims free pages in the database file. Called from the worker's
// daily maintenance job.
func (s *SQLiteStore) Vacuum() error {
	_, err := s.writeDB.Exec(`VACUUM`)
	return err
}
