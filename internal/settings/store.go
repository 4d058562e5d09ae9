package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"shinyhunt.ai/internal/catalog"
)

// Store is the get/set contract settings are persisted through.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context) (map[string]string, error)
	Close() error
}

type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) List(context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

// SQLiteStore keeps settings in a single key/value table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`)
	return err
}

// Path is the database file, used by the watcher.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings(key, value, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Entry is one key with its stored value.
type Entry struct {
	Key     string
	Value   string
	Default string
	Known   bool
}

// Entries lists every known key plus any unknown stored key, sorted by key.
func Entries(ctx context.Context, st Store) ([]Entry, error) {
	values, err := st.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(keyDefs))
	for _, d := range keyDefs {
		v, ok := values[d.key]
		if !ok {
			v = d.def
		}
		out = append(out, Entry{Key: d.key, Value: v, Default: d.def, Known: true})
	}
	for _, k := range sortedKeys(values) {
		if _, ok := keyIndex[k]; !ok {
			out = append(out, Entry{Key: k, Value: values[k]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Seed writes the default of every key missing from st. It reports whether
// the store was empty, i.e. this is the first boot.
func Seed(ctx context.Context, st Store) (firstBoot bool, err error) {
	values, err := st.List(ctx)
	if err != nil {
		return false, err
	}
	for _, d := range keyDefs {
		if _, ok := values[d.key]; ok {
			continue
		}
		if err := st.Set(ctx, d.key, d.def); err != nil {
			return false, err
		}
	}
	return len(values) == 0, nil
}

// Set validates value for key before storing it. cat may be nil.
func Set(ctx context.Context, st Store, cat *catalog.Catalog, key, value string) error {
	if err := Validate(key, value, cat); err != nil {
		return err
	}
	return st.Set(ctx, key, value)
}

// Reset restores the default of key.
func Reset(ctx context.Context, st Store, key string) error {
	def, err := Default(key)
	if err != nil {
		return err
	}
	return st.Set(ctx, key, def)
}
