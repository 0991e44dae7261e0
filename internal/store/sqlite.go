package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS preferences (
        namespace TEXT NOT NULL,
        key TEXT NOT NULL,
        value TEXT NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (namespace, key)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// Preferences returns a handle on one key-value namespace.
func (s *SQLiteStore) Preferences(namespace string) *Preferences {
	return &Preferences{db: s.db, namespace: namespace}
}

// Preferences is a flat key-value namespace. Values are stored as text;
// typed getters report found=false both for a missing key and for a value
// that does not parse as the requested type.
type Preferences struct {
	db        *sql.DB
	namespace string
}

func (p *Preferences) Namespace() string {
	return p.namespace
}

func (p *Preferences) GetString(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.db.QueryRowContext(ctx,
		"SELECT value FROM preferences WHERE namespace = ? AND key = ?", p.namespace, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read preference %s/%s: %w", p.namespace, key, err)
	}
	return value, true, nil
}

func (p *Preferences) GetInt(ctx context.Context, key string) (int, bool, error) {
	raw, ok, err := p.GetString(ctx, key)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

// GetBool returns defaultValue when the key is absent.
func (p *Preferences) GetBool(ctx context.Context, key string, defaultValue bool) (bool, error) {
	raw, ok, err := p.GetString(ctx, key)
	if err != nil {
		return defaultValue, err
	}
	if !ok {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue, nil
	}
	return b, nil
}

// Edit applies all changes recorded by fn in a single transaction.
func (p *Preferences) Edit(ctx context.Context, fn func(e *Editor)) error {
	e := &Editor{}
	fn(e)
	if len(e.ops) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin preferences transaction: %w", err)
	}
	defer tx.Rollback()

	for _, op := range e.ops {
		if op.remove {
			_, err = tx.ExecContext(ctx,
				"DELETE FROM preferences WHERE namespace = ? AND key = ?", p.namespace, op.key)
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO preferences (namespace, key, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
                 ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				p.namespace, op.key, op.value)
		}
		if err != nil {
			return fmt.Errorf("failed to write preference %s/%s: %w", p.namespace, op.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit preferences: %w", err)
	}
	return nil
}

// Clear removes every key in the namespace.
func (p *Preferences) Clear(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, "DELETE FROM preferences WHERE namespace = ?", p.namespace)
	if err != nil {
		return fmt.Errorf("failed to clear preferences %s: %w", p.namespace, err)
	}
	return nil
}

// Editor records changes for Preferences.Edit.
type Editor struct {
	ops []editOp
}

type editOp struct {
	key    string
	value  string
	remove bool
}

func (e *Editor) PutString(key, value string) {
	e.ops = append(e.ops, editOp{key: key, value: value})
}

func (e *Editor) PutInt(key string, value int) {
	e.PutString(key, strconv.Itoa(value))
}

func (e *Editor) PutBool(key string, value bool) {
	e.PutString(key, strconv.FormatBool(value))
}

// PutOptional stores value when non-nil and removes the key otherwise.
func (e *Editor) PutOptional(key string, value *string) {
	if value == nil {
		e.Remove(key)
		return
	}
	e.PutString(key, *value)
}

func (e *Editor) Remove(key string) {
	e.ops = append(e.ops, editOp{key: key, remove: true})
}
