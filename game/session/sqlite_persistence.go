package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS sessions (
	id               TEXT PRIMARY KEY,
	config_name      TEXT NOT NULL,
	data             TEXT NOT NULL,
	created_at       INTEGER NOT NULL,
	last_accessed_at INTEGER NOT NULL
)`

const sqliteTimeout = 5 * time.Second

// SQLitePersistence implements SessionPersistence with one row per session
type SQLitePersistence struct {
	db    *sql.DB
	codec codec
}

// NewSQLitePersistence opens (or creates) the database at path
func NewSQLitePersistence(path string, configManager service.ConfigManager) (*SQLitePersistence, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	return &SQLitePersistence{
		db:    db,
		codec: codec{configManager: configManager},
	}, nil
}

// Close closes the SQLite handle
func (sp *SQLitePersistence) Close() error {
	if sp == nil || sp.db == nil {
		return nil
	}
	return sp.db.Close()
}

// Save upserts the session row
func (sp *SQLitePersistence) Save(session *service.Session) error {
	data, err := sp.codec.encode(session)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), sqliteTimeout)
	defer cancel()

	_, err = sp.db.ExecContext(ctx,
		`INSERT INTO sessions (id, config_name, data, created_at, last_accessed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   config_name = excluded.config_name,
		   data = excluded.data,
		   last_accessed_at = excluded.last_accessed_at`,
		strings.ToLower(session.ID),
		sp.codec.configID(session.Config),
		string(data),
		session.CreatedAt.UTC().UnixMilli(),
		session.LastAccessed().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	return nil
}

// Load reads and restores a session row
func (sp *SQLitePersistence) Load(id string) (*service.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteTimeout)
	defer cancel()

	var data string
	err := sp.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ?`, strings.ToLower(id)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	return sp.codec.decode([]byte(data))
}

// Delete removes the session row
func (sp *SQLitePersistence) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteTimeout)
	defer cancel()

	res, err := sp.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, strings.ToLower(id))
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns every stored session id, most recently used first
func (sp *SQLitePersistence) ListAll() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteTimeout)
	defer cancel()

	rows, err := sp.db.QueryContext(ctx, `SELECT id FROM sessions ORDER BY last_accessed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists reports whether a row exists for the id
func (sp *SQLitePersistence) Exists(id string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteTimeout)
	defer cancel()

	var one int
	err := sp.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, strings.ToLower(id)).Scan(&one)
	return err == nil
}

// DeleteOlderThan removes rows not accessed since cutoff and returns how many went.
// Rows named in keep survive regardless of age.
func (sp *SQLitePersistence) DeleteOlderThan(cutoff time.Time, keep ...string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteTimeout)
	defer cancel()

	query := `DELETE FROM sessions WHERE last_accessed_at < ?`
	args := []any{cutoff.UTC().UnixMilli()}
	if len(keep) > 0 {
		query += ` AND id NOT IN (?` + strings.Repeat(`, ?`, len(keep)-1) + `)`
		for _, id := range keep {
			args = append(args, strings.ToLower(id))
		}
	}

	res, err := sp.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
