// Package session persists cursor positions between fileslice invocations.
//
// A session records the root a cursor was created with, its patterns and its
// latest position. The CLI loads the session before each command and stores
// the new position afterwards, so that consecutive commands behave like calls
// on one long-lived cursor.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when no session matches.
var ErrNotFound = errors.New("session not found")

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Session is one persisted cursor.
type Session struct {
	ID        string
	Root      string
	Position  string
	Patterns  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store manages the SQLite session database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the session database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// execWithRetry executes a statement with exponential backoff on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Create stores a new session positioned at root.
func (s *Store) Create(ctx context.Context, root string, patterns []string) (*Session, error) {
	patternsJSON, err := json.Marshal(patterns)
	if err != nil {
		return nil, fmt.Errorf("marshal patterns: %w", err)
	}

	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.New().String(),
		Root:      root,
		Position:  root,
		Patterns:  append([]string(nil), patterns...),
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `INSERT INTO sessions (id, root, position, patterns, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		sess.ID, sess.Root, sess.Position, string(patternsJSON),
		now.Format(timeFormat), now.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// Get returns the session with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	query := `SELECT id, root, position, patterns, created_at, updated_at
		FROM sessions WHERE id = ?`
	return scanSession(s.db.QueryRowContext(ctx, query, id))
}

// Latest returns the most recently updated session for root.
func (s *Store) Latest(ctx context.Context, root string) (*Session, error) {
	query := `SELECT id, root, position, patterns, created_at, updated_at
		FROM sessions WHERE root = ?
		ORDER BY updated_at DESC, rowid DESC LIMIT 1`
	return scanSession(s.db.QueryRowContext(ctx, query, root))
}

// Update stores the position and patterns the session was last used with.
func (s *Store) Update(ctx context.Context, id, position string, patterns []string) error {
	patternsJSON, err := json.Marshal(patterns)
	if err != nil {
		return fmt.Errorf("marshal patterns: %w", err)
	}

	query := `UPDATE sessions SET position = ?, patterns = ?, updated_at = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query,
		position, string(patternsJSON), time.Now().UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return requireRow(res, id)
}

// List returns all sessions, most recently updated first.
func (s *Store) List(ctx context.Context) ([]*Session, error) {
	query := `SELECT id, root, position, patterns, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC, rowid DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var (
		sess                 Session
		patterns             string
		createdAt, updatedAt string
	)
	err := row.Scan(&sess.ID, &sess.Root, &sess.Position, &patterns, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if err := json.Unmarshal([]byte(patterns), &sess.Patterns); err != nil {
		return nil, fmt.Errorf("unmarshal patterns: %w", err)
	}
	if sess.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if sess.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &sess, nil
}
