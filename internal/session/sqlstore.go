package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .triage) if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenMemory opens an in-memory store for tests.
func OpenMemory() (*SqlStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open memory sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		v = 0
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v > schemaVersion {
		return fmt.Errorf("db schema version %d is newer than this build (%d)", v, schemaVersion)
	}

	_, err = s.db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		session_id  TEXT PRIMARY KEY,
		status      TEXT NOT NULL,
		question    TEXT NOT NULL DEFAULT '',
		resume_node TEXT NOT NULL DEFAULT '',
		state       TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create sessions: %w", err)
	}
	return nil
}

func (s *SqlStore) Close() error { return s.db.Close() }

func (s *SqlStore) Save(rec *Record) error {
	now := nowUTC()
	if rec.CreatedAt == "" {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	_, err := s.db.Exec(`INSERT INTO sessions
		(session_id, status, question, resume_node, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			status = excluded.status,
			question = excluded.question,
			resume_node = excluded.resume_node,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		rec.SessionID, rec.Status, rec.Question, rec.ResumeNode,
		string(rec.State), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.SessionID, err)
	}
	return nil
}

func (s *SqlStore) Load(sessionID string) (*Record, error) {
	row := s.db.QueryRow(`SELECT session_id, status, question, resume_node, state, created_at, updated_at
		FROM sessions WHERE session_id = ?`, sessionID)
	return scanRecord(row)
}

// BeginResume atomically flips a paused session to running. The conditional
// UPDATE is the single-writer gate: of two concurrent resumes, exactly one
// sees an affected row.
func (s *SqlStore) BeginResume(sessionID string) (*Record, error) {
	res, err := s.db.Exec(`UPDATE sessions SET status = ?, updated_at = ?
		WHERE session_id = ? AND status = ?`,
		StatusRunning, nowUTC(), sessionID, StatusPaused)
	if err != nil {
		return nil, fmt.Errorf("begin resume %s: %w", sessionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("begin resume %s: %w", sessionID, err)
	}
	if n == 0 {
		rec, err := s.Load(sessionID)
		if err != nil {
			return nil, err
		}
		switch rec.Status {
		case StatusComplete:
			return nil, ErrCompleted
		case StatusRunning:
			return nil, ErrBusy
		default:
			return nil, fmt.Errorf("session %s in unexpected status %q", sessionID, rec.Status)
		}
	}
	return s.Load(sessionID)
}

func (s *SqlStore) List() ([]*Record, error) {
	rows, err := s.db.Query(`SELECT session_id, status, question, resume_node, state, created_at, updated_at
		FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var recs []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SqlStore) Delete(sessionID string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var state string
	err := row.Scan(&rec.SessionID, &rec.Status, &rec.Question, &rec.ResumeNode,
		&state, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	rec.State = []byte(state)
	return &rec, nil
}
