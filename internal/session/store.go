// Package session is durable keyed storage for diagnostic workflow state.
// A session snapshot is everything that must survive a suspend: the full
// workflow state blob, the pending question, and where to re-enter the
// graph.
package session

import (
	"encoding/json"
	"errors"
)

// Session statuses. A paused session is waiting for reporter input; a
// complete session can never be resumed again.
const (
	StatusRunning  = "running"
	StatusPaused   = "paused"
	StatusComplete = "complete"
)

var (
	// ErrNotFound means no session exists under the given id.
	ErrNotFound = errors.New("session not found")
	// ErrCompleted means the session already reached a terminal phase;
	// resuming it is rejected, not re-executed.
	ErrCompleted = errors.New("session already complete")
	// ErrBusy means another resume of the same session is in flight.
	// Concurrent resumes are rejected to keep the single-writer invariant.
	ErrBusy = errors.New("session resume already in progress")
)

// Record is one persisted session snapshot.
type Record struct {
	SessionID  string          `json:"session_id"`
	Status     string          `json:"status"`
	Question   string          `json:"question,omitempty"`    // pending question while paused
	ResumeNode string          `json:"resume_node,omitempty"` // graph re-entry point after resume
	State      json.RawMessage `json:"state"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

// Store is the persistence facade. Implementations must serialize resumes
// of the same session id (single-writer-per-session).
type Store interface {
	// Save upserts the snapshot under rec.SessionID.
	Save(rec *Record) error
	// Load returns the snapshot or ErrNotFound.
	Load(sessionID string) (*Record, error)
	// BeginResume transitions paused -> running and returns the snapshot.
	// Returns ErrNotFound, ErrCompleted, or ErrBusy as appropriate.
	BeginResume(sessionID string) (*Record, error)
	// List returns all sessions, newest first.
	List() ([]*Record, error)
	// Delete removes a session.
	Delete(sessionID string) error
}
