package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"triage/internal/session"
)

// StepRecord logs one completed node visit.
type StepRecord struct {
	Node      string `json:"node"`
	EdgeID    string `json:"edge_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Snapshot is everything the engine persists between steps: the aggregate
// state plus where the walk stands.
type Snapshot[S any] struct {
	State      S            `json:"state"`
	Status     string       `json:"status"` // session.Status* values
	Question   string       `json:"question,omitempty"`
	ResumeNode string       `json:"resume_node,omitempty"`
	History    []StepRecord `json:"history,omitempty"`
}

// Checkpointer persists snapshots keyed by session id. BeginResume must
// enforce the single-writer-per-session invariant: a completed session is
// rejected with session.ErrCompleted, a concurrently resuming one with
// session.ErrBusy.
type Checkpointer[S any] interface {
	Save(sessionID string, snap Snapshot[S]) error
	BeginResume(sessionID string) (*Snapshot[S], error)
}

// StoreCheckpointer adapts a session.Store into a typed Checkpointer by
// marshaling the state and history to JSON.
type StoreCheckpointer[S any] struct {
	Store session.Store
}

type snapshotBlob[S any] struct {
	State   S            `json:"state"`
	History []StepRecord `json:"history,omitempty"`
}

func (c StoreCheckpointer[S]) Save(sessionID string, snap Snapshot[S]) error {
	blob, err := json.Marshal(snapshotBlob[S]{State: snap.State, History: snap.History})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	rec := &session.Record{
		SessionID:  sessionID,
		Status:     snap.Status,
		Question:   snap.Question,
		ResumeNode: snap.ResumeNode,
		State:      blob,
	}
	if prior, err := c.Store.Load(sessionID); err == nil {
		rec.CreatedAt = prior.CreatedAt
	}
	return c.Store.Save(rec)
}

func (c StoreCheckpointer[S]) BeginResume(sessionID string) (*Snapshot[S], error) {
	rec, err := c.Store.BeginResume(sessionID)
	if err != nil {
		return nil, err
	}
	var blob snapshotBlob[S]
	if err := json.Unmarshal(rec.State, &blob); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", sessionID, err)
	}
	return &Snapshot[S]{
		State:      blob.State,
		Status:     session.StatusRunning,
		Question:   rec.Question,
		ResumeNode: rec.ResumeNode,
		History:    blob.History,
	}, nil
}

// LoadSnapshot reads a snapshot without changing its status. Used by
// status/inspection surfaces.
func (c StoreCheckpointer[S]) LoadSnapshot(sessionID string) (*Snapshot[S], string, error) {
	rec, err := c.Store.Load(sessionID)
	if err != nil {
		return nil, "", err
	}
	var blob snapshotBlob[S]
	if err := json.Unmarshal(rec.State, &blob); err != nil {
		return nil, "", fmt.Errorf("unmarshal snapshot %s: %w", sessionID, err)
	}
	return &Snapshot[S]{
		State:      blob.State,
		Status:     rec.Status,
		Question:   rec.Question,
		ResumeNode: rec.ResumeNode,
		History:    blob.History,
	}, rec.Status, nil
}

func nowStamp() string { return time.Now().UTC().Format(time.RFC3339) }
