package session

import (
	"sync"
)

// MemStore is a map-backed Store for tests and throwaway runs. It honors
// the same single-writer-per-session rules as the SQLite store.
type MemStore struct {
	mu   sync.Mutex
	recs map[string]*Record
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{recs: make(map[string]*Record)}
}

func (m *MemStore) Save(rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := nowUTC()
	if rec.CreatedAt == "" {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	cp := *rec
	cp.State = append([]byte(nil), rec.State...)
	m.recs[rec.SessionID] = &cp
	return nil
}

func (m *MemStore) Load(sessionID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	cp.State = append([]byte(nil), rec.State...)
	return &cp, nil
}

func (m *MemStore) BeginResume(sessionID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	switch rec.Status {
	case StatusComplete:
		return nil, ErrCompleted
	case StatusRunning:
		return nil, ErrBusy
	}
	rec.Status = StatusRunning
	rec.UpdatedAt = nowUTC()
	cp := *rec
	cp.State = append([]byte(nil), rec.State...)
	return &cp, nil
}

func (m *MemStore) List() ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := make([]*Record, 0, len(m.recs))
	for _, rec := range m.recs {
		cp := *rec
		recs = append(recs, &cp)
	}
	return recs, nil
}

func (m *MemStore) Delete(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, sessionID)
	return nil
}
