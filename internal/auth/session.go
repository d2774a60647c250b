package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"notevault/internal/metrics"
)

// SessionStore maps session ids to session records. Implementations
// must be safe for concurrent use; Get must treat expired records as
// absent. The memory backend does not survive a process restart.
type SessionStore interface {
	Set(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	Sweep(ctx context.Context) (int, error)
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Set(ctx context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = *sess
	return nil
}

// Get returns ErrNotFound for missing and expired entries alike, and
// lazily drops expired ones.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Expired(time.Now().UTC()) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	out := sess
	return &out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) Sweep(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, sess := range m.sessions {
		if sess.Expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RunSweeper calls store.Sweep at a fixed interval until ctx is done.
// It runs off the request path; a session removed between a
// middleware's Get and use just yields an anonymous request.
func RunSweeper(ctx context.Context, store SessionStore, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.Sweep(ctx)
			if err != nil {
				logger.Error("session sweep", "err", err)
				continue
			}
			if removed > 0 {
				metrics.SessionsSwept.Add(float64(removed))
				logger.Info("session sweep", "removed", removed)
			}
		}
	}
}
