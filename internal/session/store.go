// Package session keeps the questionnaire state of every active user.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Mur0dDev/Classification-Bot/internal/models"
)

// Store maps a user id to that user's single session.
type Store interface {
	Get(userID int64) (*models.Session, bool)
	Put(s *models.Session)
	Delete(userID int64)
	Len() int
	Snapshot() []*models.Session
}

// MemoryStore is a process-local Store. Sessions do not survive restarts.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]*models.Session

	idle time.Duration
	now  func() time.Time
	log  *zap.Logger
}

// NewMemoryStore creates a store that forgets sessions untouched for idle.
// A zero idle disables the sweep.
func NewMemoryStore(idle time.Duration, log *zap.Logger) *MemoryStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoryStore{
		sessions: make(map[int64]*models.Session),
		idle:     idle,
		now:      time.Now,
		log:      log,
	}
}

// Get returns a copy of the user's session.
func (m *MemoryStore) Get(userID int64) (*models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Put stores a copy of s, replacing the user's previous session.
func (m *MemoryStore) Put(s *models.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID] = s.Clone()
}

func (m *MemoryStore) Delete(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Snapshot copies every session, ordered by user id.
func (m *MemoryStore) Snapshot() []*models.Session {
	m.mu.Lock()
	out := make([]*models.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Clone())
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Sweep drops abandoned sessions and returns how many were dropped.
// Sessions with a submission in flight are kept.
func (m *MemoryStore) Sweep() int {
	if m.idle <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idle)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.Submitting || s.UpdatedAt.After(cutoff) {
			continue
		}
		delete(m.sessions, id)
		n++
	}
	return n
}

// Run sweeps abandoned sessions until ctx is done.
func (m *MemoryStore) Run(ctx context.Context) {
	if m.idle <= 0 {
		return
	}
	interval := m.idle / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.log.Info("abandoned sessions dropped", zap.Int("count", n))
			}
		}
	}
}
