// Package session maps browser session ids onto live state containers.
//
// A session is rehydrated from the repository the first time it is touched
// after a restart or eviction.  Only the auth and cart partitions are
// written back; search state lives and dies with the in-memory store.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/villa-web/internal/repository"
	"github.com/iliyamo/villa-web/internal/store"
)

// Closer is a per-session resource released on eviction.
type Closer interface{ Close() }

// Session is one browser's live state.
type Session struct {
	ID    string
	Store *store.Store

	loadMu sync.Mutex

	mu       sync.Mutex
	lastSeen time.Time
	attached map[string]Closer
}

// Attach returns the resource registered under name, creating it with mk
// on first use.
func (s *Session) Attach(name string, mk func() Closer) Closer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.attached[name]; ok {
		return c
	}
	if s.attached == nil {
		s.attached = make(map[string]Closer)
	}
	c := mk()
	s.attached[name] = c
	return c
}

func (s *Session) attachments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attached)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) close() {
	s.mu.Lock()
	att := s.attached
	s.attached = nil
	s.mu.Unlock()
	for _, c := range att {
		c.Close()
	}
}

// Manager owns the live sessions.
type Manager struct {
	repo repository.SessionRepo
	log  logrus.FieldLogger
	now  func() time.Time

	mu   sync.Mutex
	live map[string]*Session
}

func NewManager(repo repository.SessionRepo, log logrus.FieldLogger) *Manager {
	return &Manager{repo: repo, log: log, now: time.Now, live: make(map[string]*Session)}
}

// New starts a session for a browser without a valid cookie.  It has
// nothing to restore, so it is hydrated immediately.
func (m *Manager) New() *Session {
	s := &Session{ID: uuid.NewString(), Store: store.New()}
	s.Store.Hydrate(store.Snapshot{})
	s.touch(m.now())
	m.mu.Lock()
	m.live[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns the live session for id, rehydrating it from the repository
// when needed.  If the repository is unreachable the session is returned
// unhydrated along with the error; the next Get retries.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrInvalidSessionID
	}
	m.mu.Lock()
	s, ok := m.live[id]
	if !ok {
		s = &Session{ID: id, Store: store.New()}
		m.live[id] = s
	}
	m.mu.Unlock()
	s.touch(m.now())
	return s, m.hydrate(ctx, s)
}

func (m *Manager) hydrate(ctx context.Context, s *Session) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.Store.State().Hydrated {
		return nil
	}
	snap, err := m.repo.Load(ctx, s.ID)
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		snap = store.Snapshot{}
	case err != nil:
		m.log.WithError(err).WithField("session", s.ID).Warn("session: rehydrate failed")
		return err
	}
	s.Store.Hydrate(snap)
	return nil
}

// Persist writes the session's auth and cart partitions.  An unhydrated
// session is skipped so a failed load never overwrites stored state.
func (m *Manager) Persist(ctx context.Context, s *Session) error {
	if !s.Store.State().Hydrated {
		return nil
	}
	return m.repo.Save(ctx, s.ID, s.Store.Persisted())
}

// Release drops a session minted by New for the current request when that
// request left it blank with nothing attached.  Nothing is written to the
// repository; the issued cookie simply resolves to an empty store later.
// It reports whether the session was dropped.
func (m *Manager) Release(s *Session) bool {
	if s.attachments() > 0 || !s.Store.Blank() {
		return false
	}
	m.mu.Lock()
	if m.live[s.ID] == s {
		delete(m.live, s.ID)
	}
	m.mu.Unlock()
	return true
}

// Forget drops the session everywhere.
func (m *Manager) Forget(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.live[id]
	delete(m.live, id)
	m.mu.Unlock()
	if ok {
		s.close()
	}
	return m.repo.Delete(ctx, id)
}

// Sweep evicts stores idle for longer than idle and returns how many went.
// Their persisted state is untouched.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	var gone []*Session
	m.mu.Lock()
	for id, s := range m.live {
		if s.idleSince().Before(cutoff) {
			gone = append(gone, s)
			delete(m.live, id)
		}
	}
	m.mu.Unlock()
	for _, s := range gone {
		s.close()
	}
	return len(gone)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}
