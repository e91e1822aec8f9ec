package store

import (
	"sync"

	"github.com/iliyamo/villa-web/internal/model"
)

// Store is the state container of one browser session.  It is created
// empty and becomes Hydrated once its persisted partitions are restored.
type Store struct {
	mu    sync.Mutex
	state State
	seq   uint64
}

// New returns an empty, not yet hydrated store.
func New() *Store { return &Store{state: initialState()} }

// Dispatch applies a to the state and returns the result.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = reduce(s.state, a)
	return s.state
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Blank reports a store holding nothing a later request could need: no
// account, no backend credentials, no cart items and no queued toasts.
func (s *Store) Blank() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, st := s.state.Auth, s.state
	return a.User == nil && !a.IsAuthenticated && a.Error == "" && a.Token == "" &&
		len(a.Cookies) == 0 && len(st.Cart.Items) == 0 && len(st.Toasts) == 0
}

// Hydrate restores the persisted partitions.
func (s *Store) Hydrate(p Snapshot) { s.Dispatch(Hydrated{Snapshot: p}) }

// Persisted returns what survives a reload: the auth and cart partitions.
func (s *Store) Persisted() Snapshot {
	st := s.State()
	a := st.Auth
	a.Loading = false
	return Snapshot{Auth: a, Cart: st.Cart}
}

// BeginSearch allocates the next search sequence and marks the search
// partition loading.  Results carrying an older sequence are dropped.
func (s *Store) BeginSearch(q *model.SearchQuery) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.state = reduce(s.state, VillasRequested{Seq: s.seq, Query: q})
	return s.seq
}

// Toast queues a notification for the client.
func (s *Store) Toast(level, text string) {
	s.Dispatch(Toasted{Toast: Toast{Level: level, Text: text}})
}

// DrainToasts returns and clears the queued notifications.
func (s *Store) DrainToasts() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state.Toasts
	s.state.Toasts = nil
	return out
}
