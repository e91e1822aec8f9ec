package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/villa-web/internal/debounce"
	"github.com/iliyamo/villa-web/internal/model"
	"github.com/iliyamo/villa-web/internal/store"
)

const (
	msgLocationRequired = "Location required"
	msgMinOneGuest      = "Min 1 guest"
)

// Searcher is one session's search box.  Typing is debounced; a newer
// request cancels the one in flight, and the store drops any response
// that still arrives for an older request.
type Searcher struct {
	villas *VillaService
	st     *store.Store
	base   context.Context
	deb    *debounce.Debouncer[model.SearchQuery]

	mu       sync.Mutex
	cancel   context.CancelFunc
	inflight uint64
}

// NewSearcher binds a searcher to st.  Debounced searches run on base,
// which should outlive individual requests.
func NewSearcher(base context.Context, villas *VillaService, st *store.Store, delay time.Duration) *Searcher {
	s := &Searcher{villas: villas, st: st, base: base}
	s.deb = debounce.New(delay, func(q model.SearchQuery) {
		_, _ = s.run(s.base, q)
	})
	return s
}

// Input records the latest form contents.  A search fires once input has
// been idle for the debounce delay, and only if a location or a guest
// count is filled in.
func (s *Searcher) Input(q model.SearchQuery) {
	q.Location = strings.TrimSpace(q.Location)
	if q.Empty() {
		s.deb.Stop()
		return
	}
	s.deb.Trigger(q)
}

// Pending reports whether a debounced search is waiting to fire.
func (s *Searcher) Pending() bool { return s.deb.Pending() }

// Submit validates the form and searches immediately, superseding any
// pending debounced search.
func (s *Searcher) Submit(ctx context.Context, q model.SearchQuery) ([]model.Villa, error) {
	q.Location = strings.TrimSpace(q.Location)
	if q.Location == "" {
		return nil, invalid(msgLocationRequired)
	}
	if q.Guests == nil || *q.Guests < 1 {
		return nil, invalid(msgMinOneGuest)
	}
	s.deb.Stop()
	return s.run(ctx, q)
}

func (s *Searcher) run(ctx context.Context, q model.SearchQuery) ([]model.Villa, error) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.inflight++
	id := s.inflight
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.inflight == id {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}()
	return s.villas.Search(ctx, s.st, q)
}

// Close drops a pending search and cancels the one in flight.
func (s *Searcher) Close() {
	s.deb.Stop()
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}
