package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/iliyamo/villa-web/internal/store"
)

// MemorySessionRepo keeps snapshots in process.  Values are stored encoded
// so a loaded snapshot never aliases a live store's slices.
type MemorySessionRepo struct {
	mu   sync.Mutex
	ttl  time.Duration
	data map[string]memoryEntry
	now  func() time.Time
}

type memoryEntry struct {
	payload []byte
	expires time.Time
}

func NewMemorySessionRepo(ttl time.Duration) *MemorySessionRepo {
	return &MemorySessionRepo{ttl: ttl, data: make(map[string]memoryEntry), now: time.Now}
}

func (r *MemorySessionRepo) Load(_ context.Context, id string) (store.Snapshot, error) {
	if id == "" {
		return store.Snapshot{}, ErrInvalidSessionID
	}
	r.mu.Lock()
	e, ok := r.data[id]
	if ok && !e.expires.After(r.now()) {
		delete(r.data, id)
		ok = false
	}
	r.mu.Unlock()
	if !ok {
		return store.Snapshot{}, ErrSessionNotFound
	}
	var snap store.Snapshot
	err := json.Unmarshal(e.payload, &snap)
	return snap, err
}

func (r *MemorySessionRepo) Save(_ context.Context, id string, snap store.Snapshot) error {
	if id == "" {
		return ErrInvalidSessionID
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[id] = memoryEntry{payload: payload, expires: r.now().Add(r.ttl)}
	return nil
}

func (r *MemorySessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, id)
	return nil
}
