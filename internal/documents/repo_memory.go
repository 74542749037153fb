package documents

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo. Sessions idle for longer than ttl are
// evicted on the next write.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document // sessionId -> document
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo. A zero ttl disables eviction.
func NewMemoryRepo(ttl time.Duration) *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Document),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put replaces the session's document.
func (r *MemoryRepo) Put(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked()
	r.data[doc.SessionID] = doc
	return nil
}

// Current returns the session's document.
func (r *MemoryRepo) Current(ctx context.Context, sessionID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[sessionID]
	if !ok || r.expired(doc) {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// Delete discards the session's document, if any.
func (r *MemoryRepo) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.data, sessionID)
	r.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

func (r *MemoryRepo) evictLocked() {
	if r.ttl <= 0 {
		return
	}
	for id, doc := range r.data {
		if r.expired(doc) {
			delete(r.data, id)
		}
	}
}

func (r *MemoryRepo) expired(doc Document) bool {
	return r.ttl > 0 && r.now().Sub(doc.CreatedAt) > r.ttl
}
