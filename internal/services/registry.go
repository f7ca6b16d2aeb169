package services

import (
	"context"
	"sync"
	"time"

	"github.com/amandhiraj/financetracker/internal/cache"
)

// Registry keeps one Workspace per session token in an LRU cache.
// Eviction only drops the cached copy; the next Open re-fetches.
type Registry struct {
	backend Backend
	opts    []Option
	metrics *Metrics

	mu    sync.Mutex
	cache *cache.LRUCache[*Workspace]
}

func NewRegistry(b Backend, maxSize int, ttl time.Duration, opts ...Option) *Registry {
	r := &Registry{
		backend: b,
		metrics: &Metrics{},
	}
	r.cache = cache.NewLRUCache(maxSize, ttl, cache.WithOnEvict(func(_ string, _ *Workspace) {
		r.metrics.Evictions.Add(1)
	}))
	r.opts = append(append([]Option(nil), opts...), WithMetrics(r.metrics))
	return r
}

// Open returns the workspace for token bound to user, creating it if needed.
// A new or rebound workspace fetches before Open returns.
func (r *Registry) Open(ctx context.Context, token, user string) (*Workspace, error) {
	r.mu.Lock()
	ws, ok := r.cache.Get(token)
	if !ok {
		ws = NewWorkspace(r.backend, r.opts...)
	}
	// Re-setting slides the TTL.
	r.cache.Set(token, ws)
	r.mu.Unlock()

	if err := ws.Bind(ctx, user); err != nil {
		return ws, err
	}
	return ws, nil
}

// Close logs the workspace out and forgets it.
func (r *Registry) Close(token string) {
	r.mu.Lock()
	ws, ok := r.cache.Get(token)
	r.cache.Delete(token)
	r.mu.Unlock()
	if ok {
		ws.Logout()
	}
}

func (r *Registry) Size() int {
	return r.cache.Size()
}

func (r *Registry) Metrics() *Metrics {
	return r.metrics
}

// Cleaner exposes the underlying cache for periodic expiry.
func (r *Registry) Cleaner() cache.Cleaner {
	return r.cache
}
