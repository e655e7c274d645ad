package sessions

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultTTL is how long an idle browser session is kept before eviction.
const DefaultTTL = 12 * time.Hour

// Registry maps browser-session IDs to their Store. Stores for distinct
// sessions are fully isolated; the registry only handles lookup and expiry.
type Registry struct {
	cache *ttlcache.Cache[string, *Store]
}

// NewRegistry creates a registry whose entries expire after ttl of
// inactivity. A non-positive ttl falls back to DefaultTTL.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *Store](ttl),
	)
	go cache.Start()

	return &Registry{cache: cache}
}

// Resolve returns the store for the given browser session, creating an empty
// one on first sight. Each hit refreshes the session's TTL.
func (r *Registry) Resolve(sessionID string) *Store {
	if item := r.cache.Get(sessionID); item != nil {
		return item.Value()
	}
	store := NewStore()
	r.cache.Set(sessionID, store, ttlcache.DefaultTTL)
	return store
}

// Drop removes a browser session entirely, e.g. after sign-out.
func (r *Registry) Drop(sessionID string) {
	r.cache.Delete(sessionID)
}

// Stop halts the background expiry loop.
func (r *Registry) Stop() {
	r.cache.Stop()
}
