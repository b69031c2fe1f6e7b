// Package dedup provides a TTL-bounded seen-set used to drop QoS1
// redeliveries before they reach a handler.
package dedup

import (
	"sync"
	"time"
)

type Deduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	cap  int
	seen map[string]time.Time // id -> expiry
}

func New(ttl time.Duration, capacity int) *Deduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if capacity <= 0 {
		capacity = 10000
	}
	return &Deduper{ttl: ttl, cap: capacity, seen: make(map[string]time.Time, capacity)}
}

// FirstSeen records the id and reports whether it has not been seen within
// the TTL. An empty id is never deduplicated.
func (d *Deduper) FirstSeen(id string) bool {
	if id == "" {
		return true
	}
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if exp, ok := d.seen[id]; ok && now.Before(exp) {
		return false
	}
	d.seen[id] = now.Add(d.ttl)
	if len(d.seen) > d.cap {
		d.sweep(now)
	}
	return true
}

// sweep drops expired entries; caller holds the lock. If everything is still
// live the map is allowed to exceed cap until entries age out.
func (d *Deduper) sweep(now time.Time) {
	for k, exp := range d.seen {
		if now.After(exp) {
			delete(d.seen, k)
		}
		if len(d.seen) <= d.cap {
			return
		}
	}
}
