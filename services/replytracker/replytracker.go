package replytracker

import (
	"log"
	"sync"
	"time"

	"replygate/models"
)

const (
	DefaultTTL        = 6 * time.Hour
	DefaultMaxEntries = 5000
)

// ReplyTracker remembers the ids of messages the bot has sent so that an
// inbound reply can be recognized without a network round trip. Entries
// expire after a TTL and the registry is capped, evicting oldest-first.
type ReplyTracker struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*models.TrackedReplyEntry
	order   []string // insertion order, oldest first
	expired int64
	evicted int64
}

func NewReplyTracker(ttl time.Duration, maxEntries int) *ReplyTracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &ReplyTracker{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]*models.TrackedReplyEntry),
	}
}

// MarkSent records a sent message id. Re-marking a tracked id resets its
// creation time. When the registry is full the oldest-inserted entry is
// evicted first.
func (t *ReplyTracker) MarkSent(id, source string) {
	if id == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, exists := t.entries[id]; exists {
		entry.CreatedAt = t.now()
		entry.Source = source
		return
	}

	for len(t.entries) >= t.maxEntries && len(t.order) > 0 {
		oldest := t.order[0]
		t.order = t.order[1:]
		if _, exists := t.entries[oldest]; exists {
			delete(t.entries, oldest)
			t.evicted++
		}
	}

	t.entries[id] = &models.TrackedReplyEntry{
		ID:        id,
		CreatedAt: t.now(),
		Source:    source,
	}
	t.order = append(t.order, id)
}

// Has reports whether id refers to a live tracked message. An entry past its
// TTL is removed on the spot and reported as absent.
func (t *ReplyTracker) Has(id string) bool {
	if id == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, exists := t.entries[id]
	if !exists {
		return false
	}
	if t.now().Sub(entry.CreatedAt) > t.ttl {
		delete(t.entries, id)
		t.expired++
		return false
	}
	return true
}

// Prune drops every expired entry and compacts the insertion-order index.
// Intended to run on a ticker so the map does not grow between lookups.
func (t *ReplyTracker) Prune() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	removed := 0
	kept := t.order[:0]
	for _, id := range t.order {
		entry, exists := t.entries[id]
		if !exists {
			continue
		}
		if now.Sub(entry.CreatedAt) > t.ttl {
			delete(t.entries, id)
			t.expired++
			removed++
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept

	if removed > 0 {
		log.Printf("🧹 Reply tracker pruned %d expired entries, %d remain", removed, len(t.entries))
	}
}

// Stats returns a snapshot of the registry counters.
func (t *ReplyTracker) Stats() models.ReplyTrackerStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	return models.ReplyTrackerStats{
		Size:    len(t.entries),
		Expired: t.expired,
		Evicted: t.evicted,
	}
}
