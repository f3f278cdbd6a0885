package xsync

import (
	"sync"

	"github.com/dolthub/maphash"
)

// hintShards is the number of independent stripes in a HintCache. Sharding
// trades a little memory for lower contention between goroutines hitting
// different keys concurrently.
const hintShards = 16

// HintCache is a striped, best-effort cache from K to V. It is never the
// authoritative source of truth for anything stored in it — callers must
// be able to recompute a miss by some slower path. Pool uses it to remember
// which arena most recently satisfied a cross-thread free for a given
// address bucket, so that a repeated free to the same region skips the
// registry scan.
//
// Grounded on the hashing approach in goutil's swiss-table map
// (maphash.NewHasher[K]), sharded the way internal/xsync.Map's sync.Map
// wrapping suggested. Each shard is a plain map guarded by a SpinLock
// rather than a sync.Mutex: a shard is held for a handful of map
// operations and is never expected to stay contended, exactly the
// workload the adaptive spin lock targets.
type HintCache[K comparable, V any] struct {
	hasher maphash.Hasher[K]
	once   sync.Once

	shards [hintShards]hintShard[K, V]
}

type hintShard[K comparable, V any] struct {
	mu SpinLock
	m  map[K]V
}

func (c *HintCache[K, V]) init() {
	c.once.Do(func() {
		c.hasher = maphash.NewHasher[K]()
	})
}

func (c *HintCache[K, V]) shard(k K) *hintShard[K, V] {
	c.init()
	h := c.hasher.Hash(k)
	return &c.shards[h%hintShards]
}

// Get returns the cached value for k, if any.
func (c *HintCache[K, V]) Get(k K) (V, bool) {
	s := c.shard(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.m[k]
	return v, ok
}

// Set records v as the cached value for k.
func (c *HintCache[K, V]) Set(k K, v V) {
	s := c.shard(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.m == nil {
		s.m = make(map[K]V)
	}
	s.m[k] = v
}

// Delete removes any cached value for k.
func (c *HintCache[K, V]) Delete(k K) {
	s := c.shard(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, k)
}
