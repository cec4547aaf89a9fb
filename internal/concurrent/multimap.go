// Package concurrent holds small concurrency primitives shared by the
// frontier's ingest fan-out path.
package concurrent

import (
	"hash/fnv"
	"sync"
)

// defaultShardCount is the number of lock stripes a DomainMultimap spreads
// its keys across. It does not need to scale with worker count; it only
// needs to be large enough that two goroutines hashing to different domains
// rarely contend on the same stripe.
const defaultShardCount = 64

// DomainMultimap is a string-keyed, append-only multimap safe for concurrent
// Append calls from many goroutines. Keys are sharded by fnv.New32a(key) so
// concurrent appends to different domains don't serialize on one mutex.
//
// Unlike sync.Map, DomainMultimap supports "append one value to this key's
// slice" as a single locked operation; sync.Map's LoadOrStore/Swap pair can't
// express that without a second map of per-key mutexes, which is what this
// type already is.
type DomainMultimap[T any] struct {
	shards []*multimapShard[T]
}

type multimapShard[T any] struct {
	mu   sync.Mutex
	data map[string][]T
}

// NewDomainMultimap creates an empty multimap sharded across shardCount lock
// stripes. shardCount <= 0 falls back to defaultShardCount.
func NewDomainMultimap[T any](shardCount int) *DomainMultimap[T] {
	if shardCount <= 0 {
		shardCount = defaultShardCount
	}
	m := &DomainMultimap[T]{shards: make([]*multimapShard[T], shardCount)}
	for i := range m.shards {
		m.shards[i] = &multimapShard[T]{data: make(map[string][]T)}
	}
	return m
}

// Append adds value to the slice stored under key, creating it if absent.
// Safe to call concurrently from many goroutines for any mix of keys.
func (m *DomainMultimap[T]) Append(key string, value T) {
	shard := m.shardFor(key)
	shard.mu.Lock()
	shard.data[key] = append(shard.data[key], value)
	shard.mu.Unlock()
}

// Keys returns every key with at least one appended value. Order is
// unspecified. Keys must only be called once all concurrent Append calls
// have completed (the fan-out phase must be a barrier before the serial
// merge phase reads it).
func (m *DomainMultimap[T]) Keys() []string {
	var keys []string
	for _, shard := range m.shards {
		shard.mu.Lock()
		for k := range shard.data {
			keys = append(keys, k)
		}
		shard.mu.Unlock()
	}
	return keys
}

// Get returns the values appended under key, or nil if none were.
func (m *DomainMultimap[T]) Get(key string) []T {
	shard := m.shardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	return shard.data[key]
}

func (m *DomainMultimap[T]) shardFor(key string) *multimapShard[T] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return m.shards[h.Sum32()%uint32(len(m.shards))]
}
