package store

import (
	lru "github.com/hashicorp/golang-lru"
)

// RangeIndex tracks the [start, end] composite-key bounds written for each
// domain inside one shard. It is colocated with the shard it bounds (a
// sibling KeyValueShard, e.g. "<shard>/ranges" next to "<shard>/urls") and
// is consulted before any ranged scan over a domain's URLs so full scans are
// never needed to find a domain's bounds, matching spec.md §9's guidance.
type RangeIndex struct {
	kv    *KeyValueShard
	cache *lru.Cache // domain key string -> Range, fronts repeated Get calls
}

// Range is a byte-range [Start, End] (inclusive) of composite keys.
type Range struct {
	Start []byte
	End   []byte
}

// OpenRangeIndex wraps shard (already opened by the caller at the range
// index's own directory) with an LRU front. cacheSize is the number of
// domains to keep hot, mirroring the teacher's cassandra.Datastore.domainCache.
func OpenRangeIndex(cacheSize int, shard *KeyValueShard) (*RangeIndex, error) {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &RangeIndex{kv: shard, cache: cache}, nil
}

// Get returns the current range recorded for domainKey, or ok=false if this
// shard has never seen that domain (an absent RangeIndex entry means empty,
// not an error; see spec.md §4.3's failure-mode note).
func (r *RangeIndex) Get(domainKey string) (Range, bool, error) {
	if v, ok := r.cache.Get(domainKey); ok {
		return v.(Range), true, nil
	}

	raw, ok, err := r.kv.Get([]byte(domainKey))
	if err != nil || !ok {
		return Range{}, false, err
	}

	rng, ok := decodeRangeValue(raw)
	if !ok {
		return Range{}, false, nil
	}
	r.cache.Add(domainKey, rng)
	return rng, true, nil
}

// Put persists rng for domainKey and refreshes the cache entry.
func (r *RangeIndex) Put(domainKey string, rng Range) error {
	if err := r.kv.Put([]byte(domainKey), encodeRangeValue(rng)); err != nil {
		return err
	}
	r.cache.Add(domainKey, rng)
	return nil
}

// Close closes the underlying shard.
func (r *RangeIndex) Close() error {
	return r.kv.Close()
}
