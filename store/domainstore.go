package store

import (
	"path/filepath"

	"go.uber.org/zap"
)

// DomainStateStore maps a domain key to its encoded DomainState. It is a
// single KeyValueShard (no rolling: the domain set, unlike the URL set, is
// small enough to live in one store for the crawl's lifetime).
type DomainStateStore struct {
	kv *KeyValueShard
}

// OpenDomainStateStore opens the domain store rooted at dir.
func OpenDomainStateStore(dir string, log *zap.SugaredLogger) (*DomainStateStore, error) {
	kv, err := OpenShard(filepath.Join(dir, "domains"), 0, log)
	if err != nil {
		return nil, newStorageError("open domain store", err)
	}
	return &DomainStateStore{kv: kv}, nil
}

// Close closes the underlying shard.
func (d *DomainStateStore) Close() error { return d.kv.Close() }

// Get returns the encoded state for domainKey, or ok=false if unknown.
func (d *DomainStateStore) Get(domainKey []byte) (value []byte, ok bool, err error) {
	value, ok, err = d.kv.Get(domainKey)
	if err != nil {
		return nil, false, newStorageError("domain get", err)
	}
	return value, ok, nil
}

// Put writes the encoded state for domainKey.
func (d *DomainStateStore) Put(domainKey, value []byte) error {
	if err := d.kv.Put(domainKey, value); err != nil {
		return newStorageError("domain put", err)
	}
	return nil
}

// ForEachFunc is called once per (domainKey, value) pair during a full scan.
// Returning an error aborts the scan and is propagated to the caller of
// ForEach.
type ForEachFunc func(domainKey, value []byte) error

// ForEach streams every entry in the store, in store order (no particular
// order is guaranteed), without loading the whole table into memory. This is
// the backbone of domain-level sampling (spec.md §4.4).
func (d *DomainStateStore) ForEach(fn ForEachFunc) error {
	var fnErr error
	err := d.kv.IterFrom(nil, func(key, value []byte) bool {
		if err := fn(key, value); err != nil {
			fnErr = err
			return false
		}
		return true
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return newStorageError("domain iterate", err)
	}
	return nil
}
