// Package store holds the on-disk key-value layer the frontier is built on:
// a single badger-backed KeyValueShard, the RangeIndex that bounds per-domain
// iteration inside one shard, and the three stores composed on top of them
// (URLStateStore, DomainStateStore, RedirectStore). None of these know about
// Domain weighting or job scheduling; CrawlFrontier (the root package) owns
// that policy.
package store

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// DefaultSizeCacheTTL is how long approximate_size_bytes trusts its last
// reading before re-querying the underlying store, matching spec.md §4.1.
const DefaultSizeCacheTTL = 10 * time.Second

// KeyValueShard is a single on-disk ordered key-value store: point get,
// batched put, forward ranged iteration from a start key, and a cached
// approximate on-disk size. It is tuned for point lookups and runs with
// group commits / fsync disabled on the bulk write path, trading the most
// recent unflushed writes for throughput -- acceptable here because the
// scheduler re-dispatches work it doesn't hear back about (see CrawlFrontier
// docs on ingest idempotence).
type KeyValueShard struct {
	db  *badger.DB
	log *zap.SugaredLogger

	// writtenBytes is an approximate running total of key+value bytes
	// handed to PutBatch. badger.DB.Size() only reports bytes already
	// flushed to SST/value-log files, which lags well behind small test
	// writes sitting in the memtable; folding this counter in keeps
	// ApproximateSizeBytes responsive without waiting on a background
	// flush.
	writtenBytes int64

	sizeCacheTTL time.Duration
	sizeMu       sync.Mutex
	sizeValue    int64
	sizeAsOf     time.Time
}

// OpenShard opens (or creates) a badger-backed shard rooted at dir. A
// sizeCacheTTL <= 0 uses DefaultSizeCacheTTL; tests that need to observe a
// shard roll within the same process tick pass a tiny TTL instead of
// waiting out the production default.
func OpenShard(dir string, sizeCacheTTL time.Duration, log *zap.SugaredLogger) (*KeyValueShard, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if sizeCacheTTL <= 0 {
		sizeCacheTTL = DefaultSizeCacheTTL
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = newBadgerLogAdapter(log)
	// Disable the WAL-equivalent fsync on the write path; see the doc
	// comment above for the durability tradeoff this accepts.
	opts.SyncWrites = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &KeyValueShard{db: db, log: log, sizeCacheTTL: sizeCacheTTL}, nil
}

// Close releases the shard's file handles.
func (s *KeyValueShard) Close() error {
	return s.db.Close()
}

// Get returns the value stored for key, or ok=false if it is absent.
func (s *KeyValueShard) Get(key []byte) (value []byte, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		ok = true
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, ok, err
}

// Put writes a single key/value pair.
func (s *KeyValueShard) Put(key, value []byte) error {
	return s.PutBatch(map[string][]byte{string(key): value})
}

// PutBatch writes all entries in one batch. Keys are plain strings here
// (not Domain/URL types) because this layer has no notion of what a key
// means; callers compose composite keys before calling in.
func (s *KeyValueShard) PutBatch(entries map[string][]byte) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	var added int64
	for k, v := range entries {
		if err := wb.Set([]byte(k), v); err != nil {
			return err
		}
		added += int64(len(k) + len(v))
	}
	if err := wb.Flush(); err != nil {
		return err
	}
	atomic.AddInt64(&s.writtenBytes, added)
	return nil
}

// IterFunc is called once per key/value pair in ascending key order,
// starting at the first key >= start. Returning false stops iteration.
type IterFunc func(key, value []byte) bool

// IterFrom streams entries in ascending key order starting from start,
// without materializing them into memory.
func (s *KeyValueShard) IterFrom(start []byte, fn IterFunc) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(start); it.Valid(); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			var stop bool
			err := item.Value(func(val []byte) error {
				if !fn(key, val) {
					stop = true
				}
				return nil
			})
			if err != nil {
				return err
			}
			if stop {
				return nil
			}
		}
		return nil
	})
}

// ApproximateSizeBytes returns the shard's on-disk size, cached for
// sizeCacheTTL to avoid repeated stat-equivalent calls on the hot path.
func (s *KeyValueShard) ApproximateSizeBytes() int64 {
	s.sizeMu.Lock()
	defer s.sizeMu.Unlock()

	if time.Since(s.sizeAsOf) <= s.sizeCacheTTL {
		return s.sizeValue
	}

	lsm, vlog := s.db.Size()
	onDisk := lsm + vlog
	written := atomic.LoadInt64(&s.writtenBytes)
	if written > onDisk {
		onDisk = written
	}
	s.sizeValue = onDisk
	s.sizeAsOf = time.Now()
	return s.sizeValue
}

type badgerLogAdapter struct {
	log *zap.SugaredLogger
}

func newBadgerLogAdapter(log *zap.SugaredLogger) badger.Logger {
	return &badgerLogAdapter{log: log.Named("badger")}
}

func (a *badgerLogAdapter) Errorf(f string, args ...interface{})   { a.log.Errorf(f, args...) }
func (a *badgerLogAdapter) Warningf(f string, args ...interface{}) { a.log.Warnf(f, args...) }
func (a *badgerLogAdapter) Infof(f string, args ...interface{})    { a.log.Debugf(f, args...) }
func (a *badgerLogAdapter) Debugf(f string, args ...interface{})   { a.log.Debugf(f, args...) }
