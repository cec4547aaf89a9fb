package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UrlEntry is one (compositeKey, value) pair as seen by URLStateStore's
// callers: the key is already the fully composed domain||0x2F||url bytes,
// and value is the opaque encoded state.
type UrlEntry struct {
	Key   []byte
	Value []byte
}

type urlShard struct {
	kv     *KeyValueShard
	ranges *RangeIndex
	dir    string
}

// URLStateStore is a rolling sequence of KeyValueShards: writes always land
// in the newest shard, a new shard is opened once the current one exceeds
// MaxShardSizeBytes, and reads search shards newest-first so a later write
// always shadows an earlier one for the same key. See spec.md §4.3.
type URLStateStore struct {
	root           string
	maxShardSize   int64
	rangeCacheSize int
	sizeCacheTTL   time.Duration
	log            *zap.SugaredLogger

	mu     sync.Mutex
	shards []*urlShard
}

// Options configures a URLStateStore.
type Options struct {
	MaxShardSizeBytes int64
	RangeCacheSize    int
	// SizeCacheTTL overrides how long a shard trusts its last
	// ApproximateSizeBytes reading. Zero uses store.DefaultSizeCacheTTL;
	// tests that need to observe a roll within one process tick pass a
	// tiny value instead.
	SizeCacheTTL time.Duration
	Log          *zap.SugaredLogger
}

const defaultMaxShardSizeBytes = 10 * 1024 * 1024 * 1024 // 10 GiB, spec.md default

// OpenURLStateStore opens the rolling shard sequence rooted at root,
// creating the first shard if root is empty or doesn't exist yet.
func OpenURLStateStore(root string, opts Options) (*URLStateStore, error) {
	if opts.MaxShardSizeBytes <= 0 {
		opts.MaxShardSizeBytes = defaultMaxShardSizeBytes
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}

	s := &URLStateStore{
		root:           root,
		maxShardSize:   opts.MaxShardSizeBytes,
		rangeCacheSize: opts.RangeCacheSize,
		sizeCacheTTL:   opts.SizeCacheTTL,
		log:            opts.Log,
	}

	entries, err := os.ReadDir(root)
	if err != nil && !os.IsNotExist(err) {
		return nil, newFilesystemError("list shard directories", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names) // shard dir names are RFC3339+uuid, so lexicographic == chronological

	for _, name := range names {
		sh, err := openShardDir(filepath.Join(root, name), opts.RangeCacheSize, opts.SizeCacheTTL, opts.Log)
		if err != nil {
			return nil, err
		}
		s.shards = append(s.shards, sh)
	}

	if len(s.shards) == 0 {
		sh, err := s.createShard()
		if err != nil {
			return nil, err
		}
		s.shards = append(s.shards, sh)
	}

	return s, nil
}

func newShardDirName() string {
	return fmt.Sprintf("%s_%s", time.Now().UTC().Format(time.RFC3339Nano), uuid.New().String())
}

func openShardDir(dir string, rangeCacheSize int, sizeCacheTTL time.Duration, log *zap.SugaredLogger) (*urlShard, error) {
	kv, err := OpenShard(filepath.Join(dir, "urls"), sizeCacheTTL, log)
	if err != nil {
		return nil, newStorageError("open shard urls", err)
	}
	rangeKv, err := OpenShard(filepath.Join(dir, "ranges"), sizeCacheTTL, log)
	if err != nil {
		return nil, newStorageError("open shard ranges", err)
	}
	ranges, err := OpenRangeIndex(rangeCacheSize, rangeKv)
	if err != nil {
		return nil, newStorageError("open range index", err)
	}
	return &urlShard{kv: kv, ranges: ranges, dir: dir}, nil
}

func (s *URLStateStore) createShard() (*urlShard, error) {
	dir := filepath.Join(s.root, newShardDirName())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, newFilesystemError("create shard directory", err)
	}
	return openShardDir(dir, s.rangeCacheSize, s.sizeCacheTTL, s.log)
}

// Close closes every shard.
func (s *URLStateStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, sh := range s.shards {
		if err := sh.kv.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := sh.ranges.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Get searches shards newest-first and returns the first hit, since later
// writes shadow earlier ones.
func (s *URLStateStore) Get(key []byte) (value []byte, ok bool, err error) {
	s.mu.Lock()
	shards := append([]*urlShard(nil), s.shards...)
	s.mu.Unlock()

	for i := len(shards) - 1; i >= 0; i-- {
		value, ok, err = shards[i].kv.Get(key)
		if err != nil {
			return nil, false, newStorageError("url get", err)
		}
		if ok {
			return value, true, nil
		}
	}
	return nil, false, nil
}

// PutBatch rolls to a new shard if the current one has outgrown
// MaxShardSizeBytes, then writes all entries (each already bearing the
// domainKey's composite key) into the newest shard only, widening that
// shard's RangeIndex entry for domainKey.
func (s *URLStateStore) PutBatch(domainKey string, entries []UrlEntry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	current := s.shards[len(s.shards)-1]
	if current.kv.ApproximateSizeBytes() > s.maxShardSize {
		sh, err := s.createShard()
		if err != nil {
			s.mu.Unlock()
			return err
		}
		s.shards = append(s.shards, sh)
		current = sh
	}
	s.mu.Unlock()

	rng, found, err := current.ranges.Get(domainKey)
	if err != nil {
		return newStorageError("range get", err)
	}
	if !found {
		rng = Range{Start: entries[0].Key, End: entries[0].Key}
	}

	batch := make(map[string][]byte, len(entries))
	for _, e := range entries {
		batch[string(e.Key)] = e.Value
		if compareBytes(e.Key, rng.Start) < 0 {
			rng.Start = e.Key
		}
		if compareBytes(e.Key, rng.End) > 0 {
			rng.End = e.Key
		}
	}

	if err := current.kv.PutBatch(batch); err != nil {
		return newStorageError("url put_batch", err)
	}
	if err := current.ranges.Put(domainKey, rng); err != nil {
		return newStorageError("range put", err)
	}
	return nil
}

// GetAllUrls returns every (key, value) entry ever written for domainKey,
// merged across shards with newer-shard entries replacing older-shard
// entries for the same key.
func (s *URLStateStore) GetAllUrls(domainKey string) ([]UrlEntry, error) {
	s.mu.Lock()
	shards := append([]*urlShard(nil), s.shards...)
	s.mu.Unlock()

	merged := make(map[string][]byte)
	for _, sh := range shards {
		rng, found, err := sh.ranges.Get(domainKey)
		if err != nil {
			return nil, newStorageError("range get", err)
		}
		if !found {
			continue
		}

		var iterErr error
		err = sh.kv.IterFrom(rng.Start, func(key, value []byte) bool {
			if compareBytes(key, rng.End) > 0 {
				return false
			}
			merged[string(key)] = append([]byte(nil), value...)
			return true
		})
		if iterErr != nil {
			return nil, newStorageError("url iterate", iterErr)
		}
		if err != nil {
			return nil, newStorageError("url iterate", err)
		}
	}

	out := make([]UrlEntry, 0, len(merged))
	for k, v := range merged {
		out = append(out, UrlEntry{Key: []byte(k), Value: v})
	}
	return out, nil
}

// ShardCount reports how many shards currently exist (test/ops hook).
func (s *URLStateStore) ShardCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shards)
}

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
