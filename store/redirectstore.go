package store

import (
	"path/filepath"

	"go.uber.org/zap"
)

// RedirectStore maps a source URL to the URL it redirected to.
type RedirectStore struct {
	kv *KeyValueShard
}

// OpenRedirectStore opens the redirect store rooted at dir.
func OpenRedirectStore(dir string, log *zap.SugaredLogger) (*RedirectStore, error) {
	kv, err := OpenShard(filepath.Join(dir, "redirects"), 0, log)
	if err != nil {
		return nil, newStorageError("open redirect store", err)
	}
	return &RedirectStore{kv: kv}, nil
}

// Close closes the underlying shard.
func (r *RedirectStore) Close() error { return r.kv.Close() }

// Put records that fromKey redirected to toValue.
func (r *RedirectStore) Put(fromKey, toValue []byte) error {
	if err := r.kv.Put(fromKey, toValue); err != nil {
		return newStorageError("redirect put", err)
	}
	return nil
}

// Get returns the recorded redirect target for fromKey, if any.
func (r *RedirectStore) Get(fromKey []byte) (value []byte, ok bool, err error) {
	value, ok, err = r.kv.Get(fromKey)
	if err != nil {
		return nil, false, newStorageError("redirect get", err)
	}
	return value, ok, nil
}
