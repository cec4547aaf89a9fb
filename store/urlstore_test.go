package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestURLStore(t *testing.T, opts Options) *URLStateStore {
	t.Helper()
	s, err := OpenURLStateStore(t.TempDir(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestURLStateStoreRoundTrip(t *testing.T) {
	s := openTestURLStore(t, Options{})

	key := []byte("domainA\x2Fhttps://a.com/1")
	err := s.PutBatch("domainA", []UrlEntry{{Key: key, Value: []byte("state-v1")}})
	require.NoError(t, err)

	got, ok, err := s.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("state-v1"), got)
}

func TestURLStateStoreGetAllUrls(t *testing.T) {
	s := openTestURLStore(t, Options{})

	entries := []UrlEntry{
		{Key: []byte("domainA\x2F1"), Value: []byte("v1")},
		{Key: []byte("domainA\x2F2"), Value: []byte("v2")},
	}
	require.NoError(t, s.PutBatch("domainA", entries))

	all, err := s.GetAllUrls("domainA")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestURLStateStoreMissingDomainReturnsEmpty(t *testing.T) {
	s := openTestURLStore(t, Options{})

	all, err := s.GetAllUrls("never-written")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestURLStateStoreRollover(t *testing.T) {
	// A near-zero SizeCacheTTL makes ApproximateSizeBytes re-read the
	// writtenBytes counter on every call instead of trusting a stale
	// cached value for the production default of 10s.
	s := openTestURLStore(t, Options{MaxShardSizeBytes: 1, SizeCacheTTL: time.Nanosecond})

	require.Equal(t, 1, s.ShardCount())

	require.NoError(t, s.PutBatch("domainA", []UrlEntry{
		{Key: []byte("domainA\x2F1"), Value: []byte("v1")},
	}))

	// The size check happens before the *next* write, so force a second
	// write to observe the roll.
	require.NoError(t, s.PutBatch("domainA", []UrlEntry{
		{Key: []byte("domainA\x2F2"), Value: []byte("v2")},
	}))

	assert.Equal(t, 2, s.ShardCount())

	all, err := s.GetAllUrls("domainA")
	require.NoError(t, err)
	assert.Len(t, all, 2, "reads after a roll must still return every value ever written")
}

func TestURLStateStoreNewerShardWins(t *testing.T) {
	s := openTestURLStore(t, Options{MaxShardSizeBytes: 1, SizeCacheTTL: time.Nanosecond})

	key := []byte("domainA\x2F1")
	require.NoError(t, s.PutBatch("domainA", []UrlEntry{{Key: key, Value: []byte("old")}}))
	require.NoError(t, s.PutBatch("domainA", []UrlEntry{{Key: key, Value: []byte("new")}}))

	got, ok, err := s.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got)
}
