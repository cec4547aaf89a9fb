// Package storetest stands up throwaway, badger-backed test fixtures for
// exercising a CrawlFrontier without a real on-disk data directory to clean
// up.
package storetest

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/iParadigms/frontier"
	"github.com/iParadigms/frontier/store"
)

// OpenFrontier opens a CrawlFrontier rooted at a t.TempDir(), logging
// through zaptest so failures surface in `go test -v` output. It is closed
// automatically via t.Cleanup.
func OpenFrontier(t *testing.T, urlStoreOpts store.Options) *frontier.CrawlFrontier {
	t.Helper()

	urlStoreOpts.Log = zaptest.NewLogger(t).Sugar()
	f, err := frontier.OpenCrawlFrontier(frontier.Options{
		DataDir:  t.TempDir(),
		URLStore: urlStoreOpts,
		Log:      urlStoreOpts.Log,
	})
	if err != nil {
		t.Fatalf("storetest: failed to open crawl frontier: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

// TinyShardOptions returns URLStore options that force a shard roll after a
// handful of writes, for tests exercising rollover without waiting on real
// production-sized thresholds.
func TinyShardOptions() store.Options {
	return store.Options{MaxShardSizeBytes: 1, SizeCacheTTL: 1}
}
