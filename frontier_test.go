package frontier

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iParadigms/frontier/store"
)

func openTestFrontier(t *testing.T) *CrawlFrontier {
	t.Helper()
	f, err := OpenCrawlFrontier(Options{
		DataDir:         t.TempDir(),
		DomainSampleRNG: rand.New(rand.NewSource(1)),
		URLSampleRNG:    rand.New(rand.NewSource(2)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

// S1. Single seed, single sample.
func TestScenarioSingleSeedSingleSample(t *testing.T) {
	f := openTestFrontier(t)

	require.NoError(t, f.InsertSeedUrls([]string{"https://example.com"}))

	sampled, err := f.SampleDomains(128)
	require.NoError(t, err)
	require.Len(t, sampled, 1)
	assert.Equal(t, "example.com", sampled[0].String())

	state, ok, err := f.GetDomainState(sampled[0])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, DomainStatusCrawlInProgress, state.Status)

	again, err := f.SampleDomains(128)
	require.NoError(t, err)
	assert.Empty(t, again)
}

// S2. Get-all within a domain.
func TestScenarioGetAllWithinDomain(t *testing.T) {
	f := openTestFrontier(t)

	require.NoError(t, f.InsertSeedUrls([]string{"https://a.com", "https://b.com"}))

	urls, err := f.GetAllUrls(NewDomain("a.com"))
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Equal(t, "https://a.com", urls[0])
}

// S3. Cross-domain weight propagation, including the documented
// non-idempotence of a repeated ingest.
func TestScenarioCrossDomainWeightPropagation(t *testing.T) {
	f := openTestFrontier(t)

	require.NoError(t, f.InsertSeedUrls([]string{"https://x.com", "https://y.com"}))

	resp := JobResponse{
		Domain:         NewDomain("x.com"),
		DiscoveredUrls: []string{"https://y.com/p"},
	}

	_, err := f.Ingest([]JobResponse{resp})
	require.NoError(t, err)

	state, ok, err := f.GetUrlState(NewDomain("y.com"), "https://y.com/p")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1.0, state.Weight)

	domainState, ok, err := f.GetDomainState(NewDomain("y.com"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.GreaterOrEqual(t, domainState.Weight, 1.0)

	_, err = f.Ingest([]JobResponse{resp})
	require.NoError(t, err)

	state, ok, err = f.GetUrlState(NewDomain("y.com"), "https://y.com/p")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2.0, state.Weight, "re-ingesting the same response is documented as non-idempotent")
}

// S4. Same-domain link does not raise weight.
func TestScenarioSameDomainLinkDoesNotRaiseWeight(t *testing.T) {
	f := openTestFrontier(t)

	require.NoError(t, f.InsertSeedUrls([]string{"https://x.com"}))

	_, err := f.Ingest([]JobResponse{{
		Domain:         NewDomain("x.com"),
		DiscoveredUrls: []string{"https://x.com/a"},
	}})
	require.NoError(t, err)

	state, ok, err := f.GetUrlState(NewDomain("x.com"), "https://x.com/a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.0, state.Weight)
}

// S6. Shard rollover preserves reads, driven through the public frontier API
// rather than the store package directly.
func TestScenarioShardRolloverPreservesReads(t *testing.T) {
	f, err := OpenCrawlFrontier(Options{
		DataDir: t.TempDir(),
		URLStore: store.Options{
			MaxShardSizeBytes: 1,
			SizeCacheTTL:      1, // effectively disables the size cache for this test
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	urls := []string{
		"https://roll.com/1",
		"https://roll.com/2",
		"https://roll.com/3",
	}
	require.NoError(t, f.InsertSeedUrls(urls))

	got, err := f.GetAllUrls(NewDomain("roll.com"))
	require.NoError(t, err)
	assert.ElementsMatch(t, urls, got)
}

// Invariant 1: after insert_seed_urls([u]), sample_domains(k>=1) returns at
// least the domain of u, transitioned to CrawlInProgress.
func TestInvariantSeedThenSampleReturnsDomain(t *testing.T) {
	f := openTestFrontier(t)
	require.NoError(t, f.InsertSeedUrls([]string{"https://invariant1.com/a"}))

	sampled, err := f.SampleDomains(1)
	require.NoError(t, err)
	require.Len(t, sampled, 1)
	assert.Equal(t, "invariant1.com", sampled[0].String())
}

// Invariant 2: a second sample_domains immediately after, with no
// set_domain_status in between, never re-returns an already-sampled domain.
func TestInvariantNoDoubleSample(t *testing.T) {
	f := openTestFrontier(t)
	require.NoError(t, f.InsertSeedUrls([]string{"https://a.com", "https://b.com"}))

	first, err := f.SampleDomains(1)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := f.SampleDomains(10)
	require.NoError(t, err)
	for _, d := range second {
		assert.NotEqual(t, first[0], d)
	}
}

// Invariant 3: DomainState.weight is never negative and total_urls never
// undercounts distinct URLs written.
func TestInvariantDomainWeightAndTotalUrlsNonNegative(t *testing.T) {
	f := openTestFrontier(t)
	require.NoError(t, f.InsertSeedUrls([]string{"https://c.com/a", "https://c.com/b"}))

	_, err := f.Ingest([]JobResponse{{
		Domain:         NewDomain("other.com"),
		DiscoveredUrls: []string{"https://c.com/b", "https://c.com/new"},
	}})
	require.NoError(t, err)

	state, ok, err := f.GetDomainState(NewDomain("c.com"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.GreaterOrEqual(t, state.Weight, 0.0)
	assert.GreaterOrEqual(t, state.TotalUrls, uint64(3))
}

// Invariant 4: after prepare_jobs([d], k), every URL in the returned job is
// Crawling in the store.
func TestInvariantPrepareJobsMarksCrawling(t *testing.T) {
	f := openTestFrontier(t)
	require.NoError(t, f.InsertSeedUrls([]string{
		"https://d.com/1", "https://d.com/2", "https://d.com/3",
	}))

	jobs, err := f.PrepareJobs([]Domain{NewDomain("d.com")}, 2)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.LessOrEqual(t, len(jobs[0].Urls), 2)

	for _, u := range jobs[0].Urls {
		state, ok, err := f.GetUrlState(NewDomain("d.com"), u)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, state.Status.IsCrawling())
	}
}

func TestSetDomainStatusCreatesDefaultForUnknownDomain(t *testing.T) {
	f := openTestFrontier(t)

	require.NoError(t, f.SetDomainStatus(NewDomain("never-seeded.com"), DomainStatusNoUncrawledUrls))

	state, ok, err := f.GetDomainState(NewDomain("never-seeded.com"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, DomainStatusNoUncrawledUrls, state.Status)
}

func TestInsertSeedUrlsIncrementsTotalUrlsOnReseed(t *testing.T) {
	f := openTestFrontier(t)

	require.NoError(t, f.InsertSeedUrls([]string{"https://dup.com"}))
	require.NoError(t, f.InsertSeedUrls([]string{"https://dup.com"}))

	state, ok, err := f.GetDomainState(NewDomain("dup.com"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(2), state.TotalUrls, "documented drift: re-seeding the same url still bumps total_urls")
}

// Options.DomainMultimapShards must actually reach Ingest's fan-out
// multimap: collapsing it to a single lock stripe must not change Ingest's
// observable results, only its internal lock contention.
func TestIngestHonorsConfiguredDomainMultimapShardCount(t *testing.T) {
	f, err := OpenCrawlFrontier(Options{
		DataDir:              t.TempDir(),
		DomainMultimapShards: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	require.NoError(t, f.InsertSeedUrls([]string{"https://x.com", "https://y.com", "https://z.com"}))

	touched, err := f.Ingest([]JobResponse{{
		Domain:         NewDomain("x.com"),
		DiscoveredUrls: []string{"https://y.com/p", "https://z.com/q"},
	}})
	require.NoError(t, err)

	names := make([]string, len(touched))
	for i, d := range touched {
		names[i] = d.String()
	}
	assert.ElementsMatch(t, []string{"y.com", "z.com"}, names)

	state, ok, err := f.GetUrlState(NewDomain("y.com"), "https://y.com/p")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1.0, state.Weight)
}

// A zero Options.DomainMultimapShards falls back to
// Config.Frontier.DomainMultimapShards rather than silently ignoring it.
func TestDomainMultimapShardCountFallsBackToConfig(t *testing.T) {
	defer SetDefaultConfig()
	SetDefaultConfig()
	Config.Frontier.DomainMultimapShards = 2

	f, err := OpenCrawlFrontier(Options{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	assert.Equal(t, 2, f.domainMultimapShards)
}
