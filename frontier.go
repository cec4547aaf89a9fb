package frontier

import (
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/iParadigms/frontier/internal/concurrent"
	"github.com/iParadigms/frontier/semaphore"
	"github.com/iParadigms/frontier/store"
)

// CrawlFrontier is the orchestrator that composes URLStateStore,
// DomainStateStore and RedirectStore into the frontier's public contract:
// seed insertion, response ingest, domain sampling and per-domain job
// preparation. Every mutating method requires exclusive access to the
// frontier; CrawlFrontier does not serialize calls against itself (the
// caller -- normally a single scheduler loop -- owns that discipline).
type CrawlFrontier struct {
	urls      *store.URLStateStore
	domains   *store.DomainStateStore
	redirects *store.RedirectStore
	log       *zap.SugaredLogger

	domainRNG *rand.Rand
	urlRNG    *rand.Rand

	// domainMultimapShards is the lock-stripe count Ingest's fan-out phase
	// builds its DomainMultimap with; see Options.DomainMultimapShards.
	domainMultimapShards int
}

// Options configures OpenCrawlFrontier.
type Options struct {
	// DataDir roots the on-disk layout: DataDir/urls, DataDir/domains,
	// DataDir/redirects.
	DataDir string

	URLStore store.Options
	Log      *zap.SugaredLogger

	// DomainSampleRNG and URLSampleRNG seed the two WeightedSampler call
	// sites. Leave nil in production; tests that need deterministic
	// sampling pass a seeded *rand.Rand.
	DomainSampleRNG *rand.Rand
	URLSampleRNG    *rand.Rand

	// DomainMultimapShards sets the lock-stripe count for the sharded map
	// Ingest's parallel fan-out phase appends into (see
	// internal/concurrent.DomainMultimap). Zero falls back to
	// Config.Frontier.DomainMultimapShards, then to the multimap's own
	// built-in default if that is also unset.
	DomainMultimapShards int
}

// OpenCrawlFrontier opens (or creates) the full on-disk layout rooted at
// opts.DataDir.
func OpenCrawlFrontier(opts Options) (*CrawlFrontier, error) {
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	if opts.DataDir == "" {
		return nil, newFilesystemError("open crawl frontier", os.ErrInvalid)
	}
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, newFilesystemError("create data dir", err)
	}

	opts.URLStore.Log = opts.Log
	urls, err := store.OpenURLStateStore(filepath.Join(opts.DataDir, "urls"), opts.URLStore)
	if err != nil {
		return nil, err
	}
	domains, err := store.OpenDomainStateStore(opts.DataDir, opts.Log)
	if err != nil {
		_ = urls.Close()
		return nil, err
	}
	redirects, err := store.OpenRedirectStore(opts.DataDir, opts.Log)
	if err != nil {
		_ = urls.Close()
		_ = domains.Close()
		return nil, err
	}

	shardCount := opts.DomainMultimapShards
	if shardCount <= 0 {
		shardCount = Config.Frontier.DomainMultimapShards
	}

	return &CrawlFrontier{
		urls:                 urls,
		domains:              domains,
		redirects:            redirects,
		log:                  opts.Log,
		domainRNG:            opts.DomainSampleRNG,
		urlRNG:               opts.URLSampleRNG,
		domainMultimapShards: shardCount,
	}, nil
}

// Close closes every underlying store.
func (f *CrawlFrontier) Close() error {
	var firstErr error
	if err := f.urls.Close(); err != nil {
		firstErr = err
	}
	if err := f.domains.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := f.redirects.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// InsertSeedUrls derives each URL's Domain, creates or bumps its
// DomainState.total_urls, and writes a fresh default UrlState. A URL that
// fails to parse is logged and skipped rather than aborting the whole batch;
// everything else propagates the first store failure encountered.
func (f *CrawlFrontier) InsertSeedUrls(urls []string) error {
	for _, raw := range urls {
		domain, err := DomainOf(raw)
		if err != nil {
			f.log.Warnw("skipping unparsable seed url", "url", raw, "error", err)
			continue
		}

		ds, err := f.loadOrDefaultDomainState(domain)
		if err != nil {
			return err
		}
		ds.TotalUrls++
		if err := f.putDomainState(domain, ds); err != nil {
			return err
		}

		key := compositeKey(domain, raw)
		entry := []UrlEntry{{Key: key, Value: encodeUrlState(DefaultUrlState())}}
		if err := f.urls.PutBatch(domain.String(), entry); err != nil {
			return err
		}
		f.log.Debugw("inserted seed url", "url", raw, "domain", domain.String())
	}
	return nil
}

// UrlEntry re-exports store.UrlEntry for callers that need to build batches
// directly against URLStateStore (e.g. tooling); CrawlFrontier itself only
// uses it internally.
type UrlEntry = store.UrlEntry

type discoveredItem struct {
	url             string
	differentDomain bool
}

// Ingest folds a batch of fetch-worker responses into the frontier: link
// discovery fans out by domain in parallel (step 1), redirects are recorded
// best-effort (step 2), then every touched domain is merged sequentially
// (step 3). It returns every domain that received at least one discovered
// URL. Ingest is not atomic across domains: a mid-call store failure returns
// immediately, leaving domains merged before the failure updated and the
// rest untouched.
func (f *CrawlFrontier) Ingest(responses []JobResponse) ([]Domain, error) {
	fanout := concurrent.NewDomainMultimap[discoveredItem](f.domainMultimapShards)

	sm := semaphore.New()
	for _, resp := range responses {
		resp := resp
		sm.Add(1)
		go func() {
			defer sm.Done()
			f.fanOutOneResponse(resp, fanout)
		}()
	}
	sm.Wait()

	targetNames := fanout.Keys()
	sort.Strings(targetNames) // deterministic merge order, easier to reason about/test

	touched := make([]Domain, 0, len(targetNames))
	for _, name := range targetNames {
		domain := NewDomain(name)
		items := fanout.Get(name)
		if len(items) == 0 {
			continue
		}
		if err := f.mergeDomainIngest(domain, items); err != nil {
			return touched, err
		}
		touched = append(touched, domain)
	}
	return touched, nil
}

// fanOutOneResponse handles one JobResponse's discovered links (appended to
// fanout, keyed by the discovered URL's own domain) and its redirects
// (written straight to RedirectStore, best-effort). It may run concurrently
// with the same call for other responses in the same Ingest batch.
func (f *CrawlFrontier) fanOutOneResponse(resp JobResponse, fanout *concurrent.DomainMultimap[discoveredItem]) {
	for _, discovered := range resp.DiscoveredUrls {
		discDomain, err := DomainOf(discovered)
		if err != nil {
			f.log.Warnw("skipping unparsable discovered url", "url", discovered, "error", err)
			continue
		}
		different := discDomain != resp.Domain
		fanout.Append(discDomain.String(), discoveredItem{url: discovered, differentDomain: different})
	}

	for _, ur := range resp.UrlResponses {
		if !ur.Redirected {
			continue
		}
		if err := f.redirects.Put([]byte(ur.URL), []byte(ur.NewURL)); err != nil {
			f.log.Warnw("redirect write failed, dropping (best-effort)", "from", ur.URL, "to", ur.NewURL, "error", err)
		}
	}
}

// mergeDomainIngest performs step 3 of Ingest for a single target domain:
// load-or-create its DomainState, fold in every discovered URL, and persist
// both the URL batch and the updated DomainState.
func (f *CrawlFrontier) mergeDomainIngest(domain Domain, items []discoveredItem) error {
	ds, err := f.loadOrDefaultDomainState(domain)
	if err != nil {
		return err
	}

	entries := make([]UrlEntry, 0, len(items))
	for _, item := range items {
		key := compositeKey(domain, item.url)
		us, found, err := f.urls.Get(key)
		if err != nil {
			return err
		}

		var state UrlState
		if found {
			decoded, ok := decodeUrlState(us)
			if !ok {
				f.log.Warnw("dropping corrupt url state record", "domain", domain.String(), "url", item.url)
				continue
			}
			state = decoded
		} else {
			ds.TotalUrls++
			state = DefaultUrlState()
		}

		if item.differentDomain {
			state.Weight++
		}
		if state.Weight > ds.Weight {
			ds.Weight = state.Weight
		}

		entries = append(entries, UrlEntry{Key: key, Value: encodeUrlState(state)})
	}

	if len(entries) > 0 {
		if err := f.urls.PutBatch(domain.String(), entries); err != nil {
			return err
		}
	}
	return f.putDomainState(domain, ds)
}

// SetDomainStatus overwrites domain's status, creating a default DomainState
// first if domain has never been seen. It never errors on an unknown
// domain.
func (f *CrawlFrontier) SetDomainStatus(domain Domain, status DomainStatus) error {
	ds, err := f.loadOrDefaultDomainState(domain)
	if err != nil {
		return err
	}
	ds.Status = status
	return f.putDomainState(domain, ds)
}

// SampleDomains draws up to n Pending domains, biased by DomainState.weight,
// transitions each to CrawlInProgress, and returns them. Domains not
// selected are left unchanged.
func (f *CrawlFrontier) SampleDomains(n int) ([]Domain, error) {
	sampler := NewWeightedSampler[Domain](n, f.domainRNG)

	err := f.domains.ForEach(func(domainKey, value []byte) error {
		domain, ok := decodeDomain(domainKey)
		if !ok {
			f.log.Warnw("dropping corrupt domain key record during sample")
			return nil
		}
		ds, ok := decodeDomainState(value)
		if !ok {
			f.log.Warnw("dropping corrupt domain state record", "domain", domain.String())
			return nil
		}
		if ds.Status != DomainStatusPending {
			return nil
		}
		sampler.Offer(domain, ds.Weight)
		return nil
	})
	if err != nil {
		return nil, err
	}

	selected := sampler.Result()
	for _, domain := range selected {
		if err := f.SetDomainStatus(domain, DomainStatusCrawlInProgress); err != nil {
			return selected, err
		}
	}
	return selected, nil
}

type urlCandidate struct {
	key   []byte
	url   string
	state UrlState
}

// PrepareJobs builds one Job per domain: it samples urlsPerJob Pending URLs
// biased by UrlState.weight, marks them Crawling, recomputes the domain's
// cached weight from whatever is still Pending, and persists both. Domains
// are processed sequentially and independently; an error on one domain
// returns immediately with the jobs already built for earlier domains.
func (f *CrawlFrontier) PrepareJobs(domains []Domain, urlsPerJob int) ([]Job, error) {
	jobs := make([]Job, 0, len(domains))

	for _, domain := range domains {
		job, err := f.prepareOneJob(domain, urlsPerJob)
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (f *CrawlFrontier) prepareOneJob(domain Domain, urlsPerJob int) (Job, error) {
	entries, err := f.urls.GetAllUrls(domain.String())
	if err != nil {
		return Job{}, err
	}

	candidates := make([]urlCandidate, 0, len(entries))
	for _, e := range entries {
		_, urlStr, ok := decodeCompositeKey(e.Key)
		if !ok {
			f.log.Warnw("dropping corrupt url key record during prepare_jobs", "domain", domain.String())
			continue
		}
		state, ok := decodeUrlState(e.Value)
		if !ok {
			f.log.Warnw("dropping corrupt url state record during prepare_jobs", "domain", domain.String(), "url", urlStr)
			continue
		}
		if !state.Status.IsPending() {
			continue
		}
		candidates = append(candidates, urlCandidate{key: e.Key, url: urlStr, state: state})
	}

	// GetAllUrls merges across shards via a map, so its order is
	// unspecified; sort candidates to give prepare_jobs a deterministic
	// encounter order to sample and emit from.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].url < candidates[j].url })

	sampler := NewWeightedSampler[int](urlsPerJob, f.urlRNG)
	for i, c := range candidates {
		sampler.Offer(i, c.state.Weight)
	}
	selected := sampler.Result()
	sort.Ints(selected) // preserve candidates' encounter order in the emitted job

	selectedSet := make(map[int]bool, len(selected))
	for _, idx := range selected {
		selectedSet[idx] = true
	}

	batch := make([]UrlEntry, 0, len(selected))
	jobUrls := make([]string, 0, len(selected))
	var remainingWeight float64
	for i, c := range candidates {
		if selectedSet[i] {
			c.state.Status = UrlStatusCrawling
			batch = append(batch, UrlEntry{Key: c.key, Value: encodeUrlState(c.state)})
			jobUrls = append(jobUrls, c.url)
			continue
		}
		if c.state.Weight > remainingWeight {
			remainingWeight = c.state.Weight
		}
	}

	if len(batch) > 0 {
		if err := f.urls.PutBatch(domain.String(), batch); err != nil {
			return Job{}, err
		}
	}

	ds, err := f.loadOrDefaultDomainState(domain)
	if err != nil {
		return Job{}, err
	}
	ds.Weight = remainingWeight
	if err := f.putDomainState(domain, ds); err != nil {
		return Job{}, err
	}

	return Job{Domain: domain, Urls: jobUrls, FetchSitemap: false}, nil
}

// GetDomainState returns the persisted DomainState for domain, or ok=false if
// the domain has never been seen.
func (f *CrawlFrontier) GetDomainState(domain Domain) (state DomainState, ok bool, err error) {
	raw, found, err := f.domains.Get(encodeDomain(domain))
	if err != nil || !found {
		return DomainState{}, false, err
	}
	state, ok = decodeDomainState(raw)
	if !ok {
		f.log.Warnw("dropping corrupt domain state record on read", "domain", domain.String())
		return DomainState{}, false, nil
	}
	return state, true, nil
}

// GetUrlState returns the persisted UrlState for (domain, url), or ok=false
// if it has never been written.
func (f *CrawlFrontier) GetUrlState(domain Domain, url string) (state UrlState, ok bool, err error) {
	raw, found, err := f.urls.Get(compositeKey(domain, url))
	if err != nil || !found {
		return UrlState{}, false, err
	}
	state, ok = decodeUrlState(raw)
	if !ok {
		f.log.Warnw("dropping corrupt url state record on read", "domain", domain.String(), "url", url)
		return UrlState{}, false, nil
	}
	return state, true, nil
}

// GetAllUrls returns every URL ever written under domain, decoded and
// skipping any corrupt records. Order is unspecified.
func (f *CrawlFrontier) GetAllUrls(domain Domain) ([]string, error) {
	entries, err := f.urls.GetAllUrls(domain.String())
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		_, urlStr, ok := decodeCompositeKey(e.Key)
		if !ok {
			f.log.Warnw("dropping corrupt url key record on read", "domain", domain.String())
			continue
		}
		out = append(out, urlStr)
	}
	return out, nil
}

// ForEachDomain streams every known domain and its current DomainState, in
// store order, skipping any corrupt records. It is the read-only backbone
// of the diagnostic status server (statusserver package); it must not be
// called from inside a mutating CrawlFrontier method.
func (f *CrawlFrontier) ForEachDomain(fn func(Domain, DomainState) error) error {
	return f.domains.ForEach(func(domainKey, value []byte) error {
		domain, ok := decodeDomain(domainKey)
		if !ok {
			f.log.Warnw("dropping corrupt domain key record during scan")
			return nil
		}
		ds, ok := decodeDomainState(value)
		if !ok {
			f.log.Warnw("dropping corrupt domain state record during scan", "domain", domain.String())
			return nil
		}
		return fn(domain, ds)
	})
}

// GetRedirect returns the recorded redirect target for fromURL, if any.
func (f *CrawlFrontier) GetRedirect(fromURL string) (toURL string, ok bool, err error) {
	value, found, err := f.redirects.Get([]byte(fromURL))
	if err != nil || !found {
		return "", false, err
	}
	return string(value), true, nil
}

func (f *CrawlFrontier) loadOrDefaultDomainState(domain Domain) (DomainState, error) {
	raw, found, err := f.domains.Get(encodeDomain(domain))
	if err != nil {
		return DomainState{}, err
	}
	if !found {
		return DefaultDomainState(), nil
	}
	ds, ok := decodeDomainState(raw)
	if !ok {
		f.log.Warnw("dropping corrupt domain state record, recreating default", "domain", domain.String())
		return DefaultDomainState(), nil
	}
	return ds, nil
}

func (f *CrawlFrontier) putDomainState(domain Domain, ds DomainState) error {
	return f.domains.Put(encodeDomain(domain), encodeDomainState(ds))
}
