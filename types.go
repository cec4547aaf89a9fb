package frontier

// UrlStatus is the crawl status of a single URL. The zero value equals
// UrlStatusPending, which is also where UrlState's default starts.
type UrlStatus struct {
	tag        urlStatusTag
	statusCode *uint16 // set only when tag == urlStatusFailed
}

type urlStatusTag uint8

const (
	urlStatusPending urlStatusTag = iota
	urlStatusCrawling
	urlStatusFailed
	urlStatusDone
)

// UrlStatusPending is the initial status of every newly discovered URL.
var UrlStatusPending = UrlStatus{tag: urlStatusPending}

// UrlStatusCrawling marks a URL as currently claimed by a fetch job.
var UrlStatusCrawling = UrlStatus{tag: urlStatusCrawling}

// UrlStatusDone marks a URL as successfully fetched.
var UrlStatusDone = UrlStatus{tag: urlStatusDone}

// UrlStatusFailed marks a URL as having failed to fetch, optionally carrying
// the HTTP status code that was observed (nil if the fetch never reached the
// server).
func UrlStatusFailed(statusCode *uint16) UrlStatus {
	return UrlStatus{tag: urlStatusFailed, statusCode: statusCode}
}

// IsPending, IsCrawling, IsFailed and IsDone report the UrlStatus variant.
func (s UrlStatus) IsPending() bool  { return s.tag == urlStatusPending }
func (s UrlStatus) IsCrawling() bool { return s.tag == urlStatusCrawling }
func (s UrlStatus) IsFailed() bool   { return s.tag == urlStatusFailed }
func (s UrlStatus) IsDone() bool     { return s.tag == urlStatusDone }

// FailedStatusCode returns the status code carried by a Failed UrlStatus, if
// any. ok is false unless IsFailed() is true.
func (s UrlStatus) FailedStatusCode() (code uint16, hasCode bool, ok bool) {
	if !s.IsFailed() {
		return 0, false, false
	}
	if s.statusCode == nil {
		return 0, false, true
	}
	return *s.statusCode, true, true
}

func (s UrlStatus) String() string {
	switch s.tag {
	case urlStatusPending:
		return "Pending"
	case urlStatusCrawling:
		return "Crawling"
	case urlStatusFailed:
		return "Failed"
	case urlStatusDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// DomainStatus is the crawl status of a domain as a whole.
type DomainStatus uint8

const (
	// DomainStatusPending means the domain has pending URLs and has not been
	// claimed by a scheduler.
	DomainStatusPending DomainStatus = iota
	// DomainStatusCrawlInProgress means sample_domains has handed this domain
	// out and it has not yet been returned via set_domain_status.
	DomainStatusCrawlInProgress
	// DomainStatusNoUncrawledUrls is a terminal status set only by the
	// scheduler (see set_domain_status); the core never sets it itself.
	DomainStatusNoUncrawledUrls
)

func (s DomainStatus) String() string {
	switch s {
	case DomainStatusPending:
		return "Pending"
	case DomainStatusCrawlInProgress:
		return "CrawlInProgress"
	case DomainStatusNoUncrawledUrls:
		return "NoUncrawledUrls"
	default:
		return "Unknown"
	}
}

// UrlState is the per-URL record stored in the URLStateStore.
type UrlState struct {
	// Weight counts cross-domain links to this URL seen by Ingest so far:
	// each ingested cross-domain link adds 1, even from a source already
	// counted; same-domain links add nothing.
	Weight float64
	Status UrlStatus
}

// DefaultUrlState is the state assigned to a URL on first discovery.
func DefaultUrlState() UrlState {
	return UrlState{Weight: 0, Status: UrlStatusPending}
}

// DomainState is the per-domain record stored in the DomainStateStore.
type DomainState struct {
	// Weight is a cached upper bound on the weight of this domain's pending
	// URLs, used to bias domain-level sampling.
	Weight    float64
	Status    DomainStatus
	TotalUrls uint64
}

// DefaultDomainState is the state assigned to a domain on first discovery.
func DefaultDomainState() DomainState {
	return DomainState{Weight: 0, Status: DomainStatusPending, TotalUrls: 0}
}

// RangeRecord bounds every composite key written for one domain inside one
// shard. It only ever widens.
type RangeRecord struct {
	Start []byte
	End   []byte
}

// Expand widens r in place so that it encloses key, returning whether the
// record changed.
func (r *RangeRecord) Expand(key []byte) bool {
	changed := false
	if r.Start == nil || compareBytes(key, r.Start) < 0 {
		r.Start = append([]byte(nil), key...)
		changed = true
	}
	if r.End == nil || compareBytes(key, r.End) > 0 {
		r.End = append([]byte(nil), key...)
		changed = true
	}
	return changed
}

func compareBytes(a, b []byte) int {
	switch {
	case len(a) < len(b):
		for i := range a {
			if a[i] != b[i] {
				return int(a[i]) - int(b[i])
			}
		}
		return -1
	case len(a) > len(b):
		for i := range b {
			if a[i] != b[i] {
				return int(a[i]) - int(b[i])
			}
		}
		return 1
	default:
		for i := range a {
			if a[i] != b[i] {
				return int(a[i]) - int(b[i])
			}
		}
		return 0
	}
}

// UrlResponse is the variant of outcomes a fetch worker reports for a single
// URL. The core only examines the Redirected variant; others are carried
// through untouched for external collaborators.
type UrlResponse struct {
	URL string

	// Redirected, when true, means this response is a redirect and NewURL is
	// populated with the destination.
	Redirected bool
	NewURL     string
}

// JobResponse is what a fetch worker submits back to CrawlFrontier.Ingest
// after processing one Job.
type JobResponse struct {
	Domain         Domain
	DiscoveredUrls []string
	UrlResponses   []UrlResponse
}

// Job is a bounded batch of work handed out by CrawlFrontier.PrepareJobs.
type Job struct {
	Domain       Domain
	Urls         []string
	FetchSitemap bool
}
