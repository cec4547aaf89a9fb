package frontier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeKeyRoundTrip(t *testing.T) {
	d := NewDomain("example.com")
	key := compositeKey(d, "https://example.com/a/b?c=d")

	gotDomain, gotURL, ok := decodeCompositeKey(key)
	require.True(t, ok)
	assert.Equal(t, d, gotDomain)
	assert.Equal(t, "https://example.com/a/b?c=d", gotURL)
}

func TestCompositeKeyOrderingGroupsByDomain(t *testing.T) {
	a := compositeKey(NewDomain("a.com"), "https://a.com/1")
	b := compositeKey(NewDomain("a.com"), "https://a.com/2")
	c := compositeKey(NewDomain("b.com"), "https://b.com/1")

	assert.True(t, compareBytes(a, b) < 0)
	assert.True(t, compareBytes(b, c) < 0)
}

func TestSeparatorCannotBeConfusedWithDomainContent(t *testing.T) {
	// Even a domain string that (hypothetically) contained the separator
	// byte would not break decoding, because the length prefix -- not a
	// scan for the separator -- determines the domain field's boundary.
	d := NewDomain("weird/domain.example")
	key := compositeKey(d, "https://example.com/x")

	gotDomain, gotURL, ok := decodeCompositeKey(key)
	require.True(t, ok)
	assert.Equal(t, d, gotDomain)
	assert.Equal(t, "https://example.com/x", gotURL)
}

func TestUrlStateRoundTrip(t *testing.T) {
	code := uint16(404)
	cases := []UrlState{
		DefaultUrlState(),
		{Weight: 3.5, Status: UrlStatusCrawling},
		{Weight: 0, Status: UrlStatusDone},
		{Weight: 1, Status: UrlStatusFailed(&code)},
		{Weight: 1, Status: UrlStatusFailed(nil)},
	}

	for _, c := range cases {
		enc := encodeUrlState(c)
		dec, ok := decodeUrlState(enc)
		require.True(t, ok)
		assert.Equal(t, c.Weight, dec.Weight)
		assert.Equal(t, c.Status.String(), dec.Status.String())
	}
}

func TestDomainStateRoundTrip(t *testing.T) {
	cases := []DomainState{
		DefaultDomainState(),
		{Weight: 42.5, Status: DomainStatusCrawlInProgress, TotalUrls: 1000},
		{Weight: 0, Status: DomainStatusNoUncrawledUrls, TotalUrls: 0},
	}

	for _, c := range cases {
		enc := encodeDomainState(c)
		dec, ok := decodeDomainState(enc)
		require.True(t, ok)
		assert.Equal(t, c, dec)
	}
}

func TestRangeRoundTrip(t *testing.T) {
	r := RangeRecord{Start: []byte("aaa"), End: []byte("zzz")}
	dec, ok := decodeRange(encodeRange(r))
	require.True(t, ok)
	assert.Equal(t, r, dec)
}

func TestRangeExpand(t *testing.T) {
	var r RangeRecord
	r.Expand([]byte("mmm"))
	assert.Equal(t, []byte("mmm"), r.Start)
	assert.Equal(t, []byte("mmm"), r.End)

	r.Expand([]byte("aaa"))
	assert.Equal(t, []byte("aaa"), r.Start)
	assert.Equal(t, []byte("mmm"), r.End)

	r.Expand([]byte("zzz"))
	assert.Equal(t, []byte("aaa"), r.Start)
	assert.Equal(t, []byte("zzz"), r.End)
}
