package frontier

// codec.go implements the length-prefixed binary encoding used for composite
// storage keys: domain || 0x2F || url. A length prefix is written before
// every variable-length field so the decoder never needs
// to scan for the separator byte to find a field boundary; this is what
// guarantees the separator can't collide with anything inside
// serialize(domain), even though a domain string could in principle contain
// a '/' byte.

import (
	"encoding/binary"
	"math"
)

const keySeparator = 0x2F

func encodeVarString(dst []byte, s string) []byte {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(s)))
	dst = append(dst, lenBuf[:n]...)
	dst = append(dst, s...)
	return dst
}

func decodeVarString(src []byte) (s string, rest []byte, ok bool) {
	l, n := binary.Uvarint(src)
	if n <= 0 {
		return "", src, false
	}
	src = src[n:]
	if uint64(len(src)) < l {
		return "", src, false
	}
	return string(src[:l]), src[l:], true
}

// encodeDomain serializes a Domain on its own (used as DomainStateStore's
// key).
func encodeDomain(d Domain) []byte {
	return encodeVarString(nil, d.name)
}

func decodeDomain(b []byte) (Domain, bool) {
	s, rest, ok := decodeVarString(b)
	if !ok || len(rest) != 0 {
		return Domain{}, false
	}
	return NewDomain(s), true
}

// compositeKey builds the domain||0x2F||url key used inside a URL shard.
func compositeKey(domain Domain, urlStr string) []byte {
	buf := make([]byte, 0, len(domain.name)+len(urlStr)+10)
	buf = encodeVarString(buf, domain.name)
	buf = append(buf, keySeparator)
	buf = encodeVarString(buf, urlStr)
	return buf
}

// decodeCompositeKey splits a composite key back into its domain and URL
// parts. It does not re-derive the domain from the URL; it trusts the bytes
// that were written.
func decodeCompositeKey(key []byte) (domain Domain, urlStr string, ok bool) {
	domainName, rest, ok := decodeVarString(key)
	if !ok || len(rest) == 0 || rest[0] != keySeparator {
		return Domain{}, "", false
	}
	rest = rest[1:]
	u, rest, ok := decodeVarString(rest)
	if !ok || len(rest) != 0 {
		return Domain{}, "", false
	}
	return NewDomain(domainName), u, true
}

const (
	tagUrlPending  byte = 0
	tagUrlCrawling byte = 1
	tagUrlFailed   byte = 2
	tagUrlDone     byte = 3

	tagDomainPending         byte = 0
	tagDomainCrawlInProgress byte = 1
	tagDomainNoUncrawledUrls byte = 2
)

func encodeUrlState(s UrlState) []byte {
	buf := make([]byte, 0, 16)
	var fbuf [8]byte
	binary.BigEndian.PutUint64(fbuf[:], math.Float64bits(s.Weight))
	buf = append(buf, fbuf[:]...)

	switch {
	case s.Status.IsPending():
		buf = append(buf, tagUrlPending)
	case s.Status.IsCrawling():
		buf = append(buf, tagUrlCrawling)
	case s.Status.IsDone():
		buf = append(buf, tagUrlDone)
	case s.Status.IsFailed():
		buf = append(buf, tagUrlFailed)
		code, hasCode, _ := s.Status.FailedStatusCode()
		if hasCode {
			buf = append(buf, 1)
			var cbuf [2]byte
			binary.BigEndian.PutUint16(cbuf[:], code)
			buf = append(buf, cbuf[:]...)
		} else {
			buf = append(buf, 0)
		}
	default:
		buf = append(buf, tagUrlPending)
	}
	return buf
}

func decodeUrlState(b []byte) (UrlState, bool) {
	if len(b) < 9 {
		return UrlState{}, false
	}
	weight := math.Float64frombits(binary.BigEndian.Uint64(b[:8]))
	tag := b[8]
	rest := b[9:]

	switch tag {
	case tagUrlPending:
		return UrlState{Weight: weight, Status: UrlStatusPending}, true
	case tagUrlCrawling:
		return UrlState{Weight: weight, Status: UrlStatusCrawling}, true
	case tagUrlDone:
		return UrlState{Weight: weight, Status: UrlStatusDone}, true
	case tagUrlFailed:
		if len(rest) < 1 {
			return UrlState{}, false
		}
		hasCode := rest[0] == 1
		if !hasCode {
			return UrlState{Weight: weight, Status: UrlStatusFailed(nil)}, true
		}
		if len(rest) < 3 {
			return UrlState{}, false
		}
		code := binary.BigEndian.Uint16(rest[1:3])
		return UrlState{Weight: weight, Status: UrlStatusFailed(&code)}, true
	default:
		return UrlState{}, false
	}
}

func encodeDomainState(s DomainState) []byte {
	buf := make([]byte, 0, 17)
	var fbuf [8]byte
	binary.BigEndian.PutUint64(fbuf[:], math.Float64bits(s.Weight))
	buf = append(buf, fbuf[:]...)

	switch s.Status {
	case DomainStatusPending:
		buf = append(buf, tagDomainPending)
	case DomainStatusCrawlInProgress:
		buf = append(buf, tagDomainCrawlInProgress)
	case DomainStatusNoUncrawledUrls:
		buf = append(buf, tagDomainNoUncrawledUrls)
	default:
		buf = append(buf, tagDomainPending)
	}

	var ubuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(ubuf[:], s.TotalUrls)
	buf = append(buf, ubuf[:n]...)
	return buf
}

func decodeDomainState(b []byte) (DomainState, bool) {
	if len(b) < 9 {
		return DomainState{}, false
	}
	weight := math.Float64frombits(binary.BigEndian.Uint64(b[:8]))
	tag := b[8]
	rest := b[9:]

	var status DomainStatus
	switch tag {
	case tagDomainPending:
		status = DomainStatusPending
	case tagDomainCrawlInProgress:
		status = DomainStatusCrawlInProgress
	case tagDomainNoUncrawledUrls:
		status = DomainStatusNoUncrawledUrls
	default:
		return DomainState{}, false
	}

	total, n := binary.Uvarint(rest)
	if n <= 0 {
		return DomainState{}, false
	}
	return DomainState{Weight: weight, Status: status, TotalUrls: total}, true
}

func encodeRange(r RangeRecord) []byte {
	buf := make([]byte, 0, len(r.Start)+len(r.End)+10)
	buf = encodeVarString(buf, string(r.Start))
	buf = encodeVarString(buf, string(r.End))
	return buf
}

func decodeRange(b []byte) (RangeRecord, bool) {
	start, rest, ok := decodeVarString(b)
	if !ok {
		return RangeRecord{}, false
	}
	end, rest, ok := decodeVarString(rest)
	if !ok || len(rest) != 0 {
		return RangeRecord{}, false
	}
	return RangeRecord{Start: []byte(start), End: []byte(end)}, true
}
