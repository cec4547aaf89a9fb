package frontier

import (
	"encoding/json"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Domain is a normalized registrable host (eTLD+1). Two Domains are equal
// when their underlying strings are equal. Serialized (see codec.go), a
// Domain is length-prefixed, so serialized Domains order by name length
// first and byte-wise by name only among names of equal length.
type Domain struct {
	name string
}

// String returns the registrable host, e.g. "example.com".
func (d Domain) String() string { return d.name }

// IsZero reports whether d is the zero-value Domain.
func (d Domain) IsZero() bool { return d.name == "" }

// DomainOf derives the Domain for rawURL. Canonicalization of rawURL itself
// is the caller's responsibility (see urlnorm); DomainOf only extracts and
// normalizes the host portion.
func DomainOf(rawURL string) (Domain, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Domain{}, newSerializationError("DomainOf", err)
	}
	return domainFromHost(u.Hostname()), nil
}

// domainFromHost reduces a hostname to its registrable host. Hosts without a
// recognized public suffix (IP literals, "localhost", single-label hosts
// used in tests) fall back to the lowercased host itself, matching the
// teacher's own tolerant behavior in url.go's domain handling.
func domainFromHost(host string) Domain {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return Domain{}
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return Domain{name: host}
	}
	return Domain{name: etld1}
}

// NewDomain wraps an already-resolved registrable host string. It is used
// when decoding a Domain back out of storage, where the bytes are already
// known to be a valid registrable host.
func NewDomain(name string) Domain {
	return Domain{name: name}
}

// MarshalJSON renders a Domain as its bare string, e.g. "example.com".
func (d Domain) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.name)
}

// UnmarshalJSON accepts a bare string, the inverse of MarshalJSON.
func (d *Domain) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	d.name = name
	return nil
}
