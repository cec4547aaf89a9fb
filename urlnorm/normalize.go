// Package urlnorm canonicalizes raw URLs before they are handed to
// CrawlFrontier.InsertSeedUrls.
package urlnorm

import (
	"fmt"

	"github.com/PuerkitoBio/purell"
)

// normalizeFlags matches purell.FlagsSafe plus fragment removal: safe,
// idempotent normalizations (scheme/host lowercasing, default port removal,
// empty query separator removal, ...) plus dropping "#fragment" suffixes, since
// a frontier has no notion of in-page anchors.
const normalizeFlags = purell.FlagsSafe | purell.FlagRemoveFragment

// Normalize canonicalizes raw into a form suitable for CrawlFrontier's
// composite keys: two different-looking URLs that resolve to the same
// resource should normalize to the same string.
func Normalize(raw string) (string, error) {
	normalized, err := purell.NormalizeURLString(raw, normalizeFlags)
	if err != nil {
		return "", fmt.Errorf("normalize url %q: %w", raw, err)
	}
	return normalized, nil
}
