package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// ResolveLocation turns a possibly-relative redirect target into an
// absolute URL against the given base origin.
//
// Properties:
//   - Pure: no state, no memory
//   - Deterministic: same input always produces same output
//   - Absolute locations pass through untouched
func ResolveLocation(base url.URL, location string) (url.URL, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return url.URL{}, fmt.Errorf("empty redirect location")
	}

	ref, err := url.Parse(location)
	if err != nil {
		return url.URL{}, fmt.Errorf("malformed redirect location %q: %w", location, err)
	}

	if ref.IsAbs() {
		return *ref, nil
	}

	resolved := base.ResolveReference(ref)
	return *resolved, nil
}
