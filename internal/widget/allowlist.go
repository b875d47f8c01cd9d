package widget

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrAPINotAllowed is reported for an api-url outside the host's allowlist.
var ErrAPINotAllowed = errors.New("widget: api-url not allowed")

// APIAllowlist restricts which booking API roots the host will call on a
// page's behalf. A root matches an api-url with the same scheme and host
// whose path equals the root path or continues it with "/". A nil allowlist
// allows nothing.
type APIAllowlist struct {
	roots []*url.URL
}

// NewAPIAllowlist parses absolute http(s) roots such as
// "https://booking.example.com" or "https://example.com/booking".
func NewAPIAllowlist(roots ...string) (*APIAllowlist, error) {
	a := &APIAllowlist{}
	for _, raw := range roots {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := parseAPIURL(raw)
		if err != nil {
			return nil, fmt.Errorf("widget: invalid allowed api root %q: %w", raw, err)
		}
		a.roots = append(a.roots, u)
	}
	return a, nil
}

// Len returns the number of configured roots.
func (a *APIAllowlist) Len() int {
	if a == nil {
		return 0
	}
	return len(a.roots)
}

// Allows reports whether requests may be built on apiURL.
func (a *APIAllowlist) Allows(apiURL string) bool {
	if a == nil || len(a.roots) == 0 {
		return false
	}
	u, err := parseAPIURL(apiURL)
	if err != nil {
		return false
	}
	for _, root := range a.roots {
		if root.Scheme != u.Scheme || root.Host != u.Host {
			continue
		}
		if root.Path == "" || u.Path == root.Path || strings.HasPrefix(u.Path, root.Path+"/") {
			return true
		}
	}
	return false
}

// parseAPIURL accepts only plain absolute http(s) URLs: no credentials,
// query, fragment or dot segments, since the value is used as a string
// prefix for every request path.
func parseAPIURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSuffix(strings.TrimSpace(raw), "/"))
	if err != nil {
		return nil, err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return nil, errors.New("scheme must be http or https")
	case u.Host == "" || u.Opaque != "":
		return nil, errors.New("host required")
	case u.User != nil:
		return nil, errors.New("credentials not allowed")
	case u.RawQuery != "" || u.ForceQuery || u.Fragment != "" || strings.ContainsAny(raw, "?#"):
		return nil, errors.New("query and fragment not allowed")
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg == "." || seg == ".." {
			return nil, errors.New("dot segments not allowed")
		}
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u, nil
}
