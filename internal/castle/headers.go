package castle

import "strings"

// HeaderFilter restricts which request headers are forwarded to the risk
// service. Matching is case-insensitive. An empty allow list admits every
// header not on the deny list; the deny list always wins.
type HeaderFilter struct {
	allow map[string]struct{}
	deny  map[string]struct{}
}

// DefaultDeniedHeaders are stripped unless explicitly overridden. Cookies
// carry session material that must never reach a third party.
var DefaultDeniedHeaders = []string{"cookie"}

// NewHeaderFilter builds a filter from allow and deny lists. A nil deny
// list falls back to DefaultDeniedHeaders.
func NewHeaderFilter(allowListed, denyListed []string) *HeaderFilter {
	if denyListed == nil {
		denyListed = DefaultDeniedHeaders
	}
	f := &HeaderFilter{
		allow: make(map[string]struct{}, len(allowListed)),
		deny:  make(map[string]struct{}, len(denyListed)),
	}
	for _, h := range allowListed {
		f.allow[strings.ToLower(h)] = struct{}{}
	}
	for _, h := range denyListed {
		f.deny[strings.ToLower(h)] = struct{}{}
	}
	return f
}

// Apply returns the subset of headers that pass the filter, keys lowercased.
func (f *HeaderFilter) Apply(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for name, value := range headers {
		key := strings.ToLower(name)
		if _, denied := f.deny[key]; denied {
			continue
		}
		if len(f.allow) > 0 {
			if _, allowed := f.allow[key]; !allowed {
				continue
			}
		}
		out[key] = value
	}
	return out
}
