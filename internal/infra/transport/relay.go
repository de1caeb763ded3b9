package transport

import (
	"net/url"
	"strings"
)

// Relay is a third-party forwarding service used when an origin refuses
// direct requests. Relays are tried in configuration order; the first one
// that produces an acceptable response is remembered for the origin host.
type Relay struct {
	// Name identifies the relay in proxy memory, logs and metrics.
	Name string

	// URLTemplate is the relay endpoint with a "{url}" placeholder for the
	// query-escaped target URL.
	URLTemplate string
}

// BuildURL returns the relay request URL for the given target.
func (r Relay) BuildURL(target string) string {
	return strings.Replace(r.URLTemplate, "{url}", url.QueryEscape(target), 1)
}
