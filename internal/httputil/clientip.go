// Package httputil has small request helpers shared by the API and stream
// handlers.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the originating client address used for request logs and
// the per-IP stream cap. Forwarding headers are only honored when trustProxy
// is set, i.e. when the deployment fronts the service with a proxy it
// controls; trusting them on a directly exposed listener would let any client
// spoof its way past the cap.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := forwardedClient(r.Header); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, seen in handler tests.
		return r.RemoteAddr
	}
	return host
}

// forwardedClient picks the leftmost parseable address from X-Forwarded-For,
// then X-Real-IP. Entries that do not parse as IPs are skipped rather than
// returned, so garbage headers fall through to RemoteAddr.
func forwardedClient(h http.Header) string {
	for _, part := range strings.Split(h.Get("X-Forwarded-For"), ",") {
		if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(h.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return ""
}
