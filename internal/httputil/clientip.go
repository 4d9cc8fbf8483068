// Package httputil holds small helpers shared by the HTTP middleware.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP reports the address a request originated from. With
// trustProxy set, the X-Forwarded-For and X-Real-IP headers take
// precedence over RemoteAddr; leave it off unless a trusted reverse
// proxy sits in front, since both headers are caller-controlled.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// Proxies append, so the leftmost entry is the client.
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, as in tests.
		return r.RemoteAddr
	}
	return host
}
