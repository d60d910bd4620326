package api

import (
	"net"
	"net/http"
	"strings"
)

// ClientAddr resolves the caller's address: the first X-Forwarded-For entry
// when present, otherwise the host part of RemoteAddr.
func ClientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
