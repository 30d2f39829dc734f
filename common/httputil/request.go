package httputil

import (
	"net/http"
	"strings"
)

// clientIPHeaders are the proxy forwarding headers checked in order when
// resolving the client address.
var clientIPHeaders = []string{
	"X-Forwarded-For",
	"Proxy-Client-IP",
	"WL-Proxy-Client-IP",
}

// GetClientIP extracts the real client IP address from request headers.
// Headers are checked in order; a value of "unknown" counts as absent.
// When no header matches, the connection-level RemoteAddr is used. If the
// resolved value contains a proxy chain ("client, proxy1, proxy2"), the
// first entry is returned.
func GetClientIP(r *http.Request) string {
	ip := ""
	for _, h := range clientIPHeaders {
		v := r.Header.Get(h)
		if v != "" && !strings.EqualFold(v, "unknown") {
			ip = v
			break
		}
	}
	if ip == "" {
		ip = r.RemoteAddr
	}
	if idx := strings.Index(ip, ","); idx >= 0 {
		ip = ip[:idx]
	}
	return strings.TrimSpace(ip)
}
