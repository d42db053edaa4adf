package common

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the visitor address used for rate limiting and logs. The
// first parseable X-Forwarded-For hop wins, then X-Real-IP, then RemoteAddr.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, hop := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip, ok := parseIP(hop); ok {
			return ip
		}
	}
	if ip, ok := parseIP(r.Header.Get("X-Real-IP")); ok {
		return ip
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	if ip, ok := parseIP(remote); ok {
		return ip
	}
	return remote
}

func parseIP(raw string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}
