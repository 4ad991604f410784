package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedRealIP rewrites RemoteAddr from X-Real-IP or the first
// X-Forwarded-For entry, but only for connections from a trusted proxy.
// Entries may be CIDRs or single addresses. With no trusted proxies the
// headers are ignored and RemoteAddr is left untouched.
func TrustedRealIP(trusted []string) func(http.Handler) http.Handler {
	prefixes := parsePrefixes(trusted)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if remote, ok := parseAddr(r.RemoteAddr); ok && isTrusted(remote, prefixes) {
				if ip, ok := forwardedFor(r.Header); ok {
					r.RemoteAddr = ip.String()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parsePrefixes(entries []string) []netip.Prefix {
	var out []netip.Prefix
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			slog.Warn("realip: invalid trusted proxy, skipping", "entry", e, "error", err)
			continue
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out
}

// forwardedFor returns the client address claimed by the proxy headers.
func forwardedFor(h http.Header) (netip.Addr, bool) {
	if rip := h.Get("X-Real-IP"); rip != "" {
		return parseAddr(rip)
	}
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return parseAddr(first)
	}
	return netip.Addr{}, false
}

// parseAddr accepts "ip" or "host:port".
func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func isTrusted(ip netip.Addr, trusted []netip.Prefix) bool {
	for _, p := range trusted {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
