package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// proxySet is the parsed list of trusted proxy networks.
type proxySet []netip.Prefix

// parseProxies accepts CIDRs and bare addresses. Invalid entries are logged
// and skipped.
func parseProxies(entries []string) proxySet {
	var set proxySet
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			set = append(set, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			set = append(set, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		slog.Warn("realip: invalid trusted proxy, skipping", "entry", e)
	}
	return set
}

func (s proxySet) contains(a netip.Addr) bool {
	if !a.IsValid() {
		return false
	}
	a = a.Unmap()
	for _, p := range s {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// TrustedRealIP rewrites r.RemoteAddr to the client address reported by a
// trusted proxy. Headers are honoured only when the connection itself comes
// from a trusted proxy; otherwise RemoteAddr is left as is.
//
// X-Real-IP wins when present. For X-Forwarded-For the chain is walked from
// the right and the first hop that is not a trusted proxy is taken, so a
// client cannot spoof its address by prepending entries.
func TrustedRealIP(trusted []string) func(http.Handler) http.Handler {
	proxies := parseProxies(trusted)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if proxies.contains(remoteAddr(r.RemoteAddr)) {
				if ip, ok := clientIP(r.Header, proxies); ok {
					r.RemoteAddr = ip.String()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(h http.Header, proxies proxySet) (netip.Addr, bool) {
	if rip := strings.TrimSpace(h.Get("X-Real-IP")); rip != "" {
		if a, err := netip.ParseAddr(rip); err == nil {
			return a.Unmap(), true
		}
	}

	hops := strings.Split(h.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		a, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			return netip.Addr{}, false
		}
		if !proxies.contains(a) {
			return a.Unmap(), true
		}
	}
	return netip.Addr{}, false
}

// remoteAddr parses a host:port string or a bare address.
func remoteAddr(addr string) netip.Addr {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return netip.Addr{}
	}
	return a
}
