package middleware

import (
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
)

// proxySet is the list of networks whose forwarding headers are believed.
type proxySet []netip.Prefix

// parseProxies accepts CIDRs and bare addresses. A bare address becomes a
// single-host prefix. Entries that parse as neither are logged and dropped.
func parseProxies(entries []string) proxySet {
	var set proxySet
	for _, raw := range entries {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if p, err := netip.ParsePrefix(raw); err == nil {
			set = append(set, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			slog.Warn("realip: ignoring trusted proxy entry", "entry", raw, "error", err)
			continue
		}
		addr = addr.Unmap()
		set = append(set, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return set
}

func (ps proxySet) trusts(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, p := range ps {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// client picks the address the request originated from. X-Real-IP wins when
// present and well formed. Otherwise X-Forwarded-For is read from the right,
// skipping hops that are themselves trusted proxies, so a client cannot
// prepend a forged entry and have it chosen.
func (ps proxySet) client(h http.Header) (netip.Addr, bool) {
	if v := strings.TrimSpace(h.Get("X-Real-IP")); v != "" {
		addr, err := netip.ParseAddr(v)
		return addr.Unmap(), err == nil
	}

	hops := strings.Split(h.Get("X-Forwarded-For"), ",")
	var last netip.Addr
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			// a malformed hop ends the chain we can vouch for
			break
		}
		last = addr.Unmap()
		if !ps.trusts(last) {
			return last, true
		}
	}
	return last, last.IsValid()
}

// remoteAddr parses RemoteAddr with or without a port.
func remoteAddr(s string) netip.Addr {
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr()
	}
	addr, _ := netip.ParseAddr(s)
	return addr
}

// TrustedRealIP rewrites r.RemoteAddr to the originating client address when
// the connection comes from one of trustedCIDRs. Requests from anywhere else
// keep their RemoteAddr, whatever headers they carry, so rate limits and
// request logs cannot be steered by a spoofed header.
func TrustedRealIP(trustedCIDRs []string) func(http.Handler) http.Handler {
	proxies := parseProxies(trustedCIDRs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(proxies) > 0 && proxies.trusts(remoteAddr(r.RemoteAddr)) {
				if addr, ok := proxies.client(r.Header); ok {
					r.RemoteAddr = addr.String()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
