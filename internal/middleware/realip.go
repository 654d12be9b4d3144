package middleware

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"
)

// ParseTrustedProxies parses CIDR blocks or bare addresses into prefixes.
func ParseTrustedProxies(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", v, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", v, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// RealIP replaces r.RemoteAddr with the forwarded client address, but only
// when the direct peer is one of the trusted proxies. Requests from anyone
// else keep their socket address, so forwarded headers cannot be spoofed.
func RealIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			peer, ok := remoteAddr(r.RemoteAddr)
			if ok && isTrusted(trusted, peer) {
				if client, found := forwardedClient(r, trusted); found {
					r2 := r.Clone(r.Context())
					r2.RemoteAddr = netip.AddrPortFrom(client, 0).String()
					r = r2
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// forwardedClient walks X-Forwarded-For from the nearest hop outwards and
// returns the first address that is not a trusted proxy.
func forwardedClient(r *http.Request, trusted []netip.Prefix) (netip.Addr, bool) {
	if fwd := r.Header.Values("X-Forwarded-For"); len(fwd) > 0 {
		hops := strings.Split(strings.Join(fwd, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				return netip.Addr{}, false
			}
			addr = addr.Unmap()
			if !isTrusted(trusted, addr) {
				return addr, true
			}
		}
		return netip.Addr{}, false
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		addr, err := netip.ParseAddr(real)
		if err != nil {
			return netip.Addr{}, false
		}
		return addr.Unmap(), true
	}
	return netip.Addr{}, false
}

func remoteAddr(s string) (netip.Addr, bool) {
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap(), true
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func isTrusted(trusted []netip.Prefix, addr netip.Addr) bool {
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
