package provider

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const fallbackClientIP = "127.0.0.1"

type clientRequestKey struct{}

// WithClientRequest attaches the inbound request that triggered an import, so
// providers can forward the end user's address and user agent.
func WithClientRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, clientRequestKey{}, r)
}

func clientRequest(ctx context.Context) *http.Request {
	r, _ := ctx.Value(clientRequestKey{}).(*http.Request)
	return r
}

// ClientIP returns the first public address found in CF-Connecting-IP,
// X-Real-IP, X-Forwarded-For (first entry) or the remote address, in that
// order, or 127.0.0.1.
func ClientIP(r *http.Request) string {
	if r == nil {
		return fallbackClientIP
	}

	candidates := []string{
		r.Header.Get("CF-Connecting-IP"),
		r.Header.Get("X-Real-IP"),
		r.Header.Get("X-Forwarded-For"),
		r.RemoteAddr,
	}
	for i, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if first, _, found := strings.Cut(c, ","); found {
			c = strings.TrimSpace(first)
		}
		if i == len(candidates)-1 {
			if host, _, err := net.SplitHostPort(c); err == nil {
				c = host
			}
		}
		if isPublicIP(c) {
			return c
		}
	}
	return fallbackClientIP
}

var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("2001:db8::/32"),
}

func isPublicIP(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	if !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return false
	}
	for _, p := range reservedPrefixes {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

// userAgent returns the triggering request's user agent, or fallback.
func userAgent(ctx context.Context, fallback string) string {
	if r := clientRequest(ctx); r != nil {
		if ua := strings.TrimSpace(r.UserAgent()); ua != "" {
			return ua
		}
	}
	return fallback
}
