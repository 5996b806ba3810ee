package ics

import (
	"net"
	"net/url"
	"strings"
)

// IsSafeURL reports whether a feed URL may be fetched. It rejects anything
// that is not https and anything whose host names a loopback, private,
// link-local, or otherwise non-public address. Malformed URLs are unsafe,
// not an error.
//
// The same check is applied to every redirect target during a fetch, since a
// feed server can answer a safe URL with a redirect into a private range.
func IsSafeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return false
	}

	host := u.Hostname()
	if host == "" {
		return false
	}
	if isLoopbackName(host) {
		return false
	}

	ip := net.ParseIP(host)
	if ip == nil {
		// Hostname, not a literal address. DNS rebinding is out of scope;
		// the redirect re-check covers the common SSRF path.
		return true
	}
	return !isBlockedIP(ip)
}

func isLoopbackName(host string) bool {
	h := strings.ToLower(host)
	return h == "localhost" || strings.HasSuffix(h, ".localhost")
}

func isBlockedIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsUnspecified() {
		return true
	}
	// 10/8, 172.16/12, 192.168/16, fc00::/7.
	if ip.IsPrivate() {
		return true
	}
	// 169.254/16 and fe80::/10.
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	// 0.0.0.0/8 ("this network").
	if v4 := ip.To4(); v4 != nil && v4[0] == 0 {
		return true
	}
	return false
}
