package util

import (
	"net"
	"net/http"
	"strconv"
	"strings"
)

// TrustedProxies is the CIDR allowlist controlling when forwarded
// headers are believed. Empty means trust none.
type TrustedProxies struct {
	nets []*net.IPNet
}

// NewTrustedProxies parses CIDR or bare-IP entries into an allowlist.
func NewTrustedProxies(entries []string) (*TrustedProxies, error) {
	nets := make([]*net.IPNet, 0, len(entries))
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, &net.ParseError{Type: "IP address", Text: entry}
			}
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			entry = ip.String() + "/" + strconv.Itoa(bits)
		}
		_, cidr, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, err
		}
		nets = append(nets, cidr)
	}
	if len(nets) == 0 {
		return nil, nil
	}
	return &TrustedProxies{nets: nets}, nil
}

// Contains reports whether the IP falls inside a trusted range.
func (t *TrustedProxies) Contains(ip net.IP) bool {
	if t == nil || ip == nil {
		return false
	}
	for _, n := range t.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP resolves the caller IP used for rate-limit keying.
// X-Forwarded-For is honored only when the direct peer is a trusted
// proxy; the result is the rightmost untrusted hop.
func ClientIP(r *http.Request, trusted *TrustedProxies) string {
	remoteIP := parseRemoteIP(r.RemoteAddr)
	if remoteIP == nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	if !trusted.Contains(remoteIP) {
		return remoteIP.String()
	}
	hops := parseForwardedFor(r.Header.Get("X-Forwarded-For"))
	if len(hops) > 0 {
		chain := append(hops, remoteIP)
		for i := len(chain) - 1; i >= 0; i-- {
			if !trusted.Contains(chain[i]) {
				return chain[i].String()
			}
		}
		return chain[0].String()
	}
	if realIP := parseIP(r.Header.Get("X-Real-IP")); realIP != nil {
		return realIP.String()
	}
	return remoteIP.String()
}

func parseForwardedFor(raw string) []net.IP {
	parts := strings.Split(raw, ",")
	out := make([]net.IP, 0, len(parts))
	for _, part := range parts {
		if ip := parseIP(part); ip != nil {
			out = append(out, ip)
		}
	}
	return out
}

func parseRemoteIP(addr string) net.IP {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return parseIP(host)
	}
	return parseIP(addr)
}

func parseIP(raw string) net.IP {
	return net.ParseIP(strings.TrimSpace(raw))
}
