package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// ParseTrustedProxies parses comma-separated CIDRs or bare IPs.
func ParseTrustedProxies(s string) ([]*net.IPNet, error) {
	var networks []*net.IPNet
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "/") {
			ip := net.ParseIP(part)
			if ip == nil {
				return nil, errors.Newf("invalid trusted proxy %q", part)
			}
			if ip.To4() != nil {
				part += "/32"
			} else {
				part += "/128"
			}
		}
		_, network, err := net.ParseCIDR(part)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid trusted proxy %q", part)
		}
		networks = append(networks, network)
	}
	return networks, nil
}

// ClientIP returns a function that identifies the client of a request.
// X-Real-IP and X-Forwarded-For are honoured only when the direct peer is in
// trusted.
func ClientIP(trusted []*net.IPNet) func(*http.Request) string {
	return func(r *http.Request) string {
		host := remoteHost(r.RemoteAddr)
		if !contains(trusted, host) {
			return host
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip.String()
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
		return host
	}
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func contains(networks []*net.IPNet, host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, n := range networks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
