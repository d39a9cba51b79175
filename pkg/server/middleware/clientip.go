package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/appboardguru/boardguru/pkg/config"
)

// ClientIP returns the address of the client that made the request.
// X-Forwarded-For is honoured only when the direct peer is a trusted proxy;
// the chain is walked from the right, skipping trusted hops.
func ClientIP(r *http.Request) net.IP {
	return clientIP(r, config.Get())
}

func clientIP(r *http.Request, cfg *config.Config) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer := net.ParseIP(host)

	if peer == nil || !cfg.IsTrustedProxy(peer.String()) {
		return peer
	}

	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded == "" {
		return peer
	}

	hops := strings.Split(forwarded, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		ip := net.ParseIP(strings.TrimSpace(hops[i]))
		if ip == nil {
			break
		}
		if !cfg.IsTrustedProxy(ip.String()) {
			return ip
		}
		peer = ip
	}
	return peer
}
