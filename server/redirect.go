// server/redirect.go
package server

import (
	"net"
	"net/http"
	"strconv"
	"strings"
)

// httpRedirectHandler sends every request to the same host and path over
// HTTPS. Hosts and request URIs that could inject headers are rejected
// with 400.
func httpRedirectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqURI := r.URL.RequestURI()
		if !isValidHost(r.Host) || hasControl(reqURI, true) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "https://"+r.Host+reqURI, http.StatusMovedPermanently)
	})
}

// isValidHost reports whether host (optionally host:port or [v6]:port) is
// safe to echo into a Location header.
func isValidHost(host string) bool {
	if host == "" || strings.Contains(host, "://") || strings.HasPrefix(host, "/") {
		return false
	}

	hostPart, portStr, err := net.SplitHostPort(host)
	if err != nil {
		hostPart = host
	} else if portStr != "" {
		port, perr := strconv.Atoi(portStr)
		if perr != nil || port <= 0 || port > 65535 {
			return false
		}
	}
	bracketed := strings.HasPrefix(host, "[")
	hostPart = strings.TrimSuffix(strings.TrimPrefix(hostPart, "["), "]")
	if hostPart == "" {
		return false
	}
	if bracketed {
		ip := hostPart
		if i := strings.IndexByte(ip, '%'); i != -1 {
			ip = ip[:i]
		}
		if net.ParseIP(ip) == nil {
			return false
		}
	}

	return !hasControl(hostPart, false)
}

// hasControl reports ASCII control characters or DEL in s. allowTab
// permits '\t'.
func hasControl(s string, allowTab bool) bool {
	for _, c := range s {
		if c == '\t' && allowTab {
			continue
		}
		if c < 0x20 || c == 0x7f {
			return true
		}
	}
	return false
}
