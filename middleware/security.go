// middleware/security.go
package middleware

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/inquiry/config"
)

// SecurityHeadersOptions configures SecurityHeaders. An empty string (or a
// zero HSTSMaxAge) leaves the corresponding header unset.
type SecurityHeadersOptions struct {
	// XFrameOptions: "DENY" or "SAMEORIGIN".
	XFrameOptions string
	// XContentTypeOptions is normally "nosniff".
	XContentTypeOptions string
	ReferrerPolicy      string

	// HSTSMaxAge in seconds; only sent on TLS requests.
	HSTSMaxAge            int
	HSTSIncludeSubDomains bool

	ContentSecurityPolicy string
}

// DefaultSecurityHeadersOptions suits the contact page: no framing, no
// sniffing, one year of HSTS and a CSP that only allows same-origin
// resources plus inline styles from the embedded template.
func DefaultSecurityHeadersOptions() SecurityHeadersOptions {
	return SecurityHeadersOptions{
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubDomains: true,
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'; form-action 'self'",
	}
}

// SecurityHeaders sets the configured headers before calling next.
func SecurityHeaders(opts SecurityHeadersOptions) func(next http.Handler) http.Handler {
	static := map[string]string{
		"X-Frame-Options":         opts.XFrameOptions,
		"X-Content-Type-Options":  opts.XContentTypeOptions,
		"Referrer-Policy":         opts.ReferrerPolicy,
		"Content-Security-Policy": opts.ContentSecurityPolicy,
	}
	var hsts string
	if opts.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(opts.HSTSMaxAge)
		if opts.HSTSIncludeSubDomains {
			hsts += "; includeSubDomains"
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k, v := range static {
				if v != "" {
					h.Set(k, v)
				}
			}
			// HSTS over plain HTTP is ignored by browsers and breaks dev setups.
			if hsts != "" && r.TLS != nil {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersFromConfig builds SecurityHeaders from coreCfg.Security, or
// returns a no-op when coreCfg is nil or headers are disabled.
func SecurityHeadersFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.Security.EnableSecurityHeaders {
		return passthrough
	}
	s := coreCfg.Security
	return SecurityHeaders(SecurityHeadersOptions{
		XFrameOptions:         s.XFrameOptions,
		XContentTypeOptions:   s.XContentTypeOptions,
		ReferrerPolicy:        s.ReferrerPolicy,
		HSTSMaxAge:            s.HSTSMaxAge,
		HSTSIncludeSubDomains: s.HSTSIncludeSubDomains,
		ContentSecurityPolicy: s.ContentSecurityPolicy,
	})
}
