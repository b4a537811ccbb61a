// Package security sets response hardening headers and resolves the
// client address behind trusted proxies.
package security

import (
	"fmt"
	"net/http"
)

// HeadersConfig holds the headers applied to every API response.
type HeadersConfig struct {
	CSP string

	// HSTS is only sent over TLS.
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	CrossOriginResource string
}

// DefaultHeadersConfig returns defaults for a JSON API that serves no
// documents or scripts.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                   "default-src 'none'; frame-ancestors 'none'",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "no-referrer",
		CrossOriginResource:   "same-origin",
	}
}

// Headers returns middleware applying cfg to each response.
func Headers(cfg HeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apply(cfg, w.Header(), r.TLS != nil)
			next.ServeHTTP(w, r)
		})
	}
}

func apply(cfg HeadersConfig, h http.Header, tls bool) {
	set := func(key, value string) {
		if value != "" {
			h.Set(key, value)
		}
	}
	set("Content-Security-Policy", cfg.CSP)
	set("X-Frame-Options", cfg.XFrameOptions)
	set("X-Content-Type-Options", cfg.XContentTypeOptions)
	set("Referrer-Policy", cfg.ReferrerPolicy)
	set("Cross-Origin-Resource-Policy", cfg.CrossOriginResource)
	h.Set("Cache-Control", "no-store")

	if tls && cfg.HSTSMaxAge > 0 {
		hsts := fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		h.Set("Strict-Transport-Security", hsts)
	}
}
