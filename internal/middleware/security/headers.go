// Package security sets response security headers and resolves client
// addresses behind trusted proxies.
package security

import (
	"fmt"
	"net/http"
)

type HeadersConfig struct {
	CSP               string
	HSTSMaxAge        int
	XFrameOptions     string
	ReferrerPolicy    string
	PermissionsPolicy string
}

// DefaultHeadersConfig allows htmx from unpkg and nothing else external.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: "default-src 'self'; " +
			"script-src 'self' https://unpkg.com; " +
			"style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data:; " +
			"connect-src 'self'; " +
			"object-src 'none'; " +
			"frame-ancestors 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'",
		HSTSMaxAge:        31536000,
		XFrameOptions:     "DENY",
		ReferrerPolicy:    "strict-origin-when-cross-origin",
		PermissionsPolicy: "geolocation=(), microphone=(), camera=(), payment=()",
	}
}

type HeadersMiddleware struct {
	config HeadersConfig
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{config: config}
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", h.config.XFrameOptions)
		headers.Set("Referrer-Policy", h.config.ReferrerPolicy)
		headers.Set("Permissions-Policy", h.config.PermissionsPolicy)
		headers.Set("Cross-Origin-Opener-Policy", "same-origin")
		if h.config.CSP != "" {
			headers.Set("Content-Security-Policy", h.config.CSP)
		}
		if r.TLS != nil && h.config.HSTSMaxAge > 0 {
			headers.Set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", h.config.HSTSMaxAge))
		}
		next.ServeHTTP(w, r)
	})
}

// NoStore marks responses as uncacheable; admin pages carry personal data.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware lets browsers cache static files for maxAge seconds.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}
