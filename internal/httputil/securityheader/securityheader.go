// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package securityheader implements an HTTP middleware for setting security-related
// response headers on gateway-generated responses (errors, login redirects).
package securityheader

import "net/http"

const defaultCSP = "default-src 'none'; frame-ancestors 'none'"

// Wrap the provided http.Handler so it sets appropriate security-related response headers.
func Wrap(wrapped http.Handler) http.Handler {
	return WrapWithCustomCSP(wrapped, defaultCSP)
}

func WrapWithCustomCSP(wrapped http.Handler, cspHeader string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apply(w.Header(), cspHeader)
		wrapped.ServeHTTP(w, r)
	})
}

// Apply sets the security-related response headers directly, for handlers that only
// generate a response on some paths (e.g. error responses in front of a proxied forward).
func Apply(h http.Header) {
	apply(h, defaultCSP)
}

func apply(h http.Header, cspHeader string) {
	h.Set("Content-Security-Policy", cspHeader)
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "no-referrer")
	h.Set("Cache-Control", "no-cache,no-store,max-age=0,must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}
