// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package securityheader

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	rec := httptest.NewRecorder()
	Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, "default-src 'none'; frame-ancestors 'none'", rec.Header().Get("Content-Security-Policy"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	require.Equal(t, "no-cache,no-store,max-age=0,must-revalidate", rec.Header().Get("Cache-Control"))
}

func TestWrapWithCustomCSP(t *testing.T) {
	rec := httptest.NewRecorder()
	WrapWithCustomCSP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
		"default-src 'self'").ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	require.Equal(t, "default-src 'self'", rec.Header().Get("Content-Security-Policy"))
}

func TestApply(t *testing.T) {
	h := http.Header{}
	Apply(h)
	require.Equal(t, "DENY", h.Get("X-Frame-Options"))
	require.Equal(t, "default-src 'none'; frame-ancestors 'none'", h.Get("Content-Security-Policy"))
}
