// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package preauth reads trusted-header pre-authentication from requests arriving
// through a reverse-proxy hop the deployment trusts.
package preauth

import (
	"net/http"
	"strings"

	"go.georchestra.org/gateway/internal/sliceutil"
	"go.georchestra.org/gateway/internal/token"
)

// Headers written by a trusted upstream proxy.  They are honored only when the
// companion marker header is present, and always stripped from the request so a
// client can never smuggle them through to a backend.
const (
	MarkerHeader = "sec-georchestra-preauthenticated"

	HeaderUsername  = "preauth-username"
	HeaderEmail     = "preauth-email"
	HeaderFirstName = "preauth-firstname"
	HeaderLastName  = "preauth-lastname"
	HeaderOrg       = "preauth-org"
	HeaderRoles     = "preauth-roles"
)

// Extractor pulls a pre-authenticated principal out of request headers.  When
// Enabled is false the headers are still stripped but never trusted.
type Extractor struct {
	Enabled bool
}

// Extract returns the pre-authenticated token carried by the request, or nil when
// the request carries none (or trust is disabled).  The preauth headers and the
// marker are removed from the request either way, so they are gone before any
// later pipeline stage and cannot reach a backend.
func (e *Extractor) Extract(r *http.Request) *token.Token {
	marker := r.Header.Get(MarkerHeader)
	username := r.Header.Get(HeaderUsername)
	claim := &token.Preauth{
		Username:  username,
		Email:     r.Header.Get(HeaderEmail),
		FirstName: r.Header.Get(HeaderFirstName),
		LastName:  r.Header.Get(HeaderLastName),
		Org:       r.Header.Get(HeaderOrg),
		Roles:     splitRoles(r.Header.Get(HeaderRoles)),
	}
	Strip(r.Header)

	if !e.Enabled || !strings.EqualFold(marker, "true") || username == "" {
		return nil
	}
	return &token.Token{
		Kind:        token.KindPreauth,
		Username:    username,
		Authorities: claim.Roles,
		Preauth:     claim,
	}
}

// Strip removes the marker and every preauth-* header.  Called again just before
// the request is proxied, regardless of the trust outcome.
func Strip(h http.Header) {
	h.Del(MarkerHeader)
	for name := range h {
		if strings.HasPrefix(strings.ToLower(name), "preauth-") {
			h.Del(name)
		}
	}
}

func splitRoles(joined string) []string {
	if joined == "" {
		return nil
	}
	roles := sliceutil.Filter(
		sliceutil.Map(strings.Split(joined, ";"), strings.TrimSpace),
		func(role string) bool { return role != "" })
	if len(roles) == 0 {
		return nil
	}
	return roles
}
