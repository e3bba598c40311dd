// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"go.georchestra.org/gateway/internal/access"
	"go.georchestra.org/gateway/internal/accounts"
	"go.georchestra.org/gateway/internal/directory"
	"go.georchestra.org/gateway/internal/httputil/httperr"
	"go.georchestra.org/gateway/internal/httputil/securityheader"
	"go.georchestra.org/gateway/internal/identity"
	"go.georchestra.org/gateway/internal/plog"
	"go.georchestra.org/gateway/internal/preauth"
	"go.georchestra.org/gateway/internal/requestctx"
	"go.georchestra.org/gateway/internal/token"
)

const auditIDHeader = "Audit-Id"

// Handler returns the full request pipeline.
func (s *Server) Handler() http.Handler {
	return s.withAuditID(s.withAuthentication(httperr.HandlerFunc(s.serve)))
}

// withAuditID tags every request with a fresh audit id, returned on the response and
// attached to every pipeline log line.
func (s *Server) withAuditID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auditID := uuid.NewString()
		w.Header().Set(auditIDHeader, auditID)
		next.ServeHTTP(w, r.WithContext(requestctx.WithAuditID(r.Context(), auditID)))
	})
}

// withAuthentication extracts the request's authentication token: trusted preauth
// headers first, then a bearer ID token.  The preauth headers are stripped from the
// request whether or not they are trusted.
func (s *Server) withAuthentication(next http.Handler) http.Handler {
	return httperr.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		tok := s.preauth.Extract(r)

		if tok == nil && s.verifier != nil {
			if raw := bearerToken(r); raw != "" {
				verified, err := s.verifier.VerifyBearer(r.Context(), raw)
				if err != nil {
					plog.DebugErr("rejecting bearer credential", err,
						"auditID", requestctx.AuditID(r.Context()))
					securityheader.Apply(w.Header())
					return httperr.New(http.StatusUnauthorized, "invalid bearer token")
				}
				tok = verified
			}
		}

		if tok == nil {
			tok = token.Anonymous()
		}
		next.ServeHTTP(w, r.WithContext(requestctx.WithToken(r.Context(), tok)))
		return nil
	})
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	tok := requestctx.Token(ctx)
	auditID := requestctx.AuditID(ctx)

	serviceName := s.serviceNameFor(r.URL.Path)
	target := s.targets.Resolve(serviceName)
	ctx = requestctx.WithTarget(ctx, target)

	// Resolution runs at most once per request; everything downstream reuses the value
	// from the context.
	user, err := s.resolveIdentity(ctx, tok)
	switch {
	case errors.Is(err, accounts.ErrProvisioning):
		plog.WarningErr("account provisioning failed", err, "auditID", auditID)
		securityheader.Apply(w.Header())
		return httperr.Wrap(http.StatusUnauthorized, "authentication failed", err)
	case err != nil:
		plog.WarningErr("identity resolution failed", err, "auditID", auditID)
		securityheader.Apply(w.Header())
		return httperr.Wrap(http.StatusInternalServerError, "identity resolution failed", err)
	}
	ctx = requestctx.WithIdentity(ctx, user)

	// The sentinel deny identity is treated as unauthenticated, never as a usable caller.
	authenticated := user != nil && !user.IsDeny()

	var identityRoles []string
	if authenticated {
		identityRoles = user.Roles
	}
	decision := target.Engine.Decide(access.Input{
		Path:             r.URL.Path,
		Query:            r.URL.Query(),
		Authenticated:    authenticated,
		TokenAuthorities: tok.Authorities,
		IdentityRoles:    identityRoles,
	})
	plog.Debug("access decision",
		"auditID", auditID, "path", r.URL.Path, "service", orPlaceholder(serviceName),
		"source", tok.Kind.String(), "decision", decision.String())

	switch decision {
	case access.DeniedUnauthenticated:
		securityheader.Apply(w.Header())
		return httperr.New(http.StatusUnauthorized, "authentication required")
	case access.DeniedForbidden:
		securityheader.Apply(w.Header())
		return httperr.New(http.StatusForbidden, "forbidden")
	}

	if authenticated {
		ctx = requestctx.WithOrganization(ctx, s.lookupOrganization(ctx, tok, user))
	}
	return s.forward(w, r.WithContext(ctx), serviceName)
}

// forward re-strips the trust headers, emits the sec-* headers, and proxies to the
// service backend.  Everything it needs was resolved by earlier stages and travels on
// the request context.
func (s *Server) forward(w http.ResponseWriter, r *http.Request, serviceName string) error {
	ctx := r.Context()
	target := requestctx.Target(ctx)

	var user *identity.Identity
	if resolved := requestctx.Identity(ctx); !resolved.IsDeny() {
		user = resolved
	}

	// Re-strip before forwarding, regardless of the trust outcome upstream.
	preauth.Strip(r.Header)
	s.headers.Apply(user, requestctx.Organization(ctx), target.Headers, r.Header)

	proxy, ok := s.proxies[serviceName]
	if !ok {
		securityheader.Apply(w.Header())
		return httperr.Newf(http.StatusNotFound, "no route for %q", r.URL.Path)
	}
	proxy.ServeHTTP(w, r)
	return nil
}

// serviceNameFor matches the first path segment against the configured services.
// Unmatched paths resolve to the empty name and the global defaults.
func (s *Server) serviceNameFor(path string) string {
	segment := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(segment, '/'); i >= 0 {
		segment = segment[:i]
	}
	if _, ok := s.proxies[segment]; ok {
		return segment
	}
	return ""
}

// resolveIdentity runs the resolver chain and, for sources whose identities are backed
// by a stored directory account, get-or-create provisioning.  Returns nil for anonymous
// callers and resolution misses.
func (s *Server) resolveIdentity(ctx context.Context, tok *token.Token) (*identity.Identity, error) {
	if !tok.IsAuthenticated() {
		return nil, nil
	}

	user, err := s.chain.Resolve(ctx, tok)
	if err != nil || user == nil || user.IsDeny() {
		return user, err
	}

	if s.accounts == nil || !storedAccountBacked(tok.Kind) {
		return user, nil
	}
	stored, err := s.accounts.GetOrCreate(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.mergeStored(stored, user), nil
}

// storedAccountBacked reports whether identities from this source get a directory
// account created on first login.  Directory-bound callers already have one.
func storedAccountBacked(kind token.Kind) bool {
	switch kind {
	case token.KindOAuth2, token.KindOIDC, token.KindPreauth:
		return true
	default:
		return false
	}
}

// mergeStored layers the session-resolved identity over the stored account: stored
// profile fields win when populated, and the effective role set is the union of the
// stored roles and the session roles, run through the role mappings again so the
// stored roles get their mapped additions as well.
func (s *Server) mergeStored(stored, resolved *identity.Identity) *identity.Identity {
	out := stored.Clone()
	if out.Organization == "" {
		out.Organization = resolved.Organization
	}
	if out.Email == "" {
		out.Email = resolved.Email
	}
	if out.FirstName == "" {
		out.FirstName = resolved.FirstName
	}
	if out.LastName == "" {
		out.LastName = resolved.LastName
	}
	out.Roles = identity.UnionRoles(out.Roles, resolved.Roles)
	// The stored roles never passed through the customizer chain.
	if s.roles != nil {
		out.Roles = s.roles.Expand(out.Roles)
	}
	return out
}

// lookupOrganization fetches the organization record for the header contributors.
// Best effort: a missing or unreachable record only suppresses the org headers.
func (s *Server) lookupOrganization(ctx context.Context, tok *token.Token, user *identity.Identity) *identity.Organization {
	if user.Organization == "" {
		return nil
	}
	client := s.orgClient(tok)
	if client == nil {
		return nil
	}

	org, err := client.FindOrgByName(ctx, user.Organization)
	switch {
	case errors.Is(err, directory.ErrNotFound):
		return nil
	case err != nil:
		plog.WarningErr("could not look up organization", err,
			"org", user.Organization, "auditID", requestctx.AuditID(ctx))
		return nil
	}
	return org
}

// orgClient picks the directory to read organization records from: the one that
// authenticated the caller when known, the first configured one otherwise.
func (s *Server) orgClient(tok *token.Token) directory.Client {
	if tok.DirectoryTag != "" {
		if client, err := s.demux.For(tok.DirectoryTag); err == nil {
			return client
		}
	}
	tags := s.demux.Tags()
	if len(tags) == 0 {
		return nil
	}
	client, err := s.demux.For(tags[0])
	if err != nil {
		return nil
	}
	return client
}

func orPlaceholder(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}
