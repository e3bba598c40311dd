// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package requestctx threads per-request resolved state (authentication token, identity,
// organization, target configuration) through the pipeline via context.Context.  The
// state is explicit rather than ambient so pipeline stages stay pure functions of
// (request context, configuration) and are unit-testable without a live server.
package requestctx

import (
	"context"

	"go.georchestra.org/gateway/internal/identity"
	"go.georchestra.org/gateway/internal/targetconf"
	"go.georchestra.org/gateway/internal/token"
)

type tokenKey struct{}
type identityKey struct{}
type organizationKey struct{}
type targetKey struct{}
type auditIDKey struct{}

// WithToken attaches the authentication token for this request.
func WithToken(ctx context.Context, t *token.Token) context.Context {
	return context.WithValue(ctx, tokenKey{}, t)
}

// Token returns the request's authentication token, or the anonymous token when none was
// attached.
func Token(ctx context.Context) *token.Token {
	if t, ok := ctx.Value(tokenKey{}).(*token.Token); ok && t != nil {
		return t
	}
	return token.Anonymous()
}

// WithIdentity attaches the resolved identity.  Resolution runs at most once per request;
// later pipeline stages reuse this value instead of re-resolving.
func WithIdentity(ctx context.Context, user *identity.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, user)
}

// Identity returns the resolved identity for this request, or nil when the request is
// anonymous or resolution has not run yet.
func Identity(ctx context.Context) *identity.Identity {
	user, _ := ctx.Value(identityKey{}).(*identity.Identity)
	return user
}

// WithOrganization attaches the resolved organization record.
func WithOrganization(ctx context.Context, org *identity.Organization) context.Context {
	return context.WithValue(ctx, organizationKey{}, org)
}

// Organization returns the resolved organization, or nil.
func Organization(ctx context.Context) *identity.Organization {
	org, _ := ctx.Value(organizationKey{}).(*identity.Organization)
	return org
}

// WithTarget attaches the effective per-route (header policy, access rules) pair.
func WithTarget(ctx context.Context, target *targetconf.Target) context.Context {
	return context.WithValue(ctx, targetKey{}, target)
}

// Target returns the effective per-route configuration, or nil when the target
// resolution stage has not run.
func Target(ctx context.Context) *targetconf.Target {
	target, _ := ctx.Value(targetKey{}).(*targetconf.Target)
	return target
}

// WithAuditID attaches the per-request audit id.
func WithAuditID(ctx context.Context, auditID string) context.Context {
	return context.WithValue(ctx, auditIDKey{}, auditID)
}

// AuditID returns the per-request audit id, or the empty string.
func AuditID(ctx context.Context) string {
	auditID, _ := ctx.Value(auditIDKey{}).(string)
	return auditID
}
