// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package resolvers turns an authentication token into a canonical identity.  An ordered
// list of source-specific resolvers is tried in priority order and the first to return a
// non-empty identity wins; the winning identity is then passed through every registered
// customizer, in priority order, regardless of which resolver produced it.
package resolvers

import (
	"context"
	"sort"

	"go.georchestra.org/gateway/internal/constable"
	"go.georchestra.org/gateway/internal/identity"
	"go.georchestra.org/gateway/internal/plog"
	"go.georchestra.org/gateway/internal/token"
)

// ErrAmbiguousIdentity is returned by a customizer to signal that the resolved identity
// is invalid, e.g. a duplicate email matches accounts in more than one directory.
const ErrAmbiguousIdentity = constable.Error("ambiguous identity")

// Resolver maps one kind of authentication token to an identity.  Returns (nil, nil)
// when the token is not of this resolver's kind or carries nothing resolvable -- a miss,
// not a failure.
type Resolver interface {
	// Priority orders resolvers within the chain, ascending.  Ordering is an explicit
	// field, not registration order, to keep behavior deterministic.
	Priority() int

	Resolve(ctx context.Context, tok *token.Token) (*identity.Identity, error)
}

// Customizer further mutates an already-resolved identity.  Runs unconditionally for
// every resolved identity.
type Customizer interface {
	Priority() int

	Customize(ctx context.Context, tok *token.Token, user *identity.Identity) (*identity.Identity, error)
}

// Chain is the ordered resolver and customizer lists.  Immutable after construction and
// safe for concurrent use.
type Chain struct {
	resolvers   []Resolver
	customizers []Customizer
}

// NewChain sorts both lists by ascending priority (stable, so equal priorities keep
// their given order).
func NewChain(resolvers []Resolver, customizers []Customizer) *Chain {
	sortedResolvers := append([]Resolver(nil), resolvers...)
	sort.SliceStable(sortedResolvers, func(i, j int) bool {
		return sortedResolvers[i].Priority() < sortedResolvers[j].Priority()
	})
	sortedCustomizers := append([]Customizer(nil), customizers...)
	sort.SliceStable(sortedCustomizers, func(i, j int) bool {
		return sortedCustomizers[i].Priority() < sortedCustomizers[j].Priority()
	})
	return &Chain{resolvers: sortedResolvers, customizers: sortedCustomizers}
}

// Resolve runs the chain.  Returns (nil, nil) when no resolver matched the token: the
// request proceeds as anonymous.  When a customizer reports an invalid identity, the
// sentinel deny identity is substituted so downstream authorization treats the request
// as unauthenticated instead of the failure crashing the request.  Only resolver errors
// (directory unreachable, contract violations) propagate as errors.
func (c *Chain) Resolve(ctx context.Context, tok *token.Token) (*identity.Identity, error) {
	var user *identity.Identity
	for _, resolver := range c.resolvers {
		resolved, err := resolver.Resolve(ctx, tok)
		if err != nil {
			return nil, err
		}
		if resolved != nil {
			user = resolved
			break
		}
	}
	if user == nil {
		return nil, nil
	}

	for _, customizer := range c.customizers {
		customized, err := customizer.Customize(ctx, tok, user)
		if err != nil {
			plog.WarningErr("identity customizer rejected the resolved identity, denying", err,
				"source", tok.Kind.String(), "username", user.Username)
			return identity.Deny(), nil
		}
		user = customized
	}

	return user, nil
}
