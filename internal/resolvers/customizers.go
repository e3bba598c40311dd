// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resolvers

import (
	"context"
	"fmt"

	"go.georchestra.org/gateway/internal/directory"
	"go.georchestra.org/gateway/internal/identity"
	"go.georchestra.org/gateway/internal/rolemap"
	"go.georchestra.org/gateway/internal/token"
)

// DefaultRoleCustomizer grants the default role to every resolved identity.
type DefaultRoleCustomizer struct {
	Order int
}

func (c *DefaultRoleCustomizer) Priority() int { return c.Order }

func (c *DefaultRoleCustomizer) Customize(_ context.Context, _ *token.Token, user *identity.Identity) (*identity.Identity, error) {
	out := user.Clone()
	out.Roles = identity.UnionRoles(out.Roles, []string{identity.RoleUser})
	return out, nil
}

// RoleAugmentationCustomizer expands the identity's role set through the configured
// pattern-to-roles mappings.
type RoleAugmentationCustomizer struct {
	Engine *rolemap.Engine
	Order  int
}

func (c *RoleAugmentationCustomizer) Priority() int { return c.Order }

func (c *RoleAugmentationCustomizer) Customize(_ context.Context, _ *token.Token, user *identity.Identity) (*identity.Identity, error) {
	out := user.Clone()
	out.Roles = c.Engine.Expand(out.Roles)
	return out, nil
}

// DuplicateEmailCustomizer rejects externally-authenticated identities whose email
// matches stored accounts in more than one configured directory: the gateway cannot
// know which account the caller is, and silently picking one would be a wrong identity.
type DuplicateEmailCustomizer struct {
	Demux *directory.Demux
	Order int
}

func (c *DuplicateEmailCustomizer) Priority() int { return c.Order }

func (c *DuplicateEmailCustomizer) Customize(ctx context.Context, tok *token.Token, user *identity.Identity) (*identity.Identity, error) {
	if tok.Kind != token.KindOAuth2 && tok.Kind != token.KindOIDC {
		return user, nil
	}
	if user.Email == "" {
		return user, nil
	}

	matches, err := c.Demux.FindByEmailEverywhere(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("checking email %q for duplicates: %w", user.Email, err)
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("%w: email %q matches accounts in %d directories",
			ErrAmbiguousIdentity, user.Email, len(matches))
	}
	return user, nil
}
