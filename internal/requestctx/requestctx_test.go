// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package requestctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"go.georchestra.org/gateway/internal/identity"
	"go.georchestra.org/gateway/internal/targetconf"
	"go.georchestra.org/gateway/internal/token"
)

func TestBareContextDefaults(t *testing.T) {
	ctx := context.Background()

	require.Equal(t, token.KindAnonymous, Token(ctx).Kind, "a request without a token is anonymous")
	require.Nil(t, Identity(ctx))
	require.Nil(t, Organization(ctx))
	require.Nil(t, Target(ctx))
	require.Empty(t, AuditID(ctx))
}

func TestAttachedValuesComeBackUnchanged(t *testing.T) {
	tok := &token.Token{Kind: token.KindPreauth, Username: "jdoe"}
	user := &identity.Identity{ID: "jdoe", Username: "jdoe"}
	org := &identity.Organization{ShortName: "PSC"}
	target := &targetconf.Target{}

	ctx := context.Background()
	ctx = WithToken(ctx, tok)
	ctx = WithIdentity(ctx, user)
	ctx = WithOrganization(ctx, org)
	ctx = WithTarget(ctx, target)
	ctx = WithAuditID(ctx, "8e6cf998-ff0f-4d1a-98a1-4d2b3b9c8f3d")

	require.Same(t, tok, Token(ctx))
	require.Same(t, user, Identity(ctx))
	require.Same(t, org, Organization(ctx))
	require.Same(t, target, Target(ctx))
	require.Equal(t, "8e6cf998-ff0f-4d1a-98a1-4d2b3b9c8f3d", AuditID(ctx))
}
