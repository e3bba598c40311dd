// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resolvers

import (
	"context"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"

	"go.georchestra.org/gateway/internal/directory"
	"go.georchestra.org/gateway/internal/identity"
	"go.georchestra.org/gateway/internal/oidcclaims"
	"go.georchestra.org/gateway/internal/plog"
	"go.georchestra.org/gateway/internal/token"
)

// DirectoryResolver resolves directory-bound tokens by looking the user up in the
// directory that authenticated them.
type DirectoryResolver struct {
	Demux *directory.Demux
	Order int
}

func (r *DirectoryResolver) Priority() int { return r.Order }

func (r *DirectoryResolver) Resolve(ctx context.Context, tok *token.Token) (*identity.Identity, error) {
	if tok.Kind != token.KindDirectory {
		return nil, nil
	}

	user, err := r.Demux.FindByUsername(ctx, tok.DirectoryTag, tok.Username)
	switch {
	case errors.Is(err, directory.ErrNotFound):
		// The bind succeeded but the entry is gone; treat as a miss, not a failure.
		plog.Debug("directory-authenticated user has no directory entry",
			"directory", tok.DirectoryTag, "username", tok.Username)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("resolving directory user %q: %w", tok.Username, err)
	}
	return user, nil
}

// OAuth2Resolver resolves plain OAuth2 tokens from the provider-reported profile.
type OAuth2Resolver struct {
	Order int
}

func (r *OAuth2Resolver) Priority() int { return r.Order }

func (r *OAuth2Resolver) Resolve(_ context.Context, tok *token.Token) (*identity.Identity, error) {
	if tok.Kind != token.KindOAuth2 {
		return nil, nil
	}

	user := &identity.Identity{
		ID:             tok.ExternalUID,
		OAuth2Provider: tok.Provider,
		OAuth2UID:      tok.ExternalUID,
		Roles:          identity.CanonicalRoles(tok.Authorities),
	}
	applyProfile(user, tok.Profile)
	if user.Username == "" {
		user.Username = tok.Provider + "_" + tok.ExternalUID
	}
	return user, nil
}

// OIDCResolver resolves verified OIDC tokens from the standard claims plus the
// configured custom-claims block.
type OIDCResolver struct {
	Claims *oidcclaims.Config
	Order  int
}

func (r *OIDCResolver) Priority() int { return r.Order }

func (r *OIDCResolver) Resolve(_ context.Context, tok *token.Token) (*identity.Identity, error) {
	if tok.Kind != token.KindOIDC {
		return nil, nil
	}

	user := &identity.Identity{
		ID:             tok.Subject,
		Username:       stringClaim(tok.Claims, "preferred_username"),
		Email:          stringClaim(tok.Claims, "email"),
		FirstName:      stringClaim(tok.Claims, "given_name"),
		LastName:       stringClaim(tok.Claims, "family_name"),
		OAuth2Provider: tok.Provider,
		OAuth2UID:      tok.Subject,
	}
	applyProfile(user, tok.Profile)
	if user.Username == "" {
		user.Username = tok.Subject
	}

	extracted, err := r.Claims.ExtractRoles(tok.Claims)
	if err != nil {
		return nil, fmt.Errorf("resolving OIDC identity %q: %w", tok.Subject, err)
	}
	user.Roles = identity.CanonicalRoles(r.Claims.MergeRoles(tok.Authorities, extracted))

	org, err := r.Claims.ExtractOrganization(tok.Claims)
	if err != nil {
		return nil, fmt.Errorf("resolving OIDC identity %q: %w", tok.Subject, err)
	}
	if org != "" {
		user.Organization = org
	}

	return user, nil
}

// PreauthResolver resolves trusted-header pre-authenticated tokens.
type PreauthResolver struct {
	Order int
}

func (r *PreauthResolver) Priority() int { return r.Order }

func (r *PreauthResolver) Resolve(_ context.Context, tok *token.Token) (*identity.Identity, error) {
	if tok.Kind != token.KindPreauth || tok.Preauth == nil {
		return nil, nil
	}
	if tok.Preauth.Username == "" {
		return nil, nil
	}

	return &identity.Identity{
		ID:           tok.Preauth.Username,
		Username:     tok.Preauth.Username,
		Email:        tok.Preauth.Email,
		FirstName:    tok.Preauth.FirstName,
		LastName:     tok.Preauth.LastName,
		Organization: tok.Preauth.Org,
		Roles:        identity.CanonicalRoles(tok.Preauth.Roles),
	}, nil
}

func applyProfile(user *identity.Identity, profile *token.Profile) {
	if profile == nil {
		return
	}
	if profile.Username != "" {
		user.Username = profile.Username
	}
	if profile.Email != "" {
		user.Email = profile.Email
	}
	if profile.FirstName != "" {
		user.FirstName = profile.FirstName
	}
	if profile.LastName != "" {
		user.LastName = profile.LastName
	}
	if profile.Organization != "" {
		user.Organization = profile.Organization
	}
}

func stringClaim(claims []byte, key string) string {
	value, err := jsonparser.GetString(claims, key)
	if err != nil {
		return ""
	}
	return value
}
