// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"go.georchestra.org/gateway/internal/config"
	"go.georchestra.org/gateway/internal/token"
)

// TokenVerifier turns a raw bearer credential into an authentication token.
type TokenVerifier interface {
	VerifyBearer(ctx context.Context, rawToken string) (*token.Token, error)
}

// NewOIDCVerifier discovers the issuer and returns a verifier that accepts ID tokens
// issued to the configured client.
func NewOIDCVerifier(ctx context.Context, spec *config.OIDCSpec) (TokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, spec.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discover issuer %q: %w", spec.Issuer, err)
	}
	return &oidcVerifier{
		provider: spec.Provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: spec.ClientID}),
	}, nil
}

type oidcVerifier struct {
	provider string
	verifier *oidc.IDTokenVerifier
}

func (v *oidcVerifier) VerifyBearer(ctx context.Context, rawToken string) (*token.Token, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("verify ID token: %w", err)
	}

	var claims json.RawMessage
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("read ID token claims: %w", err)
	}

	return &token.Token{
		Kind:        token.KindOIDC,
		Provider:    v.provider,
		Subject:     idToken.Subject,
		ExternalUID: idToken.Subject,
		Claims:      claims,
	}, nil
}

// bearerToken returns the raw credential of an Authorization: Bearer header, or "".
func bearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(authorization) > len(prefix) && strings.EqualFold(authorization[:len(prefix)], prefix) {
		return authorization[len(prefix):]
	}
	return ""
}
