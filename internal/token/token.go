// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package token models the authentication token attached to an inbound request as a
// closed tagged union of source kinds.  Source-specific resolvers dispatch on the Kind
// discriminant instead of runtime type inspection, so adding a new source is an explicit,
// compiler-visible change.
package token

import "encoding/json"

// Kind discriminates the authentication sources understood by the gateway.
type Kind int

const (
	// KindAnonymous means no authentication principal was attached to the request.
	KindAnonymous Kind = iota

	// KindDirectory means the request was authenticated by binding against one of the
	// configured directory services.
	KindDirectory

	// KindOAuth2 means the request carries a token from a plain OAuth2 provider.
	KindOAuth2

	// KindOIDC means the request carries a verified OIDC ID token.
	KindOIDC

	// KindPreauth means a trusted reverse-proxy hop pre-authenticated the request via
	// preauth-* headers.
	KindPreauth
)

func (k Kind) String() string {
	switch k {
	case KindAnonymous:
		return "anonymous"
	case KindDirectory:
		return "directory"
	case KindOAuth2:
		return "oauth2"
	case KindOIDC:
		return "oidc"
	case KindPreauth:
		return "preauth"
	default:
		return "unknown"
	}
}

// Token is an authentication token.  Only the fields relevant to its Kind are populated.
type Token struct {
	Kind Kind

	// Authorities are the role names granted by the authentication provider itself.
	// Authorization evaluates the union of these and the resolved identity's roles.
	Authorities []string

	// DirectoryTag identifies which configured directory authenticated the caller.
	// Usernames are only unique within one directory, so lookups must carry the tag.
	// Set for KindDirectory.
	DirectoryTag string

	// Username is the login name presented to the directory.  Set for KindDirectory.
	Username string

	// Provider and ExternalUID identify the external OAuth2 account.  Set for KindOAuth2
	// and KindOIDC.
	Provider    string
	ExternalUID string

	// Profile carries the basic profile fields the OAuth2 provider reported.
	// Set for KindOAuth2 and optionally for KindOIDC.
	Profile *Profile

	// Subject is the verified OIDC subject.  Set for KindOIDC.
	Subject string

	// Claims is the raw claim JSON of the verified ID token.  Set for KindOIDC.
	Claims json.RawMessage

	// Preauth is the trusted-header snapshot.  Set for KindPreauth.
	Preauth *Preauth
}

// Profile holds basic profile fields reported by an OAuth2/OIDC provider.
type Profile struct {
	Username     string
	Email        string
	FirstName    string
	LastName     string
	Organization string
}

// Preauth holds the values of the trusted preauth-* request headers.
type Preauth struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Org       string
	Roles     []string
}

// Anonymous returns the token used when no principal is attached to a request.
func Anonymous() *Token {
	return &Token{Kind: KindAnonymous}
}

// IsAuthenticated reports whether this token represents an authenticated caller.
func (t *Token) IsAuthenticated() bool {
	return t != nil && t.Kind != KindAnonymous
}
