// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"go.georchestra.org/gateway/internal/access"
	"go.georchestra.org/gateway/internal/headers"
	"go.georchestra.org/gateway/internal/oidcclaims"
	"go.georchestra.org/gateway/internal/targetconf"
)

// Config contains knobs to set up an instance of the gateway.  It is immutable
// after load: there is no hot reload.
type Config struct {
	LogLevel  string `json:"logLevel"`
	LogFormat string `json:"logFormat"`

	Server ServerSpec `json:"server"`

	// DefaultOrganization is the fallback organization short name for
	// provisioned accounts that claim none.
	DefaultOrganization string `json:"defaultOrganization"`

	Preauth PreauthSpec `json:"preauth"`

	// Headers is the global HeaderMapping default.  Per-service mappings
	// inherit any toggle they leave unset from it.
	Headers *headers.Mapping `json:"headers"`

	// AccessRules is the global ordered rule list, evaluated after any
	// service-level rules.
	AccessRules []access.Rule `json:"accessRules"`

	// Services maps backend service names to their target and overrides.
	Services map[string]targetconf.Service `json:"services"`

	// RoleMappings maps role-name patterns to additional roles granted to
	// any identity holding a matching role.
	RoleMappings map[string][]string `json:"roleMappings"`

	// Directories maps a directory tag to its LDAP connection settings.
	// Usernames are only unique within one tag.
	Directories map[string]DirectorySpec `json:"directories"`

	OIDC *OIDCSpec `json:"oidc"`
}

// ServerSpec configures the listening socket.
type ServerSpec struct {
	Address string `json:"address"`
}

// PreauthSpec controls trusted-header pre-authentication.  Enable only when a
// reverse-proxy hop the deployment trusts sets the preauth headers.
type PreauthSpec struct {
	Enabled bool `json:"enabled"`
}

// DirectorySpec configures one LDAP directory.
type DirectorySpec struct {
	Host         string `json:"host"`
	CABundlePath string `json:"caBundlePath"`

	BindUsername string `json:"bindUsername"`
	BindPassword string `json:"bindPassword"`

	Users UserSearchSpec `json:"users"`
	Orgs  SearchSpec     `json:"orgs"`
	Roles SearchSpec     `json:"roles"`
}

// UserSearchSpec configures the user subtree.
type UserSearchSpec struct {
	Base string `json:"base"`

	// PasswordWarningDays is how many days before password expiry the
	// gateway starts reporting the remaining days to backends.  Zero
	// disables the warning.
	PasswordWarningDays int `json:"passwordWarningDays"`
}

// SearchSpec configures an org or role subtree.
type SearchSpec struct {
	Base string `json:"base"`
}

// OIDCSpec configures bearer ID-token acceptance and custom claim extraction.
type OIDCSpec struct {
	// Issuer is the provider's issuer URL, used for discovery and ID-token
	// verification.
	Issuer string `json:"issuer"`

	// ClientID is the audience expected in accepted ID tokens.
	ClientID string `json:"clientID"`

	// Provider is the tag recorded as the identity's OAuth2 provider.
	// Defaults to the issuer host.
	Provider string `json:"provider"`

	Claims *oidcclaims.Config `json:"claims"`
}
