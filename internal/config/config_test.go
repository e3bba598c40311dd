// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"go.georchestra.org/gateway/internal/access"
	"go.georchestra.org/gateway/internal/headers"
	"go.georchestra.org/gateway/internal/here"
	"go.georchestra.org/gateway/internal/oidcclaims"
	"go.georchestra.org/gateway/internal/targetconf"
)

func TestFromPath(t *testing.T) {
	tests := []struct {
		name       string
		yaml       string
		wantConfig *Config
		wantError  string
	}{
		{
			name: "full config",
			yaml: here.Doc(`
				---
				logLevel: debug
				logFormat: console
				server:
				  address: ":9090"
				defaultOrganization: DEFAULT
				preauth:
				  enabled: true
				headers:
				  proxy: true
				  username: true
				  jsonUser: false
				accessRules:
				  - interceptUrl: ["/**"]
				    anonymous: true
				services:
				  geoserver:
				    target: "http://geoserver:8080/geoserver"
				    headers:
				      jsonUser: true
				    accessRules:
				      - interceptUrl: ["/geoserver/admin/**"]
				        allowedRoles: [ADMINISTRATOR]
				roleMappings:
				  "ROLE.*.USER": [ROLE_GUEST]
				directories:
				  main:
				    host: "ldap.example.com:636"
				    bindUsername: "cn=admin,dc=example,dc=com"
				    bindPassword: "hunter2"
				    users:
				      base: "ou=users,dc=example,dc=com"
				      passwordWarningDays: 10
				    orgs:
				      base: "ou=orgs,dc=example,dc=com"
				    roles:
				      base: "ou=roles,dc=example,dc=com"
				oidc:
				  issuer: "https://sso.example.com/realms/georchestra"
				  clientID: gateway
				  claims:
				    roles:
				      path: "realm_access.roles"
				      uppercase: true
				      append: true
				    organization:
				      path: "org_id"
			`),
			wantConfig: &Config{
				LogLevel:            "debug",
				LogFormat:           "console",
				Server:              ServerSpec{Address: ":9090"},
				DefaultOrganization: "DEFAULT",
				Preauth:             PreauthSpec{Enabled: true},
				Headers: &headers.Mapping{
					Proxy:    headers.Bool(true),
					Username: headers.Bool(true),
					JSONUser: headers.Bool(false),
				},
				AccessRules: []access.Rule{
					{Patterns: []string{"/**"}, Anonymous: true},
				},
				Services: map[string]targetconf.Service{
					"geoserver": {
						Target:  "http://geoserver:8080/geoserver",
						Headers: &headers.Mapping{JSONUser: headers.Bool(true)},
						Rules: []access.Rule{
							{Patterns: []string{"/geoserver/admin/**"}, AllowedRoles: []string{"ADMINISTRATOR"}},
						},
					},
				},
				RoleMappings: map[string][]string{"ROLE.*.USER": {"ROLE_GUEST"}},
				Directories: map[string]DirectorySpec{
					"main": {
						Host:         "ldap.example.com:636",
						BindUsername: "cn=admin,dc=example,dc=com",
						BindPassword: "hunter2",
						Users:        UserSearchSpec{Base: "ou=users,dc=example,dc=com", PasswordWarningDays: 10},
						Orgs:         SearchSpec{Base: "ou=orgs,dc=example,dc=com"},
						Roles:        SearchSpec{Base: "ou=roles,dc=example,dc=com"},
					},
				},
				OIDC: &OIDCSpec{
					Issuer:   "https://sso.example.com/realms/georchestra",
					ClientID: "gateway",
					Provider: "sso.example.com",
					Claims: &oidcclaims.Config{
						Roles:        &oidcclaims.RolesConfig{Path: "realm_access.roles", Uppercase: true, Append: true},
						Organization: &oidcclaims.OrganizationConfig{Path: "org_id"},
					},
				},
			},
		},
		{
			name: "empty config gets defaults",
			yaml: here.Doc(`
				---
				{}
			`),
			wantConfig: &Config{
				Server:  ServerSpec{Address: ":8080"},
				Headers: &headers.Mapping{},
			},
		},
		{
			name: "invalid log level",
			yaml: here.Doc(`
				---
				logLevel: shouting
			`),
			wantError: "validate logLevel: invalid log level, valid choices are the empty string, warning, info, debug and trace",
		},
		{
			name: "rule without patterns",
			yaml: here.Doc(`
				---
				accessRules:
				  - anonymous: true
			`),
			wantError: "validate accessRules: rule 0: access rule requires a non-empty pattern list",
		},
		{
			name: "service without target",
			yaml: here.Doc(`
				---
				services:
				  geoserver: {}
			`),
			wantError: `validate services: service "geoserver": missing target`,
		},
		{
			name: "service with bad target scheme",
			yaml: here.Doc(`
				---
				services:
				  geoserver:
				    target: "ldap://nope"
			`),
			wantError: `validate services: service "geoserver": target scheme must be http or https, got "ldap"`,
		},
		{
			name: "directory with missing fields",
			yaml: here.Doc(`
				---
				directories:
				  main:
				    host: "ldap.example.com"
			`),
			wantError: "validate directories: directory main: missing required fields: users.base, orgs.base, roles.base",
		},
		{
			name: "oidc without clientID",
			yaml: here.Doc(`
				---
				oidc:
				  issuer: "https://sso.example.com"
			`),
			wantError: "validate oidc: missing required clientID",
		},
		{
			name: "oidc with bad issuer",
			yaml: here.Doc(`
				---
				oidc:
				  clientID: gateway
				  issuer: "sso.example.com"
			`),
			wantError: `validate oidc: issuer scheme must be http or https, got ""`,
		},
		{
			name:      "not yaml",
			yaml:      "this: is:\n\tnot yaml",
			wantError: "decode yaml:",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(test.yaml), 0o600))

			config, err := FromPath(path)
			if test.wantError != "" {
				require.ErrorContains(t, err, test.wantError)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.wantConfig, config)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := FromPath(filepath.Join(t.TempDir(), "nope.yaml"))
		require.ErrorContains(t, err, "read file:")
	})
}
