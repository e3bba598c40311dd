// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package oidcclaims

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleClaims = `{
	"sub": "abc123",
	"email": "jdoe@example.com",
	"groups": ["GDI Planer", "GDI Editeur"],
	"org_id": "PSC",
	"realm_access": {"roles": ["user", "éditeur cartographie"]},
	"single_role": "viewer"
}`

func TestExtractRoles(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		want   []string
	}{
		{
			name:   "top level array",
			config: &Config{Roles: &RolesConfig{Path: "groups"}},
			want:   []string{"GDI Planer", "GDI Editeur"},
		},
		{
			name:   "nested path",
			config: &Config{Roles: &RolesConfig{Path: "realm_access.roles"}},
			want:   []string{"user", "éditeur cartographie"},
		},
		{
			name:   "single string value",
			config: &Config{Roles: &RolesConfig{Path: "single_role"}},
			want:   []string{"viewer"},
		},
		{
			name:   "uppercase toggle",
			config: &Config{Roles: &RolesConfig{Path: "single_role", Uppercase: true}},
			want:   []string{"VIEWER"},
		},
		{
			name:   "normalize folds diacritics and joins words",
			config: &Config{Roles: &RolesConfig{Path: "realm_access.roles", Normalize: true, Uppercase: true}},
			want:   []string{"USER", "EDITEUR_CARTOGRAPHIE"},
		},
		{
			name:   "absent path yields no roles",
			config: &Config{Roles: &RolesConfig{Path: "no.such.claim"}},
			want:   nil,
		},
		{
			name:   "unset config yields no roles",
			config: &Config{},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.config.ExtractRoles([]byte(sampleClaims))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestExtractRolesRejectsNonStringValue(t *testing.T) {
	config := &Config{Roles: &RolesConfig{Path: "sub_object"}}
	_, err := config.ExtractRoles([]byte(`{"sub_object": {"a": 1}}`))
	require.ErrorContains(t, err, "expected string or array of strings")
}

func TestMergeRoles(t *testing.T) {
	granted := []string{"ROLE_USER"}
	extracted := []string{"ROLE_PLANNER"}

	t.Run("append unions both sets", func(t *testing.T) {
		config := &Config{Roles: &RolesConfig{Append: true}}
		require.Equal(t, []string{"ROLE_USER", "ROLE_PLANNER"}, config.MergeRoles(granted, extracted))
	})

	t.Run("replace drops provider roles", func(t *testing.T) {
		config := &Config{Roles: &RolesConfig{Append: false}}
		require.Equal(t, []string{"ROLE_PLANNER"}, config.MergeRoles(granted, extracted))
	})

	t.Run("nothing extracted keeps provider roles regardless of mode", func(t *testing.T) {
		config := &Config{Roles: &RolesConfig{Append: false}}
		require.Equal(t, granted, config.MergeRoles(granted, nil))
	})
}

func TestExtractOrganization(t *testing.T) {
	config := &Config{Organization: &OrganizationConfig{Path: "org_id"}}

	org, err := config.ExtractOrganization([]byte(sampleClaims))
	require.NoError(t, err)
	require.Equal(t, "PSC", org)

	config = &Config{Organization: &OrganizationConfig{Path: "missing"}}
	org, err = config.ExtractOrganization([]byte(sampleClaims))
	require.NoError(t, err)
	require.Empty(t, org)

	org, err = (*Config)(nil).ExtractOrganization([]byte(sampleClaims))
	require.NoError(t, err)
	require.Empty(t, org)
}
