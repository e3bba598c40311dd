// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalRole(t *testing.T) {
	tests := []struct {
		name string
		role string
		want string
	}{
		{name: "bare name gets the prefix", role: "ADMIN", want: "ROLE_ADMIN"},
		{name: "prefixed name is unchanged", role: "ROLE_ADMIN", want: "ROLE_ADMIN"},
		{name: "dotted name without the prefix gets it", role: "GDI.USER", want: "ROLE_GDI.USER"},
		{name: "whitespace is trimmed", role: "  ADMIN  ", want: "ROLE_ADMIN"},
		{name: "case is preserved", role: "admin", want: "ROLE_admin"},
		{name: "empty stays empty", role: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, CanonicalRole(tt.role))
		})
	}
}

func TestSameRole(t *testing.T) {
	require.True(t, SameRole("ADMIN", "ROLE_ADMIN"))
	require.True(t, SameRole("ROLE_ADMIN", "ADMIN"))
	require.True(t, SameRole("ROLE_ADMIN", "ROLE_ADMIN"))
	require.False(t, SameRole("ADMIN", "admin"), "role comparison is case-sensitive")
	require.False(t, SameRole("ADMIN", "SUPERUSER"))
}

func TestCanonicalRoles(t *testing.T) {
	require.Equal(t,
		[]string{"ROLE_ADMIN", "ROLE_USER"},
		CanonicalRoles([]string{"ADMIN", "ROLE_USER", "ROLE_ADMIN", "", "USER"}),
		"duplicates collapse and order is preserved")
}

func TestUnionRoles(t *testing.T) {
	tests := []struct {
		name  string
		lists [][]string
		want  []string
	}{
		{
			name:  "original spelling wins over canonical duplicate",
			lists: [][]string{{"ADMIN"}, {"ROLE_ADMIN", "ROLE_USER"}},
			want:  []string{"ADMIN", "ROLE_USER"},
		},
		{
			name:  "disjoint lists concatenate in order",
			lists: [][]string{{"ROLE_A"}, {"ROLE_B"}, {"ROLE_C"}},
			want:  []string{"ROLE_A", "ROLE_B", "ROLE_C"},
		},
		{
			name:  "empty entries are skipped",
			lists: [][]string{{"", "  "}, {"ROLE_X"}},
			want:  []string{"ROLE_X"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, UnionRoles(tt.lists...))
		})
	}
}

func TestEncodeBlobOmitsNullFields(t *testing.T) {
	user := &Identity{ID: "u1", Username: "jdoe", Roles: []string{"ROLE_USER"}}

	encoded, err := EncodeBlob(user)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, DecodeBlob(encoded, &decoded))
	require.Equal(t, "jdoe", decoded["username"])
	require.NotContains(t, decoded, "email", "empty fields must be omitted from the blob")
	require.NotContains(t, decoded, "organization")
}

func TestDenyIdentity(t *testing.T) {
	require.True(t, Deny().IsDeny())
	require.False(t, (&Identity{ID: "u1"}).IsDeny())
	require.False(t, (*Identity)(nil).IsDeny())
}
