// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"strings"

	"go.georchestra.org/gateway/internal/setutil"
)

// RolePrefix is the canonical role name prefix.  Role names are compared and stored
// case-sensitively in prefixed form; a role with or without the prefix is the same role
// for matching and mapping purposes.
const RolePrefix = "ROLE_"

// RoleUser is the default role granted to every authenticated identity.
const RoleUser = RolePrefix + "USER"

// CanonicalRole returns the prefixed form of a role name.  Already-prefixed names are
// returned unchanged.
func CanonicalRole(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, RolePrefix) {
		return name
	}
	return RolePrefix + name
}

// BareRole strips the canonical prefix from a role name, yielding the underlying
// directory role name.
func BareRole(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), RolePrefix)
}

// SameRole reports whether two role names denote the same role, i.e. they are equal in
// canonical prefixed form.
func SameRole(a, b string) bool {
	return CanonicalRole(a) == CanonicalRole(b)
}

// CanonicalRoles canonicalizes every name, collapsing duplicates and preserving order.
func CanonicalRoles(names []string) []string {
	set := setutil.NewStringSet()
	for _, name := range names {
		if canonical := CanonicalRole(name); canonical != "" {
			set.Insert(canonical)
		}
	}
	return set.List()
}

// UnionRoles unions role lists without canonicalizing the names, collapsing duplicates
// by canonical equivalence and preserving first-seen order and spelling.
func UnionRoles(lists ...[]string) []string {
	seen := setutil.NewStringSet()
	var out []string
	for _, list := range lists {
		for _, name := range list {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			canonical := CanonicalRole(name)
			if seen.Has(canonical) {
				continue
			}
			seen.Insert(canonical)
			out = append(out, name)
		}
	}
	return out
}
