// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package rolemap expands a user's role set via configurable pattern-to-roles mappings.
// Patterns are compiled once from configuration at startup; per-role lookup results are
// memoized in a bounded concurrent cache.  The cache is purely a performance
// optimization: the expansion is a pure function of configuration, so eviction never
// affects output.
package rolemap

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dgraph-io/ristretto"

	"go.georchestra.org/gateway/internal/identity"
)

const cacheCapacity = 1000

// rule is one compiled pattern plus the role names to append when it matches.
// Immutable once constructed.
type rule struct {
	source  string
	pattern *regexp.Regexp
	extra   []string
}

// Engine expands role names.  Safe for concurrent use.
type Engine struct {
	rules []rule
	cache *ristretto.Cache
}

// New compiles the configured pattern-to-roles mappings.  In a pattern, "." is escaped
// and "*" is glob-expanded to ".*"; the pattern must match the whole role name.  Rules
// are ordered by pattern string so expansion is deterministic regardless of map
// iteration order.
func New(mappings map[string][]string) (*Engine, error) {
	patterns := make([]string, 0, len(mappings))
	for pattern := range mappings {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)

	rules := make([]rule, 0, len(patterns))
	for _, pattern := range patterns {
		compiled, err := compilePattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling role mapping pattern %q: %w", pattern, err)
		}
		rules = append(rules, rule{
			source:  pattern,
			pattern: compiled,
			extra:   append([]string(nil), mappings[pattern]...),
		})
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheCapacity * 10,
		MaxCost:     cacheCapacity,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating role mapping cache: %w", err)
	}

	return &Engine{rules: rules, cache: cache}, nil
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	escaped := strings.ReplaceAll(pattern, ".", `\.`)
	expanded := strings.ReplaceAll(escaped, "*", ".*")
	return regexp.Compile("^" + expanded + "$")
}

// AdditionalRoles returns the list of additional role names the given role maps to.
// A role matches a pattern when any of its spellings (as given, canonical prefixed,
// bare) matches.
func (e *Engine) AdditionalRoles(role string) []string {
	if cached, ok := e.cache.Get(role); ok {
		return cached.([]string)
	}

	var additions []string
	for _, r := range e.rules {
		if r.matches(role) {
			additions = append(additions, r.extra...)
		}
	}

	e.cache.Set(role, additions, 1)
	return additions
}

func (r *rule) matches(role string) bool {
	for _, spelling := range []string{role, identity.CanonicalRole(role), identity.BareRole(role)} {
		if r.pattern.MatchString(spelling) {
			return true
		}
	}
	return false
}

// Expand applies AdditionalRoles to every role in the set and set-unions all results
// with the original roles, preserving order (originals first, additions after).
func (e *Engine) Expand(roles []string) []string {
	lists := [][]string{roles}
	for _, role := range roles {
		if additions := e.AdditionalRoles(role); len(additions) > 0 {
			lists = append(lists, additions)
		}
	}
	return identity.UnionRoles(lists...)
}
