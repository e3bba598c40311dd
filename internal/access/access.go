// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package access implements URL-pattern-scoped authorization rules and the per-route
// access decision engine.
package access

import (
	"fmt"
	"net/url"

	"github.com/bmatcuk/doublestar/v4"

	"go.georchestra.org/gateway/internal/constable"
	"go.georchestra.org/gateway/internal/identity"
	"go.georchestra.org/gateway/internal/setutil"
)

// ErrNoPatterns means a rule was configured without URL patterns.
const ErrNoPatterns = constable.Error("access rule requires a non-empty pattern list")

// Rule is one URL-pattern-scoped authorization policy.  Exactly one policy applies:
// Anonymous (no restriction), Forbidden (deny all), a non-empty AllowedRoles list, or --
// when none of those is set -- any authenticated user.  Anonymous takes precedence over
// AllowedRoles when both are set.
type Rule struct {
	// Patterns are glob-style URL patterns ("/ws/**").  Mandatory, evaluated in order.
	Patterns []string `json:"interceptUrl"`

	// Anonymous permits every request, authenticated or not.
	Anonymous bool `json:"anonymous,omitempty"`

	// Forbidden denies every request.
	Forbidden bool `json:"forbidden,omitempty"`

	// AllowedRoles permits requests whose effective role set contains any of these role
	// names.  The ROLE_ prefix is optional in configuration.
	AllowedRoles []string `json:"allowedRoles,omitempty"`
}

// Validate checks the pattern list and pattern syntax.
func (r Rule) Validate() error {
	if len(r.Patterns) == 0 {
		return ErrNoPatterns
	}
	for _, pattern := range r.Patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid URL pattern %q", pattern)
		}
	}
	return nil
}

func (r Rule) matches(path string) bool {
	for _, pattern := range r.Patterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

// Decision is the outcome of an authorization check.
type Decision int

const (
	// Granted means the request may proceed.
	Granted Decision = iota

	// DeniedUnauthenticated means the request needs an authenticated caller
	// (401-equivalent: redirect to login).
	DeniedUnauthenticated

	// DeniedForbidden means the authenticated caller lacks a required role, or the path
	// is forbidden outright (403-equivalent).  A normal decision outcome, not an error.
	DeniedForbidden
)

func (d Decision) String() string {
	switch d {
	case Granted:
		return "granted"
	case DeniedUnauthenticated:
		return "unauthenticated"
	case DeniedForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Engine evaluates an ordered access rule list for one matched route.  Service-specific
// rules are registered before global rules, and evaluation stops at the first rule whose
// pattern matches, so a service-level rule for a path always takes precedence over a
// global rule for the same path.
type Engine struct {
	rules []scopedRule
}

type scopedRule struct {
	Rule
	scope string
}

// NewEngine registers serviceRules ahead of globalRules.
func NewEngine(serviceRules, globalRules []Rule) *Engine {
	engine := &Engine{}
	for _, rule := range serviceRules {
		engine.rules = append(engine.rules, scopedRule{Rule: rule, scope: "service"})
	}
	for _, rule := range globalRules {
		engine.rules = append(engine.rules, scopedRule{Rule: rule, scope: "global"})
	}
	return engine
}

// Input carries everything a decision depends on.
type Input struct {
	Path  string
	Query url.Values

	// Authenticated reports whether the request carries a usable authenticated
	// principal.  The sentinel deny identity must be treated as unauthenticated by the
	// caller before building the Input.
	Authenticated bool

	// TokenAuthorities are the role names granted by the authentication provider.
	TokenAuthorities []string

	// IdentityRoles are the roles on the resolved identity, which may include roles the
	// provider never granted (added by role augmentation).
	IdentityRoles []string
}

// Decide applies the registered rules in order.  The "login" query-parameter override is
// checked before every rule: its presence forces require-authenticated regardless of any
// configured rule for the path.
func (e *Engine) Decide(in Input) Decision {
	if in.Query.Has("login") {
		if !in.Authenticated {
			return DeniedUnauthenticated
		}
		return Granted
	}

	for _, rule := range e.rules {
		if !rule.matches(in.Path) {
			continue
		}
		return decideRule(rule.Rule, in)
	}

	// No configured rule covers this path.  The global list conventionally ends with a
	// catch-all, so an uncovered path is treated as unrestricted.
	return Granted
}

func decideRule(rule Rule, in Input) Decision {
	switch {
	case rule.Anonymous:
		return Granted
	case rule.Forbidden:
		return DeniedForbidden
	case len(rule.AllowedRoles) > 0:
		if !in.Authenticated {
			return DeniedUnauthenticated
		}
		if hasAnyRole(rule.AllowedRoles, in.TokenAuthorities, in.IdentityRoles) {
			return Granted
		}
		return DeniedForbidden
	default:
		if !in.Authenticated {
			return DeniedUnauthenticated
		}
		return Granted
	}
}

// hasAnyRole checks the configured role names against the union of token-granted
// authorities and resolver-derived identity roles.  Both sides are compared in canonical
// prefixed form.
func hasAnyRole(allowed, tokenAuthorities, identityRoles []string) bool {
	effective := setutil.NewStringSet(identity.CanonicalRoles(
		identity.UnionRoles(tokenAuthorities, identityRoles))...)

	for _, role := range allowed {
		if effective.Has(identity.CanonicalRole(role)) {
			return true
		}
	}
	return false
}
