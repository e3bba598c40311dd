// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package targetconf resolves the effective (header mapping, access rule list) pair for
// the route matched by the proxy layer.  The pair is computed once per request, before
// the access decision and header propagation stages consult it.
package targetconf

import (
	"go.georchestra.org/gateway/internal/access"
	"go.georchestra.org/gateway/internal/headers"
)

// Service is the per-service configuration of one proxied backend.
type Service struct {
	// Target is the backend base URI the proxy forwards to.
	Target string `json:"target"`

	// Headers, when set, is this service's header mapping.  Absent toggles inherit from
	// the global default mapping; the rule lists and the mapping are otherwise whole
	// replacements, never field-merged.
	Headers *headers.Mapping `json:"headers"`

	// Rules, when non-empty, replaces the global access rule list for this service.
	Rules []access.Rule `json:"accessRules"`
}

// Target is the effective configuration pair bound to one matched route for the lifetime
// of one request.
type Target struct {
	// ServiceName is the matched route's backing service name.  Empty when the route is
	// not backed by a configured service.
	ServiceName string

	// BackendTarget is the backend base URI, when known.
	BackendTarget string

	// Headers is the effective header mapping.
	Headers *headers.Mapping

	// Engine evaluates the effective access rules (service rules before global rules).
	Engine *access.Engine
}

// Resolver computes Targets from an immutable configuration snapshot.
type Resolver struct {
	defaults    *headers.Mapping
	globalRules []access.Rule
	services    map[string]Service
}

// NewResolver builds a resolver over the global defaults and the per-service table.
func NewResolver(defaults *headers.Mapping, globalRules []access.Rule, services map[string]Service) *Resolver {
	copied := make(map[string]Service, len(services))
	for name, service := range services {
		copied[name] = service
	}
	return &Resolver{defaults: defaults, globalRules: globalRules, services: copied}
}

// Resolve returns the effective pair for the given backing service name.  An unknown or
// empty name yields the global defaults, so every route gets a usable Target.
func (r *Resolver) Resolve(serviceName string) *Target {
	target := &Target{ServiceName: serviceName}

	service, known := r.services[serviceName]
	if known {
		target.BackendTarget = service.Target
	}

	if known && service.Headers != nil {
		target.Headers = service.Headers.Inherit(r.defaults)
	} else {
		target.Headers = (*headers.Mapping)(nil).Inherit(r.defaults)
	}

	if known && len(service.Rules) > 0 {
		target.Engine = access.NewEngine(service.Rules, r.globalRules)
	} else {
		target.Engine = access.NewEngine(nil, r.globalRules)
	}

	return target
}
