// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package headers emits the sec-* request headers that backend services rely on, driven
// by the per-route header mapping.  An ordered list of contributors each independently
// decides whether to add zero or more headers: a header is only added when both its
// toggle is enabled and the underlying value is present.  A toggle enabled with no
// backing value is a no-op, logged, never an error.
package headers

import (
	"net/http"
	"strconv"
	"strings"

	"go.georchestra.org/gateway/internal/identity"
	"go.georchestra.org/gateway/internal/plog"
)

// Contributor adds zero or more outbound headers for one request.
type Contributor interface {
	Contribute(user *identity.Identity, org *identity.Organization, mapping *Mapping, out http.Header)
}

// Pipeline applies an ordered list of contributors.
type Pipeline struct {
	contributors []Contributor
}

// NewPipeline builds a pipeline over the given contributors, applied in order.
func NewPipeline(contributors ...Contributor) *Pipeline {
	return &Pipeline{contributors: contributors}
}

// DefaultPipeline returns the standard contributor set, in emission order.
func DefaultPipeline() *Pipeline {
	return NewPipeline(
		proxyContributor{},
		userContributor{},
		rolesContributor{},
		organizationContributor{},
		jsonUserContributor{},
		jsonOrganizationContributor{},
	)
}

// Apply runs every contributor.  Before contributing, any sec-* header already present
// on out is removed, so stale or spoofed values never leak through.
func (p *Pipeline) Apply(user *identity.Identity, org *identity.Organization, mapping *Mapping, out http.Header) {
	StripSecHeaders(out)
	for _, contributor := range p.contributors {
		contributor.Contribute(user, org, mapping, out)
	}
}

// StripSecHeaders removes every sec-* header.
func StripSecHeaders(h http.Header) {
	for name := range h {
		if strings.HasPrefix(strings.ToLower(name), "sec-") {
			h.Del(name)
		}
	}
}

func setIfEnabled(out http.Header, name string, toggle *bool, value string) {
	if !enabled(toggle) {
		return
	}
	if value == "" {
		plog.Debug("header toggle enabled but value is absent, skipping", "header", name)
		return
	}
	out.Set(name, value)
}

// proxyContributor emits the sec-proxy marker so backends can detect gateway-fronted
// requests.
type proxyContributor struct{}

func (proxyContributor) Contribute(_ *identity.Identity, _ *identity.Organization, mapping *Mapping, out http.Header) {
	setIfEnabled(out, HeaderProxy, mapping.Proxy, "true")
}

// userContributor emits the plain per-field user headers.
type userContributor struct{}

func (userContributor) Contribute(user *identity.Identity, _ *identity.Organization, mapping *Mapping, out http.Header) {
	if user == nil {
		return
	}
	setIfEnabled(out, HeaderUserID, mapping.UserID, user.ID)
	setIfEnabled(out, HeaderUsername, mapping.Username, user.Username)
	setIfEnabled(out, HeaderOrg, mapping.Org, user.Organization)
	setIfEnabled(out, HeaderEmail, mapping.Email, user.Email)
	setIfEnabled(out, HeaderFirstName, mapping.FirstName, user.FirstName)
	setIfEnabled(out, HeaderLastName, mapping.LastName, user.LastName)
	setIfEnabled(out, HeaderTel, mapping.Tel, user.Telephone)
	setIfEnabled(out, HeaderAddress, mapping.Address, user.Address)
	setIfEnabled(out, HeaderTitle, mapping.Title, user.Title)
	setIfEnabled(out, HeaderNotes, mapping.Notes, user.Notes)
	setIfEnabled(out, HeaderLastUpdated, mapping.LastUpdated, user.LastUpdated)
	if user.PasswordExpiring {
		setIfEnabled(out, HeaderLDAPRemainingDays, mapping.LDAPRemainingDays,
			strconv.Itoa(user.PasswordDaysToExpire))
	}
}

// rolesContributor emits the ;-joined role list.
type rolesContributor struct{}

func (rolesContributor) Contribute(user *identity.Identity, _ *identity.Organization, mapping *Mapping, out http.Header) {
	if user == nil {
		return
	}
	setIfEnabled(out, HeaderRoles, mapping.Roles, strings.Join(user.Roles, ";"))
}

// organizationContributor emits the plain per-field organization headers.
type organizationContributor struct{}

func (organizationContributor) Contribute(_ *identity.Identity, org *identity.Organization, mapping *Mapping, out http.Header) {
	if org == nil {
		return
	}
	setIfEnabled(out, HeaderOrgName, mapping.OrgName, org.Name)
	setIfEnabled(out, HeaderOrgID, mapping.OrgID, org.ID)
	setIfEnabled(out, HeaderOrgLastUpdated, mapping.OrgLastUpdated, org.LastUpdated)
}

// jsonUserContributor emits the Base64-encoded compact JSON user payload.
type jsonUserContributor struct{}

func (jsonUserContributor) Contribute(user *identity.Identity, _ *identity.Organization, mapping *Mapping, out http.Header) {
	if user == nil || !enabled(mapping.JSONUser) {
		return
	}
	encoded, err := identity.EncodeBlob(user)
	if err != nil {
		plog.WarningErr("could not encode user payload header", err, "header", HeaderJSONUser)
		return
	}
	out.Set(HeaderJSONUser, encoded)
}

// jsonOrganizationContributor emits the Base64-encoded compact JSON organization payload.
type jsonOrganizationContributor struct{}

func (jsonOrganizationContributor) Contribute(_ *identity.Identity, org *identity.Organization, mapping *Mapping, out http.Header) {
	if org == nil || !enabled(mapping.JSONOrganization) {
		return
	}
	encoded, err := identity.EncodeBlob(org)
	if err != nil {
		plog.WarningErr("could not encode organization payload header", err, "header", HeaderJSONOrganization)
		return
	}
	out.Set(HeaderJSONOrganization, encoded)
}
