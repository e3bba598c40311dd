// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package headers

// Names of the sec-* request headers emitted toward backend services.
const (
	HeaderProxy             = "sec-proxy"
	HeaderUserID            = "sec-userid"
	HeaderUsername          = "sec-username"
	HeaderOrg               = "sec-org"
	HeaderEmail             = "sec-email"
	HeaderFirstName         = "sec-firstname"
	HeaderLastName          = "sec-lastname"
	HeaderTel               = "sec-tel"
	HeaderAddress           = "sec-address"
	HeaderTitle             = "sec-title"
	HeaderNotes             = "sec-notes"
	HeaderRoles             = "sec-roles"
	HeaderLastUpdated       = "sec-lastupdated"
	HeaderLDAPRemainingDays = "sec-ldap-remaining-days"
	HeaderOrgName           = "sec-orgname"
	HeaderOrgID             = "sec-org-id"
	HeaderOrgLastUpdated    = "sec-org-lastupdated"
	HeaderJSONUser          = "sec-user"
	HeaderJSONOrganization  = "sec-organization"
)

// Mapping is the fixed enumeration of per-header boolean toggles.  A nil toggle means
// "inherit from the higher-scoped default" (see Inherit); an explicitly set toggle wins.
type Mapping struct {
	Proxy     *bool `json:"proxy,omitempty"`
	UserID    *bool `json:"userid,omitempty"`
	Username  *bool `json:"username,omitempty"`
	Org       *bool `json:"org,omitempty"`
	Email     *bool `json:"email,omitempty"`
	FirstName *bool `json:"firstname,omitempty"`
	LastName  *bool `json:"lastname,omitempty"`
	Tel       *bool `json:"tel,omitempty"`
	Address   *bool `json:"address,omitempty"`
	Title     *bool `json:"title,omitempty"`
	Notes     *bool `json:"notes,omitempty"`
	Roles     *bool `json:"roles,omitempty"`

	LastUpdated       *bool `json:"lastupdated,omitempty"`
	LDAPRemainingDays *bool `json:"ldapRemainingDays,omitempty"`

	OrgName        *bool `json:"orgname,omitempty"`
	OrgID          *bool `json:"orgId,omitempty"`
	OrgLastUpdated *bool `json:"orgLastupdated,omitempty"`

	// JSONUser and JSONOrganization toggle the Base64-encoded JSON payload headers.
	JSONUser         *bool `json:"jsonUser,omitempty"`
	JSONOrganization *bool `json:"jsonOrganization,omitempty"`
}

// Inherit returns a copy of m where every absent (nil) toggle takes the value from
// defaults.  m and defaults are not modified.
func (m *Mapping) Inherit(defaults *Mapping) *Mapping {
	if m == nil {
		if defaults == nil {
			return &Mapping{}
		}
		copied := *defaults
		return &copied
	}
	if defaults == nil {
		copied := *m
		return &copied
	}
	out := *m
	inherit(&out.Proxy, defaults.Proxy)
	inherit(&out.UserID, defaults.UserID)
	inherit(&out.Username, defaults.Username)
	inherit(&out.Org, defaults.Org)
	inherit(&out.Email, defaults.Email)
	inherit(&out.FirstName, defaults.FirstName)
	inherit(&out.LastName, defaults.LastName)
	inherit(&out.Tel, defaults.Tel)
	inherit(&out.Address, defaults.Address)
	inherit(&out.Title, defaults.Title)
	inherit(&out.Notes, defaults.Notes)
	inherit(&out.Roles, defaults.Roles)
	inherit(&out.LastUpdated, defaults.LastUpdated)
	inherit(&out.LDAPRemainingDays, defaults.LDAPRemainingDays)
	inherit(&out.OrgName, defaults.OrgName)
	inherit(&out.OrgID, defaults.OrgID)
	inherit(&out.OrgLastUpdated, defaults.OrgLastUpdated)
	inherit(&out.JSONUser, defaults.JSONUser)
	inherit(&out.JSONOrganization, defaults.JSONOrganization)
	return &out
}

func inherit(field **bool, fallback *bool) {
	if *field == nil {
		*field = fallback
	}
}

func enabled(toggle *bool) bool {
	return toggle != nil && *toggle
}

// Bool is a convenience for building Mapping literals.
func Bool(v bool) *bool {
	return &v
}
