// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package identity defines the canonical resolved user and organization records which are
// used for authorization decisions and header propagation.
package identity

// DenyID is the sentinel identity id substituted when a resolver or customizer signals
// that the resolved identity is invalid (e.g. an ambiguous duplicate match across
// directories).  Downstream authorization treats an identity with this id as
// unauthenticated.
const DenyID = "0"

// Identity is the canonical resolved user.  It is constructed fresh by a resolver from
// the authentication token on every request and must not be mutated after the customizer
// chain completes for that request.
type Identity struct {
	// ID is the stable identifier: the directory UID or the OIDC subject.
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`

	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`

	// Organization is the short name of the user's organization.
	Organization string `json:"organization,omitempty"`

	// Roles is the ordered role list.  Stored in canonical prefixed form (see roles.go);
	// duplicates collapse.
	Roles []string `json:"roles,omitempty"`

	Telephone string `json:"telephone,omitempty"`
	Address   string `json:"address,omitempty"`
	Title     string `json:"title,omitempty"`
	Notes     string `json:"notes,omitempty"`

	// OAuth2Provider and OAuth2UID identify the external OAuth2 account this user logged
	// in with, when applicable.  They are always both set or both empty.
	OAuth2Provider string `json:"oauth2Provider,omitempty"`
	OAuth2UID      string `json:"oauth2Uid,omitempty"`

	// PasswordExpiring is set when the backing directory reports the user's password as
	// expiring in PasswordDaysToExpire days.
	PasswordExpiring     bool `json:"ldapWarn,omitempty"`
	PasswordDaysToExpire int  `json:"ldapRemainingDays,omitempty"`

	// LastUpdated is an opaque directory timestamp, propagated as-is.
	LastUpdated string `json:"lastUpdated,omitempty"`
}

// Deny returns the sentinel identity which downstream authorization treats as
// unauthenticated.
func Deny() *Identity {
	return &Identity{ID: DenyID}
}

// IsDeny returns true when this identity is the sentinel deny identity.
func (i *Identity) IsDeny() bool {
	return i != nil && i.ID == DenyID
}

// Clone returns a deep copy, so customizers can mutate their input freely.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	out := *i
	out.Roles = append([]string(nil), i.Roles...)
	return &out
}

// Organization is an organization record as known to the backing directory.  The gateway
// creates and updates organizations but never deletes them.
type Organization struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	ShortName string `json:"shortName,omitempty"`
	Category  string `json:"category,omitempty"`
	Notes     string `json:"notes,omitempty"`
	Address   string `json:"address,omitempty"`

	// Members is the ordered list of member uids.
	Members []string `json:"members,omitempty"`

	LastUpdated string `json:"lastUpdated,omitempty"`
}
