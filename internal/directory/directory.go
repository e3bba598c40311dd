// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package directory defines the contract the gateway core requires from a backing
// directory service, an LDAP implementation of it, and the demultiplexer which routes
// lookups to the correct configured directory.
package directory

import (
	"context"

	"go.georchestra.org/gateway/internal/constable"
	"go.georchestra.org/gateway/internal/identity"
)

const (
	// ErrNotFound is returned by the Find* operations when no entry matches.
	ErrNotFound = constable.Error("directory: entry not found")

	// ErrAlreadyExists is returned by the Insert* operations on a duplicate key.
	// Retrying a duplicate-key condition is not safe, so callers must surface it.
	ErrAlreadyExists = constable.Error("directory: entry already exists")
)

// Client is the directory contract required by the identity core.  Implementations may
// block on network I/O; every operation takes a context and must propagate failures of
// the underlying transport as ordinary errors, never hangs.
type Client interface {
	// FindByUsername returns the stored account for a login name, or ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*identity.Identity, error)

	// FindByOAuth2UID returns the stored account linked to the given external OAuth2
	// (provider, uid) pair, or ErrNotFound.
	FindByOAuth2UID(ctx context.Context, provider, uid string) (*identity.Identity, error)

	// FindByEmail returns the stored account for an email address, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*identity.Identity, error)

	// InsertAccount stores a minimal account record with no password.
	InsertAccount(ctx context.Context, user *identity.Identity) error

	// DeleteAccount removes an account.  Used only as compensating rollback.
	DeleteAccount(ctx context.Context, username string) error

	// FindOrgByName returns the organization with the given short name, or ErrNotFound.
	FindOrgByName(ctx context.Context, shortName string) (*identity.Organization, error)

	// InsertOrg creates an organization.
	InsertOrg(ctx context.Context, org *identity.Organization) error

	// UpdateOrg replaces the stored organization, including its member list.
	UpdateOrg(ctx context.Context, org *identity.Organization) error

	// FindRoleByName reports whether the directory role with the given (bare, unprefixed)
	// name exists.
	FindRoleByName(ctx context.Context, name string) (bool, error)

	// InsertRole creates an empty directory role with the given bare name.
	InsertRole(ctx context.Context, name string) error

	// AddUserToRole registers the user as a member of the given bare role name.
	AddUserToRole(ctx context.Context, roleName, username string) error
}
