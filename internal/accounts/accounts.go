// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package accounts implements get-or-create over a directory-backed account store.  On
// creation it also provisions the user's organization and role memberships, rolling the
// account back if any step fails so no half-provisioned user is ever left behind.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.georchestra.org/gateway/internal/constable"
	"go.georchestra.org/gateway/internal/directory"
	"go.georchestra.org/gateway/internal/identity"
	"go.georchestra.org/gateway/internal/plog"
)

// ErrProvisioning wraps any failure of the account creation transaction.  Fatal for the
// request: the partial state was rolled back and the caller must surface an
// authentication failure.  Never retried automatically, since retrying a duplicate-key
// condition is not safe without caller-visible idempotency.
const ErrProvisioning = constable.Error("account provisioning failed")

// Notifier is told about newly created accounts, e.g. to publish on a message bus.
type Notifier interface {
	AccountCreated(ctx context.Context, user *identity.Identity)
}

// LogNotifier is the default Notifier, which only logs.
type LogNotifier struct{}

func (LogNotifier) AccountCreated(_ context.Context, user *identity.Identity) {
	plog.Info("account created", "username", user.Username, "org", user.Organization)
}

// Service provisions accounts in one backing directory.
//
// Get-or-create is guarded by a single process-wide read/write lock: concurrent lookups
// proceed in parallel, while a create is fully exclusive against all other lookups and
// creates.  Concurrent first-logins by different users therefore serialize through the
// write path, which is acceptable because account creation only happens once per user.
type Service struct {
	dir        directory.Client
	defaultOrg string
	notifier   Notifier

	mu sync.RWMutex
}

// NewService builds a provisioning service.  defaultOrg is the fallback organization
// short name for mapped identities that carry none.  A nil notifier logs.
func NewService(dir directory.Client, defaultOrg string, notifier Notifier) *Service {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Service{dir: dir, defaultOrg: defaultOrg, notifier: notifier}
}

// GetOrCreate returns the stored account for the mapped identity, creating it first if
// necessary.  An existing account is returned unchanged, without any write.
func (s *Service) GetOrCreate(ctx context.Context, mapped *identity.Identity) (*identity.Identity, error) {
	s.mu.RLock()
	stored, err := s.lookup(ctx, mapped)
	s.mu.RUnlock()
	switch {
	case err == nil:
		return stored, nil
	case !errors.Is(err, directory.ErrNotFound):
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under the write lock: another request may have created the account
	// between our shared lookup and here.
	stored, err = s.lookup(ctx, mapped)
	switch {
	case err == nil:
		return stored, nil
	case !errors.Is(err, directory.ErrNotFound):
		return nil, err
	}

	return s.create(ctx, mapped)
}

// lookup finds the stored account.  When the mapped identity carries both an OAuth2
// provider and uid, that pair takes precedence over the username.
func (s *Service) lookup(ctx context.Context, mapped *identity.Identity) (*identity.Identity, error) {
	if mapped.OAuth2Provider != "" && mapped.OAuth2UID != "" {
		return s.dir.FindByOAuth2UID(ctx, mapped.OAuth2Provider, mapped.OAuth2UID)
	}
	if mapped.Username == "" {
		return nil, fmt.Errorf("%w: mapped identity carries neither an OAuth2 uid pair nor a username", ErrProvisioning)
	}
	return s.dir.FindByUsername(ctx, mapped.Username)
}

func (s *Service) create(ctx context.Context, mapped *identity.Identity) (*identity.Identity, error) {
	user := mapped.Clone()
	if user.Username == "" {
		return nil, fmt.Errorf("%w: mapped identity has no username", ErrProvisioning)
	}
	if user.Organization == "" {
		user.Organization = s.defaultOrg
	}
	user.Roles = identity.CanonicalRoles(user.Roles)

	if err := s.dir.InsertAccount(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: inserting account %q: %w", ErrProvisioning, user.Username, err)
	}

	if err := s.ensureOrg(ctx, user); err != nil {
		s.rollback(ctx, user.Username)
		return nil, fmt.Errorf("%w: provisioning organization %q for %q: %w",
			ErrProvisioning, user.Organization, user.Username, err)
	}

	if err := s.ensureRoles(ctx, user); err != nil {
		s.rollback(ctx, user.Username)
		return nil, fmt.Errorf("%w: provisioning roles for %q: %w", ErrProvisioning, user.Username, err)
	}

	s.notifier.AccountCreated(ctx, user)
	return user, nil
}

// ensureOrg creates the claimed organization with this user as sole member, or appends
// the user to its member list when it already exists.
func (s *Service) ensureOrg(ctx context.Context, user *identity.Identity) error {
	if user.Organization == "" {
		return nil
	}

	org, err := s.dir.FindOrgByName(ctx, user.Organization)
	switch {
	case errors.Is(err, directory.ErrNotFound):
		return s.dir.InsertOrg(ctx, &identity.Organization{
			ShortName: user.Organization,
			Members:   []string{user.Username},
		})
	case err != nil:
		return err
	}

	for _, member := range org.Members {
		if member == user.Username {
			return nil // already a member
		}
	}
	org.Members = append(org.Members, user.Username)
	return s.dir.UpdateOrg(ctx, org)
}

// ensureRoles makes every claimed role exist in the directory (by its bare name) and
// registers the user in each.
func (s *Service) ensureRoles(ctx context.Context, user *identity.Identity) error {
	for _, role := range user.Roles {
		bare := identity.BareRole(role)
		exists, err := s.dir.FindRoleByName(ctx, bare)
		if err != nil {
			return err
		}
		if !exists {
			if err := s.dir.InsertRole(ctx, bare); err != nil {
				return err
			}
		}
		if err := s.dir.AddUserToRole(ctx, bare, user.Username); err != nil {
			return err
		}
	}
	return nil
}

// rollback deletes the just-created account.  Best effort: its own failure is only
// logged and never masks the original failure presented to the caller.
func (s *Service) rollback(ctx context.Context, username string) {
	if err := s.dir.DeleteAccount(ctx, username); err != nil {
		plog.Error("rollback of partially provisioned account failed", err, "username", username)
	}
}
