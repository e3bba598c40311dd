// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resolvers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"go.georchestra.org/gateway/internal/identity"
	"go.georchestra.org/gateway/internal/token"
)

type fakeResolver struct {
	order int
	user  *identity.Identity
	err   error
	calls *[]string
	name  string
}

func (f *fakeResolver) Priority() int { return f.order }

func (f *fakeResolver) Resolve(_ context.Context, _ *token.Token) (*identity.Identity, error) {
	if f.calls != nil {
		*f.calls = append(*f.calls, f.name)
	}
	return f.user, f.err
}

type fakeCustomizer struct {
	order  int
	suffix string
	err    error
	calls  *[]string
	name   string
}

func (f *fakeCustomizer) Priority() int { return f.order }

func (f *fakeCustomizer) Customize(_ context.Context, _ *token.Token, user *identity.Identity) (*identity.Identity, error) {
	if f.calls != nil {
		*f.calls = append(*f.calls, f.name)
	}
	if f.err != nil {
		return nil, f.err
	}
	out := user.Clone()
	out.Username += f.suffix
	return out, nil
}

func TestChainFirstNonEmptyIdentityWins(t *testing.T) {
	var calls []string
	chain := NewChain([]Resolver{
		&fakeResolver{order: 2, name: "second", user: &identity.Identity{ID: "from-second"}, calls: &calls},
		&fakeResolver{order: 1, name: "first", calls: &calls},
		&fakeResolver{order: 3, name: "third", user: &identity.Identity{ID: "from-third"}, calls: &calls},
	}, nil)

	user, err := chain.Resolve(context.Background(), token.Anonymous())
	require.NoError(t, err)
	require.Equal(t, "from-second", user.ID)
	require.Equal(t, []string{"first", "second"}, calls, "remaining resolvers must not be tried")
}

func TestChainMissMeansAnonymous(t *testing.T) {
	chain := NewChain([]Resolver{&fakeResolver{order: 1}}, []Customizer{
		&fakeCustomizer{order: 1, suffix: "-x"},
	})

	user, err := chain.Resolve(context.Background(), token.Anonymous())
	require.NoError(t, err)
	require.Nil(t, user, "no resolver matched: request proceeds as anonymous")
}

func TestChainResolverErrorPropagates(t *testing.T) {
	chain := NewChain([]Resolver{&fakeResolver{order: 1, err: errors.New("directory down")}}, nil)

	_, err := chain.Resolve(context.Background(), token.Anonymous())
	require.ErrorContains(t, err, "directory down")
}

func TestChainCustomizersRunInPriorityOrder(t *testing.T) {
	var calls []string
	chain := NewChain(
		[]Resolver{&fakeResolver{order: 1, user: &identity.Identity{Username: "base"}}},
		[]Customizer{
			&fakeCustomizer{order: 20, suffix: "-b", name: "b", calls: &calls},
			&fakeCustomizer{order: 10, suffix: "-a", name: "a", calls: &calls},
		})

	user, err := chain.Resolve(context.Background(), token.Anonymous())
	require.NoError(t, err)
	require.Equal(t, "base-a-b", user.Username)
	require.Equal(t, []string{"a", "b"}, calls)
}

func TestChainCustomizerErrorYieldsSentinelDeny(t *testing.T) {
	chain := NewChain(
		[]Resolver{&fakeResolver{order: 1, user: &identity.Identity{ID: "real", Username: "jdoe"}}},
		[]Customizer{&fakeCustomizer{order: 1, err: ErrAmbiguousIdentity}})

	user, err := chain.Resolve(context.Background(), token.Anonymous())
	require.NoError(t, err, "a customizer rejection must not fail the request")
	require.True(t, user.IsDeny(), "the sentinel deny identity must be substituted")
}

func TestDefaultRoleCustomizer(t *testing.T) {
	customizer := &DefaultRoleCustomizer{}

	user, err := customizer.Customize(context.Background(), token.Anonymous(),
		&identity.Identity{Username: "jdoe", Roles: []string{"ROLE_ADMIN"}})
	require.NoError(t, err)
	require.Equal(t, []string{"ROLE_ADMIN", "ROLE_USER"}, user.Roles)

	// already present: no duplicate
	user, err = customizer.Customize(context.Background(), token.Anonymous(), user)
	require.NoError(t, err)
	require.Equal(t, []string{"ROLE_ADMIN", "ROLE_USER"}, user.Roles)
}
