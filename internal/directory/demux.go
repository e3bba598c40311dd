// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.georchestra.org/gateway/internal/constable"
	"go.georchestra.org/gateway/internal/identity"
)

// ErrUnknownDirectory means a lookup was routed with a tag no directory is configured
// under.  The authentication token is the only source of tags, so hitting this is a
// programming-contract violation, not a soft miss: usernames are only unique within one
// configured directory and guessing would risk resolving the wrong identity.
const ErrUnknownDirectory = constable.Error("directory: no directory configured for tag")

// Demux routes a username/email lookup to the correct backing directory client based on
// the tag carried by the authentication token.  The routing table is an immutable
// snapshot built at startup; configuration is not hot-reloadable.
type Demux struct {
	clients map[string]Client
}

// NewDemux builds a demultiplexer over the given tag-to-client table.
func NewDemux(clients map[string]Client) *Demux {
	copied := make(map[string]Client, len(clients))
	for tag, client := range clients {
		copied[tag] = client
	}
	return &Demux{clients: copied}
}

// Tags returns the configured directory tags, sorted.
func (d *Demux) Tags() []string {
	tags := make([]string, 0, len(d.clients))
	for tag := range d.clients {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// For returns the client configured under the given tag.
func (d *Demux) For(tag string) (Client, error) {
	client, ok := d.clients[tag]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownDirectory, tag)
	}
	return client, nil
}

// FindByUsername routes the lookup to the directory configured under tag.
func (d *Demux) FindByUsername(ctx context.Context, tag, username string) (*identity.Identity, error) {
	client, err := d.For(tag)
	if err != nil {
		return nil, err
	}
	return client.FindByUsername(ctx, username)
}

// FindByEmail routes the lookup to the directory configured under tag.
func (d *Demux) FindByEmail(ctx context.Context, tag, email string) (*identity.Identity, error) {
	client, err := d.For(tag)
	if err != nil {
		return nil, err
	}
	return client.FindByEmail(ctx, email)
}

// EmailMatch is one hit of FindByEmailEverywhere.
type EmailMatch struct {
	Tag      string
	Identity *identity.Identity
}

// FindByEmailEverywhere searches every configured directory for the given email and
// returns all matches.  Callers use it to detect ambiguous duplicate accounts across
// independently configured directories.
func (d *Demux) FindByEmailEverywhere(ctx context.Context, email string) ([]EmailMatch, error) {
	var matches []EmailMatch
	for _, tag := range d.Tags() {
		found, err := d.clients[tag].FindByEmail(ctx, email)
		switch {
		case err == nil:
			matches = append(matches, EmailMatch{Tag: tag, Identity: found})
		case errors.Is(err, ErrNotFound):
			continue
		default:
			return nil, fmt.Errorf("searching directory %q by email: %w", tag, err)
		}
	}
	return matches, nil
}
