// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package oidcclaims extracts roles and organization from arbitrary OIDC claim JSON
// using configured path expressions.  Providers put this data in wildly different
// places (top-level arrays, nested realm objects, single strings), so the paths are
// configuration, not code.
package oidcclaims

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/buger/jsonparser"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"go.georchestra.org/gateway/internal/identity"
)

// RolesConfig configures extraction of role names from claim JSON.
type RolesConfig struct {
	// Path is a dot-separated path into the claim document, e.g. "groups" or
	// "realm_access.roles".  The value at the path must be a string or an array of
	// strings.
	Path string `json:"path"`

	// Uppercase upper-cases extracted role strings.
	Uppercase bool `json:"uppercase"`

	// Normalize folds diacritics out of extracted role strings and replaces whitespace
	// with underscores, so directory-safe role names come out of free-form group names.
	Normalize bool `json:"normalize"`

	// Append controls merge semantics against the roles the OAuth2 provider granted:
	// true appends the extracted roles, false replaces the granted roles entirely.
	Append bool `json:"append"`
}

// OrganizationConfig configures extraction of the organization short name.
type OrganizationConfig struct {
	// Path is a dot-separated path; the value must be a string.
	Path string `json:"path"`
}

// Config is the OIDC custom-claims block.
type Config struct {
	Roles        *RolesConfig        `json:"roles,omitempty"`
	Organization *OrganizationConfig `json:"organization,omitempty"`
}

// ExtractRoles returns the role names found at the configured path, post-processed per
// the Uppercase/Normalize toggles.  A missing path is not an error: providers omit
// claims for users without any.
func (c *Config) ExtractRoles(claims []byte) ([]string, error) {
	if c == nil || c.Roles == nil || c.Roles.Path == "" {
		return nil, nil
	}

	values, err := stringsAtPath(claims, c.Roles.Path)
	if err != nil {
		return nil, fmt.Errorf("extracting roles at %q: %w", c.Roles.Path, err)
	}

	var out []string
	for _, value := range values {
		if c.Roles.Normalize {
			value = foldToRoleName(value)
		}
		if c.Roles.Uppercase {
			value = strings.ToUpper(value)
		}
		if value != "" {
			out = append(out, value)
		}
	}
	return out, nil
}

// MergeRoles combines provider-granted roles with claim-extracted roles per the Append
// toggle.
func (c *Config) MergeRoles(granted, extracted []string) []string {
	if len(extracted) == 0 {
		return granted
	}
	if c != nil && c.Roles != nil && !c.Roles.Append {
		return extracted
	}
	return identity.UnionRoles(granted, extracted)
}

// ExtractOrganization returns the organization short name found at the configured path,
// or "" when the path is unset or absent from the document.
func (c *Config) ExtractOrganization(claims []byte) (string, error) {
	if c == nil || c.Organization == nil || c.Organization.Path == "" {
		return "", nil
	}

	value, err := jsonparser.GetString(claims, splitPath(c.Organization.Path)...)
	switch {
	case err == jsonparser.KeyPathNotFoundError:
		return "", nil
	case err != nil:
		return "", fmt.Errorf("extracting organization at %q: %w", c.Organization.Path, err)
	}
	return value, nil
}

func splitPath(path string) []string {
	return strings.Split(path, ".")
}

// stringsAtPath reads the value at a dot-separated path, accepting either a single
// string or an array of strings.  Returns nil when the path is absent.
func stringsAtPath(doc []byte, path string) ([]string, error) {
	keys := splitPath(path)

	value, valueType, _, err := jsonparser.Get(doc, keys...)
	switch {
	case err == jsonparser.KeyPathNotFoundError:
		return nil, nil
	case err != nil:
		return nil, err
	}

	switch valueType {
	case jsonparser.String:
		unescaped, err := jsonparser.ParseString(value)
		if err != nil {
			return nil, err
		}
		return []string{unescaped}, nil
	case jsonparser.Array:
		var out []string
		var iterErr error
		_, err := jsonparser.ArrayEach(value, func(item []byte, itemType jsonparser.ValueType, _ int, _ error) {
			if iterErr != nil || itemType != jsonparser.String {
				return
			}
			unescaped, err := jsonparser.ParseString(item)
			if err != nil {
				iterErr = err
				return
			}
			out = append(out, unescaped)
		})
		if err != nil {
			return nil, err
		}
		if iterErr != nil {
			return nil, iterErr
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value is a %s, expected string or array of strings", valueType)
	}
}

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldToRoleName removes diacritics and replaces whitespace runs with a single
// underscore.
func foldToRoleName(s string) string {
	folded, _, err := transform.String(diacriticFolder, s)
	if err != nil {
		folded = s // keep the original on a transform failure
	}
	return strings.Join(strings.Fields(folded), "_")
}
