// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package config contains functionality to load the gateway's Config from a
// YAML file, insert defaults, and verify that the config is valid.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"sigs.k8s.io/yaml"

	"go.georchestra.org/gateway/internal/access"
	"go.georchestra.org/gateway/internal/constable"
	"go.georchestra.org/gateway/internal/headers"
	"go.georchestra.org/gateway/internal/plog"
	"go.georchestra.org/gateway/internal/rolemap"
	"go.georchestra.org/gateway/internal/targetconf"
)

const defaultListenAddress = ":8080"

// FromPath loads a Config from a provided local file path, inserts any
// defaults, and verifies that the config is valid.
func FromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	if err := plog.ValidateAndSetLogLevelGlobally(plog.LogLevel(config.LogLevel)); err != nil {
		return nil, fmt.Errorf("validate logLevel: %w", err)
	}
	if err := plog.ValidateAndSetLogFormatGlobally(plog.LogFormat(config.LogFormat)); err != nil {
		return nil, fmt.Errorf("validate logFormat: %w", err)
	}

	if config.Server.Address == "" {
		config.Server.Address = defaultListenAddress
	}

	// support setting this to null or {} or empty in the YAML
	if config.Headers == nil {
		config.Headers = &headers.Mapping{}
	}

	if err := validateRules(config.AccessRules); err != nil {
		return nil, fmt.Errorf("validate accessRules: %w", err)
	}
	if err := validateServices(config.Services); err != nil {
		return nil, fmt.Errorf("validate services: %w", err)
	}
	if err := validateRoleMappings(config.RoleMappings); err != nil {
		return nil, fmt.Errorf("validate roleMappings: %w", err)
	}
	if err := validateDirectories(config.Directories); err != nil {
		return nil, fmt.Errorf("validate directories: %w", err)
	}
	if err := maybeValidateOIDC(config.OIDC); err != nil {
		return nil, fmt.Errorf("validate oidc: %w", err)
	}

	return &config, nil
}

func validateRules(rules []access.Rule) error {
	for i, rule := range rules {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

func validateServices(services map[string]targetconf.Service) error {
	for name, service := range services {
		if service.Target == "" {
			return fmt.Errorf("service %q: missing target", name)
		}
		target, err := url.Parse(service.Target)
		if err != nil {
			return fmt.Errorf("service %q: parse target: %w", name, err)
		}
		if target.Scheme != "http" && target.Scheme != "https" {
			return fmt.Errorf("service %q: target scheme must be http or https, got %q", name, target.Scheme)
		}
		if err := validateRules(service.Rules); err != nil {
			return fmt.Errorf("service %q: %w", name, err)
		}
	}
	return nil
}

// validateRoleMappings compiles the mappings once, discarding the result, so a
// bad pattern is rejected at startup with its own message rather than later
// while wiring the pipeline.
func validateRoleMappings(mappings map[string][]string) error {
	_, err := rolemap.New(mappings)
	return err
}

func validateDirectories(directories map[string]DirectorySpec) error {
	for tag, spec := range directories {
		missing := []string{}
		if spec.Host == "" {
			missing = append(missing, "host")
		}
		if spec.Users.Base == "" {
			missing = append(missing, "users.base")
		}
		if spec.Orgs.Base == "" {
			missing = append(missing, "orgs.base")
		}
		if spec.Roles.Base == "" {
			missing = append(missing, "roles.base")
		}
		if len(missing) > 0 {
			return constable.Error("directory " + tag + ": missing required fields: " + strings.Join(missing, ", "))
		}
	}
	return nil
}

func maybeValidateOIDC(spec *OIDCSpec) error {
	if spec == nil {
		return nil
	}
	if spec.ClientID == "" {
		return constable.Error("missing required clientID")
	}
	issuer, err := url.Parse(spec.Issuer)
	if err != nil {
		return fmt.Errorf("parse issuer: %w", err)
	}
	if issuer.Scheme != "https" && issuer.Scheme != "http" {
		return fmt.Errorf("issuer scheme must be http or https, got %q", issuer.Scheme)
	}
	if spec.Provider == "" {
		spec.Provider = issuer.Host
	}
	return nil
}
