// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package server wires the identity pipeline in control-flow order: audit id, token
// extraction, target config resolution, identity resolution with provisioning, the access
// decision, header propagation, and finally the proxied forward to the backend.
package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"go.georchestra.org/gateway/internal/accounts"
	"go.georchestra.org/gateway/internal/config"
	"go.georchestra.org/gateway/internal/directory"
	"go.georchestra.org/gateway/internal/headers"
	"go.georchestra.org/gateway/internal/oidcclaims"
	"go.georchestra.org/gateway/internal/plog"
	"go.georchestra.org/gateway/internal/preauth"
	"go.georchestra.org/gateway/internal/resolvers"
	"go.georchestra.org/gateway/internal/rolemap"
	"go.georchestra.org/gateway/internal/targetconf"
)

// Server is the assembled gateway.
type Server struct {
	address string

	preauth  *preauth.Extractor
	verifier TokenVerifier

	demux    *directory.Demux
	chain    *resolvers.Chain
	roles    *rolemap.Engine
	accounts *accounts.Service

	targets *targetconf.Resolver
	headers *headers.Pipeline

	proxies map[string]http.Handler
}

// New assembles a Server from an already-validated Config.  The context is only used
// for OIDC issuer discovery during startup.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	demux, err := buildDemux(cfg.Directories)
	if err != nil {
		return nil, err
	}

	roleEngine, err := rolemap.New(cfg.RoleMappings)
	if err != nil {
		return nil, fmt.Errorf("compile role mappings: %w", err)
	}

	var verifier TokenVerifier
	var claims *oidcclaims.Config
	if cfg.OIDC != nil {
		claims = cfg.OIDC.Claims
		verifier, err = NewOIDCVerifier(ctx, cfg.OIDC)
		if err != nil {
			return nil, fmt.Errorf("set up OIDC verifier: %w", err)
		}
	}

	chain := resolvers.NewChain(
		[]resolvers.Resolver{
			&resolvers.DirectoryResolver{Demux: demux, Order: 10},
			&resolvers.OAuth2Resolver{Order: 20},
			&resolvers.OIDCResolver{Claims: claims, Order: 30},
			&resolvers.PreauthResolver{Order: 40},
		},
		[]resolvers.Customizer{
			&resolvers.DefaultRoleCustomizer{Order: 10},
			&resolvers.RoleAugmentationCustomizer{Engine: roleEngine, Order: 20},
			&resolvers.DuplicateEmailCustomizer{Demux: demux, Order: 30},
		})

	server := &Server{
		address:  cfg.Server.Address,
		preauth:  &preauth.Extractor{Enabled: cfg.Preauth.Enabled},
		verifier: verifier,
		demux:    demux,
		chain:    chain,
		roles:    roleEngine,
		targets:  targetconf.NewResolver(cfg.Headers, cfg.AccessRules, cfg.Services),
		headers:  headers.DefaultPipeline(),
		proxies:  map[string]http.Handler{},
	}

	if tags := demux.Tags(); len(tags) > 0 {
		// Accounts are provisioned into the first directory by tag order; deployments
		// with several directories pin it by naming the tag accordingly.
		client, err := demux.For(tags[0])
		if err != nil {
			return nil, err
		}
		server.accounts = accounts.NewService(client, cfg.DefaultOrganization, nil)
	}

	for name, service := range cfg.Services {
		target, err := url.Parse(service.Target)
		if err != nil {
			return nil, fmt.Errorf("parse target of service %q: %w", name, err)
		}
		server.proxies[name] = httputil.NewSingleHostReverseProxy(target)
	}

	return server, nil
}

func buildDemux(specs map[string]config.DirectorySpec) (*directory.Demux, error) {
	clients := make(map[string]directory.Client, len(specs))
	for tag, spec := range specs {
		var caBundle []byte
		if spec.CABundlePath != "" {
			var err error
			caBundle, err = os.ReadFile(spec.CABundlePath)
			if err != nil {
				return nil, fmt.Errorf("read CA bundle of directory %q: %w", tag, err)
			}
		}
		clients[tag] = &directory.LDAP{
			Tag:          tag,
			Host:         spec.Host,
			CABundle:     caBundle,
			BindUsername: spec.BindUsername,
			BindPassword: spec.BindPassword,
			Users: directory.UserSearch{
				Base:                spec.Users.Base,
				PasswordWarningDays: spec.Users.PasswordWarningDays,
			},
			Orgs:  directory.GroupSearch{Base: spec.Orgs.Base},
			Roles: directory.GroupSearch{Base: spec.Roles.Base},
		}
	}
	return directory.NewDemux(clients), nil
}

// Run serves the pipeline until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		plog.Info("gateway listening", "address", s.address)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
