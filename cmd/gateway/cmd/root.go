// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go.georchestra.org/gateway/internal/config"
	"go.georchestra.org/gateway/internal/plog"
	"go.georchestra.org/gateway/internal/server"
)

//nolint:gochecknoglobals
var (
	configPath string

	rootCmd = &cobra.Command{
		Use:          "gateway",
		Short:        "gateway",
		Long:         "gateway is the geOrchestra security gateway: it authenticates callers, resolves their identity, decides access, and forwards sec-* headers to the backing services.",
		SilenceUsage: true, // do not print usage message when commands fail
		RunE:         run,
	}
)

//nolint:gochecknoinits
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "gateway.yaml", "path to the configuration file")
}

// Execute runs the root command.  This is called by main.main().
func Execute() error {
	defer plog.Flush()
	return rootCmd.Execute()
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromPath(configPath)
	if err != nil {
		plog.Error("could not load config", err, "path", configPath)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway, err := server.New(ctx, cfg)
	if err != nil {
		plog.Error("could not assemble the gateway", err)
		return err
	}
	return gateway.Run(ctx)
}
