package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ThinkArcHQ/profilebase/internal/config"
	"github.com/ThinkArcHQ/profilebase/internal/logging"
	"github.com/ThinkArcHQ/profilebase/internal/mcpserver"
	"github.com/ThinkArcHQ/profilebase/internal/profiles"
	"github.com/ThinkArcHQ/profilebase/internal/tools"
	"github.com/ThinkArcHQ/profilebase/internal/version"
)

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:     "profilebase-mcp",
		Short:   "ProfileBase MCP server over stdio",
		Version: version.Full(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			// stdout carries the protocol.
			logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format,
				logging.ToStderr(), logging.WithComponent("mcp"))
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort

			store, seeded, err := profiles.OpenStore(cmd.Context(), cfg.Profiles.SeedFile)
			if err != nil {
				return err
			}
			logger.Info("serving mcp", zap.String("name", cfg.MCP.Name), zap.Int("profiles", seeded))

			reg := tools.NewRegistry(store, tools.Options{
				AllowProfiles: true,
				MaxReadBytes:  cfg.Tools.MaxReadBytes,
			})
			return mcpserver.New(cfg.MCP.Name, reg, logger).ServeStdio()
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "Path to config file (default: configs/config.yaml)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
