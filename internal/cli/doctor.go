package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ThinkArcHQ/profilebase/internal/llm/configbuilder"
)

// NewDoctorCmd returns a health-check command validating config and environment.
func NewDoctorCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and model routing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			registry, err := configbuilder.BuildRegistryFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("build registry: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config OK. Providers: %d, models: %d\n", len(cfg.Providers), len(cfg.Models))
			for _, m := range registry.Models() {
				marker := ""
				if m.Name == registry.DefaultModel() {
					marker = " (default)"
				}
				fmt.Fprintf(out, "  %s -> %s/%s%s\n", m.Name, m.Provider, m.Model, marker)
			}
			fmt.Fprintf(out, "Transport: %s, auth required: %v, metrics: %v\n", cfg.Server.Transport, cfg.Auth.Required, cfg.Server.MetricsEnabled)
			if cfg.Profiles.SeedFile != "" {
				fmt.Fprintf(out, "Profile seed: %s\n", cfg.Profiles.SeedFile)
			}
			return nil
		},
	}
}
