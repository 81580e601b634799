package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"o2rconv/internal/config"
	"o2rconv/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that Torch and the working directories are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := strings.TrimSpace(configDir)
			if dir != "" {
				if dir, err = config.ExpandPath(dir); err != nil {
					return fmt.Errorf("resolve config directory: %w", err)
				}
			}

			results := preflight.RunAll(cmd.Context(), cfg, dir)
			out := cmd.OutOrStdout()
			for _, line := range preflightLines(results, shouldColorize(out)) {
				fmt.Fprintln(out, line)
			}
			for _, r := range results {
				if !r.Passed {
					return errors.New("one or more checks failed")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configDir, "config-dir", "d", "", "Port directory to check for config.yml and assets/")
	return cmd
}
