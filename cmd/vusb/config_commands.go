package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jadnhm/volvo-usb-verifier/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}

			expanded, err := config.ExpandPath(target)
			if err != nil {
				return err
			}

			if _, err := os.Stat(expanded); err == nil && !overwrite {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", expanded)
			}

			if err := config.CreateSample(expanded); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sample configuration written to %s\n", expanded)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetPath, "path", "", "Where to write the sample configuration")
	cmd.Flags().BoolVar(&overwrite, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:         "validate",
		Short:       "Check a configuration file for problems",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolved, exists, err := config.Load(strings.TrimSpace(configPath))
			if err != nil {
				return err
			}
			if !exists {
				fmt.Fprintf(cmd.OutOrStdout(), "No config file at %s; built-in defaults are valid.\n", resolved)
				return nil
			}

			set := cfg.RuleSet()
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration %s is valid.\n", resolved)
			fmt.Fprintf(cmd.OutOrStdout(), "State directory: %s\n", cfg.Paths.StateDir)
			fmt.Fprintf(cmd.OutOrStdout(), "Effective limits: %d files, %d chars per path, bitrate %d-%d kbps\n",
				set.MaxTotalFiles, set.MaxPathLength, set.MinBitrateKbps, set.MaxBitrateKbps)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "path", "", "Configuration file to validate")
	return cmd
}
