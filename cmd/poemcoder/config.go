package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errConfigExists = errors.New("config file already exists (use --force to overwrite)")

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print or write the resolved configuration",
	}

	var force bool

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the resolved configuration to a YAML file",
		Long: `Init writes the configuration poemcoder would run with, after defaults,
--config, environment overrides and flags are applied. The default path is
configs/poemcoder.yaml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			path := defaultConfigPath
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%w: %s", errConfigExists, path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("failed to create config dir: %w", err)
			}

			if err := cfg.SaveConfig(path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)

			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		},
	}

	cmd.AddCommand(initCmd, showCmd)

	return cmd
}
