package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"LexAI/internal/config"
)

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write the configuration file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.printf(cmd, "# %s\n", c.cfgFile)
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(c.app.Config)
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Long:  `Write the effective configuration, including --base-url and environment overrides, to the config file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(c.cfgFile); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", c.cfgFile)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to check config file: %w", err)
			}
			if err := config.Save(c.app.Config, c.cfgFile); err != nil {
				return err
			}
			c.printf(cmd, "Yapılandırma yazıldı: %s\n", c.cfgFile)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	cmd.AddCommand(show, initCmd)
	return cmd
}
