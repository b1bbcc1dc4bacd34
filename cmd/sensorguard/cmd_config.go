package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sensorguard/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sensorguard configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write a config file with the default settings",
	Long: `Write the default configuration to path. A .json extension produces JSON,
anything else YAML.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Save(args[0], config.DefaultConfig()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
