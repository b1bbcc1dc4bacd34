package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sensorguard/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sensorguard",
	Short: "Threshold anomaly detection for sensor readings",
	Long:  "sensorguard reads numeric sensor readings, flags every value above a fixed\nthreshold, and writes a text report and a PNG chart of the run.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (YAML or JSON)")
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.Version = version
}

// loadConfig returns the file config when --config is set and the defaults otherwise.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(configPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
