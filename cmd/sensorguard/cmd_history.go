package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sensorguard/internal/config"
	"sensorguard/internal/report"
	"sensorguard/internal/storage"
)

var historyFlags struct {
	limit    int
	markdown bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent analysis runs from the run-history store",
	Long: `List the most recent runs recorded by "sensorguard analyze" when storage
is enabled. The store is read with the driver and DSN from --config.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.IntVarP(&historyFlags.limit, "limit", "n", 20, "Maximum number of runs to list")
	f.BoolVar(&historyFlags.markdown, "markdown", false, "Render the table as Markdown")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	config.ApplyDefaults(cfg)
	cfg.Storage.Enabled = true
	cmd.SilenceUsage = true

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	if store == nil {
		return errors.New("run history is not configured")
	}
	defer store.Close()
	if err := store.Init(cmd.Context()); err != nil {
		return fmt.Errorf("open run history: %w", err)
	}

	runs, err := store.ListRuns(cmd.Context(), historyFlags.limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	mode := report.ASCII
	if historyFlags.markdown {
		mode = report.Markdown
	}
	fmt.Fprint(out, report.HistoryTable(runs, mode))
	return nil
}
