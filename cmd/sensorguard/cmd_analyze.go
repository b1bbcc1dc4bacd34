package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sensorguard/internal/chart"
	"sensorguard/internal/config"
	"sensorguard/internal/logging"
	"sensorguard/internal/pipeline"
	"sensorguard/internal/publish"
	"sensorguard/internal/report"
	"sensorguard/internal/storage"
)

var analyzeFlags struct {
	source    string
	input     string
	report    string
	graph     string
	threshold float64
	logLevel  string
	logFormat string
	noConsole bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Detect anomalous readings and write the report and graph",
	Long: `Read sensor readings, flag every value strictly above the threshold,
then write the text report and the PNG graph.

Usage:
  sensorguard analyze                              # sensor_data.txt, threshold 100
  sensorguard analyze --input readings.csv --threshold 75.5
  sensorguard analyze --config sensorguard.yaml --source kafka

A missing input file stops the run without writing any report.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.source, "source", config.SourceFile, "Input source: file or kafka")
	f.StringVarP(&analyzeFlags.input, "input", "i", "sensor_data.txt", "Input file with one reading per line")
	f.StringVarP(&analyzeFlags.report, "report", "o", "anomaly_report.txt", "Text report path")
	f.StringVar(&analyzeFlags.graph, "graph", "anomaly_graph.png", "PNG graph path (empty to skip)")
	f.Float64VarP(&analyzeFlags.threshold, "threshold", "t", 100.0, "Readings strictly above this value are anomalous")
	f.StringVar(&analyzeFlags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	f.StringVar(&analyzeFlags.logFormat, "log-format", "text", "Log format: text or json")
	f.BoolVar(&analyzeFlags.noConsole, "no-console", false, "Do not print the summary table and sparkline")
}

// applyAnalyzeFlags overrides config values with the flags the user set explicitly.
func applyAnalyzeFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("source") {
		cfg.Ingest.Source = analyzeFlags.source
	}
	if f.Changed("input") {
		cfg.Ingest.File.Path = analyzeFlags.input
	}
	if f.Changed("report") {
		cfg.Output.Report = analyzeFlags.report
	}
	if f.Changed("graph") {
		cfg.Output.Graph = analyzeFlags.graph
	}
	if f.Changed("threshold") {
		cfg.Detection.Threshold = analyzeFlags.threshold
	}
	if f.Changed("log-level") {
		cfg.LogLevel = analyzeFlags.logLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = analyzeFlags.logFormat
	}
	if f.Changed("no-console") {
		cfg.Output.Console.Enabled = !analyzeFlags.noConsole
	}
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyAnalyzeFlags(cmd, cfg)
	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cmd.SilenceUsage = true

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, cleanup := stageOptions(ctx, cfg, logger)
	defer cleanup()

	p, err := pipeline.New(cfg, logger, opts...)
	if err != nil {
		return err
	}
	res, runErr := p.Run(ctx)
	if res.Summary.ReportPath != "" && cfg.Output.Console.Enabled {
		printConsole(cmd.OutOrStdout(), cfg, res)
	}
	if runErr != nil && res.Summary.ReportPath != "" {
		// The report is on disk; optional stage failures were logged.
		logger.Warn("run finished with errors", "err", runErr)
		return nil
	}
	return runErr
}

// stageOptions opens the run-history store and the S3 publisher when enabled.
// A store or publisher that cannot be opened is logged and left out of the run.
func stageOptions(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]pipeline.Option, func()) {
	var opts []pipeline.Option
	cleanup := func() {}

	store, err := storage.NewStore(cfg.Storage)
	switch {
	case err != nil:
		logger.Error("run history disabled", "driver", cfg.Storage.Driver, "err", err)
	case store != nil:
		if err := store.Init(ctx); err != nil {
			logger.Error("run history disabled", "driver", cfg.Storage.Driver, "err", err)
			_ = store.Close()
		} else {
			opts = append(opts, pipeline.WithStore(store))
			cleanup = func() { _ = store.Close() }
		}
	}

	if cfg.Publish.S3.Enabled {
		pub, err := publish.NewS3Publisher(ctx, cfg.Publish.S3, logger)
		if err != nil {
			logger.Error("artifact publishing disabled", "bucket", cfg.Publish.S3.Bucket, "err", err)
		} else {
			opts = append(opts, pipeline.WithPublisher(pub))
		}
	}
	return opts, cleanup
}

func printConsole(w io.Writer, cfg *config.Config, res pipeline.Result) {
	mode := report.ParseMode(cfg.Output.Console.Format)
	fmt.Fprint(w, report.SummaryTable(res.Summary, res.Anomalies, mode))
	fmt.Fprintln(w)
	fmt.Fprintln(w, chart.RenderSparkline(res.Dataset, res.Anomalies, cfg.Output.Console.SparklineWidth))
	fmt.Fprintln(w, chart.RenderLegend(res.Dataset, res.Anomalies))
}
