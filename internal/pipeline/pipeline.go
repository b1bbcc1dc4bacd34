// Package pipeline runs one analysis: load the readings, detect anomalies,
// write the text report and chart, then record and publish the run.
//
// A missing input stops the run before any report is written. Failures in
// the optional stages after the text report (chart, history, publish) are
// logged and returned together once every stage has had its turn.
package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"sensorguard/internal/chart"
	"sensorguard/internal/config"
	"sensorguard/internal/engine"
	"sensorguard/internal/ingest"
	"sensorguard/internal/model"
	"sensorguard/internal/report"
	"sensorguard/internal/storage"
)

// Publisher uploads finished artifacts.
type Publisher interface {
	Publish(ctx context.Context, runAt time.Time, paths ...string) ([]string, error)
}

type Pipeline struct {
	cfg       *config.Config
	logger    *slog.Logger
	source    ingest.Source
	detector  *engine.Detector
	store     storage.Store
	publisher Publisher
	now       func() time.Time
}

type Option func(*Pipeline)

func WithSource(src ingest.Source) Option {
	return func(p *Pipeline) { p.source = src }
}

func WithStore(store storage.Store) Option {
	return func(p *Pipeline) { p.store = store }
}

func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Result carries everything a run produced.
type Result struct {
	Summary   model.RunSummary
	Dataset   model.Dataset
	Anomalies model.AnomalyResult
	Published []string
}

func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	p := &Pipeline{
		cfg:      cfg,
		logger:   logger,
		detector: engine.NewDetector(cfg, logger),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.source == nil {
		src, err := ingest.NewSource(cfg, logger)
		if err != nil {
			return nil, err
		}
		p.source = src
	}
	return p, nil
}

func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	var res Result
	started := p.now()
	p.info("starting analysis", "source", p.source.Name(), "threshold", p.detector.Threshold())

	ds, err := p.source.Load(ctx)
	if err != nil {
		if errors.Is(err, ingest.ErrMissingSource) {
			p.error("input not found, analysis stopped without a report", "source", p.source.Name(), "err", err)
		} else {
			p.error("loading input failed", "source", p.source.Name(), "err", err)
		}
		return res, err
	}
	res.Dataset = ds
	res.Anomalies = p.detector.Detect(ds)

	reportPath := p.cfg.Output.Report
	if err := report.WriteFile(reportPath, report.New(ds.Source, res.Anomalies, p.now())); err != nil {
		p.error("report write failed", "path", reportPath, "err", err)
		return res, err
	}
	p.info("text report written", "path", reportPath)

	var errs []error
	graphPath := p.writeGraph(ds, res.Anomalies, &errs)

	res.Summary = model.RunSummary{
		Source:     ds.Source,
		ReportPath: reportPath,
		GraphPath:  graphPath,
		Threshold:  res.Anomalies.Threshold,
		Total:      ds.Len(),
		Skipped:    ds.Skipped,
		Anomalies:  res.Anomalies.Count,
		StartedAt:  started,
		FinishedAt: p.now(),
	}

	if p.store != nil {
		if id, err := p.store.SaveRun(ctx, res.Summary, res.Anomalies); err != nil {
			p.error("saving run history failed", "err", err)
			errs = append(errs, err)
		} else {
			p.info("run recorded", "run_id", id)
		}
	}
	if p.publisher != nil {
		keys, err := p.publisher.Publish(ctx, started, reportPath, graphPath)
		res.Published = keys
		if err != nil {
			p.error("publishing artifacts failed", "err", err)
			errs = append(errs, err)
		}
	}

	p.info("analysis complete",
		"source", ds.Source,
		"readings", ds.Len(),
		"anomalies", res.Anomalies.Count,
		"duration", res.Summary.FinishedAt.Sub(started),
	)
	return res, errors.Join(errs...)
}

func (p *Pipeline) writeGraph(ds model.Dataset, result model.AnomalyResult, errs *[]error) string {
	path := p.cfg.Output.Graph
	if path == "" {
		return ""
	}
	err := chart.SaveGraph(path, ds, result)
	switch {
	case errors.Is(err, chart.ErrNoData):
		p.warn("graph skipped, no readings to plot", "path", path)
		// Drop the graph of an earlier run.
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			p.error("removing stale graph failed", "path", path, "err", rmErr)
			*errs = append(*errs, rmErr)
		}
		return ""
	case err != nil:
		p.error("graph rendering failed", "path", path, "err", err)
		*errs = append(*errs, err)
		return ""
	}
	p.info("graph saved", "path", path)
	return path
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) error(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
