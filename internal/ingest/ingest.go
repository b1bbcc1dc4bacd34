package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sensorguard/internal/config"
	"sensorguard/internal/model"
	"sensorguard/internal/normalize"
)

// ErrMissingSource means the input does not exist. The run stops without
// writing a report.
var ErrMissingSource = errors.New("input source does not exist")

// Source produces the ordered dataset for one run.
type Source interface {
	Name() string
	Load(ctx context.Context) (model.Dataset, error)
}

func NewSource(cfg *config.Config, logger *slog.Logger) (Source, error) {
	switch cfg.Ingest.Source {
	case config.SourceFile, "":
		return NewFileSource(cfg.Ingest.File.Path, logger), nil
	case config.SourceKafka:
		return NewKafkaSource(cfg.Ingest.Kafka, logger), nil
	default:
		return nil, fmt.Errorf("unsupported ingest source %q", cfg.Ingest.Source)
	}
}

// LineError describes an input line that could not be turned into a reading.
type LineError struct {
	Source string
	Line   int
	Raw    string
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %q: %v", e.Source, e.Line, e.Raw, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// collector accumulates readings in arrival order and logs skipped lines.
type collector struct {
	parser  *Parser
	logger  *slog.Logger
	dataset model.Dataset
	lines   int
}

func newCollector(source string, logger *slog.Logger) *collector {
	return &collector{
		parser:  NewParser(),
		logger:  logger,
		dataset: model.Dataset{Source: source},
	}
}

func (c *collector) add(line string) {
	c.lines++
	fields, err := c.parser.ParseLine(line)
	if err == nil && fields == nil {
		return
	}
	var value float64
	if err == nil {
		value, err = normalize.Normalize(*fields)
	}
	if err != nil {
		c.reject(line, err)
		return
	}
	c.dataset.Readings = append(c.dataset.Readings, model.Reading{
		Index: len(c.dataset.Readings),
		Value: value,
	})
}

// skip counts a line that was rejected before parsing.
func (c *collector) skip(raw string, err error) {
	c.lines++
	c.reject(raw, err)
}

// rawPreviewBytes caps how much of a rejected line is logged.
const rawPreviewBytes = 64

func (c *collector) reject(raw string, err error) {
	c.dataset.Skipped++
	if len(raw) > rawPreviewBytes {
		raw = raw[:rawPreviewBytes] + "..."
	}
	lineErr := &LineError{Source: c.dataset.Source, Line: c.lines, Raw: raw, Err: err}
	if c.logger != nil {
		c.logger.Warn("skipping unparsable line",
			"source", lineErr.Source,
			"line", lineErr.Line,
			"raw", lineErr.Raw,
			"err", lineErr.Err,
		)
	}
}

func (c *collector) finish() model.Dataset {
	if c.logger != nil {
		switch {
		case c.dataset.Len() == 0 && c.dataset.Skipped == 0:
			c.logger.Warn("source is empty", "source", c.dataset.Source)
		case c.dataset.Len() == 0:
			c.logger.Warn("source has no numeric readings", "source", c.dataset.Source, "skipped", c.dataset.Skipped)
		default:
			c.logger.Info("readings loaded", "source", c.dataset.Source, "count", c.dataset.Len(), "skipped", c.dataset.Skipped)
		}
	}
	return c.dataset
}
