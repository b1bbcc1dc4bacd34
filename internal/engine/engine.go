package engine

import (
	"log/slog"

	"sensorguard/internal/config"
	"sensorguard/internal/model"
)

// Detector flags readings strictly above a fixed threshold.
type Detector struct {
	threshold float64
	logger    *slog.Logger
}

func NewDetector(cfg *config.Config, logger *slog.Logger) *Detector {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Detector{threshold: cfg.Detection.Threshold, logger: logger}
}

func (d *Detector) Threshold() float64 {
	return d.threshold
}

func (d *Detector) Detect(ds model.Dataset) model.AnomalyResult {
	result := Detect(ds, d.threshold)
	if d.logger != nil {
		for _, a := range result.Anomalies {
			d.logger.Debug("anomaly detected", "source", ds.Source, "index", a.Index, "value", a.Value, "threshold", d.threshold)
		}
		d.logger.Info("detection complete",
			"source", ds.Source,
			"readings", ds.Len(),
			"anomalies", result.Count,
			"threshold", d.threshold,
		)
	}
	return result
}

// Detect scans ds once. A reading equal to the threshold is not anomalous.
func Detect(ds model.Dataset, threshold float64) model.AnomalyResult {
	anomalies := make([]model.Reading, 0)
	for _, r := range ds.Readings {
		if r.Value > threshold {
			anomalies = append(anomalies, r)
		}
	}
	return model.AnomalyResult{
		Threshold: threshold,
		Count:     len(anomalies),
		Anomalies: anomalies,
	}
}
