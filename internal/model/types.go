package model

import "time"

// Reading is one sensor value and its zero-based position in the source.
type Reading struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

type Dataset struct {
	Source   string    `json:"source"`
	Readings []Reading `json:"readings"`
	Skipped  int       `json:"skipped"`
}

func (d Dataset) Len() int {
	return len(d.Readings)
}

func (d Dataset) Values() []float64 {
	out := make([]float64, 0, len(d.Readings))
	for _, r := range d.Readings {
		out = append(out, r.Value)
	}
	return out
}

// AnomalyResult holds the readings above Threshold in input order.
// Count always equals len(Anomalies).
type AnomalyResult struct {
	Threshold float64   `json:"threshold"`
	Count     int       `json:"count"`
	Anomalies []Reading `json:"anomalies"`
}

func (r AnomalyResult) Values() []float64 {
	out := make([]float64, 0, len(r.Anomalies))
	for _, a := range r.Anomalies {
		out = append(out, a.Value)
	}
	return out
}

// IsAnomalous reports whether the reading at index was flagged.
func (r AnomalyResult) IsAnomalous(index int) bool {
	for _, a := range r.Anomalies {
		if a.Index == index {
			return true
		}
		if a.Index > index {
			return false
		}
	}
	return false
}

type RunSummary struct {
	Source     string    `json:"source"`
	ReportPath string    `json:"report_path"`
	GraphPath  string    `json:"graph_path,omitempty"`
	Threshold  float64   `json:"threshold"`
	Total      int       `json:"total"`
	Skipped    int       `json:"skipped"`
	Anomalies  int       `json:"anomalies"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
