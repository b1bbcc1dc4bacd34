package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"sensorguard/internal/model"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// ReadingColor returns the colour for a value relative to the threshold.
func ReadingColor(v, threshold float64) lipgloss.Color {
	switch {
	case v > threshold:
		return lipgloss.Color("196") // red
	case threshold > 0 && v >= threshold*0.85:
		return lipgloss.Color("220") // yellow
	default:
		return lipgloss.Color("78") // soft green
	}
}

type bucket struct {
	value     float64
	anomalous bool
}

// RenderSparkline renders the whole dataset in at most width cells.
// Longer datasets are bucketed by maximum so anomalies stay visible.
func RenderSparkline(ds model.Dataset, result model.AnomalyResult, width int) string {
	if width <= 0 {
		return ""
	}
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	if ds.Len() == 0 {
		return dim.Render(strings.Repeat("╌", width))
	}

	buckets := bucketize(ds, result, width)
	lo, hi := valueRange(ds)
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	var sb strings.Builder
	for _, b := range buckets {
		norm := (b.value - lo) / span
		norm = math.Max(0, math.Min(1, norm))
		idx := int(norm * 7)
		if idx > 7 {
			idx = 7
		}
		style := lipgloss.NewStyle().Foreground(ReadingColor(b.value, result.Threshold))
		if b.anomalous {
			style = style.Foreground(lipgloss.Color("196")).Bold(true)
		}
		sb.WriteString(style.Render(string(sparkBlocks[idx])))
	}
	return sb.String()
}

// RenderLegend describes the sparkline scale.
func RenderLegend(ds model.Dataset, result model.AnomalyResult) string {
	if ds.Len() == 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Render("no readings")
	}
	lo, hi := valueRange(ds)
	label := fmt.Sprintf("min %.2f  max %.2f  threshold %.2f  anomalies %d/%d", lo, hi, result.Threshold, result.Count, ds.Len())
	return lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Render(label)
}

func bucketize(ds model.Dataset, result model.AnomalyResult, width int) []bucket {
	n := ds.Len()
	if n <= width {
		out := make([]bucket, n)
		for i, r := range ds.Readings {
			out[i] = bucket{value: r.Value, anomalous: result.IsAnomalous(r.Index)}
		}
		return out
	}
	flagged := make(map[int]struct{}, len(result.Anomalies))
	for _, a := range result.Anomalies {
		flagged[a.Index] = struct{}{}
	}
	out := make([]bucket, width)
	for i := range out {
		start := i * n / width
		end := (i + 1) * n / width
		b := bucket{value: -math.MaxFloat64}
		for _, r := range ds.Readings[start:end] {
			if r.Value > b.value {
				b.value = r.Value
			}
			if _, ok := flagged[r.Index]; ok {
				b.anomalous = true
			}
		}
		out[i] = b
	}
	return out
}

func valueRange(ds model.Dataset) (float64, float64) {
	lo := math.MaxFloat64
	hi := -math.MaxFloat64
	for _, r := range ds.Readings {
		if r.Value < lo {
			lo = r.Value
		}
		if r.Value > hi {
			hi = r.Value
		}
	}
	return lo, hi
}
