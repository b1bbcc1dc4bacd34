// Package chart draws the readings: a PNG line chart with anomalies
// highlighted, and a colour-coded terminal sparkline.
package chart

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"sensorguard/internal/model"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("dataset has no readings")

var (
	lineColor    = color.RGBA{R: 100, G: 149, B: 237, A: 255} // cornflowerblue
	anomalyColor = color.RGBA{R: 255, A: 255}
)

const (
	graphWidth  = 15 * vg.Inch
	graphHeight = 7 * vg.Inch
)

// Build assembles the plot without writing it.
func Build(ds model.Dataset, result model.AnomalyResult) (*plot.Plot, error) {
	if ds.Len() == 0 {
		return nil, ErrNoData
	}
	p := plot.New()
	p.Title.Text = "Sensor Data Analysis Results"
	p.X.Label.Text = "Data Point Index"
	p.Y.Label.Text = "Sensor Value"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(readingXYs(ds.Readings))
	if err != nil {
		return nil, fmt.Errorf("line: %w", err)
	}
	line.Color = lineColor
	line.Width = vg.Points(2)
	p.Add(line)
	p.Legend.Add("Sensor Value", line)

	if len(result.Anomalies) > 0 {
		scatter, err := plotter.NewScatter(readingXYs(result.Anomalies))
		if err != nil {
			return nil, fmt.Errorf("scatter: %w", err)
		}
		scatter.GlyphStyle.Color = anomalyColor
		scatter.GlyphStyle.Radius = vg.Points(4)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
		p.Legend.Add("Anomaly Detected", scatter)
	}
	p.Legend.Top = true
	return p, nil
}

// SaveGraph renders the chart to path; the image format follows the
// file extension (png, jpg, svg, pdf).
func SaveGraph(path string, ds model.Dataset, result model.AnomalyResult) error {
	p, err := Build(ds, result)
	if err != nil {
		return err
	}
	if err := p.Save(graphWidth, graphHeight, path); err != nil {
		return fmt.Errorf("save graph %s: %w", path, err)
	}
	return nil
}

// readingXYs places each reading at its original index.
func readingXYs(readings []model.Reading) plotter.XYs {
	pts := make(plotter.XYs, len(readings))
	for i, r := range readings {
		pts[i].X = float64(r.Index)
		pts[i].Y = r.Value
	}
	return pts
}
