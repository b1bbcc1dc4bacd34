package chart

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"sensorguard/internal/engine"
	"sensorguard/internal/model"
)

func datasetOf(values ...float64) model.Dataset {
	ds := model.Dataset{Source: "test"}
	for i, v := range values {
		ds.Readings = append(ds.Readings, model.Reading{Index: i, Value: v})
	}
	return ds
}

func TestSaveGraphPNG(t *testing.T) {
	ds := datasetOf(10, 150, 30, 200)
	result := engine.Detect(ds, 100)
	path := filepath.Join(t.TempDir(), "anomaly_graph.png")

	if err := SaveGraph(path, ds, result); err != nil {
		t.Fatalf("save graph: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read graph: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatalf("graph is not a PNG")
	}
}

func TestBuildPlacesAnomaliesAtOriginalIndex(t *testing.T) {
	ds := datasetOf(1, 2, 300, 4, 500)
	result := engine.Detect(ds, 100)
	xys := readingXYs(result.Anomalies)
	if len(xys) != 2 || xys[0].X != 2 || xys[0].Y != 300 || xys[1].X != 4 || xys[1].Y != 500 {
		t.Fatalf("unexpected anomaly points: %+v", xys)
	}
	if _, err := Build(ds, result); err != nil {
		t.Fatalf("build: %v", err)
	}
}

func TestBuildNoAnomalies(t *testing.T) {
	ds := datasetOf(1, 2, 3)
	if _, err := Build(ds, engine.Detect(ds, 100)); err != nil {
		t.Fatalf("build: %v", err)
	}
}

func TestBuildEmptyDataset(t *testing.T) {
	_, err := Build(model.Dataset{}, model.AnomalyResult{Threshold: 100})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func countBlocks(s string) int {
	n := 0
	for _, r := range s {
		for _, b := range sparkBlocks {
			if r == b {
				n++
			}
		}
	}
	return n
}

func TestSparkline(t *testing.T) {
	ds := datasetOf(10, 150, 30, 200)
	result := engine.Detect(ds, 100)
	out := RenderSparkline(ds, result, 20)
	if got := countBlocks(out); got != 4 {
		t.Fatalf("expected 4 blocks, got %d: %s", got, out)
	}
	if !strings.ContainsRune(out, '█') || !strings.ContainsRune(out, '▁') {
		t.Fatalf("expected full range of blocks: %s", out)
	}
	t.Logf("Sparkline: %s", out)
}

func TestSparklineBucketsLongDataset(t *testing.T) {
	values := make([]float64, 1000)
	for i := range values {
		values[i] = float64(i % 50)
	}
	values[777] = 999
	ds := datasetOf(values...)
	result := engine.Detect(ds, 100)

	buckets := bucketize(ds, result, 40)
	if len(buckets) != 40 {
		t.Fatalf("expected 40 buckets, got %d", len(buckets))
	}
	var flagged int
	for _, b := range buckets {
		if b.anomalous {
			flagged++
			if b.value != 999 {
				t.Fatalf("anomalous bucket lost its peak: %v", b.value)
			}
		}
	}
	if flagged != 1 {
		t.Fatalf("expected 1 anomalous bucket, got %d", flagged)
	}
	if got := countBlocks(RenderSparkline(ds, result, 40)); got != 40 {
		t.Fatalf("expected 40 blocks, got %d", got)
	}
}

func TestSparklineEmpty(t *testing.T) {
	out := RenderSparkline(model.Dataset{}, model.AnomalyResult{}, 10)
	if utf8.RuneCountInString(out) < 10 || !strings.Contains(out, "╌") {
		t.Fatalf("expected placeholder line, got %q", out)
	}
	if RenderSparkline(datasetOf(1), model.AnomalyResult{}, 0) != "" {
		t.Fatalf("zero width should render nothing")
	}
}

func TestReadingColor(t *testing.T) {
	if ReadingColor(101, 100) != "196" {
		t.Errorf("above threshold should be red")
	}
	if ReadingColor(100, 100) != "220" {
		t.Errorf("at threshold should be yellow")
	}
	if ReadingColor(10, 100) != "78" {
		t.Errorf("well below threshold should be green")
	}
}

func TestRenderLegend(t *testing.T) {
	ds := datasetOf(10, 150, 30, 200)
	out := RenderLegend(ds, engine.Detect(ds, 100))
	if !strings.Contains(out, "anomalies 2/4") {
		t.Fatalf("legend: %s", out)
	}
}
