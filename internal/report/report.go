// Package report renders the anomaly report: the fixed-layout text file
// and the console summary tables.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"sensorguard/internal/model"
)

const timestampLayout = "2006-01-02 15:04:05"

// Report is the content of one generated report file.
type Report struct {
	GeneratedAt time.Time
	Source      string
	Threshold   float64
	Count       int
	Values      []float64
}

func New(source string, result model.AnomalyResult, generatedAt time.Time) Report {
	return Report{
		GeneratedAt: generatedAt,
		Source:      source,
		Threshold:   result.Threshold,
		Count:       result.Count,
		Values:      result.Values(),
	}
}

// Render writes the report layout to w.
func Render(w io.Writer, r Report) error {
	var b strings.Builder
	b.WriteString("# Anomaly Detection Report\n\n")
	fmt.Fprintf(&b, "- Analysis Timestamp: %s\n", r.GeneratedAt.Format(timestampLayout))
	fmt.Fprintf(&b, "- Data Source: %s\n", r.Source)
	fmt.Fprintf(&b, "- Anomaly Threshold: %s\n\n", FormatValue(r.Threshold))
	b.WriteString("-------\n")
	fmt.Fprintf(&b, "Total Anomalies Detected: %d\n\n", r.Count)
	if len(r.Values) > 0 {
		b.WriteString("Detected Anomalous Values:\n")
		for _, v := range r.Values {
			fmt.Fprintf(&b, "- %s\n", FormatValue(v))
		}
	} else {
		b.WriteString("No anomalous values were detected.\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFile renders r and replaces any existing file at path.
func WriteFile(path string, r Report) error {
	var buf bytes.Buffer
	if err := Render(&buf, r); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// FormatValue prints the shortest exact form of v and always keeps a
// decimal part, so 150 prints as "150.0".
func FormatValue(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if _, exp, ok := strings.Cut(s, "e"); ok {
		n, err := strconv.Atoi(exp)
		if err != nil || n < -4 || n >= 16 {
			return s
		}
		s = strconv.FormatFloat(v, 'f', -1, 64)
	}
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
