package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sensorguard/internal/logging"
	"sensorguard/internal/model"
	"sensorguard/internal/normalize"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sensor_data.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestLoadFileOrdered(t *testing.T) {
	path := writeInput(t, "10\n150\n30\n200\n")
	ds, err := LoadFile(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []model.Reading{{Index: 0, Value: 10}, {Index: 1, Value: 150}, {Index: 2, Value: 30}, {Index: 3, Value: 200}}
	if diff := cmp.Diff(want, ds.Readings); diff != "" {
		t.Fatalf("readings mismatch (-want +got):\n%s", diff)
	}
	if ds.Source != path {
		t.Fatalf("source: %q", ds.Source)
	}
}

func TestLoadFileSkipsUnparsableLine(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger("info", "text", &buf)
	path := writeInput(t, "10\nabc\n150\n\n200\n")

	ds, err := LoadFile(path, logger)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]float64{10, 150, 200}, ds.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if ds.Skipped != 1 {
		t.Fatalf("skipped: got %d, want 1", ds.Skipped)
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "skipping unparsable line") || !strings.Contains(out, "line=2") {
		t.Fatalf("expected warning for line 2, got: %s", out)
	}
}

func TestLoadFileSingleColumnCSV(t *testing.T) {
	path := writeInput(t, "10.5,a\n99.9,b\n101,c\n")
	ds, err := LoadFile(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]float64{10.5, 99.9, 101}, ds.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileEmpty(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger("info", "text", &buf)
	path := writeInput(t, "")

	ds, err := LoadFile(path, logger)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Len() != 0 {
		t.Fatalf("expected empty dataset, got %d readings", ds.Len())
	}
	if !strings.Contains(buf.String(), "source is empty") {
		t.Fatalf("expected empty source warning, got: %s", buf.String())
	}
}

func TestLoadFileNoNumericLines(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger("info", "text", &buf)
	path := writeInput(t, "abc\nxyz\n")

	ds, err := LoadFile(path, logger)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Len() != 0 || ds.Skipped != 2 {
		t.Fatalf("got %d readings, %d skipped", ds.Len(), ds.Skipped)
	}
	if !strings.Contains(buf.String(), "source has no numeric readings") {
		t.Fatalf("expected no numeric readings warning, got: %s", buf.String())
	}
}

func TestLoadFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.txt")
	_, err := LoadFile(path, nil)
	if !errors.Is(err, ErrMissingSource) {
		t.Fatalf("expected ErrMissingSource, got %v", err)
	}
}

func TestFileSource(t *testing.T) {
	path := writeInput(t, "1\n2\n")
	src := NewFileSource(path, nil)
	if src.Name() != path {
		t.Fatalf("name: %q", src.Name())
	}
	ds, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("len: %d", ds.Len())
	}
}

func TestLineErrorUnwrap(t *testing.T) {
	err := &LineError{Source: "s", Line: 4, Raw: "abc", Err: normalize.ErrNotNumeric}
	if !errors.Is(err, normalize.ErrNotNumeric) {
		t.Fatalf("LineError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "s:4") {
		t.Fatalf("error text: %s", err.Error())
	}
}

func TestReadDatasetSkipsOverlongLine(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger("info", "text", &buf)
	input := "150\n" + strings.Repeat("x", 2*maxLineBytes) + "\n200\n"

	ds, err := ReadDataset("in.txt", strings.NewReader(input), logger)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []model.Reading{{Index: 0, Value: 150}, {Index: 1, Value: 200}}
	if diff := cmp.Diff(want, ds.Readings); diff != "" {
		t.Fatalf("readings mismatch (-want +got):\n%s", diff)
	}
	if ds.Skipped != 1 {
		t.Fatalf("skipped: got %d, want 1", ds.Skipped)
	}
	out := buf.String()
	if !strings.Contains(out, "line=2") || !strings.Contains(out, ErrLineTooLong.Error()) {
		t.Fatalf("expected too-long warning for line 2, got: %s", out)
	}
	if len(out) > 4096 {
		t.Fatalf("warning should not carry the whole line, got %d bytes", len(out))
	}
}

func TestReadLine(t *testing.T) {
	br := bufio.NewReaderSize(strings.NewReader("1\r\n"+strings.Repeat("9", 300)+"\n\nlast"), 16)
	tests := []struct {
		line    string
		tooLong bool
		err     error
	}{
		{"1", false, nil},
		{strings.Repeat("9", rawPreviewBytes), true, nil},
		{"", false, nil},
		{"last", false, io.EOF},
	}
	for i, tt := range tests {
		line, tooLong, err := readLine(br, 100)
		if line != tt.line || tooLong != tt.tooLong || !errors.Is(err, tt.err) {
			t.Fatalf("line %d: got (%q, %v, %v), want (%q, %v, %v)", i, line, tooLong, err, tt.line, tt.tooLong, tt.err)
		}
	}
}
