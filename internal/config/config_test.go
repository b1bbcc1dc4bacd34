package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Detection.Threshold != 100.0 {
		t.Fatalf("threshold: got %v, want 100", cfg.Detection.Threshold)
	}
	if cfg.Ingest.File.Path != "sensor_data.txt" || cfg.Output.Report != "anomaly_report.txt" || cfg.Output.Graph != "anomaly_graph.png" {
		t.Fatalf("unexpected default paths: %+v %+v", cfg.Ingest.File, cfg.Output)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "sensorguard.yaml", `
log_level: debug
ingest:
  file:
    path: readings.csv
detection:
  threshold: 42.5
output:
  report: out.txt
  graph: ""
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Ingest.File.Path != "readings.csv" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Detection.Threshold != 42.5 {
		t.Fatalf("threshold: got %v", cfg.Detection.Threshold)
	}
	if cfg.Output.Graph != "" {
		t.Fatalf("graph should be disabled, got %q", cfg.Output.Graph)
	}
	if cfg.LogFormat != "text" {
		t.Fatalf("log format default lost: %q", cfg.LogFormat)
	}
}

func TestLoadJSONKeepsZeroThreshold(t *testing.T) {
	path := writeFile(t, "sensorguard.json", `{"detection": {"threshold": 0}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Detection.Threshold != 0 {
		t.Fatalf("threshold: got %v, want 0", cfg.Detection.Threshold)
	}
}

func TestLoadKafkaDuration(t *testing.T) {
	path := writeFile(t, "kafka.yaml", `
ingest:
  source: kafka
  kafka:
    brokers: ["localhost:9092"]
    topic: sensor-readings
    idle_timeout: 2s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Ingest.Kafka.IdleTimeout != 2*time.Second {
		t.Fatalf("idle timeout: got %v", cfg.Ingest.Kafka.IdleTimeout)
	}
	if cfg.Ingest.Kafka.MaxMessages != 10000 {
		t.Fatalf("max messages default: got %d", cfg.Ingest.Kafka.MaxMessages)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.yaml", "  \n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for empty config")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"nan threshold", func(c *Config) { c.Detection.Threshold = math.NaN() }},
		{"inf threshold", func(c *Config) { c.Detection.Threshold = math.Inf(1) }},
		{"no input path", func(c *Config) { c.Ingest.File.Path = " " }},
		{"no report path", func(c *Config) { c.Output.Report = "" }},
		{"unknown source", func(c *Config) { c.Ingest.Source = "mqtt" }},
		{"kafka without topic", func(c *Config) {
			c.Ingest.Source = SourceKafka
			c.Ingest.Kafka.Brokers = []string{"localhost:9092"}
		}},
		{"bad console format", func(c *Config) { c.Output.Console.Format = "html" }},
		{"bad storage driver", func(c *Config) {
			c.Storage.Enabled = true
			c.Storage.Driver = "mysql"
		}},
		{"s3 without bucket", func(c *Config) { c.Publish.S3.Enabled = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"cfg.yaml", "cfg.json"} {
		path := filepath.Join(dir, name)
		cfg := DefaultConfig()
		cfg.Detection.Threshold = 7.25
		if err := Save(path, cfg); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
		loaded, err := Load(path)
		if err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
		if loaded.Detection.Threshold != 7.25 {
			t.Fatalf("%s threshold: got %v", name, loaded.Detection.Threshold)
		}
	}
}

func TestJSONIdleTimeout(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{"duration string", `"2s"`, 2 * time.Second},
		{"nanoseconds", `1500000000`, 1500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "kafka.json", `{"ingest": {"source": "kafka", "kafka": {"brokers": ["localhost:9092"], "topic": "sensor-readings", "idle_timeout": `+tt.raw+`}}}`)
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if cfg.Ingest.Kafka.IdleTimeout != tt.want {
				t.Fatalf("idle timeout: got %v, want %v", cfg.Ingest.Kafka.IdleTimeout, tt.want)
			}
			if cfg.Ingest.Kafka.Topic != "sensor-readings" || len(cfg.Ingest.Kafka.Brokers) != 1 {
				t.Fatalf("other kafka fields lost: %+v", cfg.Ingest.Kafka)
			}
		})
	}

	bad := writeFile(t, "bad.json", `{"ingest": {"kafka": {"idle_timeout": "soon"}}}`)
	if _, err := Load(bad); err == nil {
		t.Fatalf("expected error for invalid idle_timeout")
	}
}

func TestSaveJSONWritesDurationString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := Save(path, DefaultConfig()); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"idle_timeout": "5s"`) {
		t.Fatalf("idle_timeout should be written as a duration string:\n%s", data)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Ingest.Kafka.IdleTimeout != 5*time.Second {
		t.Fatalf("idle timeout: got %v", cfg.Ingest.Kafka.IdleTimeout)
	}
}
