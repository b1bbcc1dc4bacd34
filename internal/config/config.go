package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	SourceFile  = "file"
	SourceKafka = "kafka"
)

type Config struct {
	LogLevel  string          `json:"log_level" yaml:"log_level"`
	LogFormat string          `json:"log_format" yaml:"log_format"`
	Ingest    IngestConfig    `json:"ingest" yaml:"ingest"`
	Detection DetectionConfig `json:"detection" yaml:"detection"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Publish   PublishConfig   `json:"publish" yaml:"publish"`
}

type IngestConfig struct {
	Source string      `json:"source" yaml:"source"`
	File   FileConfig  `json:"file" yaml:"file"`
	Kafka  KafkaConfig `json:"kafka" yaml:"kafka"`
}

type FileConfig struct {
	Path string `json:"path" yaml:"path"`
}

type KafkaConfig struct {
	Brokers     []string      `json:"brokers" yaml:"brokers"`
	Topic       string        `json:"topic" yaml:"topic"`
	Partition   int           `json:"partition" yaml:"partition"`
	MaxMessages int           `json:"max_messages" yaml:"max_messages"`
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
}

// MarshalJSON writes IdleTimeout as a duration string ("5s") like the YAML form.
func (k KafkaConfig) MarshalJSON() ([]byte, error) {
	type plain KafkaConfig
	return json.Marshal(struct {
		plain
		IdleTimeout string `json:"idle_timeout"`
	}{plain: plain(k), IdleTimeout: k.IdleTimeout.String()})
}

// UnmarshalJSON accepts IdleTimeout as a duration string or as integer nanoseconds.
func (k *KafkaConfig) UnmarshalJSON(data []byte) error {
	type plain KafkaConfig
	aux := struct {
		*plain
		IdleTimeout json.RawMessage `json:"idle_timeout"`
	}{plain: (*plain)(k)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	raw := strings.TrimSpace(string(aux.IdleTimeout))
	if raw == "" || raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(aux.IdleTimeout, &s); err != nil {
			return err
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("idle_timeout: %w", err)
		}
		k.IdleTimeout = d
		return nil
	}
	var ns int64
	if err := json.Unmarshal(aux.IdleTimeout, &ns); err != nil {
		return fmt.Errorf("idle_timeout: %w", err)
	}
	k.IdleTimeout = time.Duration(ns)
	return nil
}

type DetectionConfig struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

type OutputConfig struct {
	Report  string        `json:"report" yaml:"report"`
	Graph   string        `json:"graph" yaml:"graph"`
	Console ConsoleConfig `json:"console" yaml:"console"`
}

type ConsoleConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	Format         string `json:"format" yaml:"format"`
	SparklineWidth int    `json:"sparkline_width" yaml:"sparkline_width"`
}

type StorageConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Driver  string `json:"driver" yaml:"driver"`
	DSN     string `json:"dsn" yaml:"dsn"`
}

type PublishConfig struct {
	S3 S3Config `json:"s3" yaml:"s3"`
}

type S3Config struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Bucket   string `json:"bucket" yaml:"bucket"`
	Region   string `json:"region" yaml:"region"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Prefix   string `json:"prefix" yaml:"prefix"`
	// Static keys are optional; the default AWS credential chain is used otherwise.
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	UsePathStyle    bool   `json:"use_path_style" yaml:"use_path_style"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Ingest: IngestConfig{
			Source: SourceFile,
			File:   FileConfig{Path: "sensor_data.txt"},
			Kafka:  KafkaConfig{MaxMessages: 10000, IdleTimeout: 5 * time.Second},
		},
		Detection: DetectionConfig{Threshold: 100.0},
		Output: OutputConfig{
			Report:  "anomaly_report.txt",
			Graph:   "anomaly_graph.png",
			Console: ConsoleConfig{Enabled: true, Format: "ascii", SparklineWidth: 60},
		},
		Storage: StorageConfig{Enabled: false, Driver: "sqlite", DSN: "file:sensorguard.db?_pragma=busy_timeout(5000)"},
		Publish: PublishConfig{S3: S3Config{Region: "us-east-1"}},
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()

	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return nil, errors.New("config file is empty")
	}
	var decodeErr error
	if looksLikeJSON(trimmed) {
		decodeErr = json.Unmarshal([]byte(trimmed), cfg)
	} else {
		decodeErr = yaml.Unmarshal([]byte(trimmed), cfg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode %s: %w", path, decodeErr)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if path == "" || cfg == nil {
		return errors.New("config path or config is empty")
	}
	var data []byte
	var err error
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

// ApplyDefaults fills zero values left by decoding or flag overrides.
// The threshold is never defaulted here: zero and negative thresholds are valid.
func ApplyDefaults(cfg *Config) {
	applyDefaults(cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.Ingest.Source == "" {
		cfg.Ingest.Source = SourceFile
	}
	cfg.Ingest.Source = strings.ToLower(strings.TrimSpace(cfg.Ingest.Source))
	if cfg.Ingest.Kafka.MaxMessages <= 0 {
		cfg.Ingest.Kafka.MaxMessages = 10000
	}
	if cfg.Ingest.Kafka.IdleTimeout <= 0 {
		cfg.Ingest.Kafka.IdleTimeout = 5 * time.Second
	}
	if cfg.Output.Console.Format == "" {
		cfg.Output.Console.Format = "ascii"
	}
	if cfg.Output.Console.SparklineWidth <= 0 {
		cfg.Output.Console.SparklineWidth = 60
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Publish.S3.Region == "" {
		cfg.Publish.S3.Region = "us-east-1"
	}
}

func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	switch cfg.Ingest.Source {
	case SourceFile:
		if strings.TrimSpace(cfg.Ingest.File.Path) == "" {
			return errors.New("ingest.file.path required when ingest.source is file")
		}
	case SourceKafka:
		if len(cfg.Ingest.Kafka.Brokers) == 0 || cfg.Ingest.Kafka.Topic == "" {
			return errors.New("ingest.kafka requires brokers and topic")
		}
		if cfg.Ingest.Kafka.Partition < 0 {
			return errors.New("ingest.kafka.partition must be >= 0")
		}
	default:
		return fmt.Errorf("unsupported ingest.source: %q", cfg.Ingest.Source)
	}
	if math.IsNaN(cfg.Detection.Threshold) || math.IsInf(cfg.Detection.Threshold, 0) {
		return errors.New("detection.threshold must be a finite number")
	}
	if strings.TrimSpace(cfg.Output.Report) == "" {
		return errors.New("output.report required")
	}
	switch strings.ToLower(cfg.Output.Console.Format) {
	case "ascii", "markdown":
	default:
		return fmt.Errorf("output.console.format must be ascii or markdown, got %q", cfg.Output.Console.Format)
	}
	if cfg.Storage.Enabled {
		switch strings.ToLower(cfg.Storage.Driver) {
		case "sqlite", "postgres", "postgresql":
		default:
			return fmt.Errorf("unsupported storage.driver: %q", cfg.Storage.Driver)
		}
	}
	if cfg.Publish.S3.Enabled && cfg.Publish.S3.Bucket == "" {
		return errors.New("publish.s3.bucket required when publish.s3.enabled is true")
	}
	return nil
}
