package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"sensorguard/internal/config"
	"sensorguard/internal/model"
)

// MessageReader is the subset of *kafka.Reader the source needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaSource drains one topic partition from the first offset until
// MaxMessages have been read or the partition stays idle for IdleTimeout.
type KafkaSource struct {
	cfg       config.KafkaConfig
	logger    *slog.Logger
	newReader func(config.KafkaConfig) MessageReader
}

func NewKafkaSource(cfg config.KafkaConfig, logger *slog.Logger) *KafkaSource {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 5 * time.Second
	}
	return &KafkaSource{cfg: cfg, logger: logger, newReader: newKafkaReader}
}

func newKafkaReader(cfg config.KafkaConfig) MessageReader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		Partition:   cfg.Partition,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
}

func (s *KafkaSource) Name() string {
	broker := ""
	if len(s.cfg.Brokers) > 0 {
		broker = s.cfg.Brokers[0]
	}
	return fmt.Sprintf("kafka://%s/%s/%d", broker, s.cfg.Topic, s.cfg.Partition)
}

func (s *KafkaSource) Load(ctx context.Context) (model.Dataset, error) {
	name := s.Name()
	if s.logger != nil {
		s.logger.Info("kafka ingest enabled", "brokers", s.cfg.Brokers, "topic", s.cfg.Topic, "partition", s.cfg.Partition)
	}
	reader := s.newReader(s.cfg)
	defer reader.Close()

	c := newCollector(name, s.logger)
	read := 0
	for s.cfg.MaxMessages <= 0 || read < s.cfg.MaxMessages {
		readCtx, cancel := context.WithTimeout(ctx, s.cfg.IdleTimeout)
		m, err := reader.ReadMessage(readCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return c.dataset, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				if s.logger != nil {
					s.logger.Debug("kafka partition idle", "source", name, "messages", read)
				}
				break
			}
			return c.dataset, fmt.Errorf("kafka read %s: %w", name, err)
		}
		read++
		for _, line := range strings.Split(string(m.Value), "\n") {
			c.add(line)
		}
	}
	return c.finish(), nil
}
