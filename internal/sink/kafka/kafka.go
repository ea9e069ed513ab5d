// Package kafka publishes JSON summaries to a Kafka topic.
// Writes are asynchronous and batched; delivery failures are reported
// through the writer's completion callback.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"

	"firestige.xyz/sniff/internal/config"
	"firestige.xyz/sniff/internal/core"
	"firestige.xyz/sniff/internal/log"
	"firestige.xyz/sniff/internal/metrics"
	"firestige.xyz/sniff/internal/sink"
)

// Name is the output.format value selecting this sink.
const Name = "kafka"

func init() {
	sink.Register(Name, func(cfg config.OutputConfig) (sink.Sink, error) {
		return NewSink(cfg.Kafka)
	})
}

// messageWriter is the part of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink sends each record as a JSON message.
type Sink struct {
	writer messageWriter
	config config.KafkaConfig

	// Statistics
	reportedCount atomic.Uint64
	errorCount    atomic.Uint64
}

// NewSink creates a Kafka sink. No connection is made until the first write.
func NewSink(cfg config.KafkaConfig) (*Sink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	codec, err := compression(cfg.Compression)
	if err != nil {
		return nil, err
	}

	s := &Sink{config: cfg}
	s.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // same flow, same partition
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		MaxAttempts:  cfg.MaxAttempts,
		Compression:  codec,
		Async:        true,
		Completion:   s.complete,
	}

	log.GetLogger().WithFields(map[string]interface{}{
		"brokers":       cfg.Brokers,
		"topic":         cfg.Topic,
		"batch_size":    cfg.BatchSize,
		"batch_timeout": cfg.BatchTimeout.String(),
		"compression":   cfg.Compression,
	}).Info("kafka sink created")

	return s, nil
}

func compression(name string) (compress.Compression, error) {
	switch name {
	case "none", "":
		return 0, nil
	case "gzip":
		return compress.Gzip, nil
	case "snappy":
		return compress.Snappy, nil
	case "lz4":
		return compress.Lz4, nil
	default:
		return 0, fmt.Errorf("invalid compression type: %s", name)
	}
}

// Send queues rec for delivery.
func (s *Sink) Send(rec *core.Record) error {
	if rec == nil {
		return fmt.Errorf("nil record")
	}

	msg, err := message(sink.Summarize(rec))
	if err != nil {
		s.errorCount.Add(1)
		return err
	}

	if err := s.writer.WriteMessages(context.Background(), msg); err != nil {
		s.errorCount.Add(1)
		return fmt.Errorf("kafka write failed: %w", err)
	}
	return nil
}

// complete runs once per delivered or failed batch.
func (s *Sink) complete(msgs []kafka.Message, err error) {
	if err != nil {
		s.errorCount.Add(uint64(len(msgs)))
		metrics.SinkErrorsTotal.WithLabelValues(Name).Add(float64(len(msgs)))
		log.GetLogger().WithError(err).WithField("messages", len(msgs)).Warn("kafka delivery failed")
		return
	}
	s.reportedCount.Add(uint64(len(msgs)))
}

// Close flushes pending batches and closes the writer.
func (s *Sink) Close() error {
	err := s.writer.Close()
	if err != nil {
		log.GetLogger().WithError(err).Error("error closing kafka writer")
	}

	log.GetLogger().WithFields(map[string]interface{}{
		"total_reported": s.reportedCount.Load(),
		"total_errors":   s.errorCount.Load(),
	}).Info("kafka sink stopped")
	return err
}

// message builds the Kafka message for one summary. Frames of the same
// address pair share a key.
func message(sum sink.Summary) (kafka.Message, error) {
	value, err := json.Marshal(sum)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("serialize summary failed: %w", err)
	}

	key := sum.Interface
	switch {
	case sum.SrcIP != "":
		key = fmt.Sprintf("%s:%d-%s:%d", sum.SrcIP, sum.SrcPort, sum.DstIP, sum.DstPort)
	case sum.SrcMAC != "":
		key = sum.SrcMAC + "-" + sum.DstMAC
	}

	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  sum.Timestamp,
		Headers: []kafka.Header{
			{Key: "interface", Value: []byte(sum.Interface)},
			{Key: "layer", Value: []byte(sum.Layer)},
			{Key: "status", Value: []byte(sum.Status.String())},
		},
	}, nil
}
