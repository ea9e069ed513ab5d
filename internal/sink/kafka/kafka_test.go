package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/sniff/internal/config"
	"firestige.xyz/sniff/internal/core"
	"firestige.xyz/sniff/internal/metrics"
	"firestige.xyz/sniff/internal/sink"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func validConfig() config.KafkaConfig {
	return config.KafkaConfig{
		Brokers:      []string{"localhost:9092"},
		Topic:        "frames",
		BatchSize:    100,
		BatchTimeout: 100 * time.Millisecond,
		Compression:  "snappy",
		MaxAttempts:  3,
	}
}

func udpRecord() *core.Record {
	return &core.Record{
		Interface:  core.InterfaceID{Name: "eth0"},
		Timestamp:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		CaptureLen: 60,
		Outcome: &core.Ethernet{
			EtherType: layers.EthernetTypeIPv4,
			Next: &core.IPv4{
				Src: netip.MustParseAddr("10.0.0.1"), Dst: netip.MustParseAddr("10.0.0.2"),
				Protocol: layers.IPProtocolUDP,
				Next:     &core.UDP{SrcPort: 53, DstPort: 4000, Length: 40},
			},
		},
	}
}

func TestNewSink(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.KafkaConfig)
		wantErr bool
	}{
		{"valid", func(*config.KafkaConfig) {}, false},
		{"no compression", func(c *config.KafkaConfig) { c.Compression = "none" }, false},
		{"missing brokers", func(c *config.KafkaConfig) { c.Brokers = nil }, true},
		{"missing topic", func(c *config.KafkaConfig) { c.Topic = "" }, true},
		{"invalid compression", func(c *config.KafkaConfig) { c.Compression = "brotli" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			s, err := NewSink(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			w, ok := s.writer.(*kafka.Writer)
			require.True(t, ok)
			assert.Equal(t, "frames", w.Topic)
			assert.True(t, w.Async)
		})
	}
}

func TestCompression(t *testing.T) {
	c, err := compression("gzip")
	require.NoError(t, err)
	assert.Equal(t, compress.Gzip, c)

	c, err = compression("")
	require.NoError(t, err)
	assert.Equal(t, compress.Compression(0), c)
}

func TestSend(t *testing.T) {
	w := &fakeWriter{}
	s := &Sink{writer: w, config: validConfig()}

	require.NoError(t, s.Send(udpRecord()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "10.0.0.1:53-10.0.0.2:4000", string(msg.Key))
	assert.Equal(t, udpRecord().Timestamp, msg.Time)
	assert.Contains(t, msg.Headers, kafka.Header{Key: "layer", Value: []byte("udp")})
	assert.Contains(t, msg.Headers, kafka.Header{Key: "status", Value: []byte("decoded")})

	var sum sink.Summary
	require.NoError(t, json.Unmarshal(msg.Value, &sum))
	assert.Equal(t, "UDP", sum.Protocol)
	assert.Equal(t, uint16(4000), sum.DstPort)

	require.NoError(t, s.Close())
	assert.True(t, w.closed)
}

func TestSendKeyFallsBackToMAC(t *testing.T) {
	w := &fakeWriter{}
	s := &Sink{writer: w}

	rec := &core.Record{
		Interface: core.InterfaceID{Name: "eth0"},
		Outcome:   &core.Unclassified{At: core.LayerFrame, Selector: 0x86dd, Src: "aa:aa:aa:aa:aa:aa", Dst: "bb:bb:bb:bb:bb:bb"},
	}
	require.NoError(t, s.Send(rec))
	assert.Equal(t, "aa:aa:aa:aa:aa:aa-bb:bb:bb:bb:bb:bb", string(w.msgs[0].Key))

	rec.Outcome = &core.Malformed{At: core.LayerFrame}
	require.NoError(t, s.Send(rec))
	assert.Equal(t, "eth0", string(w.msgs[1].Key))
}

func TestSendWriteError(t *testing.T) {
	s := &Sink{writer: &fakeWriter{err: errors.New("leader not available")}}

	err := s.Send(udpRecord())
	assert.ErrorContains(t, err, "leader not available")
	assert.Equal(t, uint64(1), s.errorCount.Load())
	assert.Error(t, s.Send(nil))
}

func TestCompletion(t *testing.T) {
	s := &Sink{writer: &fakeWriter{}}
	before := testutil.ToFloat64(metrics.SinkErrorsTotal.WithLabelValues(Name))

	s.complete(make([]kafka.Message, 3), nil)
	s.complete(make([]kafka.Message, 2), errors.New("timeout"))

	assert.Equal(t, uint64(3), s.reportedCount.Load())
	assert.Equal(t, uint64(2), s.errorCount.Load())
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.SinkErrorsTotal.WithLabelValues(Name)))
}
