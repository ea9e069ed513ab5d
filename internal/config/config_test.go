package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/sniff/internal/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sniff.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "afpacket", cfg.Capture.Source)
	assert.Equal(t, 65536, cfg.Capture.SnapLen)
	assert.Equal(t, 8, cfg.Capture.BufferSizeMB)
	assert.Equal(t, 100*time.Millisecond, cfg.Capture.Timeout())
	assert.True(t, cfg.Capture.Promiscuous)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, 100*time.Millisecond, cfg.Output.Kafka.BatchTimeout)
	assert.Equal(t, 100, cfg.Output.Kafka.BatchSize)
	assert.Equal(t, "snappy", cfg.Output.Kafka.Compression)
	assert.Equal(t, 3, cfg.Output.Kafka.MaxAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Log.File.Enabled)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9091", cfg.Metrics.Listen)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
capture:
  source: pcap
  snap_len: 1600
  promiscuous: false
output:
  format: kafka
  kafka:
    brokers:
      - "localhost:9092"
    topic: frames
    batch_timeout: 1s
    compression: LZ4
log:
  level: debug
  format: json
metrics:
  enabled: true
  listen: "127.0.0.1:9100"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "pcap", cfg.Capture.Source)
	assert.Equal(t, 1600, cfg.Capture.SnapLen)
	assert.False(t, cfg.Capture.Promiscuous)
	assert.Equal(t, "kafka", cfg.Output.Format)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Output.Kafka.Brokers)
	assert.Equal(t, "frames", cfg.Output.Kafka.Topic)
	assert.Equal(t, time.Second, cfg.Output.Kafka.BatchTimeout)
	assert.Equal(t, "lz4", cfg.Output.Kafka.Compression)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Listen)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SNIFF_LOG_LEVEL", "warn")
	t.Setenv("SNIFF_CAPTURE_SOURCE", "SOCKET")
	t.Setenv("SNIFF_OUTPUT_FORMAT", "json")

	path := writeConfig(t, "log:\n  level: debug\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "socket", cfg.Capture.Source)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown source", "capture:\n  source: netmap\n"},
		{"zero snap len", "capture:\n  snap_len: 0\n"},
		{"unknown format", "output:\n  format: xml\n"},
		{"kafka without brokers", "output:\n  format: kafka\n  kafka:\n    topic: t\n"},
		{"kafka without topic", "output:\n  format: kafka\n  kafka:\n    brokers: [\"b:9092\"]\n"},
		{"kafka unknown compression", "output:\n  format: kafka\n  kafka:\n    brokers: [\"b:9092\"]\n    topic: t\n    compression: brotli\n"},
		{"invalid log level", "log:\n  level: invalid\n"},
		{"invalid log format", "log:\n  format: xml\n"},
		{"file log without path", "log:\n  file:\n    enabled: true\n    path: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrConfigInvalid), "got %v", err)
		})
	}
}

func TestValidateAppliesRuntimeDefaults(t *testing.T) {
	cfg := Config{
		Capture: CaptureConfig{Source: "AFPACKET", SnapLen: 1500, BufferSizeMB: 1},
		Output:  OutputConfig{Format: "Text"},
		Log:     LogConfig{Level: "INFO", Format: "text"},
	}

	require.NoError(t, cfg.ValidateAndApplyDefaults())
	assert.Equal(t, "afpacket", cfg.Capture.Source)
	assert.Equal(t, 100, cfg.Capture.TimeoutMs)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}
