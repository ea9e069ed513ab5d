// Package config handles configuration loading using viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"firestige.xyz/sniff/internal/core"
)

// EnvPrefix is the prefix of environment overrides, e.g. SNIFF_LOG_LEVEL.
const EnvPrefix = "SNIFF"

// Config represents the sniffer configuration.
// Every key can be set in sniff.yaml or through SNIFF_* environment variables.
type Config struct {
	Capture CaptureConfig `mapstructure:"capture"`
	Output  OutputConfig  `mapstructure:"output"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ─── Capture ───

// CaptureConfig selects and tunes the capture source.
type CaptureConfig struct {
	Source       string `mapstructure:"source"`         // afpacket | pcap | socket
	SnapLen      int    `mapstructure:"snap_len"`       // Max bytes captured per frame
	BufferSizeMB int    `mapstructure:"buffer_size_mb"` // afpacket ring / pcap buffer size
	TimeoutMs    int    `mapstructure:"timeout_ms"`     // Poll timeout between context checks
	Promiscuous  bool   `mapstructure:"promiscuous"`
}

// Timeout returns the poll timeout as a duration.
func (c CaptureConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// ─── Output ───

// OutputConfig selects the sink records are rendered to.
type OutputConfig struct {
	Format string      `mapstructure:"format"` // text | json | kafka
	Kafka  KafkaConfig `mapstructure:"kafka"`
}

// KafkaConfig configures the kafka sink.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	Compression  string        `mapstructure:"compression"` // none | gzip | snappy | lz4
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string           `mapstructure:"level"`  // trace / debug / info / warn / error
	Format string           `mapstructure:"format"` // text / json
	File   FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures rotating file log output.
type FileOutputConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// ─── Loading ───

// Load loads configuration. An empty path searches sniff.yaml in /etc/sniff
// and the working directory; a missing file there is not an error, while a
// missing explicit path is.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sniff")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/sniff")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// key "log.level" -> env "SNIFF_LOG_LEVEL"
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration.
func setDefaults(v *viper.Viper) {
	// Capture defaults
	v.SetDefault("capture.source", "afpacket")
	v.SetDefault("capture.snap_len", 65536)
	v.SetDefault("capture.buffer_size_mb", 8)
	v.SetDefault("capture.timeout_ms", 100)
	v.SetDefault("capture.promiscuous", true)

	// Output defaults
	v.SetDefault("output.format", "text")
	v.SetDefault("output.kafka.brokers", []string{})
	v.SetDefault("output.kafka.topic", "")
	v.SetDefault("output.kafka.batch_size", 100)
	v.SetDefault("output.kafka.batch_timeout", "100ms")
	v.SetDefault("output.kafka.compression", "snappy")
	v.SetDefault("output.kafka.max_attempts", 3)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file.enabled", false)
	v.SetDefault("log.file.path", "/var/log/sniff/sniff.log")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.max_age_days", 30)
	v.SetDefault("log.file.compress", true)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", ":9091")
	v.SetDefault("metrics.path", "/metrics")
}

// ValidateAndApplyDefaults validates configuration and fills runtime defaults.
func (cfg *Config) ValidateAndApplyDefaults() error {
	cfg.Capture.Source = strings.ToLower(cfg.Capture.Source)
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	cfg.Output.Kafka.Compression = strings.ToLower(cfg.Output.Kafka.Compression)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	// ── Capture ──
	switch cfg.Capture.Source {
	case "afpacket", "pcap", "socket":
	default:
		return fmt.Errorf("%w: capture.source %q (must be afpacket/pcap/socket)", core.ErrConfigInvalid, cfg.Capture.Source)
	}
	if cfg.Capture.SnapLen <= 0 {
		return fmt.Errorf("%w: capture.snap_len must be positive, got %d", core.ErrConfigInvalid, cfg.Capture.SnapLen)
	}
	if cfg.Capture.BufferSizeMB <= 0 {
		return fmt.Errorf("%w: capture.buffer_size_mb must be positive, got %d", core.ErrConfigInvalid, cfg.Capture.BufferSizeMB)
	}
	if cfg.Capture.TimeoutMs <= 0 {
		cfg.Capture.TimeoutMs = 100
	}

	// ── Output ──
	switch cfg.Output.Format {
	case "text", "json":
	case "kafka":
		if len(cfg.Output.Kafka.Brokers) == 0 {
			return fmt.Errorf("%w: output.kafka.brokers is required when output.format=kafka", core.ErrConfigInvalid)
		}
		if cfg.Output.Kafka.Topic == "" {
			return fmt.Errorf("%w: output.kafka.topic is required when output.format=kafka", core.ErrConfigInvalid)
		}
		switch cfg.Output.Kafka.Compression {
		case "", "none", "gzip", "snappy", "lz4":
		default:
			return fmt.Errorf("%w: output.kafka.compression %q (must be none/gzip/snappy/lz4)", core.ErrConfigInvalid, cfg.Output.Kafka.Compression)
		}
		if cfg.Output.Kafka.BatchSize <= 0 {
			cfg.Output.Kafka.BatchSize = 100
		}
		if cfg.Output.Kafka.BatchTimeout <= 0 {
			cfg.Output.Kafka.BatchTimeout = 100 * time.Millisecond
		}
		if cfg.Output.Kafka.MaxAttempts <= 0 {
			cfg.Output.Kafka.MaxAttempts = 3
		}
	default:
		return fmt.Errorf("%w: output.format %q (must be text/json/kafka)", core.ErrConfigInvalid, cfg.Output.Format)
	}

	// ── Log ──
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("%w: log level %s (must be trace/debug/info/warn/error)", core.ErrConfigInvalid, cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("%w: log format %s (must be json/text)", core.ErrConfigInvalid, cfg.Log.Format)
	}
	if cfg.Log.File.Enabled && cfg.Log.File.Path == "" {
		return fmt.Errorf("%w: log.file.path is required when log.file.enabled=true", core.ErrConfigInvalid)
	}

	// ── Metrics ──
	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		return fmt.Errorf("%w: metrics.listen is required when metrics.enabled=true", core.ErrConfigInvalid)
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	return nil
}
