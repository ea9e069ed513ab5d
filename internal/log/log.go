// Package log provides the process-wide logrus logger.
package log

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"firestige.xyz/sniff/internal/config"
)

type Logger interface {
	Print(args ...interface{})
	Printf(format string, args ...interface{})

	Trace(args ...interface{})
	Tracef(format string, args ...interface{})

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	Panic(args ...interface{})
	Panicf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	IsTraceEnabled() bool
	IsDebugEnabled() bool
	IsInfoEnabled() bool
}

var (
	mu     sync.RWMutex
	logger Logger = newDefault()
)

// newDefault logs text at info level to stderr until Init runs.
func newDefault() Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	return &logrusAdapter{entry: logrus.NewEntry(l)}
}

func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Init replaces the global logger according to cfg. Logs always go to
// stderr; stdout belongs to the frame output.
func Init(cfg config.LogConfig) error {
	l, err := build(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

func build(cfg config.LogConfig) (*logrusAdapter, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	l := logrus.New()
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unsupported log format: %s (must be json or text)", cfg.Format)
	}

	out := NewMultiWriter().Add(os.Stderr)
	if cfg.File.Enabled {
		if cfg.File.Path == "" {
			return nil, fmt.Errorf("file output requires 'path' field")
		}
		out.AddFileAppender(FileAppenderOpt{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		})
	}
	l.SetOutput(out)

	return &logrusAdapter{entry: logrus.NewEntry(l)}, nil
}
