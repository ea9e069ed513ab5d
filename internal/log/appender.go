package log

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// MultiWriter fans a log line out to every appender. A failing appender does
// not stop the others; the last error is reported.
type MultiWriter struct {
	writers []io.Writer
}

func NewMultiWriter() *MultiWriter {
	return &MultiWriter{writers: make([]io.Writer, 0, 2)}
}

func (m *MultiWriter) Write(p []byte) (n int, err error) {
	for _, w := range m.writers {
		if _, e := w.Write(p); e != nil {
			err = e
		}
	}
	return len(p), err
}

func (m *MultiWriter) Add(writer io.Writer) *MultiWriter {
	m.writers = append(m.writers, writer)
	return m
}

// FileAppenderOpt configures a size-rotated log file.
type FileAppenderOpt struct {
	Filename   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

func (m *MultiWriter) AddFileAppender(options FileAppenderOpt) *MultiWriter {
	return m.Add(&lumberjack.Logger{
		Filename:   options.Filename,
		MaxSize:    options.MaxSize,
		MaxBackups: options.MaxBackups,
		MaxAge:     options.MaxAge,
		Compress:   options.Compress,
	})
}
