// Package sink defines where decoded records go and the registry of output
// formats.
package sink

import (
	"fmt"
	"sort"
	"sync"

	"firestige.xyz/sniff/internal/config"
	"firestige.xyz/sniff/internal/core"
)

// Sink renders or forwards records. Send must not retain rec.
type Sink interface {
	Send(rec *core.Record) error
	Close() error
}

// Factory builds a sink from the output configuration.
type Factory func(cfg config.OutputConfig) (Sink, error)

var (
	mu       sync.RWMutex
	registry = make(map[string]Factory)
)

// Register makes a sink available for output.format=name.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = f
}

// Names lists registered output formats, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the sink selected by cfg.Format.
func New(cfg config.OutputConfig) (Sink, error) {
	mu.RLock()
	f, ok := registry[cfg.Format]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", core.ErrUnknownSink, cfg.Format, Names())
	}

	s, err := f(cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s sink: %w", cfg.Format, err)
	}
	return s, nil
}
