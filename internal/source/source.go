// Package source defines the capture source contract and the backend registry.
package source

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"firestige.xyz/sniff/internal/config"
	"firestige.xyz/sniff/internal/core"
)

// Source yields raw frames from one interface.
//
// ReadPacket blocks until a frame arrives, ctx is done or the source fails.
// Poll timeouts are absorbed by the backend; any error returned is final.
// The returned Data is only valid until the next ReadPacket call.
type Source interface {
	ReadPacket(ctx context.Context) (core.RawPacket, error)
	Close() error
}

// Factory opens a backend on the given interface.
type Factory func(cfg config.CaptureConfig, id core.InterfaceID) (Source, error)

var (
	mu       sync.RWMutex
	registry = make(map[string]Factory)
)

// Register makes a backend available under name. Backends call it from init.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = f
}

// Names lists registered backends, sorted.
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

// Open opens the backend selected by cfg.Source on the interface id.
func Open(cfg config.CaptureConfig, id core.InterfaceID) (Source, error) {
	mu.RLock()
	f, ok := registry[cfg.Source]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", core.ErrUnknownSource, cfg.Source, Names())
	}

	src, err := f(cfg, id)
	if err != nil {
		return nil, fmt.Errorf("open %s source on %s: %w", cfg.Source, id.Name, err)
	}
	return src, nil
}
