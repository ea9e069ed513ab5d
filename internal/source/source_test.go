package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/sniff/internal/config"
	"firestige.xyz/sniff/internal/core"
)

type stubSource struct {
	id core.InterfaceID
}

func (s *stubSource) ReadPacket(ctx context.Context) (core.RawPacket, error) {
	return core.RawPacket{InterfaceIndex: s.id.Index}, nil
}

func (s *stubSource) Close() error { return nil }

func TestOpenRegistered(t *testing.T) {
	Register("stub", func(cfg config.CaptureConfig, id core.InterfaceID) (Source, error) {
		return &stubSource{id: id}, nil
	})

	src, err := Open(config.CaptureConfig{Source: "stub"}, core.InterfaceID{Name: "eth0", Index: 3})
	require.NoError(t, err)
	defer src.Close()

	raw, err := src.ReadPacket(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, raw.InterfaceIndex)
	assert.Contains(t, Names(), "stub")
}

func TestOpenUnknown(t *testing.T) {
	_, err := Open(config.CaptureConfig{Source: "carrier-pigeon"}, core.InterfaceID{Name: "eth0"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnknownSource)
}

func TestOpenFactoryError(t *testing.T) {
	boom := errors.New("permission denied")
	Register("failing", func(cfg config.CaptureConfig, id core.InterfaceID) (Source, error) {
		return nil, boom
	})

	_, err := Open(config.CaptureConfig{Source: "failing"}, core.InterfaceID{Name: "eth0"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "open failing source on eth0")
}
