package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "serial", KindSerial.String())
	assert.Equal(t, "telnet", KindTelnet.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestProbeMatchesDeviceID(t *testing.T) {
	mock := NewMockTransport(func(frame []byte) []byte {
		return []byte("NV200/D_NET\r\n")
	})
	require.NoError(t, mock.Connect(context.Background()))

	assert.True(t, Probe(context.Background(), mock))
	assert.Equal(t, []string{""}, mock.Commands())
}

func TestProbeStripsFramingNoise(t *testing.T) {
	mock := NewMockTransport(func(frame []byte) []byte {
		return []byte("\x00\x11NV200/D_NET\r\n")
	})
	require.NoError(t, mock.Connect(context.Background()))

	assert.True(t, Probe(context.Background(), mock))
}

func TestProbeRejectsForeignDevice(t *testing.T) {
	mock := NewMockTransport(func(frame []byte) []byte {
		return []byte("SPM2000\r\n")
	})
	require.NoError(t, mock.Connect(context.Background()))

	assert.False(t, Probe(context.Background(), mock))
}

func TestProbeFailsOnSilentDevice(t *testing.T) {
	mock := NewMockTransport(nil)
	require.NoError(t, mock.Connect(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.False(t, Probe(ctx, mock))
}

func TestProbeFailsWhenNotConnected(t *testing.T) {
	mock := NewMockTransport(nil)
	assert.False(t, Probe(context.Background(), mock))
}

func TestMockTransportWriteRequiresConnect(t *testing.T) {
	mock := NewMockTransport(nil)
	err := mock.Write(context.Background(), []byte("cl\r"))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestMockTransportQueuesResponses(t *testing.T) {
	mock := NewMockTransport(func(frame []byte) []byte {
		return []byte("cl,1\r\n")
	})
	require.NoError(t, mock.Connect(context.Background()))
	require.NoError(t, mock.Write(context.Background(), []byte("cl\r")))

	resp, err := mock.ReadResponse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("cl,1\r\n"), resp)
}
