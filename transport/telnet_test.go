package transport

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startDeviceServer runs a minimal line-oriented NV200 stand-in on a loopback
// TCP listener. The handler maps each received CR-terminated command to an
// optional response line; a nil response simulates a busy device that never
// answers.
func startDeviceServer(t *testing.T, handler func(cmd string) []byte) (host string, port int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				reader := bufio.NewReader(conn)
				for {
					line, err := reader.ReadString('\r')
					if err != nil {
						return
					}
					if resp := handler(strings.TrimSuffix(line, "\r")); resp != nil {
						if _, err := conn.Write(resp); err != nil {
							return
						}
					}
				}
			}(conn)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)

	return "127.0.0.1", addr.Port
}

func TestTelnetRoundTrip(t *testing.T) {
	host, port := startDeviceServer(t, func(cmd string) []byte {
		if cmd == "cl" {
			return []byte("cl,1\r\n")
		}
		return []byte("error,2\r\n")
	})

	tr := NewTelnet(WithHost(host), WithPort(port))
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()

	require.NoError(t, tr.Write(context.Background(), []byte("cl\r")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := tr.ReadResponse(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cl,1\r\n", string(resp))
}

func TestTelnetReadTimeoutDiscardsPartialLine(t *testing.T) {
	host, port := startDeviceServer(t, func(cmd string) []byte {
		if cmd == "stall" {
			// A partial line with no terminator leaves the reader mid-frame.
			return []byte("stall,0.5")
		}
		return []byte(cmd + ",1\r\n")
	})

	tr := NewTelnet(WithHost(host), WithPort(port))
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()

	require.NoError(t, tr.Write(context.Background(), []byte("stall\r")))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := tr.ReadResponse(ctx)
	require.Error(t, err)

	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())

	// The next round trip must see its own reply, not the stale partial frame.
	require.NoError(t, tr.Write(context.Background(), []byte("cl\r")))

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()

	resp, err := tr.ReadResponse(ctx2)
	require.NoError(t, err)
	assert.Equal(t, "cl,1\r\n", string(resp))
}

func TestTelnetNotConnected(t *testing.T) {
	tr := NewTelnet(WithHost("127.0.0.1"))

	err := tr.Write(context.Background(), []byte("cl\r"))
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = tr.ReadResponse(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestTelnetCloseIdempotent(t *testing.T) {
	host, port := startDeviceServer(t, func(cmd string) []byte { return nil })

	tr := NewTelnet(WithHost(host), WithPort(port))
	require.NoError(t, tr.Connect(context.Background()))

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	// A never-connected transport closes cleanly too.
	assert.NoError(t, NewTelnet().Close())
}

func TestTelnetConnectFailure(t *testing.T) {
	// Grab a port and close the listener so the dial is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	tr := NewTelnet(WithHost("127.0.0.1"), WithPort(port), WithDialTimeout(200*time.Millisecond))
	err = tr.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
}

func TestTelnetProbeAgainstServer(t *testing.T) {
	host, port := startDeviceServer(t, func(cmd string) []byte {
		if cmd == "" {
			return []byte("NV200/D_NET\r\n")
		}
		return []byte("error,2\r\n")
	})

	tr := NewTelnet(WithHost(host), WithPort(port))
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.True(t, Probe(ctx, tr))
}
