package transport

import (
	"bytes"
	"context"
	"errors"
)

// DeviceIDPrefix is the identity prefix every NV200 controller reports.
// A probe succeeds when the response to an empty command starts with it.
const DeviceIDPrefix = "NV200"

// Sentinel errors for the transport layer.
var (
	// ErrNotConnected indicates an I/O operation on a transport that has not
	// been connected, or has already been closed.
	ErrNotConnected = errors.New("transport: not connected")

	// ErrDeviceNotFound indicates that no NV200 device could be resolved
	// during connect (serial auto-detection or network discovery).
	ErrDeviceNotFound = errors.New("transport: NV200 device not found")
)

// Kind identifies the physical link type of a transport.
type Kind int

const (
	// KindSerial is a local RS-232/USB serial link.
	KindSerial Kind = iota
	// KindTelnet is a Telnet-style TCP link through a Lantronix XPort.
	KindTelnet
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindSerial:
		return "serial"
	case KindTelnet:
		return "telnet"
	default:
		return "unknown"
	}
}

// Transport is the capability set shared by all NV200 link types.
//
// A Transport holds at most one pending request at a time and is exclusively
// owned by one command client; it performs no request serialization of its own.
type Transport interface {
	// Connect establishes the link. For a telnet transport this may first
	// resolve the endpoint via network discovery; for a serial transport it
	// may auto-select a port.
	Connect(ctx context.Context) error

	// Write sends exactly the given bytes. It does not wait for a response.
	Write(ctx context.Context, p []byte) error

	// ReadResponse blocks until one full response line (through the link's
	// terminator) is available, or the context deadline expires. It has no
	// timeout of its own; callers bound the wait through ctx.
	ReadResponse(ctx context.Context) ([]byte, error)

	// Close releases the link. It is idempotent and safe to call on a
	// never-connected transport.
	Close() error
}

// ctlPrefixCutset covers framing noise that may precede the identity token in
// a probe response.
const ctlPrefixCutset = "\x11\x13\x00\r\n"

// Probe tests whether the device at the far end of t identifies itself as an
// NV200 controller. It writes an empty command line and checks that the reply
// starts with DeviceIDPrefix. The transport must already be connected.
//
// Probe is shared by all transport kinds; it is used by discovery scans and by
// serial port auto-detection.
func Probe(ctx context.Context, t Transport) bool {
	if err := t.Write(ctx, []byte{'\r'}); err != nil {
		return false
	}

	resp, err := t.ReadResponse(ctx)
	if err != nil {
		return false
	}

	resp = bytes.TrimLeft(resp, ctlPrefixCutset)

	return bytes.HasPrefix(resp, []byte(DeviceIDPrefix))
}
