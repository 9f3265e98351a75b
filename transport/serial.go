package transport

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/piezosystemjena/nv200-go/logger"
)

// Defaults for the serial transport.
const (
	// DefaultBaudRate is the NV200's serial line rate.
	DefaultBaudRate = 115200

	// DefaultProbeTimeout bounds one identity probe during port auto-detection.
	DefaultProbeTimeout = 400 * time.Millisecond

	// ftdiVendorID is the USB vendor ID of FTDI, the manufacturer of the
	// NV200's USB-serial adapter. Port auto-detection only considers adapters
	// with this vendor ID.
	ftdiVendorID = "0403"

	// serialPollInterval is the granularity at which a blocking read checks
	// for context cancellation.
	serialPollInterval = 20 * time.Millisecond
)

// SerialTransport communicates with an NV200 controller over a local
// RS-232/USB serial link.
//
// When no port is configured, Connect enumerates the local FTDI adapters and
// adopts the first one whose identity probe succeeds.
type SerialTransport struct {
	port     string
	baudRate int

	probeTimeout time.Duration
	logger       logger.Logger

	sp serial.Port
}

var _ Transport = (*SerialTransport)(nil)

// SerialOption is a functional option for configuring a SerialTransport.
type SerialOption func(*SerialTransport)

// WithSerialPort sets an explicit port name (e.g. "COM3", "/dev/ttyUSB0"),
// skipping auto-detection.
func WithSerialPort(port string) SerialOption {
	return func(t *SerialTransport) { t.port = port }
}

// WithBaudRate sets the serial line rate. Defaults to DefaultBaudRate.
func WithBaudRate(baud int) SerialOption {
	return func(t *SerialTransport) { t.baudRate = baud }
}

// WithProbeTimeout sets the identity probe timeout used during auto-detection.
func WithProbeTimeout(d time.Duration) SerialOption {
	return func(t *SerialTransport) { t.probeTimeout = d }
}

// WithSerialLogger sets the logger used by the transport.
func WithSerialLogger(l logger.Logger) SerialOption {
	return func(t *SerialTransport) { t.logger = l }
}

// NewSerial creates a serial transport. Without options, Connect auto-detects
// the device port among the local FTDI adapters.
func NewSerial(opts ...SerialOption) *SerialTransport {
	t := &SerialTransport{
		baudRate:     DefaultBaudRate,
		probeTimeout: DefaultProbeTimeout,
		logger:       logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Port returns the serial port the device is connected to. It is empty until
// Connect adopted a port, unless an explicit port was configured.
func (t *SerialTransport) Port() string { return t.port }

// CandidatePorts enumerates the local serial adapters carrying the FTDI vendor
// signature, in platform enumeration order.
func CandidatePorts() ([]string, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("transport: enumerate serial ports: %w", err)
	}

	var ports []string
	for _, d := range details {
		if d.IsUSB && d.VID == ftdiVendorID {
			ports = append(ports, d.Name)
		}
	}

	return ports, nil
}

// Connect opens the configured serial port, or auto-detects one when no port
// was configured. It fails with ErrDeviceNotFound when no candidate resolves.
func (t *SerialTransport) Connect(ctx context.Context) error {
	if t.port != "" {
		return t.open(t.port)
	}

	ports, err := CandidatePorts()
	if err != nil {
		return err
	}

	for _, port := range ports {
		if err := t.open(port); err != nil {
			t.logger.Debug("serial candidate open failed", "port", port, "error", err)
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, t.probeTimeout)
		ok := Probe(probeCtx, t)
		cancel()

		if ok {
			t.port = port
			t.logger.Debug("serial transport detected device", "port", port)
			return nil
		}

		_ = t.Close()
	}

	return ErrDeviceNotFound
}

func (t *SerialTransport) open(port string) error {
	sp, err := serial.Open(port, &serial.Mode{BaudRate: t.baudRate})
	if err != nil {
		return fmt.Errorf("transport: open %s: %w", port, err)
	}
	t.sp = sp

	return nil
}

// Write discards any pending input, then sends the given bytes. Discarding
// first guarantees that a stale, late-arriving reply from a timed-out request
// cannot corrupt the framing of this command's response.
func (t *SerialTransport) Write(ctx context.Context, p []byte) error {
	if t.sp == nil {
		return ErrNotConnected
	}

	if err := t.sp.ResetInputBuffer(); err != nil {
		return fmt.Errorf("transport: flush input: %w", err)
	}

	if _, err := t.sp.Write(p); err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}

	return nil
}

// ReadResponse reads one response through the XON terminator the device emits
// after every reply on the serial link. The context deadline, if any, bounds
// the wait; data read before an expired deadline is dropped.
func (t *SerialTransport) ReadResponse(ctx context.Context) ([]byte, error) {
	if t.sp == nil {
		return nil, ErrNotConnected
	}

	if err := t.sp.SetReadTimeout(serialPollInterval); err != nil {
		return nil, err
	}

	var line []byte
	buf := make([]byte, 64)
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("transport: read response: %w", err)
		}

		n, err := t.sp.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("transport: read response: %w", err)
		}

		for i := 0; i < n; i++ {
			line = append(line, buf[i])
			if buf[i] == 0x11 { // XON terminates the response
				return line, nil
			}
		}
	}
}

// Close releases the serial port. It is idempotent.
func (t *SerialTransport) Close() error {
	if t.sp == nil {
		return nil
	}

	err := t.sp.Close()
	t.sp = nil

	return err
}
