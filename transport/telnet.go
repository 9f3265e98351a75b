package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/piezosystemjena/nv200-go/lantronix"
	"github.com/piezosystemjena/nv200-go/logger"
)

// Defaults for the telnet transport.
const (
	// DefaultTelnetPort is the XPort's serial tunnel port.
	DefaultTelnetPort = lantronix.TelnetPort

	// DefaultDialTimeout bounds the TCP dial during Connect.
	DefaultDialTimeout = 3 * time.Second
)

// TelnetTransport communicates with an NV200 controller over a Telnet-style
// TCP connection through its Lantronix XPort module.
//
// The endpoint is resolved in order of preference: an explicit host, a MAC
// address looked up via the Lantronix discovery broadcast, or — when neither
// is configured — the first device found by a discovery scan.
type TelnetTransport struct {
	host string
	port int
	mac  string

	dialTimeout      time.Duration
	discoveryTimeout time.Duration
	logger           logger.Logger

	conn   net.Conn
	reader *bufio.Reader
}

var _ Transport = (*TelnetTransport)(nil)

// TelnetOption is a functional option for configuring a TelnetTransport.
type TelnetOption func(*TelnetTransport)

// WithHost sets an explicit host name or IP address, skipping discovery.
func WithHost(host string) TelnetOption {
	return func(t *TelnetTransport) { t.host = host }
}

// WithPort sets the TCP port. Defaults to DefaultTelnetPort.
func WithPort(port int) TelnetOption {
	return func(t *TelnetTransport) { t.port = port }
}

// WithMAC sets the device MAC address; Connect resolves the host through the
// Lantronix discovery broadcast when no explicit host is configured.
func WithMAC(mac string) TelnetOption {
	return func(t *TelnetTransport) { t.mac = mac }
}

// WithDialTimeout sets the TCP dial timeout.
func WithDialTimeout(d time.Duration) TelnetOption {
	return func(t *TelnetTransport) { t.dialTimeout = d }
}

// WithDiscoveryTimeout sets the reply collection window of the discovery scan
// Connect may run to resolve the endpoint.
func WithDiscoveryTimeout(d time.Duration) TelnetOption {
	return func(t *TelnetTransport) { t.discoveryTimeout = d }
}

// WithTelnetLogger sets the logger used by the transport.
func WithTelnetLogger(l logger.Logger) TelnetOption {
	return func(t *TelnetTransport) { t.logger = l }
}

// NewTelnet creates a telnet transport. Without options, Connect adopts the
// first device found by a Lantronix discovery scan.
func NewTelnet(opts ...TelnetOption) *TelnetTransport {
	t := &TelnetTransport{
		port:             DefaultTelnetPort,
		dialTimeout:      DefaultDialTimeout,
		discoveryTimeout: lantronix.DefaultTimeout,
		logger:           logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Host returns the resolved host address. It is empty until Connect resolved
// an endpoint, unless an explicit host was configured.
func (t *TelnetTransport) Host() string { return t.host }

// MAC returns the device MAC address, if configured or discovered.
func (t *TelnetTransport) MAC() string { return t.mac }

// Connect resolves the endpoint if necessary and establishes the TCP
// connection. It fails with ErrDeviceNotFound when discovery yields no device.
func (t *TelnetTransport) Connect(ctx context.Context) error {
	if err := t.resolve(ctx); err != nil {
		return err
	}

	dialer := net.Dialer{Timeout: t.dialTimeout}
	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("transport: dial %s: %w", addr, err)
	}

	t.conn = conn
	t.reader = bufio.NewReader(conn)
	t.logger.Debug("telnet transport connected", "addr", addr)

	return nil
}

func (t *TelnetTransport) resolve(ctx context.Context) error {
	if t.host != "" {
		return nil
	}

	if t.mac != "" {
		ip, err := lantronix.DiscoverByMAC(ctx, t.mac, t.discoveryTimeout)
		if err != nil {
			return fmt.Errorf("%w: MAC %s", ErrDeviceNotFound, t.mac)
		}
		t.host = ip

		return nil
	}

	devices, err := lantronix.Discover(ctx, t.discoveryTimeout)
	if err != nil {
		return fmt.Errorf("transport: discovery: %w", err)
	}
	if len(devices) == 0 {
		return ErrDeviceNotFound
	}
	t.host = devices[0].IP
	t.mac = devices[0].MAC

	return nil
}

// Write sends the given bytes. The context deadline, if any, bounds the write.
func (t *TelnetTransport) Write(ctx context.Context, p []byte) error {
	if t.conn == nil {
		return ErrNotConnected
	}

	deadline, _ := ctx.Deadline()
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	if _, err := t.conn.Write(p); err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}

	return nil
}

// ReadResponse reads one response line through the LF terminator. The context
// deadline, if any, bounds the wait.
//
// When the deadline expires mid-line, the partial data buffered so far is
// discarded so a late-arriving reply cannot corrupt the framing of the next
// command.
func (t *TelnetTransport) ReadResponse(ctx context.Context) ([]byte, error) {
	if t.conn == nil {
		return nil, ErrNotConnected
	}

	deadline, _ := ctx.Deadline()
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	line, err := t.reader.ReadBytes('\n')
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			// Drop the stale partial line; the reply belongs to a request the
			// caller has already given up on.
			_, _ = t.reader.Discard(t.reader.Buffered())
		}
		return nil, fmt.Errorf("transport: read response: %w", err)
	}

	return line, nil
}

// Close releases the TCP connection. It is idempotent.
func (t *TelnetTransport) Close() error {
	if t.conn == nil {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil
	t.reader = nil

	return err
}
